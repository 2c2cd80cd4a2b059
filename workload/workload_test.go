package workload

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightning-book/domain"
)

func testConfig() Config {
	return Config{
		Seed:        7,
		BasePrice:   1000,
		PriceRange:  20,
		MaxQuantity: 50,
		CancelRatio: 0.2,
		AmendRatio:  0.2,
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	a := NewGenerator(testConfig())
	b := NewGenerator(testConfig())

	for i := 0; i < 500; i++ {
		require.Equal(t, a.Next(), b.Next(), "command %d", i)
	}
}

func TestGeneratorRanges(t *testing.T) {
	g := NewGenerator(testConfig())
	issued := make(map[uint64]bool)
	kinds := make(map[Kind]int)

	for i := 0; i < 5000; i++ {
		cmd := g.Next()
		kinds[cmd.Kind]++
		switch cmd.Kind {
		case KindAdd:
			assert.False(t, issued[cmd.Order.ID], "id %d issued twice", cmd.Order.ID)
			issued[cmd.Order.ID] = true
			assert.NoError(t, cmd.Order.Validate())
			assert.GreaterOrEqual(t, cmd.Order.Price, int64(990))
			assert.Less(t, cmd.Order.Price, int64(1010))
			assert.LessOrEqual(t, cmd.Order.Quantity, int64(50))
		case KindChangePrice:
			assert.True(t, issued[cmd.OrderID])
			assert.GreaterOrEqual(t, cmd.Price, int64(990))
		case KindChangeQuantity:
			assert.True(t, issued[cmd.OrderID])
			assert.Positive(t, cmd.Quantity)
		case KindCancel:
			assert.True(t, issued[cmd.OrderID])
		}
	}

	for _, k := range []Kind{KindAdd, KindCancel, KindChangePrice, KindChangeQuantity} {
		assert.Positive(t, kinds[k], k.String())
	}
}

func TestGeneratorFirstID(t *testing.T) {
	cfg := testConfig()
	cfg.FirstID = 1_000_000
	cfg.CancelRatio, cfg.AmendRatio = 0, 0

	g := NewGenerator(cfg)
	assert.Equal(t, uint64(1_000_000), g.Next().Order.ID)
	assert.Equal(t, uint64(1_000_001), g.Next().Order.ID)
}

func TestGeneratorForget(t *testing.T) {
	cfg := testConfig()
	cfg.CancelRatio, cfg.AmendRatio = 0, 0
	g := NewGenerator(cfg)
	first := g.Next().Order.ID
	g.Next()

	g.Forget(first)
	g.Forget(12345) // unknown ids are ignored

	assert.Equal(t, []uint64{first + 1}, g.issued)
}

type recordingBook struct {
	calls []string
}

func (r *recordingBook) AddOrder(order domain.Order) error {
	r.calls = append(r.calls, "add")
	return nil
}

func (r *recordingBook) CancelOrder(uint64) error {
	r.calls = append(r.calls, "cancel")
	return nil
}

func (r *recordingBook) ChangeOrderPrice(uint64, int64) error {
	r.calls = append(r.calls, "price")
	return nil
}

func (r *recordingBook) ChangeOrderQuantity(uint64, int64) error {
	r.calls = append(r.calls, "quantity")
	return errors.New("boom")
}

type contextAdapter struct{ b *recordingBook }

func (c contextAdapter) AddOrder(_ context.Context, o domain.Order) error { return c.b.AddOrder(o) }
func (c contextAdapter) CancelOrder(_ context.Context, id uint64) error   { return c.b.CancelOrder(id) }
func (c contextAdapter) ChangeOrderPrice(_ context.Context, id uint64, p int64) error {
	return c.b.ChangeOrderPrice(id, p)
}
func (c contextAdapter) ChangeOrderQuantity(_ context.Context, id uint64, q int64) error {
	return c.b.ChangeOrderQuantity(id, q)
}

func TestApply(t *testing.T) {
	book := &recordingBook{}
	cmds := []Command{
		{Kind: KindAdd, Order: domain.NewLimitOrder(1, domain.SideBid, 1, 1)},
		{Kind: KindCancel, OrderID: 1},
		{Kind: KindChangePrice, OrderID: 1, Price: 2},
	}
	for _, cmd := range cmds {
		require.NoError(t, Apply(book, cmd))
	}
	assert.EqualError(t, Apply(book, Command{Kind: KindChangeQuantity, OrderID: 1, Quantity: 3}), "boom")
	assert.Error(t, Apply(book, Command{Kind: Kind(42)}))
	assert.Equal(t, []string{"add", "cancel", "price", "quantity"}, book.calls)

	ctxBook := &recordingBook{}
	for _, cmd := range cmds {
		require.NoError(t, ApplyContext(context.Background(), contextAdapter{ctxBook}, cmd))
	}
	assert.Equal(t, []string{"add", "cancel", "price"}, ctxBook.calls)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "add,3,A,100,5", Command{Kind: KindAdd, Order: domain.NewLimitOrder(3, domain.SideAsk, 100, 5)}.String())
	assert.Equal(t, "cancel,3", Command{Kind: KindCancel, OrderID: 3}.String())
	assert.Equal(t, "change_price,3,90", Command{Kind: KindChangePrice, OrderID: 3, Price: 90}.String())
	assert.Equal(t, "change_quantity,3,9", Command{Kind: KindChangeQuantity, OrderID: 3, Quantity: 9}.String())
}
