// Package workload generates deterministic, seeded streams of order book
// commands for benchmarks and randomized tests.
package workload

import (
	"context"
	"fmt"
	"math/rand"

	"lightning-book/domain"
)

// Kind is the operation a Command performs
type Kind int

const (
	KindAdd Kind = iota
	KindCancel
	KindChangePrice
	KindChangeQuantity
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindCancel:
		return "cancel"
	case KindChangePrice:
		return "change_price"
	case KindChangeQuantity:
		return "change_quantity"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Command is one generated book operation
type Command struct {
	Kind     Kind
	Order    domain.Order // KindAdd
	OrderID  uint64       // every other kind
	Price    int64        // KindChangePrice
	Quantity int64        // KindChangeQuantity
}

func (c Command) String() string {
	switch c.Kind {
	case KindAdd:
		return fmt.Sprintf("add,%d,%c,%d,%d", c.Order.ID, c.Order.Side.Code(), c.Order.Price, c.Order.Quantity)
	case KindChangePrice:
		return fmt.Sprintf("change_price,%d,%d", c.OrderID, c.Price)
	case KindChangeQuantity:
		return fmt.Sprintf("change_quantity,%d,%d", c.OrderID, c.Quantity)
	default:
		return fmt.Sprintf("%v,%d", c.Kind, c.OrderID)
	}
}

// Config shapes the generated stream
type Config struct {
	Seed        int64
	FirstID     uint64  // first order id handed out (0 means 1)
	BasePrice   int64   // prices are drawn from BasePrice ± PriceRange/2
	PriceRange  int64   // must be > 0
	MaxQuantity int64   // quantities are drawn from [1, MaxQuantity]
	CancelRatio float64 // share of commands that cancel
	AmendRatio  float64 // share of commands that amend price or quantity
}

// Generator produces commands. Ids are handed out sequentially, so several
// generators driving the same book need disjoint FirstID ranges.
// A Generator is not safe for concurrent use.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	nextID uint64
	issued []uint64 // ids that may still rest in the book
}

// NewGenerator creates a generator; invalid ranges fall back to 1
func NewGenerator(cfg Config) *Generator {
	if cfg.PriceRange <= 0 {
		cfg.PriceRange = 1
	}
	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = 1
	}
	if cfg.FirstID == 0 {
		cfg.FirstID = 1
	}
	return &Generator{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		nextID: cfg.FirstID,
	}
}

// Next returns the next command. Cancels and amends always target an id this
// generator issued; the order may have been filled since, in which case the
// book rejects the command with an unknown-id error.
func (g *Generator) Next() Command {
	roll := g.rng.Float64()
	if len(g.issued) > 0 {
		switch {
		case roll < g.cfg.CancelRatio:
			return Command{Kind: KindCancel, OrderID: g.takeIssued()}
		case roll < g.cfg.CancelRatio+g.cfg.AmendRatio/2:
			return Command{Kind: KindChangePrice, OrderID: g.pickIssued(), Price: g.price()}
		case roll < g.cfg.CancelRatio+g.cfg.AmendRatio:
			return Command{Kind: KindChangeQuantity, OrderID: g.pickIssued(), Quantity: g.quantity()}
		}
	}

	side := domain.SideBid
	if g.rng.Intn(2) == 1 {
		side = domain.SideAsk
	}
	order := domain.NewLimitOrder(g.nextID, side, g.price(), g.quantity())
	g.issued = append(g.issued, g.nextID)
	g.nextID++
	return Command{Kind: KindAdd, Order: order}
}

// Forget drops an id from the candidates for future cancels and amends
func (g *Generator) Forget(orderID uint64) {
	for i, id := range g.issued {
		if id == orderID {
			g.removeAt(i)
			return
		}
	}
}

func (g *Generator) price() int64 {
	return g.cfg.BasePrice - g.cfg.PriceRange/2 + g.rng.Int63n(g.cfg.PriceRange)
}

func (g *Generator) quantity() int64 {
	return 1 + g.rng.Int63n(g.cfg.MaxQuantity)
}

func (g *Generator) pickIssued() uint64 {
	return g.issued[g.rng.Intn(len(g.issued))]
}

func (g *Generator) takeIssued() uint64 {
	i := g.rng.Intn(len(g.issued))
	id := g.issued[i]
	g.removeAt(i)
	return id
}

func (g *Generator) removeAt(i int) {
	last := len(g.issued) - 1
	g.issued[i] = g.issued[last]
	g.issued = g.issued[:last]
}

// Book is the mutating surface of an order book
type Book interface {
	AddOrder(order domain.Order) error
	CancelOrder(orderID uint64) error
	ChangeOrderPrice(orderID uint64, price int64) error
	ChangeOrderQuantity(orderID uint64, quantity int64) error
}

// ContextBook is the mutating surface of a book shared through an engine
type ContextBook interface {
	AddOrder(ctx context.Context, order domain.Order) error
	CancelOrder(ctx context.Context, orderID uint64) error
	ChangeOrderPrice(ctx context.Context, orderID uint64, price int64) error
	ChangeOrderQuantity(ctx context.Context, orderID uint64, quantity int64) error
}

// Apply runs a command against a book
func Apply(b Book, cmd Command) error {
	switch cmd.Kind {
	case KindAdd:
		return b.AddOrder(cmd.Order)
	case KindCancel:
		return b.CancelOrder(cmd.OrderID)
	case KindChangePrice:
		return b.ChangeOrderPrice(cmd.OrderID, cmd.Price)
	case KindChangeQuantity:
		return b.ChangeOrderQuantity(cmd.OrderID, cmd.Quantity)
	default:
		return fmt.Errorf("workload: unknown command kind %v", cmd.Kind)
	}
}

// ApplyContext runs a command against an engine-backed book
func ApplyContext(ctx context.Context, b ContextBook, cmd Command) error {
	switch cmd.Kind {
	case KindAdd:
		return b.AddOrder(ctx, cmd.Order)
	case KindCancel:
		return b.CancelOrder(ctx, cmd.OrderID)
	case KindChangePrice:
		return b.ChangeOrderPrice(ctx, cmd.OrderID, cmd.Price)
	case KindChangeQuantity:
		return b.ChangeOrderQuantity(ctx, cmd.OrderID, cmd.Quantity)
	default:
		return fmt.Errorf("workload: unknown command kind %v", cmd.Kind)
	}
}
