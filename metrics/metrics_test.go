package metrics

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightning-book/domain"
	"lightning-book/orderbook"
)

func TestCollectorOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObserveOperation("add", nil, time.Microsecond)
	c.ObserveOperation("add", nil, time.Microsecond)
	c.ObserveOperation("cancel", fmt.Errorf("wrapped: %w", orderbook.ErrUnknownOrderID), time.Microsecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.operations.WithLabelValues("add", ResultOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.operations.WithLabelValues("cancel", ResultUnknownID)))
	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))
}

func TestCollectorFills(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	ob := orderbook.NewOrderBook(orderbook.WithFillListener(c))
	require.NoError(t, ob.AddOrder(domain.NewLimitOrder(1, domain.SideAsk, 100, 10)))
	require.NoError(t, ob.AddOrder(domain.NewLimitOrder(2, domain.SideAsk, 101, 10)))
	require.NoError(t, ob.AddOrder(domain.NewLimitOrder(3, domain.SideBid, 101, 15)))
	c.SetRestingOrders(ob.Len())

	expected := `
# HELP lob_fills_total Total fills produced by matching
# TYPE lob_fills_total counter
lob_fills_total 2
# HELP lob_filled_volume_total Total quantity exchanged by matching
# TYPE lob_filled_volume_total counter
lob_filled_volume_total 15
# HELP lob_resting_orders Orders currently resting in the book
# TYPE lob_resting_orders gauge
lob_resting_orders 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"lob_fills_total", "lob_filled_volume_total", "lob_resting_orders"))
}

func TestNewCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ResultOK},
		{orderbook.ErrDuplicateOrderID, ResultDuplicateID},
		{orderbook.ErrUnknownOrderID, ResultUnknownID},
		{&orderbook.PriceError{Price: 5}, ResultUnknownPrice},
		{fmt.Errorf("add: %w", domain.ErrInvalidOrder), ResultInvalid},
		{errors.New("boom"), ResultError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Result(tt.err), "%v", tt.err)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Greater(t, len(families), 3)
}
