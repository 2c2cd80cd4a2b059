// Package metrics exports order book activity as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"lightning-book/domain"
	"lightning-book/orderbook"
)

// operation results
const (
	ResultOK           = "ok"
	ResultDuplicateID  = "duplicate_id"
	ResultUnknownID    = "unknown_id"
	ResultUnknownPrice = "unknown_price"
	ResultInvalid      = "invalid"
	ResultError        = "error"
)

type Collector struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	fills        prometheus.Counter
	filledVolume prometheus.Counter
	resting      prometheus.Gauge
}

var _ orderbook.FillListener = (*Collector)(nil)

// NewCollector creates the book metrics and registers them with reg
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lob_operations_total",
			Help: "Order book operations by operation and result",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lob_operation_duration_seconds",
			Help:    "Time spent applying an operation to the book",
			Buckets: prometheus.ExponentialBuckets(100e-9, 4, 10),
		}, []string{"op"}),
		fills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lob_fills_total",
			Help: "Total fills produced by matching",
		}),
		filledVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lob_filled_volume_total",
			Help: "Total quantity exchanged by matching",
		}),
		resting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lob_resting_orders",
			Help: "Orders currently resting in the book",
		}),
	}
	for _, col := range []prometheus.Collector{c.operations, c.duration, c.fills, c.filledVolume, c.resting} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewRegistry returns a registry that also carries the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (c *Collector) ObserveOperation(op string, err error, elapsed time.Duration) {
	c.operations.WithLabelValues(op, Result(err)).Inc()
	c.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (c *Collector) OnFill(fill domain.Fill) {
	c.fills.Inc()
	c.filledVolume.Add(float64(fill.Quantity))
}

func (c *Collector) SetRestingOrders(n int) {
	c.resting.Set(float64(n))
}

// Result maps an operation error to its result label
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, orderbook.ErrDuplicateOrderID):
		return ResultDuplicateID
	case errors.Is(err, orderbook.ErrUnknownOrderID):
		return ResultUnknownID
	case errors.Is(err, orderbook.ErrUnknownPrice):
		return ResultUnknownPrice
	case errors.Is(err, orderbook.ErrInvalidOrder):
		return ResultInvalid
	default:
		return ResultError
	}
}
