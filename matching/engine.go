package matching

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lightning-book/domain"
	"lightning-book/metrics"
	"lightning-book/orderbook"
)

// ErrEngineStopped is returned for requests that reach an engine after Stop
var ErrEngineStopped = errors.New("matching engine stopped")

// IMatchingEngine is the concurrent surface of a single order book.
// Every call is serialized through the engine goroutine, so callers observe
// the same linear history the book itself sees.
type IMatchingEngine interface {
	AddOrder(ctx context.Context, order domain.Order) error
	CancelOrder(ctx context.Context, orderID uint64) error
	ChangeOrderPrice(ctx context.Context, orderID uint64, price int64) error
	ChangeOrderQuantity(ctx context.Context, orderID uint64, quantity int64) error
	GetAskOrders(ctx context.Context) ([]domain.Order, error)
	GetBidOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID uint64) (domain.Order, error)
	GetSlice(ctx context.Context, price int64) (orderbook.Slice, error)
	GetQuote(ctx context.Context) (Quote, error)
	GetDepth(ctx context.Context, levels int) (bids, asks []orderbook.Level, err error)
	Len(ctx context.Context) (int, error)
	CheckInvariants(ctx context.Context) error

	// Start starts the matching loop in a dedicated goroutine
	Start()

	// Stop stops the engine and waits for the loop to exit
	Stop()
}

// Option configures an Engine
type Option func(*Engine)

// WithPriceTree selects the side book implementation
func WithPriceTree(treeType orderbook.PriceTreeType) Option {
	return func(e *Engine) { e.treeType = treeType }
}

// WithRequestBuffer sets how many requests may queue ahead of the engine
func WithRequestBuffer(size int) Option {
	return func(e *Engine) { e.requestBuffer = size }
}

// WithFillBuffer sets the fill buffer capacity; 0 disables fill publication.
// The engine stalls while the buffer is full, so someone must consume Fills().
func WithFillBuffer(size int) Option {
	return func(e *Engine) { e.fillBuffer = size }
}

// WithFillListener adds a listener called on the engine goroutine for every fill
func WithFillListener(l orderbook.FillListener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// WithLogger sets the engine logger; the book logs through it as well
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records operation outcomes, fills and book size
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

type request struct {
	op    string
	fn    func(ob *orderbook.OrderBook) error
	reply chan error
}

// Engine owns one OrderBook and applies requests to it one at a time on a
// single goroutine.
// Architecture:
//   - Callers enqueue requests on a buffered channel and wait for the reply
//   - The loop runs with runtime.LockOSThread() to reduce context switches
//   - Fills go to a bounded FillBuffer in the order they happen
type Engine struct {
	book     *orderbook.OrderBook
	requests chan request
	fills    *FillBuffer
	stop     chan struct{}
	done     chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	treeType      orderbook.PriceTreeType
	requestBuffer int
	fillBuffer    int
	listeners     []orderbook.FillListener
	logger        zerolog.Logger
	metrics       *metrics.Collector
}

var _ IMatchingEngine = (*Engine)(nil)

// NewEngine creates a stopped engine around an empty book
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		treeType:      orderbook.RedBlackTreeType,
		requestBuffer: 1024,
		fillBuffer:    65536,
		logger:        zerolog.Nop(),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.requestBuffer < 0 {
		e.requestBuffer = 0
	}
	e.requests = make(chan request, e.requestBuffer)

	bookOpts := []orderbook.Option{
		orderbook.WithPriceTree(e.treeType),
		orderbook.WithLogger(e.logger),
	}
	if e.fillBuffer > 0 {
		e.fills = NewFillBuffer(e.fillBuffer)
		bookOpts = append(bookOpts, orderbook.WithFillListener(e.fills))
	}
	if e.metrics != nil {
		bookOpts = append(bookOpts, orderbook.WithFillListener(e.metrics))
	}
	for _, l := range e.listeners {
		bookOpts = append(bookOpts, orderbook.WithFillListener(l))
	}
	e.book = orderbook.NewOrderBook(bookOpts...)
	return e
}

// Start starts the matching loop. Calling it more than once has no effect.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.logger.Info().
			Str("price_tree", e.treeType.String()).
			Int("request_buffer", cap(e.requests)).
			Int("fill_buffer", e.fillBuffer).
			Msg("matching engine started")
		go e.run()
	})
}

// Stop stops the loop and waits for it to exit. Requests still queued are
// answered with ErrEngineStopped. Fills produced after Stop are dropped; those
// already buffered can still be drained. An engine that never started stops at once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stop)
		// a full buffer with no consumer would otherwise hold the loop in Publish
		if e.fills != nil {
			e.fills.Close()
		}
		e.startOnce.Do(func() { close(e.done) })
	})
	<-e.done
}

func (e *Engine) run() {
	// Lock this goroutine to an OS thread to keep the book hot in one CPU cache
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(e.done)

	for {
		select {
		case req := <-e.requests:
			e.handle(req)
		case <-e.stop:
			e.reject()
			e.logger.Info().Int("resting_orders", e.book.Len()).Msg("matching engine stopped")
			return
		}
	}
}

func (e *Engine) handle(req request) {
	if e.metrics == nil {
		req.reply <- req.fn(e.book)
		return
	}
	start := time.Now()
	err := req.fn(e.book)
	e.metrics.ObserveOperation(req.op, err, time.Since(start))
	e.metrics.SetRestingOrders(e.book.Len())
	req.reply <- err
}

// reject answers every queued request once the loop is stopping
func (e *Engine) reject() {
	for {
		select {
		case req := <-e.requests:
			req.reply <- ErrEngineStopped
		default:
			return
		}
	}
}

// do runs fn on the engine goroutine. ctx bounds only the wait for a queue
// slot: once accepted, a request always runs to completion.
func (e *Engine) do(ctx context.Context, op string, fn func(ob *orderbook.OrderBook) error) error {
	select {
	case <-e.stop:
		return ErrEngineStopped
	default:
	}

	req := request{op: op, fn: fn, reply: make(chan error, 1)}
	select {
	case e.requests <- req:
	case <-e.stop:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-e.done:
		// the loop may have answered just before exiting
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrEngineStopped
		}
	}
}

// Fills returns the outgoing fill buffer, nil when fill publication is disabled
func (e *Engine) Fills() *FillBuffer {
	return e.fills
}

func (e *Engine) AddOrder(ctx context.Context, order domain.Order) error {
	return e.do(ctx, "add", func(ob *orderbook.OrderBook) error {
		return ob.AddOrder(order)
	})
}

func (e *Engine) CancelOrder(ctx context.Context, orderID uint64) error {
	return e.do(ctx, "cancel", func(ob *orderbook.OrderBook) error {
		return ob.CancelOrder(orderID)
	})
}

func (e *Engine) ChangeOrderPrice(ctx context.Context, orderID uint64, price int64) error {
	return e.do(ctx, "change_price", func(ob *orderbook.OrderBook) error {
		return ob.ChangeOrderPrice(orderID, price)
	})
}

func (e *Engine) ChangeOrderQuantity(ctx context.Context, orderID uint64, quantity int64) error {
	return e.do(ctx, "change_quantity", func(ob *orderbook.OrderBook) error {
		return ob.ChangeOrderQuantity(orderID, quantity)
	})
}

func (e *Engine) GetAskOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := e.do(ctx, "get_asks", func(ob *orderbook.OrderBook) error {
		orders = ob.GetAskOrders()
		return nil
	})
	return orders, err
}

func (e *Engine) GetBidOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := e.do(ctx, "get_bids", func(ob *orderbook.OrderBook) error {
		orders = ob.GetBidOrders()
		return nil
	})
	return orders, err
}

func (e *Engine) GetOrder(ctx context.Context, orderID uint64) (domain.Order, error) {
	var order domain.Order
	err := e.do(ctx, "get_order", func(ob *orderbook.OrderBook) (err error) {
		order, err = ob.GetOrder(orderID)
		return err
	})
	return order, err
}

func (e *Engine) GetSlice(ctx context.Context, price int64) (orderbook.Slice, error) {
	var slice orderbook.Slice
	err := e.do(ctx, "get_slice", func(ob *orderbook.OrderBook) (err error) {
		slice, err = ob.GetSlice(price)
		return err
	})
	return slice, err
}

// Quote is the top of book
type Quote struct {
	Bid, Ask       int64
	HasBid, HasAsk bool
}

func (e *Engine) GetQuote(ctx context.Context) (Quote, error) {
	var q Quote
	err := e.do(ctx, "get_quote", func(ob *orderbook.OrderBook) error {
		q.Bid, q.HasBid = ob.GetBestBid()
		q.Ask, q.HasAsk = ob.GetBestAsk()
		return nil
	})
	return q, err
}

func (e *Engine) GetDepth(ctx context.Context, levels int) (bids, asks []orderbook.Level, err error) {
	err = e.do(ctx, "get_depth", func(ob *orderbook.OrderBook) error {
		bids, asks = ob.GetDepth(levels)
		return nil
	})
	return bids, asks, err
}

func (e *Engine) Len(ctx context.Context) (int, error) {
	var n int
	err := e.do(ctx, "len", func(ob *orderbook.OrderBook) error {
		n = ob.Len()
		return nil
	})
	return n, err
}

// CheckInvariants verifies the book structure on the engine goroutine
func (e *Engine) CheckInvariants(ctx context.Context) error {
	var result error
	if err := e.do(ctx, "check_invariants", func(ob *orderbook.OrderBook) error {
		result = ob.CheckInvariants()
		return nil
	}); err != nil {
		return err
	}
	return result
}
