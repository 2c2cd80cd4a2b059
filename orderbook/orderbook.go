package orderbook

import (
	"fmt"

	"github.com/rs/zerolog"

	"lightning-book/domain"
)

// IOrderBook defines the interface for a single-instrument order book
type IOrderBook interface {
	// AddOrder matches an order against the opposite side and rests any remainder
	AddOrder(order domain.Order) error

	// CancelOrder removes a resting order from the book
	CancelOrder(orderID uint64) error

	// ChangeOrderPrice moves a resting order to a new price; it loses time priority
	ChangeOrderPrice(orderID uint64, price int64) error

	// ChangeOrderQuantity resizes a resting order in place, keeping time priority
	ChangeOrderQuantity(orderID uint64, quantity int64) error

	// GetAskOrders returns resting asks, ascending price then arrival order
	GetAskOrders() []domain.Order

	// GetBidOrders returns resting bids, descending price then arrival order
	GetBidOrders() []domain.Order

	// GetOrder returns the current snapshot of a resting order
	GetOrder(orderID uint64) (domain.Order, error)

	// GetSlice returns the level resting at an exact price on either side
	GetSlice(price int64) (Slice, error)
}

// Slice is a copy of one price level
type Slice struct {
	Side   domain.Side
	Price  int64
	Volume int64
	Orders []domain.Order // arrival order
}

// Level is one aggregated row of market depth
type Level struct {
	Price    int64
	Quantity int64
	Orders   int // number of orders at this level
}

// FillListener is notified once per fill, synchronously, from inside the
// matching loop. Listeners must not call back into the book.
type FillListener interface {
	OnFill(fill domain.Fill)
}

// FillListenerFunc adapts a function to FillListener
type FillListenerFunc func(fill domain.Fill)

func (f FillListenerFunc) OnFill(fill domain.Fill) { f(fill) }

// Option configures an OrderBook
type Option func(*OrderBook)

// WithPriceTree selects the side book implementation (default RedBlackTreeType)
func WithPriceTree(treeType PriceTreeType) Option {
	return func(ob *OrderBook) { ob.treeType = treeType }
}

// WithFillListener registers a listener for fills; may be given more than once
func WithFillListener(l FillListener) Option {
	return func(ob *OrderBook) { ob.listeners = append(ob.listeners, l) }
}

// WithLogger sets the logger used for rejected operations (default: disabled)
func WithLogger(logger zerolog.Logger) Option {
	return func(ob *OrderBook) { ob.logger = logger }
}

// OrderBook implements a price-time priority limit order book for one instrument.
// It is not safe for concurrent use: every method must run to completion before
// the next one starts. Use matching.Engine to share a book between goroutines.
type OrderBook struct {
	bids   PriceTreeInterface      // buy orders (descending price)
	asks   PriceTreeInterface      // sell orders (ascending price)
	orders map[uint64]domain.Order // order index: id -> resting snapshot

	treeType  PriceTreeType
	listeners []FillListener
	fillSeq   uint64
	logger    zerolog.Logger
}

// Ensure OrderBook implements IOrderBook
var _ IOrderBook = (*OrderBook)(nil)

// NewOrderBook creates an empty order book
func NewOrderBook(opts ...Option) *OrderBook {
	ob := &OrderBook{
		orders:   make(map[uint64]domain.Order),
		treeType: RedBlackTreeType,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ob)
	}
	ob.bids = NewPriceTreeWithType(ob.treeType, domain.SideBid)
	ob.asks = NewPriceTreeWithType(ob.treeType, domain.SideAsk)
	return ob
}

// PriceTreeType returns the side book implementation in use
func (ob *OrderBook) PriceTreeType() PriceTreeType {
	return ob.treeType
}

// AddOrder adds a new order to the book.
// The order first trades against every crossing level of the opposite side,
// best price first and FIFO within a level; whatever remains rests at the tail
// of its own price level. A fully matched order leaves no trace in the book.
func (ob *OrderBook) AddOrder(order domain.Order) error {
	if err := order.Validate(); err != nil {
		ob.logger.Debug().Err(err).Uint64("order_id", order.ID).Msg("add order rejected")
		return err
	}
	if _, exists := ob.orders[order.ID]; exists {
		err := duplicateOrderID(order.ID)
		ob.logger.Debug().Err(err).Uint64("order_id", order.ID).Msg("add order rejected")
		return err
	}

	order = ob.match(order)
	if order.Remaining() == 0 {
		return nil
	}

	ob.side(order.Side).GetOrCreateLevel(order.Price).Append(order)
	ob.orders[order.ID] = order
	return nil
}

// CancelOrder removes an order from the book
func (ob *OrderBook) CancelOrder(orderID uint64) error {
	order, exists := ob.orders[orderID]
	if !exists {
		return ob.rejectUnknown("cancel order", orderID)
	}
	ob.remove(order, "cancelling")
	return nil
}

// ChangeOrderPrice cancels the order and adds it back at the new price.
// The order keeps its filled amount, goes to the back of the queue at the new
// price and may trade immediately if that price crosses.
func (ob *OrderBook) ChangeOrderPrice(orderID uint64, price int64) error {
	order, exists := ob.orders[orderID]
	if !exists {
		return ob.rejectUnknown("change order price", orderID)
	}
	ob.remove(order, "repricing")
	if err := ob.AddOrder(order.WithPrice(price)); err != nil {
		panic(fmt.Sprintf("orderbook: re-adding order %d at price %d: %v", orderID, price, err))
	}
	return nil
}

// ChangeOrderQuantity replaces the original quantity of a resting order.
// The order keeps its place in the queue and is never re-matched. If the new
// quantity is at or below the filled amount (zero and negative included), the
// order leaves the book as if cancelled.
func (ob *OrderBook) ChangeOrderQuantity(orderID uint64, quantity int64) error {
	order, exists := ob.orders[orderID]
	if !exists {
		return ob.rejectUnknown("change order quantity", orderID)
	}
	updated := order.WithQuantity(quantity)
	if updated.Remaining() <= 0 {
		ob.remove(order, "resizing")
		return nil
	}

	level := ob.side(order.Side).GetLevel(order.Price)
	if level == nil || !level.Replace(updated) {
		panic(fmt.Sprintf("orderbook: order %d missing from %v level %d while resizing",
			orderID, order.Side, order.Price))
	}
	ob.orders[orderID] = updated
	return nil
}

// GetAskOrders returns all resting asks, ascending price then arrival order
func (ob *OrderBook) GetAskOrders() []domain.Order {
	return ob.flatten(ob.asks)
}

// GetBidOrders returns all resting bids, descending price then arrival order
func (ob *OrderBook) GetBidOrders() []domain.Order {
	return ob.flatten(ob.bids)
}

// GetOrder returns the current snapshot of a resting order
func (ob *OrderBook) GetOrder(orderID uint64) (domain.Order, error) {
	order, exists := ob.orders[orderID]
	if !exists {
		return domain.Order{}, unknownOrderID(orderID)
	}
	return order, nil
}

// GetSlice returns a copy of the level resting at price.
// A correctly matched book never holds the same price on both sides; bids are
// consulted first.
func (ob *OrderBook) GetSlice(price int64) (Slice, error) {
	for _, tree := range []PriceTreeInterface{ob.bids, ob.asks} {
		if level := tree.GetLevel(price); level != nil {
			return Slice{
				Side:   tree.Side(),
				Price:  price,
				Volume: level.Volume(),
				Orders: level.Orders(),
			}, nil
		}
	}
	return Slice{}, &PriceError{Price: price}
}

// GetBestBid returns the highest bid price
func (ob *OrderBook) GetBestBid() (int64, bool) {
	return bestPrice(ob.bids)
}

// GetBestAsk returns the lowest ask price
func (ob *OrderBook) GetBestAsk() (int64, bool) {
	return bestPrice(ob.asks)
}

// GetDepth returns up to levels aggregated rows per side, best price first
func (ob *OrderBook) GetDepth(levels int) (bids, asks []Level) {
	return depth(ob.bids, levels), depth(ob.asks, levels)
}

// Len returns the number of resting orders
func (ob *OrderBook) Len() int {
	return len(ob.orders)
}

// match trades the taker against the opposite side and returns the taker with
// its filled amount updated.
func (ob *OrderBook) match(taker domain.Order) domain.Order {
	makers := ob.side(taker.Side.Opposite())

	for taker.Remaining() > 0 {
		level := makers.GetBestLevel()
		if level == nil || !crosses(taker.Side, taker.Price, level.Price) {
			break
		}

		for taker.Remaining() > 0 {
			maker, ok := level.Front()
			if !ok {
				break
			}
			quantity := min(taker.Remaining(), maker.Remaining())
			taker = taker.Fill(quantity)
			maker = maker.Fill(quantity)

			if maker.Remaining() == 0 {
				level.Remove(maker.ID)
				delete(ob.orders, maker.ID)
			} else {
				level.Replace(maker)
				ob.orders[maker.ID] = maker
			}
			ob.emit(taker, maker, level.Price, quantity)
		}

		if level.IsEmpty() {
			makers.RemoveLevel(level.Price)
		}
	}

	return taker
}

// remove deletes a resting order from its level and the index, pruning the
// level when it empties.
func (ob *OrderBook) remove(order domain.Order, action string) {
	tree := ob.side(order.Side)
	level := tree.GetLevel(order.Price)
	if level == nil {
		panic(fmt.Sprintf("orderbook: %v level %d could not be found for %s order %d",
			order.Side, order.Price, action, order.ID))
	}
	if _, ok := level.Remove(order.ID); !ok {
		panic(fmt.Sprintf("orderbook: order %d missing from %v level %d while %s",
			order.ID, order.Side, order.Price, action))
	}
	delete(ob.orders, order.ID)

	if level.IsEmpty() {
		tree.RemoveLevel(level.Price)
	}
}

func (ob *OrderBook) emit(taker, maker domain.Order, price, quantity int64) {
	if len(ob.listeners) == 0 {
		return
	}
	ob.fillSeq++
	fill := domain.Fill{
		Seq:            ob.fillSeq,
		Price:          price,
		Quantity:       quantity,
		MakerOrderID:   maker.ID,
		TakerOrderID:   taker.ID,
		TakerSide:      taker.Side,
		MakerRemaining: maker.Remaining(),
		TakerRemaining: taker.Remaining(),
	}
	for _, l := range ob.listeners {
		l.OnFill(fill)
	}
}

func (ob *OrderBook) rejectUnknown(op string, orderID uint64) error {
	err := unknownOrderID(orderID)
	ob.logger.Debug().Err(err).Uint64("order_id", orderID).Msg(op + " rejected")
	return err
}

func (ob *OrderBook) side(side domain.Side) PriceTreeInterface {
	if side == domain.SideBid {
		return ob.bids
	}
	return ob.asks
}

func (ob *OrderBook) flatten(tree PriceTreeInterface) []domain.Order {
	orders := make([]domain.Order, 0)
	tree.Walk(func(level *PriceLevel) bool {
		orders = level.appendOrders(orders)
		return true
	})
	return orders
}

func bestPrice(tree PriceTreeInterface) (int64, bool) {
	level := tree.GetBestLevel()
	if level == nil {
		return 0, false
	}
	return level.Price, true
}

func depth(tree PriceTreeInterface, maxLevels int) []Level {
	if maxLevels <= 0 {
		return nil
	}
	rows := make([]Level, 0, min(maxLevels, tree.Size()))
	tree.Walk(func(level *PriceLevel) bool {
		rows = append(rows, Level{
			Price:    level.Price,
			Quantity: level.Volume(),
			Orders:   level.Len(),
		})
		return len(rows) < maxLevels
	})
	return rows
}
