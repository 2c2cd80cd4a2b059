package orderbook

import (
	"container/list"
	"fmt"

	"lightning-book/domain"
)

// PriceLevel represents all orders resting at one exact price on one side.
// Orders sit in a FIFO queue for time priority; the element index gives O(1)
// removal and in-place replacement without disturbing the rest of the queue.
type PriceLevel struct {
	Price  int64
	orders *list.List               // FIFO queue of domain.Order values
	index  map[uint64]*list.Element // order id -> queue element
	volume int64                    // sum of Remaining() over the queue

	// Doubly linked list pointers, only used by HashMapListPriceTree
	NextPrice *PriceLevel // next worse price level
	PrevPrice *PriceLevel // previous better price level
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		orders: list.New(),
		index:  make(map[uint64]*list.Element),
	}
}

// Volume returns the aggregate remaining quantity at this level
func (pl *PriceLevel) Volume() int64 {
	return pl.volume
}

// Len returns the number of orders at this level
func (pl *PriceLevel) Len() int {
	return pl.orders.Len()
}

// IsEmpty returns true if no order rests at this level
func (pl *PriceLevel) IsEmpty() bool {
	return pl.orders.Len() == 0
}

// Append puts an order at the tail of the queue
func (pl *PriceLevel) Append(order domain.Order) {
	if _, exists := pl.index[order.ID]; exists {
		panic(fmt.Sprintf("orderbook: order %d already queued at price %d", order.ID, pl.Price))
	}
	pl.index[order.ID] = pl.orders.PushBack(order)
	pl.volume += order.Remaining()
}

// Front returns the oldest order at this level
func (pl *PriceLevel) Front() (domain.Order, bool) {
	e := pl.orders.Front()
	if e == nil {
		return domain.Order{}, false
	}
	return e.Value.(domain.Order), true
}

// Get returns the queued snapshot of an order
func (pl *PriceLevel) Get(orderID uint64) (domain.Order, bool) {
	e, ok := pl.index[orderID]
	if !ok {
		return domain.Order{}, false
	}
	return e.Value.(domain.Order), true
}

// Replace swaps the snapshot of a queued order in place, keeping its position
// in the queue, and adjusts the volume by the change in remaining quantity.
func (pl *PriceLevel) Replace(order domain.Order) bool {
	e, ok := pl.index[order.ID]
	if !ok {
		return false
	}
	old := e.Value.(domain.Order)
	e.Value = order
	pl.volume += order.Remaining() - old.Remaining()
	return true
}

// Remove deletes an order from the queue and returns the removed snapshot
func (pl *PriceLevel) Remove(orderID uint64) (domain.Order, bool) {
	e, ok := pl.index[orderID]
	if !ok {
		return domain.Order{}, false
	}
	delete(pl.index, orderID)
	order := pl.orders.Remove(e).(domain.Order)
	pl.volume -= order.Remaining()
	return order, true
}

// Orders returns a copy of the queue in arrival order
func (pl *PriceLevel) Orders() []domain.Order {
	return pl.appendOrders(make([]domain.Order, 0, pl.orders.Len()))
}

func (pl *PriceLevel) appendOrders(dst []domain.Order) []domain.Order {
	for e := pl.orders.Front(); e != nil; e = e.Next() {
		dst = append(dst, e.Value.(domain.Order))
	}
	return dst
}
