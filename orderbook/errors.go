package orderbook

import (
	"errors"
	"fmt"

	"lightning-book/domain"
)

// Errors returned by OrderBook. All of them describe caller misuse; when one is
// returned the book has not been modified.
var (
	ErrDuplicateOrderID = errors.New("duplicate order id")
	ErrUnknownOrderID   = errors.New("unknown order id")
	ErrUnknownPrice     = errors.New("unknown price")
	ErrInvalidOrder     = domain.ErrInvalidOrder
)

// OrderIDError reports an order id that is either already taken or not known.
// It matches ErrDuplicateOrderID or ErrUnknownOrderID through errors.Is.
type OrderIDError struct {
	Err     error
	OrderID uint64
}

func (e *OrderIDError) Error() string {
	if e.Err == ErrDuplicateOrderID {
		return fmt.Sprintf("duplicate order id \"%d\" is found", e.OrderID)
	}
	return fmt.Sprintf("unknown order id \"%d\" is given", e.OrderID)
}

func (e *OrderIDError) Unwrap() error { return e.Err }

// PriceError reports a price with no resting level on either side
type PriceError struct {
	Price int64
}

func (e *PriceError) Error() string {
	return fmt.Sprintf("unknown price \"%d\" is given", e.Price)
}

func (e *PriceError) Unwrap() error { return ErrUnknownPrice }

func duplicateOrderID(id uint64) error {
	return &OrderIDError{Err: ErrDuplicateOrderID, OrderID: id}
}

func unknownOrderID(id uint64) error {
	return &OrderIDError{Err: ErrUnknownOrderID, OrderID: id}
}
