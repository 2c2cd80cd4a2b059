package domain

import (
	"errors"
	"fmt"
)

// Side represents the order side (Bid or Ask)
type Side uint8

const (
	SideBid Side = iota
	SideAsk
)

// ErrUnknownSide is returned when a side code cannot be parsed
var ErrUnknownSide = errors.New("unknown side")

// ParseSide converts a single-byte side code ('B' or 'A') into a Side
func ParseSide(code byte) (Side, error) {
	switch code {
	case 'B':
		return SideBid, nil
	case 'A':
		return SideAsk, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSide, code)
	}
}

// Code returns the single-byte wire code of the side
func (s Side) Code() byte {
	if s == SideBid {
		return 'B'
	}
	return 'A'
}

// Opposite returns the side an order of this side matches against
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// Valid reports whether s is one of the two defined sides
func (s Side) Valid() bool {
	return s == SideBid || s == SideAsk
}

func (s Side) String() string {
	switch s {
	case SideBid:
		return "BID"
	case SideAsk:
		return "ASK"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// Order is an immutable snapshot of a limit order.
// Orders are passed and stored by value: every field change goes through one of
// the With* helpers and produces a new Order, so a caller holding a snapshot can
// never observe or cause a mutation inside the book.
type Order struct {
	ID       uint64 // caller-assigned, unique within a book
	Price    int64  // fixed-point price, no scale is modeled
	Quantity int64  // original requested size
	Filled   int64  // cumulative matched amount
	Side     Side
}

// ErrInvalidOrder is returned by Validate for orders that can never rest in a book
var ErrInvalidOrder = errors.New("invalid order")

// NewLimitOrder creates a new, unfilled limit order
func NewLimitOrder(id uint64, side Side, price, quantity int64) Order {
	return Order{
		ID:       id,
		Price:    price,
		Quantity: quantity,
		Side:     side,
	}
}

// Remaining returns the unfilled quantity
func (o Order) Remaining() int64 {
	return o.Quantity - o.Filled
}

// IsFilled returns true if the order has nothing left to match
func (o Order) IsFilled() bool {
	return o.Filled >= o.Quantity
}

// IsBid reports whether the order buys
func (o Order) IsBid() bool { return o.Side == SideBid }

// IsAsk reports whether the order sells
func (o Order) IsAsk() bool { return o.Side == SideAsk }

// WithPrice returns a copy of the order at a new price
func (o Order) WithPrice(price int64) Order {
	o.Price = price
	return o
}

// WithQuantity returns a copy of the order with a new original quantity.
// Filled is carried over unchanged.
func (o Order) WithQuantity(quantity int64) Order {
	o.Quantity = quantity
	return o
}

// WithFilled returns a copy of the order with the cumulative filled amount replaced
func (o Order) WithFilled(filled int64) Order {
	o.Filled = filled
	return o
}

// Fill returns a copy of the order with quantity added to Filled
func (o Order) Fill(quantity int64) Order {
	o.Filled += quantity
	return o
}

// Validate checks that the order could rest in a book: a known side, a positive
// quantity and something left to match.
func (o Order) Validate() error {
	switch {
	case !o.Side.Valid():
		return fmt.Errorf("%w: order %d has side %v", ErrInvalidOrder, o.ID, o.Side)
	case o.Quantity <= 0:
		return fmt.Errorf("%w: order %d has quantity %d", ErrInvalidOrder, o.ID, o.Quantity)
	case o.Filled < 0 || o.Filled >= o.Quantity:
		return fmt.Errorf("%w: order %d has filled %d of %d", ErrInvalidOrder, o.ID, o.Filled, o.Quantity)
	}
	return nil
}

func (o Order) String() string {
	return fmt.Sprintf("Order{id=%d, side=%v, price=%d, quantity=%d, filled=%d}",
		o.ID, o.Side, o.Price, o.Quantity, o.Filled)
}
