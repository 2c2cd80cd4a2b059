package orderbook

import "lightning-book/domain"

// PriceTreeInterface is one side of the book: an ordered mapping from price to
// PriceLevel that always iterates best price first (descending for bids,
// ascending for asks). Implementations own the direction; callers never compare
// prices themselves.
type PriceTreeInterface interface {
	// Side returns the book side this tree holds
	Side() domain.Side

	// GetLevel returns the level at an exact price, or nil
	GetLevel(price int64) *PriceLevel

	// GetOrCreateLevel returns the level at price, inserting an empty one if needed
	GetOrCreateLevel(price int64) *PriceLevel

	// RemoveLevel drops the level at price
	RemoveLevel(price int64)

	// GetBestLevel returns the best price level, or nil when empty
	GetBestLevel() *PriceLevel

	// Walk visits levels best price first until fn returns false
	Walk(fn func(level *PriceLevel) bool)

	// IsEmpty returns true if the tree holds no levels
	IsEmpty() bool

	// Size returns the number of price levels
	Size() int
}

// betterPrice returns true if price1 ranks ahead of price2 on the given side.
// This is the single place where bid/ask direction is decided.
func betterPrice(side domain.Side, price1, price2 int64) bool {
	if side == domain.SideBid {
		return price1 > price2 // For bids, higher is better
	}
	return price1 < price2 // For asks, lower is better
}

// bestFirst returns a three-way comparator that orders prices best first
func bestFirst(side domain.Side) func(a, b int64) int {
	return func(a, b int64) int {
		switch {
		case a == b:
			return 0
		case betterPrice(side, a, b):
			return -1
		default:
			return 1
		}
	}
}

// crosses reports whether an incoming order at takerPrice can trade against a
// resting level at makerPrice on the opposite side.
func crosses(takerSide domain.Side, takerPrice, makerPrice int64) bool {
	if takerSide == domain.SideBid {
		return makerPrice <= takerPrice
	}
	return makerPrice >= takerPrice
}
