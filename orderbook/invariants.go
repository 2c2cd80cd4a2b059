package orderbook

import (
	"errors"
	"fmt"

	"lightning-book/domain"
)

// CheckInvariants walks the whole book and reports every broken structural
// invariant: level ordering, level volume, index/level agreement and a crossed
// book. It is O(n) and meant for tests and diagnostics, not the hot path.
func (ob *OrderBook) CheckInvariants() error {
	var errs []error
	seen := 0

	for _, tree := range []PriceTreeInterface{ob.bids, ob.asks} {
		side := tree.Side()
		levels := 0
		var prev *PriceLevel

		tree.Walk(func(level *PriceLevel) bool {
			levels++
			if prev != nil && !betterPrice(side, prev.Price, level.Price) {
				errs = append(errs, fmt.Errorf("%v level %d iterates after %d", side, level.Price, prev.Price))
			}
			prev = level

			if level.Len() == 0 || level.Volume() <= 0 {
				errs = append(errs, fmt.Errorf("%v level %d is empty (orders=%d, volume=%d)",
					side, level.Price, level.Len(), level.Volume()))
			}

			var volume int64
			for _, order := range level.Orders() {
				seen++
				volume += order.Remaining()
				errs = append(errs, ob.checkRestingOrder(side, level.Price, order)...)
			}
			if volume != level.Volume() {
				errs = append(errs, fmt.Errorf("%v level %d has volume %d, orders sum to %d",
					side, level.Price, level.Volume(), volume))
			}
			return true
		})

		if levels != tree.Size() {
			errs = append(errs, fmt.Errorf("%v tree reports %d levels, walked %d", side, tree.Size(), levels))
		}
	}

	if seen != len(ob.orders) {
		errs = append(errs, fmt.Errorf("index holds %d orders, levels hold %d", len(ob.orders), seen))
	}

	bid, hasBid := ob.GetBestBid()
	ask, hasAsk := ob.GetBestAsk()
	if hasBid && hasAsk && bid >= ask {
		errs = append(errs, fmt.Errorf("book is crossed: best bid %d, best ask %d", bid, ask))
	}

	return errors.Join(errs...)
}

func (ob *OrderBook) checkRestingOrder(side domain.Side, price int64, order domain.Order) []error {
	var errs []error
	if order.Side != side || order.Price != price {
		errs = append(errs, fmt.Errorf("order %d (%v @ %d) rests in %v level %d",
			order.ID, order.Side, order.Price, side, price))
	}
	if order.Remaining() <= 0 || order.Filled < 0 {
		errs = append(errs, fmt.Errorf("order %d rests with filled %d of %d", order.ID, order.Filled, order.Quantity))
	}
	indexed, ok := ob.orders[order.ID]
	if !ok {
		errs = append(errs, fmt.Errorf("order %d rests at %v level %d but is not indexed", order.ID, side, price))
	} else if indexed != order {
		errs = append(errs, fmt.Errorf("order %d index snapshot %v differs from level snapshot %v", order.ID, indexed, order))
	}
	return errs
}
