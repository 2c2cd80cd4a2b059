package orderbook

import (
	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"lightning-book/domain"
)

// RedBlackPriceTree keeps price levels in a red-black tree whose comparator
// already encodes the side's direction, so the leftmost node is always the
// best price and in-order iteration is best first.
//
// Performance: O(log n) lookup, insert and delete; O(log n) best level.
type RedBlackPriceTree struct {
	levels *rbt.Tree[int64, *PriceLevel]
	side   domain.Side
}

// Ensure RedBlackPriceTree implements PriceTreeInterface
var _ PriceTreeInterface = (*RedBlackPriceTree)(nil)

// NewRedBlackPriceTree creates a red-black tree price tree for one side
func NewRedBlackPriceTree(side domain.Side) *RedBlackPriceTree {
	return &RedBlackPriceTree{
		levels: rbt.NewWith[int64, *PriceLevel](bestFirst(side)),
		side:   side,
	}
}

func (t *RedBlackPriceTree) Side() domain.Side {
	return t.side
}

func (t *RedBlackPriceTree) GetLevel(price int64) *PriceLevel {
	level, found := t.levels.Get(price)
	if !found {
		return nil
	}
	return level
}

func (t *RedBlackPriceTree) GetOrCreateLevel(price int64) *PriceLevel {
	if level, found := t.levels.Get(price); found {
		return level
	}
	level := newPriceLevel(price)
	t.levels.Put(price, level)
	return level
}

func (t *RedBlackPriceTree) RemoveLevel(price int64) {
	t.levels.Remove(price)
}

func (t *RedBlackPriceTree) GetBestLevel() *PriceLevel {
	node := t.levels.Left()
	if node == nil {
		return nil
	}
	return node.Value
}

func (t *RedBlackPriceTree) Walk(fn func(level *PriceLevel) bool) {
	it := t.levels.Iterator()
	for it.Next() {
		if !fn(it.Value()) {
			return
		}
	}
}

func (t *RedBlackPriceTree) IsEmpty() bool {
	return t.levels.Empty()
}

func (t *RedBlackPriceTree) Size() int {
	return t.levels.Size()
}
