package orderbook

import (
	"github.com/tidwall/btree"

	"lightning-book/domain"
)

// BTreePriceTree keeps price levels in a B-tree ordered best price first.
// The tree is only touched by the book's single writer, so its internal
// locking is disabled.
type BTreePriceTree struct {
	levels *btree.BTreeG[*PriceLevel]
	probe  PriceLevel // reusable search key
	side   domain.Side
}

// Ensure BTreePriceTree implements PriceTreeInterface
var _ PriceTreeInterface = (*BTreePriceTree)(nil)

// NewBTreePriceTree creates a B-tree price tree for one side
func NewBTreePriceTree(side domain.Side) *BTreePriceTree {
	less := func(a, b *PriceLevel) bool {
		return betterPrice(side, a.Price, b.Price)
	}
	return &BTreePriceTree{
		levels: btree.NewBTreeGOptions(less, btree.Options{NoLocks: true}),
		side:   side,
	}
}

func (t *BTreePriceTree) Side() domain.Side {
	return t.side
}

func (t *BTreePriceTree) GetLevel(price int64) *PriceLevel {
	t.probe.Price = price
	level, found := t.levels.Get(&t.probe)
	if !found {
		return nil
	}
	return level
}

func (t *BTreePriceTree) GetOrCreateLevel(price int64) *PriceLevel {
	if level := t.GetLevel(price); level != nil {
		return level
	}
	level := newPriceLevel(price)
	t.levels.Set(level)
	return level
}

func (t *BTreePriceTree) RemoveLevel(price int64) {
	t.probe.Price = price
	t.levels.Delete(&t.probe)
}

func (t *BTreePriceTree) GetBestLevel() *PriceLevel {
	level, found := t.levels.Min()
	if !found {
		return nil
	}
	return level
}

func (t *BTreePriceTree) Walk(fn func(level *PriceLevel) bool) {
	t.levels.Scan(fn)
}

func (t *BTreePriceTree) IsEmpty() bool {
	return t.levels.Len() == 0
}

func (t *BTreePriceTree) Size() int {
	return t.levels.Len()
}
