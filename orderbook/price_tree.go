package orderbook

import "lightning-book/domain"

// HashMapListPriceTree keeps price levels in a hash map for O(1) lookup and
// threads them through a doubly linked list sorted best price first.
//
// Performance:
//   - GetBestLevel: O(1) - direct pointer access
//   - GetLevel: O(1) - hash map lookup
//   - RemoveLevel: O(1) - unlink from the list
//   - Insert new price level: O(n) worst case, but most new levels land near the best price
type HashMapListPriceTree struct {
	levels    map[int64]*PriceLevel // price -> level
	bestPrice *PriceLevel           // head of the sorted list
	side      domain.Side
}

// Ensure HashMapListPriceTree implements PriceTreeInterface
var _ PriceTreeInterface = (*HashMapListPriceTree)(nil)

// NewHashMapListPriceTree creates a new HashMap+List price tree
func NewHashMapListPriceTree(side domain.Side) *HashMapListPriceTree {
	return &HashMapListPriceTree{
		levels: make(map[int64]*PriceLevel),
		side:   side,
	}
}

func (pt *HashMapListPriceTree) Side() domain.Side {
	return pt.side
}

func (pt *HashMapListPriceTree) GetLevel(price int64) *PriceLevel {
	return pt.levels[price]
}

func (pt *HashMapListPriceTree) GetOrCreateLevel(price int64) *PriceLevel {
	level, exists := pt.levels[price]
	if exists {
		return level
	}
	level = newPriceLevel(price)
	pt.levels[price] = level
	pt.insertPriceLevel(level)
	return level
}

func (pt *HashMapListPriceTree) RemoveLevel(price int64) {
	level, exists := pt.levels[price]
	if !exists {
		return
	}
	delete(pt.levels, price)

	if level.PrevPrice != nil {
		level.PrevPrice.NextPrice = level.NextPrice
	}
	if level.NextPrice != nil {
		level.NextPrice.PrevPrice = level.PrevPrice
	}
	if pt.bestPrice == level {
		pt.bestPrice = level.NextPrice
	}
	level.NextPrice = nil
	level.PrevPrice = nil
}

func (pt *HashMapListPriceTree) GetBestLevel() *PriceLevel {
	return pt.bestPrice
}

func (pt *HashMapListPriceTree) Walk(fn func(level *PriceLevel) bool) {
	for current := pt.bestPrice; current != nil; {
		next := current.NextPrice
		if !fn(current) {
			return
		}
		current = next
	}
}

func (pt *HashMapListPriceTree) IsEmpty() bool {
	return pt.bestPrice == nil
}

func (pt *HashMapListPriceTree) Size() int {
	return len(pt.levels)
}

// insertPriceLevel links a new level into the sorted list
func (pt *HashMapListPriceTree) insertPriceLevel(newLevel *PriceLevel) {
	if pt.bestPrice == nil {
		pt.bestPrice = newLevel
		return
	}

	if betterPrice(pt.side, newLevel.Price, pt.bestPrice.Price) {
		newLevel.NextPrice = pt.bestPrice
		pt.bestPrice.PrevPrice = newLevel
		pt.bestPrice = newLevel
		return
	}

	current := pt.bestPrice
	for current.NextPrice != nil {
		if betterPrice(pt.side, newLevel.Price, current.NextPrice.Price) {
			break
		}
		current = current.NextPrice
	}

	newLevel.NextPrice = current.NextPrice
	newLevel.PrevPrice = current
	if current.NextPrice != nil {
		current.NextPrice.PrevPrice = newLevel
	}
	current.NextPrice = newLevel
}
