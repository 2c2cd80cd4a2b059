package orderbook

import (
	"fmt"

	"lightning-book/domain"
)

// PriceTreeType selects the side book implementation
type PriceTreeType int

const (
	// RedBlackTreeType orders levels in a red-black tree.
	// O(log n) everywhere; the default.
	RedBlackTreeType PriceTreeType = iota

	// BTreeType orders levels in a B-tree.
	// O(log n) everywhere with better cache locality on deep books.
	BTreeType

	// HashMapListType keeps a hash map plus a sorted linked list of levels.
	// O(1) best price and removal, O(n) insert of a new level; suits books with
	// few levels clustered around the touch.
	HashMapListType
)

var priceTreeNames = map[PriceTreeType]string{
	RedBlackTreeType: "rbtree",
	BTreeType:        "btree",
	HashMapListType:  "list",
}

// PriceTreeTypes lists every available implementation
func PriceTreeTypes() []PriceTreeType {
	return []PriceTreeType{RedBlackTreeType, BTreeType, HashMapListType}
}

func (t PriceTreeType) String() string {
	if name, ok := priceTreeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PriceTreeType(%d)", int(t))
}

// ParsePriceTreeType maps a configuration name ("rbtree", "btree", "list") to its type
func ParsePriceTreeType(name string) (PriceTreeType, error) {
	for t, n := range priceTreeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown price tree %q", name)
}

// NewPriceTreeWithType creates a side book of the given implementation
func NewPriceTreeWithType(treeType PriceTreeType, side domain.Side) PriceTreeInterface {
	switch treeType {
	case BTreeType:
		return NewBTreePriceTree(side)
	case HashMapListType:
		return NewHashMapListPriceTree(side)
	case RedBlackTreeType:
		fallthrough
	default:
		return NewRedBlackPriceTree(side)
	}
}
