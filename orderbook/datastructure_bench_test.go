package orderbook

import (
	"fmt"
	"math/rand"
	"testing"

	"lightning-book/domain"
	"lightning-book/workload"
)

// Side book implementations compared on the same shuffled price ladders.
// The hash map + list keeps inserts O(n) in the number of levels, the trees
// stay O(log n); real books rarely hold more than a few hundred levels.

func generatePrices(n int) []int64 {
	prices := make([]int64, n)
	for i := 0; i < n; i++ {
		prices[i] = 50000 + int64(i)
	}
	rng := rand.New(rand.NewSource(int64(n)))
	rng.Shuffle(n, func(i, j int) {
		prices[i], prices[j] = prices[j], prices[i]
	})
	return prices
}

func BenchmarkPriceTreeInsert(b *testing.B) {
	for _, treeType := range PriceTreeTypes() {
		for _, n := range []int{100, 1000, 10000} {
			prices := generatePrices(n)
			b.Run(fmt.Sprintf("%s/%d", treeType, n), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					tree := NewPriceTreeWithType(treeType, domain.SideBid)
					for _, price := range prices {
						tree.GetOrCreateLevel(price)
					}
				}
			})
		}
	}
}

func BenchmarkPriceTreeGetBest(b *testing.B) {
	for _, treeType := range PriceTreeTypes() {
		tree := NewPriceTreeWithType(treeType, domain.SideBid)
		for _, price := range generatePrices(100) {
			tree.GetOrCreateLevel(price)
		}
		b.Run(treeType.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = tree.GetBestLevel()
			}
		})
	}
}

func BenchmarkPriceTreeRemove(b *testing.B) {
	prices := generatePrices(100)
	for _, treeType := range PriceTreeTypes() {
		b.Run(treeType.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				tree := NewPriceTreeWithType(treeType, domain.SideBid)
				for _, price := range prices {
					tree.GetOrCreateLevel(price)
				}
				b.StartTimer()

				for _, price := range prices {
					tree.RemoveLevel(price)
				}
			}
		})
	}
}

// BenchmarkOrderBookWorkload replays a mixed add/cancel/amend stream
func BenchmarkOrderBookWorkload(b *testing.B) {
	const commands = 1 << 16
	gen := workload.NewGenerator(workload.Config{
		Seed:        1,
		BasePrice:   50000,
		PriceRange:  200,
		MaxQuantity: 100,
		CancelRatio: 0.3,
		AmendRatio:  0.1,
	})
	stream := make([]workload.Command, commands)
	for i := range stream {
		stream[i] = gen.Next()
	}

	for _, treeType := range PriceTreeTypes() {
		b.Run(treeType.String(), func(b *testing.B) {
			b.ReportAllocs()
			ob := NewOrderBook(WithPriceTree(treeType))
			for i := 0; i < b.N; i++ {
				if i%commands == 0 && i > 0 {
					b.StopTimer()
					ob = NewOrderBook(WithPriceTree(treeType))
					b.StartTimer()
				}
				_ = workload.Apply(ob, stream[i%commands])
			}
		})
	}
}

func BenchmarkAddOrderNoMatch(b *testing.B) {
	for _, treeType := range PriceTreeTypes() {
		b.Run(treeType.String(), func(b *testing.B) {
			ob := NewOrderBook(WithPriceTree(treeType))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = ob.AddOrder(domain.NewLimitOrder(uint64(i+1), domain.SideBid, 50000-int64(i%100), 10))
			}
		})
	}
}
