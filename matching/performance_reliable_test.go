package matching

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lightning-book/domain"
	"lightning-book/orderbook"
)

// TestMatchingEngineReliableQPS measures completed matching throughput:
// asks rest first, then one bid per ask fills it exactly. The clock stops
// when the last fill has been consumed.
func TestMatchingEngineReliableQPS(t *testing.T) {
	if testing.Short() {
		t.Skip("throughput test")
	}

	for _, treeType := range orderbook.PriceTreeTypes() {
		t.Run(treeType.String(), func(t *testing.T) {
			const numOrders = 100000
			ctx := context.Background()
			e := startEngine(t, WithPriceTree(treeType), WithFillBuffer(numOrders))

			for i := 0; i < numOrders; i++ {
				require.NoError(t, e.AddOrder(ctx, domain.NewLimitOrder(uint64(i+1), domain.SideAsk, 50000, 100)))
			}

			start := time.Now()
			for i := 0; i < numOrders; i++ {
				require.NoError(t, e.AddOrder(ctx, domain.NewLimitOrder(uint64(numOrders+i+1), domain.SideBid, 50000, 100)))
			}
			fills := e.Fills().Drain(nil)
			elapsed := time.Since(start)

			require.Len(t, fills, numOrders)
			qps := float64(numOrders) / elapsed.Seconds()
			t.Logf("orders=%d fills=%d elapsed=%v qps=%.0f latency=%.2fus/order",
				numOrders, len(fills), elapsed, qps, float64(elapsed.Microseconds())/numOrders)
		})
	}
}

// TestMatchingEngineConcurrentReliableQPS repeats the measurement with several
// producers sharing the engine.
func TestMatchingEngineConcurrentReliableQPS(t *testing.T) {
	if testing.Short() {
		t.Skip("throughput test")
	}

	const (
		producers   = 8
		perProducer = 10000
		total       = producers * perProducer
	)
	ctx := context.Background()
	e := startEngine(t, WithFillBuffer(total))

	for i := 0; i < total; i++ {
		require.NoError(t, e.AddOrder(ctx, domain.NewLimitOrder(uint64(i+1), domain.SideAsk, 50000, 100)))
	}

	start := time.Now()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			base := uint64(total + p*perProducer)
			for i := 0; i < perProducer; i++ {
				if err := e.AddOrder(ctx, domain.NewLimitOrder(base+uint64(i)+1, domain.SideBid, 50000, 100)); err != nil {
					t.Error(err)
					return
				}
			}
		}(p)
	}
	wg.Wait()
	fills := e.Fills().Drain(nil)
	elapsed := time.Since(start)

	require.Len(t, fills, total)
	require.NoError(t, e.CheckInvariants(ctx))
	t.Logf("producers=%d orders=%d elapsed=%v qps=%.0f",
		producers, total, elapsed, float64(total)/elapsed.Seconds())
}
