// Package loadgen drives a matching engine with concurrent workload
// generators for a fixed duration.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"lightning-book/config"
	"lightning-book/matching"
	"lightning-book/orderbook"
	"lightning-book/workload"
)

// Result summarizes one run
type Result struct {
	Elapsed    time.Duration
	Operations int64
	Rejected   int64 // unknown ids: the target was filled before the command arrived
	Fills      int64
	Resting    int
}

func (r Result) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Operations) / r.Elapsed.Seconds()
}

func (r Result) FillsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Fills) / r.Elapsed.Seconds()
}

// idStride separates the id ranges handed to each worker
const idStride = 1 << 40

// Run applies generated commands from cfg.Workers goroutines until cfg.Duration
// elapses or ctx ends. The engine must be started; fills are consumed here.
func Run(ctx context.Context, e *matching.Engine, cfg config.Benchmark, logger zerolog.Logger) (Result, error) {
	if cfg.Workers <= 0 {
		return Result{}, fmt.Errorf("loadgen: workers must be positive, got %d", cfg.Workers)
	}
	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var (
		ops, rejected, fills atomic.Int64
		wg                   sync.WaitGroup
		firstErr             error
		errOnce              sync.Once
	)

	consumerDone := make(chan struct{})
	consumeCtx, stopConsumer := context.WithCancel(context.Background())
	if buf := e.Fills(); buf != nil {
		go func() {
			defer close(consumerDone)
			for {
				if _, err := buf.Consume(consumeCtx); err != nil {
					fills.Add(int64(len(buf.Drain(nil))))
					return
				}
				fills.Add(1)
			}
		}()
	} else {
		close(consumerDone)
	}

	logger.Info().
		Int("workers", cfg.Workers).
		Dur("duration", cfg.Duration).
		Int64("seed", cfg.Seed).
		Msg("load generation started")

	start := time.Now()
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			gen := workload.NewGenerator(workload.Config{
				Seed:        cfg.Seed + int64(w),
				FirstID:     uint64(w)*idStride + 1,
				BasePrice:   cfg.BasePrice,
				PriceRange:  cfg.PriceRange,
				MaxQuantity: cfg.MaxQuantity,
				CancelRatio: cfg.CancelRatio,
				AmendRatio:  cfg.AmendRatio,
			})
			for runCtx.Err() == nil {
				cmd := gen.Next()
				err := workload.ApplyContext(runCtx, e, cmd)
				switch {
				case err == nil:
					ops.Add(1)
				case errors.Is(err, orderbook.ErrUnknownOrderID):
					ops.Add(1)
					rejected.Add(1)
					gen.Forget(cmd.OrderID)
				case runCtx.Err() != nil:
					return
				default:
					errOnce.Do(func() { firstErr = fmt.Errorf("loadgen: worker %d: %v: %w", w, cmd, err) })
					cancel()
					return
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)
	stopConsumer()
	<-consumerDone

	res := Result{
		Elapsed:    elapsed,
		Operations: ops.Load(),
		Rejected:   rejected.Load(),
		Fills:      fills.Load(),
	}
	if firstErr != nil {
		return res, firstErr
	}

	resting, err := e.Len(ctx)
	if err != nil {
		return res, err
	}
	res.Resting = resting
	if err := e.CheckInvariants(ctx); err != nil {
		return res, fmt.Errorf("loadgen: book inconsistent after run: %w", err)
	}

	logger.Info().
		Int64("operations", res.Operations).
		Int64("rejected", res.Rejected).
		Int64("fills", res.Fills).
		Int("resting_orders", res.Resting).
		Float64("ops_per_sec", res.OpsPerSecond()).
		Float64("fills_per_sec", res.FillsPerSecond()).
		Dur("elapsed", res.Elapsed).
		Msg("load generation finished")
	return res, nil
}
