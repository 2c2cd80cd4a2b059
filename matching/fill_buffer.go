package matching

import (
	"context"
	"sync"

	"lightning-book/domain"
)

// FillBuffer is the bounded outgoing fill queue of an Engine.
// The matching goroutine is the only producer; any number of consumers may
// read. Publish blocks while the buffer is full, so a stalled consumer
// backpressures the engine instead of dropping fills, until Close.
type FillBuffer struct {
	fills     chan domain.Fill
	closed    chan struct{}
	closeOnce sync.Once
}

// NewFillBuffer creates a buffer holding up to size fills
func NewFillBuffer(size int) *FillBuffer {
	if size <= 0 {
		panic("matching: fill buffer size must be positive")
	}
	return &FillBuffer{
		fills:  make(chan domain.Fill, size),
		closed: make(chan struct{}),
	}
}

// OnFill publishes a fill; it lets the buffer listen on an order book directly
func (fb *FillBuffer) OnFill(fill domain.Fill) {
	fb.Publish(fill)
}

// Publish enqueues a fill, waiting for room when the buffer is full.
// It reports false when the buffer was closed before the fill could be queued.
func (fb *FillBuffer) Publish(fill domain.Fill) bool {
	select {
	case <-fb.closed:
		return false
	default:
	}
	select {
	case fb.fills <- fill:
		return true
	case <-fb.closed:
		return false
	}
}

// Close releases a blocked Publish and turns later ones into no-ops.
// Fills already queued stay readable.
func (fb *FillBuffer) Close() {
	fb.closeOnce.Do(func() { close(fb.closed) })
}

// TryConsume returns the next fill without blocking
func (fb *FillBuffer) TryConsume() (domain.Fill, bool) {
	select {
	case fill := <-fb.fills:
		return fill, true
	default:
		return domain.Fill{}, false
	}
}

// Consume waits for the next fill or for ctx to end
func (fb *FillBuffer) Consume(ctx context.Context) (domain.Fill, error) {
	select {
	case fill := <-fb.fills:
		return fill, nil
	case <-ctx.Done():
		return domain.Fill{}, ctx.Err()
	}
}

// Drain appends every fill currently queued to dst
func (fb *FillBuffer) Drain(dst []domain.Fill) []domain.Fill {
	for {
		fill, ok := fb.TryConsume()
		if !ok {
			return dst
		}
		dst = append(dst, fill)
	}
}

// Len returns the number of queued fills
func (fb *FillBuffer) Len() int {
	return len(fb.fills)
}

// Cap returns the buffer capacity
func (fb *FillBuffer) Cap() int {
	return cap(fb.fills)
}
