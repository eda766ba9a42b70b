package services

import (
	"context"
	"sync"
	"sync/atomic"
)

// Sink is an unbounded FIFO shared by many producers and one consumer.
// Items from different producers interleave in arrival order; consumers
// that need a stable order sort after draining.
type Sink[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	notify chan struct{}
	done   chan struct{}
	pushed atomic.Int64
}

func NewSink[T any]() *Sink[T] {
	return &Sink[T]{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push never blocks. It returns false once the sink is closed.
func (sink *Sink[T]) Push(item T) bool {
	sink.mu.Lock()
	if sink.closed {
		sink.mu.Unlock()
		return false
	}
	sink.items = append(sink.items, item)
	sink.pushed.Add(1)
	sink.mu.Unlock()

	select {
	case sink.notify <- struct{}{}:
	default:
	}
	return true
}

func (sink *Sink[T]) Close() {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.closed {
		return
	}
	sink.closed = true
	close(sink.done)
}

// Closed is closed once no further items will be pushed.
func (sink *Sink[T]) Closed() <-chan struct{} {
	return sink.done
}

// Drain removes and returns everything currently buffered without waiting.
func (sink *Sink[T]) Drain() []T {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	items := sink.items
	sink.items = nil
	return items
}

// NextBatch blocks until at least one item is buffered and returns up to max
// of them. It returns false when the sink is closed and empty or ctx ends.
func (sink *Sink[T]) NextBatch(ctx context.Context, max int) ([]T, bool) {
	if max <= 0 {
		max = 1
	}
	for {
		sink.mu.Lock()
		if len(sink.items) > 0 {
			count := len(sink.items)
			if count > max {
				count = max
			}
			batch := make([]T, count)
			copy(batch, sink.items)
			sink.items = sink.items[count:]
			if len(sink.items) == 0 {
				sink.items = nil
			}
			sink.mu.Unlock()
			return batch, true
		}
		closed := sink.closed
		sink.mu.Unlock()
		if closed {
			return nil, false
		}

		select {
		case <-sink.notify:
		case <-sink.done:
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (sink *Sink[T]) Next(ctx context.Context) (T, bool) {
	batch, ok := sink.NextBatch(ctx, 1)
	if !ok {
		var zero T
		return zero, false
	}
	return batch[0], true
}

func (sink *Sink[T]) Len() int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return len(sink.items)
}

// Pushed counts every accepted item, drained or not.
func (sink *Sink[T]) Pushed() int64 {
	return sink.pushed.Load()
}
