package orderbus

import (
	"strconv"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/thecao365/orko/internal/observability"
)

const defaultQueueDepth = 64

// MemoryBus is an in-memory implementation of the order event bus. Publish
// enqueues without blocking; a fixed pool of fanout workers drains the queue
// and delivers to subscribers, dropping events a subscriber cannot keep up
// with.
type MemoryBus struct {
	queue   chan Event
	workers *pool.Pool

	mu          sync.RWMutex
	subscribers map[SubscriptionID]chan Event
	nextID      uint64
	closed      bool
	closeOnce   sync.Once
}

// NewMemoryBus constructs a memory bus with the given queue depth and fanout
// worker count.
func NewMemoryBus(queueDepth, workers int) *MemoryBus {
	if queueDepth <= 0 {
		queueDepth = defaultQueueDepth
	}
	if workers <= 0 {
		workers = 1
	}
	b := &MemoryBus{
		queue:       make(chan Event, queueDepth),
		workers:     pool.New().WithMaxGoroutines(workers),
		subscribers: make(map[SubscriptionID]chan Event),
	}
	for i := 0; i < workers; i++ {
		b.workers.Go(b.fanout)
	}
	return b
}

// Publish enqueues the event for delivery. When the queue is full the event
// is dropped and logged rather than blocking the caller. Publishing on a
// closed bus is a silent no-op.
func (b *MemoryBus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.queue <- evt:
	default:
		observability.Log().Error("order event dropped, queue full",
			observability.Field{Key: "exchange", Value: evt.Exchange},
			observability.Field{Key: "pair", Value: evt.Pair.String()},
		)
	}
}

func (b *MemoryBus) fanout() {
	for evt := range b.queue {
		b.mu.RLock()
		targets := make([]chan Event, 0, len(b.subscribers))
		for _, ch := range b.subscribers {
			targets = append(targets, ch)
		}
		b.mu.RUnlock()

		for _, ch := range targets {
			select {
			case ch <- evt:
			default:
				observability.Log().Debug("order event dropped for slow subscriber",
					observability.Field{Key: "exchange", Value: evt.Exchange},
				)
			}
		}
	}
}

// Subscribe registers a listener with its own buffered channel.
func (b *MemoryBus) Subscribe(buffer int) (SubscriptionID, <-chan Event) {
	if buffer <= 0 {
		buffer = defaultQueueDepth
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.nextID++
	id := SubscriptionID("sub-" + strconv.FormatUint(b.nextID, 10))
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes the listener and closes its channel.
func (b *MemoryBus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Close stops the fanout workers and releases all subscribers. Concurrent
// publishers observe the closed flag before the queue channel goes away.
func (b *MemoryBus) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		close(b.queue)
		b.workers.Wait()
		b.mu.Lock()
		for id, ch := range b.subscribers {
			delete(b.subscribers, id)
			close(ch)
		}
		b.mu.Unlock()
	})
}
