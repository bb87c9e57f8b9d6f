package taskflow

import (
	"context"
	"sync"
	"sync/atomic"
)

// Broker fans board events out to subscribers. A subscription lasts until
// its context is done or the broker is closed, after which the returned
// channel is closed.
type Broker interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}

// DefaultSubscriberBuffer is the per-subscriber channel capacity.
const DefaultSubscriberBuffer = 32

// MemoryBroker delivers events within the process. A subscriber whose
// buffer is full misses the event; publishers never block.
type MemoryBroker struct {
	mu      sync.Mutex
	subs    map[chan Event]struct{}
	buffer  int
	done    chan struct{}
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

// NewMemoryBroker returns a broker with the given subscriber buffer size.
// Non-positive sizes use DefaultSubscriberBuffer.
func NewMemoryBroker(buffer int) *MemoryBroker {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &MemoryBroker{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
		done:   make(chan struct{}),
	}
}

func (b *MemoryBroker) Publish(_ context.Context, evt Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}
	ch := make(chan Event, b.buffer)
	b.subs[ch] = struct{}{}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}

// Subscribers returns the number of live subscriptions.
func (b *MemoryBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *MemoryBroker) Dropped() uint64 { return b.dropped.Load() }

// Close ends every subscription and waits for them to be released.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}
