package taskflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
)

// DefaultSubject carries board events on NATS.
const DefaultSubject = "folio.taskflow.events"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NATSBroker shares board events between processes through a NATS subject.
type NATSBroker struct {
	nc      *nats.Conn
	subject string
	buffer  int
	owned   bool

	mu     sync.Mutex
	done   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewNATSBroker publishes on subject using an existing connection. The
// connection is left open by Close.
func NewNATSBroker(nc *nats.Conn, subject string) *NATSBroker {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSBroker{
		nc:      nc,
		subject: subject,
		buffer:  DefaultSubscriberBuffer,
		done:    make(chan struct{}),
	}
}

// DialNATS connects to url and returns a broker that owns the connection.
func DialNATS(url, subject string) (*NATSBroker, error) {
	nc, err := nats.Connect(url,
		nats.Name("folio-taskflow"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("taskflow: connect to NATS at %s: %w", url, err)
	}
	b := NewNATSBroker(nc, subject)
	b.owned = true
	return b, nil
}

// Subject returns the subject events are published on.
func (b *NATSBroker) Subject() string { return b.subject }

func (b *NATSBroker) Publish(_ context.Context, evt Event) error {
	if b.isClosed() {
		return ErrBrokerClosed
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("taskflow: encode event: %w", err)
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		return fmt.Errorf("taskflow: publish to %s: %w", b.subject, err)
	}
	return nil
}

func (b *NATSBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}

	msgs := make(chan *nats.Msg, b.buffer)
	sub, err := b.nc.ChanSubscribe(b.subject, msgs)
	if err != nil {
		return nil, fmt.Errorf("taskflow: subscribe to %s: %w", b.subject, err)
	}
	// Make sure the server knows about the interest before returning.
	_ = b.nc.FlushTimeout(2 * time.Second)

	out := make(chan Event, b.buffer)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(out)
		defer func() { _ = sub.Unsubscribe() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case m := <-msgs:
				var evt Event
				if err := json.Unmarshal(m.Data, &evt); err != nil {
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				case <-b.done:
					return
				}
			}
		}
	}()
	return out, nil
}

// Close ends all subscriptions and, for dialed brokers, drains the connection.
func (b *NATSBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()
	b.wg.Wait()
	if b.owned {
		b.nc.Close()
	}
	return nil
}

func (b *NATSBroker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
