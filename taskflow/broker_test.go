package taskflow

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "subscription closed unexpectedly")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func waitClosed(t *testing.T, ch <-chan Event) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel was not closed")
		}
	}
}

func TestMemoryBrokerFanOut(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := NewMemoryBroker(4)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := b.Subscribe(ctx)
	require.NoError(t, err)
	c, err := b.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Subscribers())

	evt := Event{Type: EventCreated, Task: Task{ID: "t1", Title: "Write tests"}}
	require.NoError(t, b.Publish(ctx, evt))

	assert.Equal(t, "t1", recv(t, a).Task.ID)
	assert.Equal(t, "t1", recv(t, c).Task.ID)
}

func TestMemoryBrokerUnsubscribeOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := NewMemoryBroker(1)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	cancel()
	waitClosed(t, ch)
	require.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, b.Publish(context.Background(), Event{Type: EventDeleted}))
}

func TestMemoryBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := NewMemoryBroker(1)
	defer b.Close()

	ch, err := b.Subscribe(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			_ = b.Publish(context.Background(), Event{Type: EventUpdated})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Equal(t, uint64(9), b.Dropped())
	assert.Equal(t, EventUpdated, recv(t, ch).Type)
}

func TestMemoryBrokerClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := NewMemoryBroker(0)
	ch, err := b.Subscribe(context.Background())
	require.NoError(t, err)

	require.NoError(t, b.Close())
	waitClosed(t, ch)
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), Event{}), ErrBrokerClosed)
	_, err = b.Subscribe(context.Background())
	assert.ErrorIs(t, err, ErrBrokerClosed)
}

func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}
	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})
	return server
}

func TestNATSBrokerRoundTrip(t *testing.T) {
	server := startTestNATSServer(t)

	pub, err := DialNATS(server.ClientURL(), "")
	require.NoError(t, err)
	defer pub.Close()
	assert.Equal(t, DefaultSubject, pub.Subject())

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()
	sub := NewNATSBroker(nc, DefaultSubject)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := sub.Subscribe(ctx)
	require.NoError(t, err)

	at := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	want := Event{
		Type: EventUpdated,
		Task: Task{ID: "t1", Title: "Ship it", Status: StatusDone, Priority: PriorityHigh, CreatedAt: at, UpdatedAt: at},
		At:   at,
	}
	require.NoError(t, pub.Publish(ctx, want))

	got := recv(t, ch)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.Task.ID, got.Task.ID)
	assert.Equal(t, want.Task.Status, got.Task.Status)
	assert.True(t, want.At.Equal(got.At))

	cancel()
	waitClosed(t, ch)
}

func TestNATSBrokerClose(t *testing.T) {
	server := startTestNATSServer(t)

	b, err := DialNATS(server.ClientURL(), "folio.test")
	require.NoError(t, err)

	ch, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, b.Close())
	waitClosed(t, ch)

	assert.ErrorIs(t, b.Publish(context.Background(), Event{}), ErrBrokerClosed)
}
