package contact

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() FormData {
	return FormData{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Hello",
		Message: "Loved the guitar post.",
	}
}

type transitions struct {
	mu  sync.Mutex
	got []State
	ch  chan State
}

func newTransitions() *transitions {
	return &transitions{ch: make(chan State, 16)}
}

func (tr *transitions) observe(_, to State) {
	tr.mu.Lock()
	tr.got = append(tr.got, to)
	tr.mu.Unlock()
	tr.ch <- to
}

func (tr *transitions) wait(t *testing.T, want State, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case s := <-tr.ch:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("state %s not reached within %s", want, within)
		}
	}
}

func (tr *transitions) states() []State {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]State(nil), tr.got...)
}

func TestMachineSubmitSuccessThenReset(t *testing.T) {
	tr := newTransitions()
	delay := 50 * time.Millisecond
	m := NewMachine(Simulated{Delay: delay},
		WithResetAfter(100*time.Millisecond),
		WithObserver(tr.observe))
	defer m.Close()

	require.Equal(t, StateIdle, m.State())

	start := time.Now()
	require.NoError(t, m.Submit(context.Background(), validForm()))
	assert.GreaterOrEqual(t, time.Since(start), delay)
	assert.Less(t, time.Since(start), delay+time.Second)
	assert.Equal(t, StateSuccess, m.State())

	tr.wait(t, StateIdle, 2*time.Second)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, []State{StateSending, StateSuccess, StateIdle}, tr.states())
}

func TestMachineSendingIsObservable(t *testing.T) {
	release := make(chan struct{})
	sender := SenderFunc(func(ctx context.Context, _ Message) error {
		<-release
		return nil
	})
	m := NewMachine(sender)
	defer m.Close()

	errc := make(chan error, 1)
	go func() { errc <- m.Submit(context.Background(), validForm()) }()

	require.Eventually(t, func() bool { return m.State() == StateSending },
		time.Second, 5*time.Millisecond)

	err := m.Submit(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-errc)
	assert.Equal(t, StateSuccess, m.State())

	assert.ErrorIs(t, m.Submit(context.Background(), validForm()), ErrBusy)
}

func TestMachineSendFailure(t *testing.T) {
	boom := errors.New("smtp down")
	calls := 0
	sender := SenderFunc(func(context.Context, Message) error {
		calls++
		return boom
	})
	tr := newTransitions()
	m := NewMachine(sender, WithResetAfter(50*time.Millisecond), WithObserver(tr.observe))
	defer m.Close()

	err := m.Submit(context.Background(), validForm())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateError, m.State())
	assert.ErrorIs(t, m.Err(), boom)
	assert.Equal(t, 1, calls, "failed sends must not be retried")

	tr.wait(t, StateIdle, time.Second)
	assert.Equal(t, []State{StateSending, StateError, StateIdle}, tr.states())
}

func TestMachineValidationKeepsIdle(t *testing.T) {
	called := false
	m := NewMachine(SenderFunc(func(context.Context, Message) error {
		called = true
		return nil
	}))
	defer m.Close()

	form := validForm()
	form.Email = "not-an-email"
	form.Subject = "   "
	err := m.Submit(context.Background(), form)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "email")
	assert.Contains(t, verrs, "subject")
	assert.False(t, called)
	assert.Equal(t, StateIdle, m.State())
}

func TestMachineCancelledContext(t *testing.T) {
	m := NewMachine(Simulated{Delay: time.Hour})
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Submit(ctx, validForm())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateError, m.State())
}

func TestMachineResetAndClose(t *testing.T) {
	m := NewMachine(Simulated{Delay: time.Millisecond}, WithResetAfter(time.Hour))
	require.NoError(t, m.Submit(context.Background(), validForm()))
	m.Reset()
	assert.Equal(t, StateIdle, m.State())

	m.Close()
	assert.ErrorIs(t, m.Submit(context.Background(), validForm()), ErrBusy)
}

func TestMachineRecordsRemoteIP(t *testing.T) {
	var got Message
	m := NewMachine(SenderFunc(func(_ context.Context, msg Message) error {
		got = msg
		return nil
	}))
	defer m.Close()

	form := validForm()
	form.Name = "  Ada  "
	ctx := WithRemoteIP(context.Background(), "203.0.113.7")
	require.NoError(t, m.Submit(ctx, form))
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "203.0.113.7", got.RemoteIP)
	assert.Len(t, got.ID, 26)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "sending", StateSending.String())
	assert.Equal(t, "success", StateSuccess.String())
	assert.Equal(t, "error", StateError.String())
}
