package contact

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned by Submit when the machine is not idle.
var ErrBusy = errors.New("contact: submission already in progress")

// DefaultResetAfter is how long success and error states are shown before
// the form returns to idle.
const DefaultResetAfter = 5 * time.Second

// State is a contact form state.
type State int

const (
	StateIdle State = iota
	StateSending
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Sender delivers an accepted message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Observer is notified after every state transition.
type Observer func(from, to State)

// Option configures a Machine.
type Option func(*Machine)

// WithResetAfter sets the auto-reset delay. Non-positive values keep the default.
func WithResetAfter(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.resetAfter = d
		}
	}
}

// WithObserver registers fn as the transition observer.
func WithObserver(fn Observer) Option {
	return func(m *Machine) { m.onChange = fn }
}

// Machine drives one contact form through
// idle -> sending -> success|error -> idle.
type Machine struct {
	mu         sync.Mutex
	state      State
	lastErr    error
	sender     Sender
	resetAfter time.Duration
	onChange   Observer
	timer      *time.Timer
	closed     bool
}

// NewMachine returns an idle machine that delivers through sender.
func NewMachine(sender Sender, opts ...Option) *Machine {
	m := &Machine{
		sender:     sender,
		resetAfter: DefaultResetAfter,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the send error that moved the machine to StateError, if any.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ResetAfter returns the configured auto-reset delay.
func (m *Machine) ResetAfter() time.Duration { return m.resetAfter }

// OnChange replaces the transition observer.
func (m *Machine) OnChange(fn Observer) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Submit validates f and, if valid, sends it. It may only be called from
// StateIdle. Invalid input leaves the machine idle and returns
// ValidationErrors. Otherwise the machine moves to sending, then to success
// or error, and schedules the return to idle. A failed send is not retried;
// its error is returned.
func (m *Machine) Submit(ctx context.Context, f FormData) error {
	m.mu.Lock()
	if m.closed || m.state != StateIdle {
		m.mu.Unlock()
		return ErrBusy
	}
	f = f.Normalize()
	if err := Validate(f); err != nil {
		m.mu.Unlock()
		return err
	}
	m.lastErr = nil
	notify := m.transitionLocked(StateSending)
	m.mu.Unlock()
	notify()

	err := m.sender.Send(ctx, NewMessage(ctx, f))

	m.mu.Lock()
	next := StateSuccess
	if err != nil {
		next = StateError
		m.lastErr = err
	}
	notify = m.transitionLocked(next)
	if !m.closed {
		m.timer = time.AfterFunc(m.resetAfter, m.autoReset)
	}
	m.mu.Unlock()
	notify()
	return err
}

// Reset returns a finished machine to idle immediately.
func (m *Machine) Reset() {
	m.mu.Lock()
	if m.state != StateSuccess && m.state != StateError {
		m.mu.Unlock()
		return
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	notify := m.transitionLocked(StateIdle)
	m.mu.Unlock()
	notify()
}

// Close stops the pending auto-reset. A closed machine rejects submissions.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Machine) autoReset() {
	m.mu.Lock()
	if m.closed || (m.state != StateSuccess && m.state != StateError) {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	notify := m.transitionLocked(StateIdle)
	m.mu.Unlock()
	notify()
}

// transitionLocked sets the state and returns a func that notifies the
// observer. The func must be called without holding m.mu.
func (m *Machine) transitionLocked(to State) func() {
	from := m.state
	m.state = to
	fn := m.onChange
	return func() {
		if fn != nil {
			fn(from, to)
		}
	}
}
