// Package resilience guards calls to the routing provider with a circuit
// breaker and a concurrency bulkhead.
package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/routegov/internal/clock"
	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/types"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Classifier decides whether an outcome counts against the breaker.
type Classifier func(error) bool

// CircuitBreaker stops calling the provider after a run of failures and
// probes it again once the open period has passed.
type CircuitBreaker struct {
	name       string
	clock      types.Clock
	isFailure  Classifier
	failThresh int
	succThresh int
	openFor    time.Duration
	probeLimit int

	state atomic.Int32

	mu       sync.Mutex
	fails    int
	succs    int
	probes   int
	openedAt time.Time
	opened   int64
	rejected int64
	onChange func(from, to State)
}

// CircuitOption configures a CircuitBreaker.
type CircuitOption func(*CircuitBreaker)

// WithClock sets the clock used to time the open period.
func WithClock(c types.Clock) CircuitOption {
	return func(cb *CircuitBreaker) { cb.clock = clock.OrReal(c) }
}

// WithClassifier replaces IsProviderFailure.
func WithClassifier(fn Classifier) CircuitOption {
	return func(cb *CircuitBreaker) {
		if fn != nil {
			cb.isFailure = fn
		}
	}
}

// WithName labels the breaker in stats.
func WithName(name string) CircuitOption {
	return func(cb *CircuitBreaker) { cb.name = name }
}

// NewCircuitBreaker creates a closed breaker. Zero config values fall
// back to 5 failures, 2 successes, 30s open and 1 probe.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig, opts ...CircuitOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:       "provider",
		clock:      clock.Real{},
		isFailure:  IsProviderFailure,
		failThresh: cfg.FailureThreshold,
		succThresh: cfg.SuccessThreshold,
		openFor:    cfg.OpenDuration,
		probeLimit: cfg.HalfOpenMaxRequests,
	}
	if cb.failThresh <= 0 {
		cb.failThresh = 5
	}
	if cb.succThresh <= 0 {
		cb.succThresh = 2
	}
	if cb.openFor <= 0 {
		cb.openFor = 30 * time.Second
	}
	if cb.probeLimit <= 0 {
		cb.probeLimit = 1
	}
	for _, opt := range opts {
		opt(cb)
	}
	cb.state.Store(int32(StateClosed))
	return cb
}

// Execute runs fn when the breaker admits it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	if !cb.Allow() {
		return nil, ErrCircuitOpen
	}
	result, err := fn(ctx)
	cb.Record(err)
	return result, err
}

// Allow reports whether a call may proceed, moving an expired open
// breaker to half-open.
func (cb *CircuitBreaker) Allow() bool {
	var change *transition

	cb.mu.Lock()
	allowed := true
	switch State(cb.state.Load()) {
	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) < cb.openFor {
			allowed = false
			break
		}
		change = cb.moveTo(StateHalfOpen)
		cb.probes = 1
	case StateHalfOpen:
		if cb.probes >= cb.probeLimit {
			allowed = false
			break
		}
		cb.probes++
	}
	if !allowed {
		cb.rejected++
	}
	cb.mu.Unlock()

	change.fire()
	return allowed
}

// Record feeds an outcome to the breaker.
func (cb *CircuitBreaker) Record(err error) {
	if cb.isFailure(err) {
		cb.RecordFailure()
		return
	}
	cb.RecordSuccess()
}

func (cb *CircuitBreaker) RecordSuccess() {
	var change *transition

	cb.mu.Lock()
	switch State(cb.state.Load()) {
	case StateClosed:
		cb.fails = 0
	case StateHalfOpen:
		cb.succs++
		if cb.succs >= cb.succThresh {
			change = cb.moveTo(StateClosed)
		} else if cb.probes > 0 {
			// free the slot so the next probe can run
			cb.probes--
		}
	}
	cb.mu.Unlock()

	change.fire()
}

func (cb *CircuitBreaker) RecordFailure() {
	var change *transition

	cb.mu.Lock()
	switch State(cb.state.Load()) {
	case StateClosed:
		cb.fails++
		if cb.fails >= cb.failThresh {
			change = cb.moveTo(StateOpen)
		}
	case StateHalfOpen:
		change = cb.moveTo(StateOpen)
	}
	cb.mu.Unlock()

	change.fire()
}

type transition struct {
	from, to State
	fn       func(from, to State)
}

func (t *transition) fire() {
	if t != nil && t.fn != nil {
		t.fn(t.from, t.to)
	}
}

// moveTo must be called with mu held. The returned transition fires
// after the lock is released.
func (cb *CircuitBreaker) moveTo(next State) *transition {
	prev := State(cb.state.Load())
	if prev == next {
		return nil
	}
	switch next {
	case StateClosed:
		cb.fails, cb.succs, cb.probes = 0, 0, 0
	case StateOpen:
		cb.openedAt = cb.clock.Now()
		cb.succs, cb.probes = 0, 0
		cb.opened++
	case StateHalfOpen:
		cb.succs, cb.probes = 0, 0
	}
	cb.state.Store(int32(next))
	if cb.onChange == nil {
		return nil
	}
	return &transition{from: prev, to: next, fn: cb.onChange}
}

func (cb *CircuitBreaker) State() State {
	return State(cb.state.Load())
}

func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// SetOnStateChange registers a callback run synchronously after each
// transition, outside the breaker's lock.
func (cb *CircuitBreaker) SetOnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onChange = fn
}

// Reset closes the breaker and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.fails, cb.succs, cb.probes = 0, 0, 0
	cb.state.Store(int32(StateClosed))
}

// CircuitStats is a point-in-time view of a breaker.
type CircuitStats struct {
	Name             string
	State            State
	ConsecutiveFails int
	TimesOpened      int64
	Rejected         int64
}

func (cb *CircuitBreaker) Stats() CircuitStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitStats{
		Name:             cb.name,
		State:            cb.State(),
		ConsecutiveFails: cb.fails,
		TimesOpened:      cb.opened,
		Rejected:         cb.rejected,
	}
}

// DisabledCircuitBreaker admits every call.
type DisabledCircuitBreaker struct{}

func (DisabledCircuitBreaker) Execute(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	return fn(ctx)
}
func (DisabledCircuitBreaker) State() State                          { return StateClosed }
func (DisabledCircuitBreaker) IsOpen() bool                          { return false }
func (DisabledCircuitBreaker) SetOnStateChange(func(from, to State)) {}
func (DisabledCircuitBreaker) Stats() CircuitStats                   { return CircuitStats{Name: "disabled"} }
