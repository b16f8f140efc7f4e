package resilience

import (
	"context"

	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/types"
)

// Breaker is the circuit breaker surface the policy needs.
type Breaker interface {
	Execute(ctx context.Context, fn func(context.Context) (any, error)) (any, error)
	State() State
	IsOpen() bool
	SetOnStateChange(fn func(from, to State))
	Stats() CircuitStats
}

// Limiter is the bulkhead surface the policy needs.
type Limiter interface {
	Execute(ctx context.Context, fn func(context.Context) (any, error)) (any, error)
	Stats() BulkheadStats
}

// Policy wraps provider calls as bulkhead -> circuit breaker -> call.
// Calls rejected by the bulkhead never reach the breaker, so load
// shedding does not open the circuit.
type Policy struct {
	breaker Breaker
	limiter Limiter
}

// NewPolicy builds a policy from config. Disabled components pass
// calls straight through.
func NewPolicy(cb config.CircuitBreakerConfig, bh config.BulkheadConfig, clk types.Clock) *Policy {
	p := &Policy{
		breaker: DisabledCircuitBreaker{},
		limiter: DisabledBulkhead{},
	}
	if cb.Enabled {
		p.breaker = NewCircuitBreaker(cb, WithClock(clk))
	}
	if bh.Enabled {
		p.limiter = NewBulkhead(bh)
	}
	return p
}

// NewDisabledPolicy returns a pass-through policy.
func NewDisabledPolicy() *Policy {
	return &Policy{breaker: DisabledCircuitBreaker{}, limiter: DisabledBulkhead{}}
}

// Execute runs fn under the policy.
func (p *Policy) Execute(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	return p.limiter.Execute(ctx, func(ctx context.Context) (any, error) {
		return p.breaker.Execute(ctx, fn)
	})
}

func (p *Policy) CircuitState() State {
	return p.breaker.State()
}

func (p *Policy) IsCircuitOpen() bool {
	return p.breaker.IsOpen()
}

func (p *Policy) SetOnCircuitStateChange(fn func(from, to State)) {
	p.breaker.SetOnStateChange(fn)
}

func (p *Policy) CircuitStats() CircuitStats {
	return p.breaker.Stats()
}

func (p *Policy) BulkheadStats() BulkheadStats {
	return p.limiter.Stats()
}
