package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/LavishGent/routegov/internal/config"
)

// Bulkhead caps concurrent provider calls. Callers beyond the cap wait
// in a bounded queue for at most the acquire timeout.
type Bulkhead struct {
	maxConcurrent  int
	maxQueue       int
	acquireTimeout time.Duration
	slots          chan struct{}

	active   atomic.Int32
	queued   atomic.Int32
	rejected atomic.Int64
	executed atomic.Int64
}

// NewBulkhead creates a bulkhead. Zero config values fall back to 8
// concurrent calls, a queue of 32 and a 2s acquire timeout. A negative
// MaxQueue rejects as soon as every slot is busy.
func NewBulkhead(cfg config.BulkheadConfig) *Bulkhead {
	b := &Bulkhead{
		maxConcurrent:  cfg.MaxConcurrent,
		maxQueue:       cfg.MaxQueue,
		acquireTimeout: cfg.AcquireTimeout,
	}
	if b.maxConcurrent <= 0 {
		b.maxConcurrent = 8
	}
	switch {
	case b.maxQueue < 0:
		b.maxQueue = 0 // no waiting
	case b.maxQueue == 0:
		b.maxQueue = 32
	}
	if b.acquireTimeout <= 0 {
		b.acquireTimeout = 2 * time.Second
	}
	b.slots = make(chan struct{}, b.maxConcurrent)
	return b
}

// Execute runs fn once a slot is free.
func (b *Bulkhead) Execute(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	if err := b.acquire(ctx); err != nil {
		return nil, err
	}
	defer func() { <-b.slots }()

	b.active.Add(1)
	defer b.active.Add(-1)

	result, err := fn(ctx)
	b.executed.Add(1)
	return result, err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	default:
	}

	if int(b.queued.Add(1)) > b.maxQueue {
		b.queued.Add(-1)
		b.rejected.Add(1)
		return ErrBulkheadFull
	}
	defer b.queued.Add(-1)

	timer := time.NewTimer(b.acquireTimeout)
	defer timer.Stop()

	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		b.rejected.Add(1)
		return ctx.Err()
	case <-timer.C:
		b.rejected.Add(1)
		return ErrBulkheadTimeout
	}
}

// BulkheadStats is a point-in-time view of a bulkhead.
type BulkheadStats struct {
	MaxConcurrent int
	MaxQueue      int
	Active        int
	Queued        int
	Executed      int64
	Rejected      int64
}

func (b *Bulkhead) Stats() BulkheadStats {
	return BulkheadStats{
		MaxConcurrent: b.maxConcurrent,
		MaxQueue:      b.maxQueue,
		Active:        int(b.active.Load()),
		Queued:        int(b.queued.Load()),
		Executed:      b.executed.Load(),
		Rejected:      b.rejected.Load(),
	}
}

// DisabledBulkhead runs every call immediately.
type DisabledBulkhead struct{}

func (DisabledBulkhead) Execute(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	return fn(ctx)
}
func (DisabledBulkhead) Stats() BulkheadStats { return BulkheadStats{} }
