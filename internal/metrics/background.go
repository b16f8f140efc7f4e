package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavishGent/routegov/internal/types"
)

// BackgroundPublisher publishes health and gateway counters on an
// interval until stopped.
type BackgroundPublisher struct {
	publisher   Publisher
	logger      *slog.Logger
	getHealth   func() *types.HealthMetrics
	getSnapshot func() types.MetricsSnapshot
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	interval    time.Duration
	stopOnce    sync.Once
}

// NewBackgroundPublisher creates a publisher loop. Either source
// function may be nil.
func NewBackgroundPublisher(
	publisher Publisher,
	interval time.Duration,
	healthFn func() *types.HealthMetrics,
	snapshotFn func() types.MetricsSnapshot,
	logger *slog.Logger,
) *BackgroundPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &BackgroundPublisher{
		publisher:   publisher,
		interval:    interval,
		logger:      logger.With("component", "metrics-background"),
		getHealth:   healthFn,
		getSnapshot: snapshotFn,
	}
}

// Start launches the loop. ctx bounds its lifetime.
func (b *BackgroundPublisher) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.run(ctx)
	b.logger.Info("Background metrics publisher started", "interval", b.interval)
}

// Stop cancels the loop and waits for the final publish.
func (b *BackgroundPublisher) Stop() {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		b.wg.Wait()
		b.logger.Info("Background metrics publisher stopped")
	})
}

func (b *BackgroundPublisher) run(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.publish()
			return
		case <-ticker.C:
			b.publish()
		}
	}
}

func (b *BackgroundPublisher) publish() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in metrics publisher", "panic", r)
		}
	}()

	if b.getHealth != nil {
		if m := b.getHealth(); m != nil {
			b.publisher.PublishHealthMetrics(m)
		}
	}
	if b.getSnapshot != nil {
		b.publisher.PublishSnapshot(b.getSnapshot())
	}
}

// PublishNow publishes immediately.
func (b *BackgroundPublisher) PublishNow() {
	b.publish()
}
