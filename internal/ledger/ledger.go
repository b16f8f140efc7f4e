// Package ledger records every attempt to use the metered provider and
// answers daily quota questions from those records.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavishGent/routegov/internal/clock"
	"github.com/LavishGent/routegov/internal/storage"
	"github.com/LavishGent/routegov/internal/types"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultMaxRecords = 1000
	DefaultDailyQuota = 2000
)

// Options configures a Ledger.
type Options struct {
	MaxRecords int
	// Location fixes where the quota day starts. Nil means time.Local.
	Location   *time.Location
	Clock      types.Clock
	Serializer types.Serializer
	Logger     *slog.Logger
}

// Ledger is an append-only, capped sequence of usage records, persisted
// in full on every append. The in-memory copy is authoritative: a
// failed write is logged and the process carries on.
type Ledger struct {
	writeMu    sync.Mutex // serializes append+persist so writes land in order
	mu         sync.RWMutex
	records    []types.UsageRecord
	maxRecords int
	loc        *time.Location
	store      types.KeyValueStore
	serializer types.Serializer
	clock      types.Clock
	logger     *slog.Logger
}

// New loads the persisted ledger from store. Missing or unreadable data
// yields an empty ledger.
func New(ctx context.Context, store types.KeyValueStore, opts Options) *Ledger {
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = DefaultMaxRecords
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if store == nil {
		store = storage.NewDisabledStore()
	}
	if opts.Serializer == nil {
		opts.Serializer = storage.NewJSONSerializer()
	}

	l := &Ledger{
		maxRecords: opts.MaxRecords,
		loc:        opts.Location,
		store:      store,
		serializer: opts.Serializer,
		clock:      clock.OrReal(opts.Clock),
		logger:     opts.Logger.With("component", "usage-ledger"),
	}
	l.records = l.load(ctx)
	return l
}

func (l *Ledger) load(ctx context.Context) []types.UsageRecord {
	raw, err := l.store.Get(ctx, storage.UsageLogKey)
	if err != nil {
		if !types.IsNotFound(err) {
			l.logger.Warn("Failed to load usage log, starting empty", "error", err)
		}
		return nil
	}

	var records []types.UsageRecord
	if err := l.serializer.Unmarshal([]byte(raw), &records); err != nil {
		l.logger.Warn("Usage log is corrupt, starting empty", "error", err)
		return nil
	}
	if len(records) > l.maxRecords {
		records = records[len(records)-l.maxRecords:]
	}
	l.logger.Debug("Loaded usage log", "records", len(records))
	return records
}

// Log appends a record stamped with the current time, drops the oldest
// records beyond the cap and persists the result.
func (l *Ledger) Log(ctx context.Context, endpoint string, success, cached bool) {
	rec := types.UsageRecord{
		Timestamp: l.clock.Now(),
		Endpoint:  endpoint,
		Success:   success,
		Cached:    cached,
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	l.records = append(l.records, rec)
	if over := len(l.records) - l.maxRecords; over > 0 {
		// Copy so the backing array does not grow without bound.
		trimmed := make([]types.UsageRecord, l.maxRecords)
		copy(trimmed, l.records[over:])
		l.records = trimmed
	}
	data, err := l.serializer.Marshal(l.records)
	l.mu.Unlock()

	if err != nil {
		l.logger.Error("Failed to encode usage log", "error", err)
		return
	}
	if err := l.store.Set(ctx, storage.UsageLogKey, string(data)); err != nil {
		l.logger.Warn("Failed to persist usage log", "error", err, "backend", l.store.Name())
	}
}

// Today aggregates the records stamped at or after the start of the
// current day.
func (l *Ledger) Today() types.TodayUsage {
	start := clock.StartOfDay(l.clock.Now(), l.loc)

	l.mu.RLock()
	defer l.mu.RUnlock()

	usage := types.TodayUsage{ByEndpoint: make(map[string]int)}
	for _, rec := range l.records {
		if rec.Timestamp.Before(start) {
			continue
		}
		usage.Total++
		if rec.Cached {
			usage.Cached++
		}
		usage.ByEndpoint[rec.Endpoint]++
	}
	usage.APICalls = usage.Total - usage.Cached
	return usage
}

// WithinRateLimit reports whether today's non-cached calls are below limit.
func (l *Ledger) WithinRateLimit(limit int) bool {
	return l.Today().APICalls < limit
}

// Remaining returns how many non-cached calls are left today under limit.
func (l *Ledger) Remaining(limit int) int {
	return max(0, limit-l.Today().APICalls)
}

// Records returns a copy of the ledger, oldest first.
func (l *Ledger) Records() []types.UsageRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.UsageRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of retained records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Location returns the location that defines the quota day.
func (l *Ledger) Location() *time.Location {
	return l.loc
}
