package types

import (
	"context"
	"time"
)

// Clock supplies the current time. Expiry, quota days and usage months
// are all computed against it.
type Clock interface {
	Now() time.Time
}

// KeyValueStore is the durable string store that the ledger, the
// entitlement resolver and the override provider persist into.
// Get returns ErrNotFound for a missing key.
type KeyValueStore interface {
	Name() string
	IsAvailable() bool
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

type MetricsRecorder interface {
	RecordCacheHit(endpoint string)
	RecordCacheMiss(endpoint string)
	RecordRemoteCall(endpoint, outcome string, latency time.Duration)
	RecordDenied(endpoint, reason string)
	RecordFallback(operation, reason string)
	RecordCircuitBreakerStateChange(from, to string)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
