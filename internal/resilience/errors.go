package resilience

import (
	"context"
	"errors"

	"github.com/LavishGent/routegov/internal/types"
)

var (
	ErrCircuitOpen     = types.ErrCircuitOpen
	ErrBulkheadFull    = types.ErrBulkheadFull
	ErrBulkheadTimeout = types.ErrBulkheadTimeout
)

// IsBulkheadError reports whether err is a bulkhead rejection.
func IsBulkheadError(err error) bool {
	return errors.Is(err, types.ErrBulkheadFull) || errors.Is(err, types.ErrBulkheadTimeout)
}

// IsProviderFailure is the default breaker classifier. Only transient
// provider failures count; absent outcomes mean the provider answered,
// and caller cancellation says nothing about provider health.
func IsProviderFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if IsBulkheadError(err) || errors.Is(err, types.ErrCircuitOpen) {
		return false
	}
	return types.IsTransient(err)
}
