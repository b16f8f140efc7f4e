package routegov

import (
	"github.com/LavishGent/routegov/internal/types"
)

type (
	// GatewayError wraps a transient provider failure.
	GatewayError = types.GatewayError
	// StoreError wraps a key/value backend failure.
	StoreError = types.StoreError
)

var (
	// ErrClosed indicates that the governor has been closed.
	ErrClosed = types.ErrClosed
	// ErrInvalidWaypoints indicates a directions request with fewer than two waypoints.
	ErrInvalidWaypoints = types.ErrInvalidWaypoints
	// ErrCircuitOpen indicates that the provider circuit breaker is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrBulkheadFull indicates that too many provider calls are in flight.
	ErrBulkheadFull = types.ErrBulkheadFull
	// ErrBulkheadTimeout indicates that waiting for a provider slot timed out.
	ErrBulkheadTimeout = types.ErrBulkheadTimeout
	// ErrUnknownTier indicates an unrecognised membership tier name.
	ErrUnknownTier = types.ErrUnknownTier
	// ErrStoreUnavailable indicates that the durable store cannot be reached.
	ErrStoreUnavailable = types.ErrStoreUnavailable
	// ErrInvalidKey indicates that a store key was rejected.
	ErrInvalidKey = types.ErrInvalidKey
)

// IsTransient reports whether err is a provider failure that may clear
// up on its own.
func IsTransient(err error) bool {
	return types.IsTransient(err)
}

// IsCircuitOpen returns true if the error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}
