package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("routegov: key not found")
	ErrStoreUnavailable    = errors.New("routegov: store unavailable")
	ErrClosed              = errors.New("routegov: closed")
	ErrInvalidKey          = errors.New("routegov: invalid key")
	ErrNotConfigured       = errors.New("routegov: provider not configured")
	ErrUnauthorized        = errors.New("routegov: provider rejected api key")
	ErrRateLimited         = errors.New("routegov: provider rate limit exceeded")
	ErrQuotaExceeded       = errors.New("routegov: daily quota exceeded")
	ErrNoResults           = errors.New("routegov: provider returned no results")
	ErrCircuitOpen         = errors.New("routegov: circuit breaker open")
	ErrBulkheadFull        = errors.New("routegov: bulkhead at capacity")
	ErrBulkheadTimeout     = errors.New("routegov: bulkhead timeout")
	ErrInvalidWaypoints    = errors.New("routegov: at least two waypoints required")
	ErrUnknownTier         = errors.New("routegov: unknown membership tier")
	ErrIncompleteTierTable = errors.New("routegov: tier table incomplete")
)

// GatewayError wraps a transient provider failure.
type GatewayError struct {
	Op       string
	Endpoint string
	Status   int
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s on %s [http %d]: %v", e.Op, e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway %s on %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func NewGatewayError(op, endpoint string, status int, err error) *GatewayError {
	return &GatewayError{
		Op:       op,
		Endpoint: endpoint,
		Status:   status,
		Err:      err,
	}
}

// StoreError wraps a key/value backend failure.
type StoreError struct {
	Op      string
	Key     string
	Backend string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s on %s [%s]: %v", e.Op, e.Backend, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s on %s: %v", e.Op, e.Backend, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(op, key, backend string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Key:     key,
		Backend: backend,
		Err:     err,
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsAbsent reports whether err is one of the provider outcomes that
// collapse into an absent result instead of an error.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrNoResults) ||
		errors.Is(err, ErrNotConfigured) ||
		errors.Is(err, ErrQuotaExceeded)
}

// IsTransient reports whether err is a failure the caller may see
// succeed later: network trouble, unexpected status, an open circuit.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsAbsent(err) {
		return false
	}
	if errors.Is(err, ErrClosed) || errors.Is(err, ErrInvalidWaypoints) {
		return false
	}
	return true
}
