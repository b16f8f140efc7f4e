package entitlement

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/LavishGent/routegov/internal/storage"
	"github.com/LavishGent/routegov/internal/types"
)

// OverrideProvider supplies developer-set feature overrides. An override
// wins over the tier table for every user.
type OverrideProvider interface {
	// Override returns the forced value of a feature and whether one is set.
	Override(ctx context.Context, f Feature) (enabled, ok bool)
	SetOverride(ctx context.Context, f Feature, enabled bool) error
	ClearOverride(ctx context.Context, f Feature) error
	ClearOverrides(ctx context.Context) error
	Overrides(ctx context.Context) (map[Feature]bool, error)
}

// StoreOverrides keeps overrides in a KeyValueStore as "true"/"false"
// strings. Any other stored value reads as no override.
type StoreOverrides struct {
	store  types.KeyValueStore
	logger *slog.Logger
}

// NewStoreOverrides creates a store-backed OverrideProvider.
func NewStoreOverrides(store types.KeyValueStore, logger *slog.Logger) *StoreOverrides {
	if store == nil {
		store = storage.NewDisabledStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreOverrides{store: store, logger: logger.With("component", "feature-overrides")}
}

// Override returns the stored override for f.
func (o *StoreOverrides) Override(ctx context.Context, f Feature) (bool, bool) {
	raw, err := o.store.Get(ctx, storage.FeatureKey(string(f)))
	if err != nil {
		if !types.IsNotFound(err) {
			o.logger.Warn("Failed to read feature override", "feature", f, "error", err)
		}
		return false, false
	}
	switch raw {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// SetOverride forces f on or off.
func (o *StoreOverrides) SetOverride(ctx context.Context, f Feature, enabled bool) error {
	return o.store.Set(ctx, storage.FeatureKey(string(f)), strconv.FormatBool(enabled))
}

// ClearOverride removes the override for f.
func (o *StoreOverrides) ClearOverride(ctx context.Context, f Feature) error {
	return o.store.Remove(ctx, storage.FeatureKey(string(f)))
}

// ClearOverrides removes every feature override.
func (o *StoreOverrides) ClearOverrides(ctx context.Context) error {
	keys, err := o.store.Keys(ctx, storage.FeaturePrefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := o.store.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Overrides lists every well-formed override.
func (o *StoreOverrides) Overrides(ctx context.Context) (map[Feature]bool, error) {
	keys, err := o.store.Keys(ctx, storage.FeaturePrefix)
	if err != nil {
		return nil, err
	}
	out := make(map[Feature]bool, len(keys))
	for _, k := range keys {
		f := Feature(strings.TrimPrefix(k, storage.FeaturePrefix))
		if enabled, ok := o.Override(ctx, f); ok {
			out[f] = enabled
		}
	}
	return out, nil
}

var _ OverrideProvider = (*StoreOverrides)(nil)
