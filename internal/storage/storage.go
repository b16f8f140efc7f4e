// Package storage provides the durable key/value backends that the
// usage ledger and the entitlement resolver persist into.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/types"
)

// Storage keys. Per-user and per-feature keys carry the identifier as a suffix.
const (
	UsageLogKey      = "api_usage_log"
	TestTierKey      = "dev_test_tier"
	FeaturePrefix    = "feature_"
	MembershipPrefix = "membership_"
	UserUsagePrefix  = "usage_"
)

// FeatureKey returns the override key for a feature.
func FeatureKey(name string) string { return FeaturePrefix + name }

// MembershipKey returns the persisted tier key for a user.
func MembershipKey(userID string) string { return MembershipPrefix + userID }

// UserUsageKey returns the persisted usage counters key for a user.
func UserUsageKey(userID string) string { return UserUsagePrefix + userID }

// Open builds the backend selected by cfg.Backend. Durable backends get
// the read cache when it is enabled. When key validation is enabled the
// result is wrapped so malformed keys are rejected before they reach it.
func Open(cfg config.StorageConfig, validation config.KeyValidationConfig, logger *slog.Logger) (types.KeyValueStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store types.KeyValueStore
		err   error
	)
	switch cfg.Backend {
	case config.BackendMemory, "":
		store = NewMemoryStore()
	case config.BackendRedis:
		store, err = NewRedisStore(cfg.Redis, cfg.KeyPrefix, logger)
	case config.BackendSQLite:
		store, err = NewSQLiteStore(cfg.SQLite, logger)
	case config.BackendDisabled:
		store = NewDisabledStore()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.ReadCache.Enabled && (cfg.Backend == config.BackendRedis || cfg.Backend == config.BackendSQLite) {
		cached, err := NewCachedStore(store, cfg.ReadCache, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		store = cached
	}

	if validation.Enabled {
		store = NewValidatingStore(store, types.NewKeyValidator(validation.ToTypesConfig()))
	}
	return store, nil
}
