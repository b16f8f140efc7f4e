// Package config provides configuration management for routegov.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/LavishGent/routegov/internal/types"
)

// SecretString is a string type that redacts its value when marshaled to JSON.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Storage backend names.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendDisabled = "disabled"
)

// Config contains all configuration for the usage governor.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type Config struct {
	Provider       ProviderConfig       `json:"provider" yaml:"provider"`
	Cache          CacheConfig          `json:"cache" yaml:"cache"`
	Ledger         LedgerConfig         `json:"ledger" yaml:"ledger"`
	Storage        StorageConfig        `json:"storage" yaml:"storage"`
	Entitlements   EntitlementsConfig   `json:"entitlements" yaml:"entitlements"`
	Estimate       EstimateConfig       `json:"estimate" yaml:"estimate"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker" yaml:"circuitBreaker"`
	Bulkhead       BulkheadConfig       `json:"bulkhead" yaml:"bulkhead"`
	Metrics        MetricsConfig        `json:"metrics" yaml:"metrics"`
	KeyValidation  KeyValidationConfig  `json:"keyValidation" yaml:"keyValidation"`
	Logging        LoggingConfig        `json:"logging" yaml:"logging"`
}

// ProviderConfig configures the metered routing/geocoding provider.
// An empty APIKey leaves the provider unconfigured.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type ProviderConfig struct {
	BaseURL        string        `json:"baseURL" yaml:"baseURL"`
	APIKey         SecretString  `json:"apiKey" yaml:"apiKey"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
	DailyQuota     int           `json:"dailyQuota" yaml:"dailyQuota"`
	DefaultProfile string        `json:"defaultProfile" yaml:"defaultProfile"`
	DefaultCountry string        `json:"defaultCountry" yaml:"defaultCountry"`
}

// CacheConfig configures the in-process response cache.
type CacheConfig struct {
	Capacity      int           `json:"capacity" yaml:"capacity"`
	DefaultTTL    time.Duration `json:"defaultTTL" yaml:"defaultTTL"`
	RouteTTL      time.Duration `json:"routeTTL" yaml:"routeTTL"`
	GeocodeTTL    time.Duration `json:"geocodeTTL" yaml:"geocodeTTL"`
	PruneInterval time.Duration `json:"pruneInterval" yaml:"pruneInterval"`
}

// LedgerConfig configures the usage ledger. Timezone fixes where the
// quota day and the usage month begin: "Local", "UTC" or an IANA name.
type LedgerConfig struct {
	MaxRecords int    `json:"maxRecords" yaml:"maxRecords"`
	Timezone   string `json:"timezone" yaml:"timezone"`
}

// Location resolves Timezone.
func (c LedgerConfig) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Timezone) {
	case "", "Local", "local":
		return time.Local, nil
	case "UTC", "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ledger.timezone: %w", err)
	}
	return loc, nil
}

// StorageConfig selects and configures the durable key/value backend.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type StorageConfig struct {
	Backend   string          `json:"backend" yaml:"backend"`
	KeyPrefix string          `json:"keyPrefix" yaml:"keyPrefix"`
	ReadCache ReadCacheConfig `json:"readCache" yaml:"readCache"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	SQLite    SQLiteConfig    `json:"sqlite" yaml:"sqlite"`
}

// ReadCacheConfig configures the bigcache read cache placed in front of
// the redis and sqlite backends. It only holds copies of stored values.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type ReadCacheConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	TTL          time.Duration `json:"ttl" yaml:"ttl"`
	Shards       int           `json:"shards" yaml:"shards"`
	MaxSizeMB    int           `json:"maxSizeMB" yaml:"maxSizeMB"`
	MaxEntrySize int           `json:"maxEntrySize" yaml:"maxEntrySize"`
}

// RedisConfig contains configuration for the Redis store.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type RedisConfig struct {
	DialTimeout         time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout         time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout        time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	PoolTimeout         time.Duration `json:"poolTimeout" yaml:"poolTimeout"`
	HealthCheckInterval time.Duration `json:"healthCheckInterval" yaml:"healthCheckInterval"`
	Password            SecretString  `json:"password" yaml:"password"`
	Address             string        `json:"address" yaml:"address"`
	DB                  int           `json:"db" yaml:"db"`
	PoolSize            int           `json:"poolSize" yaml:"poolSize"`
	MinIdleConns        int           `json:"minIdleConns" yaml:"minIdleConns"`
	EnableTLS           bool          `json:"enableTLS" yaml:"enableTLS"`
	TLSSkipVerify       bool          `json:"tlsSkipVerify" yaml:"tlsSkipVerify"`
}

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	Path        string        `json:"path" yaml:"path"`
	BusyTimeout time.Duration `json:"busyTimeout" yaml:"busyTimeout"`
}

// EntitlementsConfig configures tier resolution.
type EntitlementsConfig struct {
	// TestIdentities resolve to the test tier unless a stored membership
	// or a test tier override says otherwise.
	TestIdentities []string `json:"testIdentities" yaml:"testIdentities"`
}

// EstimateConfig tunes the local route approximation.
type EstimateConfig struct {
	RoadFactor      float64 `json:"roadFactor" yaml:"roadFactor"`
	AverageSpeedKmh float64 `json:"averageSpeedKmh" yaml:"averageSpeedKmh"`
}

// CircuitBreakerConfig contains configuration for the circuit breaker
// wrapped around provider calls.
type CircuitBreakerConfig struct {
	Enabled             bool          `json:"enabled" yaml:"enabled"`
	FailureThreshold    int           `json:"failureThreshold" yaml:"failureThreshold"`
	SuccessThreshold    int           `json:"successThreshold" yaml:"successThreshold"`
	OpenDuration        time.Duration `json:"openDuration" yaml:"openDuration"`
	HalfOpenMaxRequests int           `json:"halfOpenMaxRequests" yaml:"halfOpenMaxRequests"`
}

// BulkheadConfig caps concurrent provider calls.
type BulkheadConfig struct {
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	MaxConcurrent  int           `json:"maxConcurrent" yaml:"maxConcurrent"`
	MaxQueue       int           `json:"maxQueue" yaml:"maxQueue"`
	AcquireTimeout time.Duration `json:"acquireTimeout" yaml:"acquireTimeout"`
}

// MetricsConfig contains configuration for metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type MetricsConfig struct {
	PublishInterval time.Duration `json:"publishInterval" yaml:"publishInterval"`
	DataDog         DataDogConfig `json:"datadog" yaml:"datadog"`
	Enabled         bool          `json:"enabled" yaml:"enabled"`
}

// DataDogConfig contains configuration for DataDog metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type DataDogConfig struct {
	Tags      []string `json:"tags" yaml:"tags"`
	AgentHost string   `json:"agentHost" yaml:"agentHost"`
	Prefix    string   `json:"prefix" yaml:"prefix"`
	Port      int      `json:"port" yaml:"port"`
	Enabled   bool     `json:"enabled" yaml:"enabled"`
}

// KeyValidationConfig contains configuration for store key validation.
type KeyValidationConfig struct {
	ReservedPatterns  []string `json:"reservedPatterns" yaml:"reservedPatterns"`
	MaxKeyLength      int      `json:"maxKeyLength" yaml:"maxKeyLength"`
	Enabled           bool     `json:"enabled" yaml:"enabled"`
	AllowControlChars bool     `json:"allowControlChars" yaml:"allowControlChars"`
	AllowWhitespace   bool     `json:"allowWhitespace" yaml:"allowWhitespace"`
}

// ToTypesConfig converts this config to a types.KeyValidationConfig.
func (c KeyValidationConfig) ToTypesConfig() types.KeyValidationConfig {
	return types.KeyValidationConfig{
		MaxKeyLength:      c.MaxKeyLength,
		AllowControlChars: c.AllowControlChars,
		AllowWhitespace:   c.AllowWhitespace,
		ReservedPatterns:  c.ReservedPatterns,
	}
}

// LoggingConfig controls the slog handler built by the CLI.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}
