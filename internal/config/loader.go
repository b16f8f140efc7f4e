package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a JSON or YAML file. Files ending in
// .yaml or .yml are decoded as YAML; everything else as JSON.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a file and applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//nolint:gocyclo // Environment variable parsing requires many conditional checks
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROUTEGOV_PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("ROUTEGOV_PROVIDER_API_KEY"); v != "" {
		cfg.Provider.APIKey = NewSecretString(v)
	}
	if v := os.Getenv("ROUTEGOV_PROVIDER_TIMEOUT"); v != "" {
		cfg.Provider.Timeout = parseDuration(v, cfg.Provider.Timeout)
	}
	if v := os.Getenv("ROUTEGOV_PROVIDER_DAILY_QUOTA"); v != "" {
		cfg.Provider.DailyQuota = parseInt(v, cfg.Provider.DailyQuota)
	}
	if v := os.Getenv("ROUTEGOV_PROVIDER_DEFAULT_COUNTRY"); v != "" {
		cfg.Provider.DefaultCountry = v
	}

	if v := os.Getenv("ROUTEGOV_CACHE_CAPACITY"); v != "" {
		cfg.Cache.Capacity = parseInt(v, cfg.Cache.Capacity)
	}
	if v := os.Getenv("ROUTEGOV_CACHE_ROUTE_TTL"); v != "" {
		cfg.Cache.RouteTTL = parseDuration(v, cfg.Cache.RouteTTL)
	}
	if v := os.Getenv("ROUTEGOV_CACHE_GEOCODE_TTL"); v != "" {
		cfg.Cache.GeocodeTTL = parseDuration(v, cfg.Cache.GeocodeTTL)
	}
	if v := os.Getenv("ROUTEGOV_CACHE_PRUNE_INTERVAL"); v != "" {
		cfg.Cache.PruneInterval = parseDuration(v, cfg.Cache.PruneInterval)
	}

	if v := os.Getenv("ROUTEGOV_LEDGER_MAX_RECORDS"); v != "" {
		cfg.Ledger.MaxRecords = parseInt(v, cfg.Ledger.MaxRecords)
	}
	if v := os.Getenv("ROUTEGOV_LEDGER_TIMEZONE"); v != "" {
		cfg.Ledger.Timezone = v
	}

	if v := os.Getenv("ROUTEGOV_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("ROUTEGOV_STORAGE_KEY_PREFIX"); v != "" {
		cfg.Storage.KeyPrefix = v
	}
	if v := os.Getenv("ROUTEGOV_REDIS_ADDRESS"); v != "" {
		cfg.Storage.Redis.Address = v
	}
	if v := os.Getenv("ROUTEGOV_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = NewSecretString(v)
	}
	if v := os.Getenv("ROUTEGOV_REDIS_DB"); v != "" {
		cfg.Storage.Redis.DB = parseInt(v, cfg.Storage.Redis.DB)
	}
	if v := os.Getenv("ROUTEGOV_REDIS_ENABLE_TLS"); v != "" {
		cfg.Storage.Redis.EnableTLS = parseBool(v)
	}
	if v := os.Getenv("ROUTEGOV_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}
	if v := os.Getenv("ROUTEGOV_READ_CACHE_ENABLED"); v != "" {
		cfg.Storage.ReadCache.Enabled = parseBool(v)
	}
	if v := os.Getenv("ROUTEGOV_READ_CACHE_TTL"); v != "" {
		cfg.Storage.ReadCache.TTL = parseDuration(v, cfg.Storage.ReadCache.TTL)
	}

	if v := os.Getenv("ROUTEGOV_TEST_IDENTITIES"); v != "" {
		cfg.Entitlements.TestIdentities = parseList(v)
	}

	if v := os.Getenv("ROUTEGOV_CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("ROUTEGOV_CIRCUIT_BREAKER_FAILURE_THRESHOLD"); v != "" {
		cfg.CircuitBreaker.FailureThreshold = parseInt(v, cfg.CircuitBreaker.FailureThreshold)
	}
	if v := os.Getenv("ROUTEGOV_CIRCUIT_BREAKER_OPEN_DURATION"); v != "" {
		cfg.CircuitBreaker.OpenDuration = parseDuration(v, cfg.CircuitBreaker.OpenDuration)
	}

	if v := os.Getenv("ROUTEGOV_BULKHEAD_ENABLED"); v != "" {
		cfg.Bulkhead.Enabled = parseBool(v)
	}
	if v := os.Getenv("ROUTEGOV_BULKHEAD_MAX_CONCURRENT"); v != "" {
		cfg.Bulkhead.MaxConcurrent = parseInt(v, cfg.Bulkhead.MaxConcurrent)
	}

	if v := os.Getenv("ROUTEGOV_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	if v := os.Getenv("ROUTEGOV_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ROUTEGOV_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
		cfg.Metrics.DataDog.Enabled = true
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.DataDog.Port = parseInt(v, cfg.Metrics.DataDog.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.DataDog.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "env:"+v)
	}
	if v := os.Getenv("DD_VERSION"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "version:"+v)
	}
}

// Validate checks if the configuration is valid.
//
//nolint:gocyclo // One check per field
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.baseURL is required")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive")
	}
	if c.Provider.DailyQuota < 0 {
		return fmt.Errorf("provider.dailyQuota must not be negative")
	}

	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	if c.Cache.DefaultTTL <= 0 || c.Cache.RouteTTL <= 0 || c.Cache.GeocodeTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.Cache.PruneInterval < 0 {
		return fmt.Errorf("cache.pruneInterval must not be negative")
	}

	if c.Ledger.MaxRecords <= 0 {
		return fmt.Errorf("ledger.maxRecords must be positive")
	}
	if _, err := c.Ledger.Location(); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Storage.Redis.Address == "" {
			return fmt.Errorf("storage.redis.address is required when the redis backend is selected")
		}
		if c.Storage.Redis.PoolSize <= 0 {
			return fmt.Errorf("storage.redis.poolSize must be positive")
		}
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required when the sqlite backend is selected")
		}
	case BackendDisabled:
	default:
		return fmt.Errorf("storage.backend %q is not one of memory, redis, sqlite, disabled", c.Storage.Backend)
	}

	if rc := c.Storage.ReadCache; rc.Enabled {
		if rc.Shards <= 0 || (rc.Shards&(rc.Shards-1)) != 0 {
			return fmt.Errorf("storage.readCache.shards must be a positive power of 2")
		}
		if rc.TTL <= 0 {
			return fmt.Errorf("storage.readCache.ttl must be positive")
		}
	}

	if c.Estimate.RoadFactor <= 0 {
		return fmt.Errorf("estimate.roadFactor must be positive")
	}
	if c.Estimate.AverageSpeedKmh <= 0 {
		return fmt.Errorf("estimate.averageSpeedKmh must be positive")
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailureThreshold <= 0 {
			return fmt.Errorf("circuitBreaker.failureThreshold must be positive")
		}
		if c.CircuitBreaker.OpenDuration <= 0 {
			return fmt.Errorf("circuitBreaker.openDuration must be positive")
		}
	}

	if c.Bulkhead.Enabled {
		if c.Bulkhead.MaxConcurrent <= 0 {
			return fmt.Errorf("bulkhead.maxConcurrent must be positive")
		}
	}

	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}

func parseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
