package config

import "time"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:        "https://api.openrouteservice.org",
			APIKey:         SecretString{},
			Timeout:        10 * time.Second,
			DailyQuota:     2000,
			DefaultProfile: "driving-car",
		},
		Cache: CacheConfig{
			Capacity:      200,
			DefaultTTL:    24 * time.Hour,
			RouteTTL:      24 * time.Hour,
			GeocodeTTL:    30 * 24 * time.Hour,
			PruneInterval: 0,
		},
		Ledger: LedgerConfig{
			MaxRecords: 1000,
			Timezone:   "Local",
		},
		Storage: StorageConfig{
			Backend:   BackendSQLite,
			KeyPrefix: "routegov:",
			ReadCache: ReadCacheConfig{
				Enabled:      true,
				TTL:          30 * time.Second,
				Shards:       16,
				MaxSizeMB:    8,
				MaxEntrySize: 4 * 1024,
			},
			Redis: RedisConfig{
				Address:             "localhost:6379",
				Password:            SecretString{},
				DB:                  0,
				PoolSize:            10,
				MinIdleConns:        2,
				DialTimeout:         5 * time.Second,
				ReadTimeout:         3 * time.Second,
				WriteTimeout:        3 * time.Second,
				PoolTimeout:         4 * time.Second,
				EnableTLS:           false,
				TLSSkipVerify:       false,
				HealthCheckInterval: 5 * time.Second,
			},
			SQLite: SQLiteConfig{
				Path:        "routegov.db",
				BusyTimeout: 5 * time.Second,
			},
		},
		Entitlements: EntitlementsConfig{
			TestIdentities: []string{
				"test@example.com",
				"dev@example.com",
				"anjacarrillo@example.com",
				"anja@iconicpathways.com",
				"admin@example.com",
			},
		},
		Estimate: EstimateConfig{
			RoadFactor:      1.3,
			AverageSpeedKmh: 80,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			SuccessThreshold:    2,
			OpenDuration:        30 * time.Second,
			HalfOpenMaxRequests: 1,
		},
		Bulkhead: BulkheadConfig{
			Enabled:        true,
			MaxConcurrent:  8,
			MaxQueue:       32,
			AcquireTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 30 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "routegov",
				Tags:      []string{},
			},
		},
		KeyValidation: KeyValidationConfig{
			Enabled:           true,
			MaxKeyLength:      512,
			AllowControlChars: false,
			AllowWhitespace:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ForTesting returns a configuration suitable for tests. It keeps state
// in memory and turns off metrics and resilience wrappers. Days start
// at UTC midnight.
func ForTesting() *Config {
	cfg := DefaultConfig()
	cfg.Storage.Backend = BackendMemory
	cfg.Storage.ReadCache.Enabled = false
	cfg.Ledger.Timezone = "UTC"
	cfg.CircuitBreaker.Enabled = false
	cfg.Bulkhead.Enabled = false
	cfg.Metrics.Enabled = false
	cfg.Metrics.DataDog.Enabled = false
	cfg.Provider.Timeout = 2 * time.Second
	return cfg
}
