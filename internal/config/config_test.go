package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("provider defaults", func(t *testing.T) {
		if cfg.Provider.BaseURL != "https://api.openrouteservice.org" {
			t.Errorf("Provider.BaseURL = %s", cfg.Provider.BaseURL)
		}
		if !cfg.Provider.APIKey.IsEmpty() {
			t.Error("Provider.APIKey should be empty by default")
		}
		if cfg.Provider.DailyQuota != 2000 {
			t.Errorf("Provider.DailyQuota = %d, want 2000", cfg.Provider.DailyQuota)
		}
		if cfg.Provider.Timeout != 10*time.Second {
			t.Errorf("Provider.Timeout = %v, want 10s", cfg.Provider.Timeout)
		}
	})

	t.Run("cache defaults", func(t *testing.T) {
		if cfg.Cache.Capacity != 200 {
			t.Errorf("Cache.Capacity = %d, want 200", cfg.Cache.Capacity)
		}
		if cfg.Cache.RouteTTL != 24*time.Hour {
			t.Errorf("Cache.RouteTTL = %v, want 24h", cfg.Cache.RouteTTL)
		}
		if cfg.Cache.GeocodeTTL != 30*24*time.Hour {
			t.Errorf("Cache.GeocodeTTL = %v, want 720h", cfg.Cache.GeocodeTTL)
		}
		if cfg.Cache.DefaultTTL != 24*time.Hour {
			t.Errorf("Cache.DefaultTTL = %v, want 24h", cfg.Cache.DefaultTTL)
		}
	})

	t.Run("ledger defaults", func(t *testing.T) {
		if cfg.Ledger.MaxRecords != 1000 {
			t.Errorf("Ledger.MaxRecords = %d, want 1000", cfg.Ledger.MaxRecords)
		}
		loc, err := cfg.Ledger.Location()
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if loc != time.Local {
			t.Errorf("Location() = %v, want Local", loc)
		}
	})

	t.Run("estimate defaults", func(t *testing.T) {
		if cfg.Estimate.RoadFactor != 1.3 {
			t.Errorf("Estimate.RoadFactor = %f, want 1.3", cfg.Estimate.RoadFactor)
		}
		if cfg.Estimate.AverageSpeedKmh != 80 {
			t.Errorf("Estimate.AverageSpeedKmh = %f, want 80", cfg.Estimate.AverageSpeedKmh)
		}
	})

	t.Run("test identities", func(t *testing.T) {
		if len(cfg.Entitlements.TestIdentities) != 5 {
			t.Errorf("len(TestIdentities) = %d, want 5", len(cfg.Entitlements.TestIdentities))
		}
	})

	t.Run("storage defaults", func(t *testing.T) {
		if cfg.Storage.Backend != BackendSQLite {
			t.Errorf("Storage.Backend = %s, want sqlite", cfg.Storage.Backend)
		}
		if !cfg.Storage.ReadCache.Enabled || cfg.Storage.ReadCache.TTL != 30*time.Second {
			t.Errorf("Storage.ReadCache = %+v, want enabled with a 30s ttl", cfg.Storage.ReadCache)
		}
		if cfg.Storage.KeyPrefix != "routegov:" {
			t.Errorf("Storage.KeyPrefix = %s, want routegov:", cfg.Storage.KeyPrefix)
		}
	})

	t.Run("defaults validate", func(t *testing.T) {
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})
}

func TestForTesting(t *testing.T) {
	cfg := ForTesting()

	t.Run("resilience features disabled", func(t *testing.T) {
		if cfg.CircuitBreaker.Enabled {
			t.Error("CircuitBreaker.Enabled = true, want false")
		}
		if cfg.Bulkhead.Enabled {
			t.Error("Bulkhead.Enabled = true, want false")
		}
	})

	t.Run("metrics disabled", func(t *testing.T) {
		if cfg.Metrics.Enabled {
			t.Error("Metrics.Enabled = true, want false")
		}
	})

	t.Run("state in memory", func(t *testing.T) {
		if cfg.Storage.Backend != BackendMemory {
			t.Errorf("Storage.Backend = %s, want memory", cfg.Storage.Backend)
		}
		if cfg.Storage.ReadCache.Enabled {
			t.Error("Storage.ReadCache.Enabled = true, want false")
		}
	})

	t.Run("utc day boundaries", func(t *testing.T) {
		loc, err := cfg.Ledger.Location()
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if loc != time.UTC {
			t.Errorf("Location() = %v, want UTC", loc)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Cache.Capacity != 200 {
			t.Errorf("Cache.Capacity = %d, want 200", cfg.Cache.Capacity)
		}
	})

	t.Run("non-existent file returns defaults", func(t *testing.T) {
		cfg, err := Load("/non/existent/path/config.json")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Provider.DailyQuota != 2000 {
			t.Errorf("Provider.DailyQuota = %d, want 2000", cfg.Provider.DailyQuota)
		}
	})

	t.Run("loads valid JSON file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		jsonContent := `{
			"provider": {"apiKey": "ors-key", "dailyQuota": 500},
			"cache": {"capacity": 50},
			"storage": {"backend": "sqlite", "sqlite": {"path": "usage.db"}}
		}`
		if err := os.WriteFile(configPath, []byte(jsonContent), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Provider.APIKey.Value() != "ors-key" {
			t.Errorf("Provider.APIKey = %q, want ors-key", cfg.Provider.APIKey.Value())
		}
		if cfg.Provider.DailyQuota != 500 {
			t.Errorf("Provider.DailyQuota = %d, want 500", cfg.Provider.DailyQuota)
		}
		if cfg.Cache.Capacity != 50 {
			t.Errorf("Cache.Capacity = %d, want 50", cfg.Cache.Capacity)
		}
		if cfg.Storage.Backend != BackendSQLite || cfg.Storage.SQLite.Path != "usage.db" {
			t.Errorf("Storage = %+v", cfg.Storage)
		}
		// Unset fields keep their defaults.
		if cfg.Cache.RouteTTL != 24*time.Hour {
			t.Errorf("Cache.RouteTTL = %v, want 24h", cfg.Cache.RouteTTL)
		}
	})

	t.Run("loads valid YAML file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		yamlContent := `
provider:
  apiKey: yaml-key
  timeout: 3s
cache:
  routeTTL: 12h
ledger:
  timezone: UTC
entitlements:
  testIdentities:
    - qa@example.com
`
		if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Provider.APIKey.Value() != "yaml-key" {
			t.Errorf("Provider.APIKey = %q, want yaml-key", cfg.Provider.APIKey.Value())
		}
		if cfg.Provider.Timeout != 3*time.Second {
			t.Errorf("Provider.Timeout = %v, want 3s", cfg.Provider.Timeout)
		}
		if cfg.Cache.RouteTTL != 12*time.Hour {
			t.Errorf("Cache.RouteTTL = %v, want 12h", cfg.Cache.RouteTTL)
		}
		if !reflect.DeepEqual(cfg.Entitlements.TestIdentities, []string{"qa@example.com"}) {
			t.Errorf("TestIdentities = %v", cfg.Entitlements.TestIdentities)
		}
	})

	t.Run("invalid JSON returns error", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(configPath, []byte("{not json"), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := Load(configPath); err == nil {
			t.Error("Load() error = nil, want parse error")
		}
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(configPath, []byte(`{"cache": {"capacity": 0}}`), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := Load(configPath); err == nil {
			t.Error("Load() error = nil, want validation error")
		}
	})
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("ROUTEGOV_PROVIDER_API_KEY", "env-key")
	t.Setenv("ROUTEGOV_PROVIDER_DAILY_QUOTA", "42")
	t.Setenv("ROUTEGOV_CACHE_ROUTE_TTL", "1h")
	t.Setenv("ROUTEGOV_STORAGE_BACKEND", "Redis")
	t.Setenv("ROUTEGOV_READ_CACHE_TTL", "5s")
	t.Setenv("ROUTEGOV_TEST_IDENTITIES", "a@example.com, b@example.com,")
	t.Setenv("DD_AGENT_HOST", "dd-agent")
	t.Setenv("DD_ENV", "staging")

	cfg, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}

	if cfg.Provider.APIKey.Value() != "env-key" {
		t.Errorf("Provider.APIKey = %q, want env-key", cfg.Provider.APIKey.Value())
	}
	if cfg.Provider.DailyQuota != 42 {
		t.Errorf("Provider.DailyQuota = %d, want 42", cfg.Provider.DailyQuota)
	}
	if cfg.Cache.RouteTTL != time.Hour {
		t.Errorf("Cache.RouteTTL = %v, want 1h", cfg.Cache.RouteTTL)
	}
	if cfg.Storage.Backend != BackendRedis {
		t.Errorf("Storage.Backend = %s, want redis", cfg.Storage.Backend)
	}
	if cfg.Storage.ReadCache.TTL != 5*time.Second {
		t.Errorf("Storage.ReadCache.TTL = %v, want 5s", cfg.Storage.ReadCache.TTL)
	}
	if !reflect.DeepEqual(cfg.Entitlements.TestIdentities, []string{"a@example.com", "b@example.com"}) {
		t.Errorf("TestIdentities = %v", cfg.Entitlements.TestIdentities)
	}
	if !cfg.Metrics.DataDog.Enabled || cfg.Metrics.DataDog.AgentHost != "dd-agent" {
		t.Errorf("DataDog = %+v, want enabled on dd-agent", cfg.Metrics.DataDog)
	}
	if !reflect.DeepEqual(cfg.Metrics.DataDog.Tags, []string{"env:staging"}) {
		t.Errorf("DataDog.Tags = %v", cfg.Metrics.DataDog.Tags)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty base url", func(c *Config) { c.Provider.BaseURL = "" }, true},
		{"zero timeout", func(c *Config) { c.Provider.Timeout = 0 }, true},
		{"negative quota", func(c *Config) { c.Provider.DailyQuota = -1 }, true},
		{"zero quota", func(c *Config) { c.Provider.DailyQuota = 0 }, false},
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }, true},
		{"zero route ttl", func(c *Config) { c.Cache.RouteTTL = 0 }, true},
		{"negative prune interval", func(c *Config) { c.Cache.PruneInterval = -time.Second }, true},
		{"zero ledger cap", func(c *Config) { c.Ledger.MaxRecords = 0 }, true},
		{"bad timezone", func(c *Config) { c.Ledger.Timezone = "Nowhere/Special" }, true},
		{"iana timezone", func(c *Config) { c.Ledger.Timezone = "Europe/Berlin" }, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "etcd" }, true},
		{"read cache shards not power of two", func(c *Config) { c.Storage.ReadCache.Shards = 3 }, true},
		{"read cache zero ttl", func(c *Config) { c.Storage.ReadCache.TTL = 0 }, true},
		{"disabled read cache ignores shards", func(c *Config) {
			c.Storage.ReadCache.Enabled = false
			c.Storage.ReadCache.Shards = 3
		}, false},
		{"memory backend", func(c *Config) { c.Storage.Backend = BackendMemory }, false},
		{"redis without address", func(c *Config) {
			c.Storage.Backend = BackendRedis
			c.Storage.Redis.Address = ""
		}, true},
		{"sqlite without path", func(c *Config) {
			c.Storage.Backend = BackendSQLite
			c.Storage.SQLite.Path = ""
		}, true},
		{"disabled backend", func(c *Config) { c.Storage.Backend = BackendDisabled }, false},
		{"zero road factor", func(c *Config) { c.Estimate.RoadFactor = 0 }, true},
		{"zero speed", func(c *Config) { c.Estimate.AverageSpeedKmh = 0 }, true},
		{"circuit breaker zero threshold", func(c *Config) { c.CircuitBreaker.FailureThreshold = 0 }, true},
		{"disabled circuit breaker ignores threshold", func(c *Config) {
			c.CircuitBreaker.Enabled = false
			c.CircuitBreaker.FailureThreshold = 0
		}, false},
		{"bulkhead zero concurrency", func(c *Config) { c.Bulkhead.MaxConcurrent = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := parseBool(tt.input); got != tt.want {
			t.Errorf("parseBool(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseInt(t *testing.T) {
	if got := parseInt(" 12 ", 1); got != 12 {
		t.Errorf("parseInt() = %d, want 12", got)
	}
	if got := parseInt("abc", 7); got != 7 {
		t.Errorf("parseInt() = %d, want default 7", got)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"5m", 5 * time.Minute},
		{"30", 30 * time.Second},
		{"bogus", time.Hour},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.input, time.Hour); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSecretStringInConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider.APIKey = NewSecretString("super-secret")

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	provider := decoded["provider"].(map[string]any)
	if provider["apiKey"] != "[REDACTED]" {
		t.Errorf("apiKey marshaled as %v, want [REDACTED]", provider["apiKey"])
	}
}
