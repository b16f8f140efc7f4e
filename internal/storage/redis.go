package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/types"
)

const (
	disconnectErrorThreshold = 5
	scanBatchSize            = 100
)

// RedisStore is a KeyValueStore backed by Redis. Keys are namespaced
// with a prefix so several deployments can share one database.
// Values never expire.
type RedisStore struct {
	client *redis.Client
	config config.RedisConfig
	prefix string
	logger *slog.Logger

	mu            sync.RWMutex
	connected     atomic.Bool
	lastError     error
	lastErrorTime time.Time
	errorCount    atomic.Int64

	healthCheckStopCh chan struct{}
	healthCheckWg     sync.WaitGroup
	closeOnce         sync.Once
}

// NewRedisStore connects to Redis. An unreachable server is not an
// error: the store reports itself unavailable and the health check
// worker reconnects when the server comes back.
func NewRedisStore(cfg config.RedisConfig, prefix string, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec // opt-in via config
		}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - this is insecure for production use")
		}
	}

	rs := &RedisStore{
		client:            redis.NewClient(opts),
		config:            cfg,
		prefix:            prefix,
		logger:            logger.With("component", "redis-store"),
		healthCheckStopCh: make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout(cfg))
	defer cancel()

	if err := rs.client.Ping(ctx).Err(); err != nil {
		rs.logger.Warn("Redis initial connection failed", "error", err)
		rs.setError(err)
	} else {
		rs.connected.Store(true)
		rs.logger.Info("Redis connected", "address", cfg.Address)
	}

	if cfg.HealthCheckInterval > 0 {
		rs.healthCheckWg.Add(1)
		go rs.healthCheckWorker()
	}

	return rs, nil
}

// Name returns the backend name.
func (s *RedisStore) Name() string { return "redis" }

// IsAvailable reports whether the last interaction with Redis succeeded.
func (s *RedisStore) IsAvailable() bool { return s.connected.Load() }

func (s *RedisStore) prefixKey(key string) string {
	return s.prefix + key
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if !s.connected.Load() {
		return "", types.ErrStoreUnavailable
	}

	value, err := s.client.Get(ctx, s.prefixKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.clearError()
			return "", types.ErrNotFound
		}
		s.handleError(err)
		return "", types.NewStoreError("Get", key, "redis", err)
	}

	s.clearError()
	return value, nil
}

// Set stores value under key without expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if !s.connected.Load() {
		return types.ErrStoreUnavailable
	}

	if err := s.client.Set(ctx, s.prefixKey(key), value, 0).Err(); err != nil {
		s.handleError(err)
		return types.NewStoreError("Set", key, "redis", err)
	}

	s.clearError()
	return nil
}

// Remove deletes key.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if !s.connected.Load() {
		return types.ErrStoreUnavailable
	}

	if err := s.client.Del(ctx, s.prefixKey(key)).Err(); err != nil {
		s.handleError(err)
		return types.NewStoreError("Remove", key, "redis", err)
	}

	s.clearError()
	return nil
}

// Keys lists every key starting with prefix, without the store's own
// namespace prefix.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if !s.connected.Load() {
		return nil, types.ErrStoreUnavailable
	}

	pattern := s.prefixKey(escapePattern(prefix)) + "*"
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			s.handleError(err)
			return nil, types.NewStoreError("Keys", prefix, "redis", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	s.clearError()
	return keys, nil
}

// Ping checks connectivity without changing availability state.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// LastError returns the most recent Redis error and when it happened.
func (s *RedisStore) LastError() (error, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError, s.lastErrorTime
}

// Close stops the health check worker and closes the client.
func (s *RedisStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.connected.Store(false)
		close(s.healthCheckStopCh)
		s.healthCheckWg.Wait()
		err = s.client.Close()
	})
	return err
}

func (s *RedisStore) healthCheckWorker() {
	defer s.healthCheckWg.Done()

	ticker := time.NewTicker(s.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.healthCheckStopCh:
			return
		case <-ticker.C:
			s.performHealthCheck()
		}
	}
}

func (s *RedisStore) performHealthCheck() {
	wasConnected := s.connected.Load()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout(s.config))
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		if wasConnected {
			s.logger.Warn("Redis health check failed", "error", err)
			s.setError(err)
		}
		return
	}

	if !wasConnected {
		s.connected.Store(true)
		s.errorCount.Store(0)
		s.logger.Info("Redis connection restored via health check")
	}
}

func (s *RedisStore) handleError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err
	s.lastErrorTime = time.Now()
	count := s.errorCount.Add(1)

	if count >= disconnectErrorThreshold {
		if s.connected.CompareAndSwap(true, false) {
			s.logger.Warn("Redis marked as disconnected after errors",
				"error_count", count,
				"last_error", err,
			)
		}
	}
}

func (s *RedisStore) clearError() {
	s.errorCount.Store(0)
}

func (s *RedisStore) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.lastErrorTime = time.Now()
	s.connected.Store(false)
}

func dialTimeout(cfg config.RedisConfig) time.Duration {
	if cfg.DialTimeout > 0 {
		return cfg.DialTimeout
	}
	return 5 * time.Second
}

// escapePattern quotes the glob metacharacters Redis SCAN MATCH understands.
func escapePattern(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ types.KeyValueStore = (*RedisStore)(nil)
