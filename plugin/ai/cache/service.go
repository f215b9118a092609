package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/bazaarbot/plugin/ai/metrics"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Name            string        // metrics label
	Capacity        int           // Maximum number of local entries (default: 100)
	DefaultTTL      time.Duration // Zero keeps entries until evicted
	CleanupInterval time.Duration // Zero disables the background sweep
	// Remote is an optional shared second tier such as RedisCache.
	Remote CacheService
}

// DefaultServiceConfig returns the stage cache configuration.
func DefaultServiceConfig(name string) ServiceConfig {
	return ServiceConfig{
		Name:     name,
		Capacity: 100,
	}
}

// Service implements CacheService with a local insertion-order LRU
// in front of an optional remote tier.
type Service struct {
	name   string
	lru    *LRUCache
	remote CacheService

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a new cache service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		name:   cfg.Name,
		lru:    NewLRUCache(cfg.Capacity, cfg.DefaultTTL),
		remote: cfg.Remote,
		ctx:    ctx,
		cancel: cancel,
	}

	if cfg.CleanupInterval > 0 {
		s.wg.Add(1)
		go s.cleanupLoop(cfg.CleanupInterval)
	}

	return s
}

// Close stops the cache service.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// Get retrieves a value from the local tier, then the remote tier.
func (s *Service) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := s.lru.Get(key); ok {
		metrics.CacheLookups.WithLabelValues(s.name, "hit").Inc()
		return v, true
	}

	if s.remote != nil {
		if v, ok := s.remote.Get(ctx, key); ok {
			s.lru.Set(key, v, 0)
			metrics.CacheLookups.WithLabelValues(s.name, "remote_hit").Inc()
			return v, true
		}
	}

	metrics.CacheLookups.WithLabelValues(s.name, "miss").Inc()
	return nil, false
}

// Set stores a value in both tiers. Remote failures are logged only.
func (s *Service) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.Set(key, value, ttl)
	if s.remote != nil {
		if err := s.remote.Set(ctx, key, value, ttl); err != nil {
			slog.Warn("remote cache set failed", "cache", s.name, "error", err)
		}
	}
	return nil
}

// Invalidate invalidates cache entries matching the pattern.
func (s *Service) Invalidate(ctx context.Context, pattern string) error {
	s.lru.Invalidate(pattern)
	if s.remote != nil {
		return s.remote.Invalidate(ctx, pattern)
	}
	return nil
}

// Len returns the number of local entries.
func (s *Service) Len() int {
	return s.lru.Len()
}

// Stats returns local tier counters.
func (s *Service) Stats() Stats {
	return s.lru.Stats()
}

// Reset clears the local tier.
func (s *Service) Reset() {
	s.lru.Reset()
}

func (s *Service) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.lru.CleanupExpired()
		}
	}
}

var _ CacheService = (*Service)(nil)
