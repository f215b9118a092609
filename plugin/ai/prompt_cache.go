package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"google.golang.org/genai"
)

const (
	minCacheTTL     = 60 * time.Second
	maxCacheTTL     = 7 * 24 * time.Hour
	defaultCacheTTL = 24 * time.Hour

	cacheRetryAfter = 5 * time.Minute
)

// PromptCache lazily creates one Gemini cachedContents handle per process.
// Creation failures are logged and the caller proceeds uncached.
type PromptCache struct {
	cfg        PromptCacheConfig
	httpClient *http.Client

	mu       sync.Mutex
	client   *genai.Client
	name     string
	failedAt time.Time
}

// NewPromptCache creates a cache handle manager. A preset name is used as-is.
func NewPromptCache(cfg PromptCacheConfig, httpClient *http.Client) *PromptCache {
	return &PromptCache{
		cfg:        cfg,
		httpClient: httpClient,
		name:       cfg.PresetName,
	}
}

// Handle returns the cachedContents name, creating it on first use. Empty means uncached.
func (c *PromptCache) Handle(ctx context.Context, seed CacheSeed) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.name != "" {
		return c.name
	}
	if !c.cfg.Enabled || c.cfg.APIKey == "" {
		return ""
	}
	if seed.SystemInstruction == "" {
		slog.Warn("gemini cache skipped: system instruction missing")
		return ""
	}
	if !c.failedAt.IsZero() && time.Since(c.failedAt) < cacheRetryAfter {
		return ""
	}

	name, err := c.create(ctx, seed)
	if err != nil {
		c.failedAt = time.Now()
		slog.Warn("failed to create gemini cache", "model", c.cfg.Model, "error", err)
		return ""
	}
	c.name = name
	slog.Info("gemini cache created", "name", name)
	return name
}

// Reset forgets the current handle.
func (c *PromptCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = ""
	c.failedAt = time.Time{}
}

func (c *PromptCache) create(ctx context.Context, seed CacheSeed) (string, error) {
	if c.client == nil {
		client, err := newGeminiClient(ctx, c.cfg.APIKey, c.cfg.BaseURL, c.httpClient)
		if err != nil {
			return "", err
		}
		c.client = client
	}

	examples := seed.Examples
	if examples == "" {
		examples = c.cfg.Examples
	}
	if examples == "" {
		examples = "Example: Mizo input and ideal JSON response."
	}

	cached, err := c.client.Caches.Create(ctx, c.cfg.Model, &genai.CreateCachedContentConfig{
		TTL:               ttlDuration(c.cfg.TTLSeconds),
		DisplayName:       c.cfg.DisplayName,
		SystemInstruction: textContent("", seed.SystemInstruction),
		Contents:          []*genai.Content{textContent("user", examples)},
	})
	if err != nil {
		return "", err
	}
	if cached == nil || cached.Name == "" {
		return "", fmt.Errorf("cache response missing name")
	}
	return cached.Name, nil
}

// ttlDuration clamps seconds into [60s, 7d]. Non-positive values use one day.
func ttlDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return defaultCacheTTL
	}
	return max(minCacheTTL, min(time.Duration(seconds)*time.Second, maxCacheTTL))
}
