// Package server wires the storage, model gateway, retrieval and assistant
// into one echo server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/bazaarbot/internal/profile"
	"github.com/hrygo/bazaarbot/plugin/ai"
	"github.com/hrygo/bazaarbot/plugin/ai/cache"
	"github.com/hrygo/bazaarbot/plugin/ai/classifier"
	"github.com/hrygo/bazaarbot/plugin/ai/expander"
	"github.com/hrygo/bazaarbot/plugin/ai/session"
	"github.com/hrygo/bazaarbot/plugin/whatsapp"
	ratelimit "github.com/hrygo/bazaarbot/server/middleware"
	"github.com/hrygo/bazaarbot/server/retrieval"
	"github.com/hrygo/bazaarbot/server/router/webhook"
	"github.com/hrygo/bazaarbot/server/runner/embedding"
	"github.com/hrygo/bazaarbot/server/service/assistant"
	"github.com/hrygo/bazaarbot/server/service/events"
	"github.com/hrygo/bazaarbot/server/service/order"
	"github.com/hrygo/bazaarbot/store"
)

const usageQueueSize = 256

type Server struct {
	Profile   *profile.Profile
	Store     *store.Store
	Assistant *assistant.Service

	echoServer *echo.Echo
	usage      *ai.UsageRecorder
	cleanup    *session.CleanupJob
	embedder   ai.EmbeddingService
	caches     []*cache.Service
	redis      *cache.RedisCache
	limiter    *ratelimit.RateLimiter

	runnerCancelFuncs []context.CancelFunc
}

// NewServer builds every component from the profile. Missing model keys,
// Redis or Elasticsearch degrade the server rather than failing it.
func NewServer(ctx context.Context, p *profile.Profile, s *store.Store) (*Server, error) {
	srv := &Server{
		Profile: p,
		Store:   s,
	}

	llm, embedder, err := srv.newModels()
	if err != nil {
		return nil, err
	}
	srv.embedder = embedder

	textSearcher := retrieval.TextSearcher(s)
	if p.IsElasticsearchEnabled() {
		es, err := retrieval.NewElasticTextSearcher(retrieval.ElasticConfig{
			Addresses: p.ElasticsearchURLs,
			Username:  p.ElasticsearchUser,
			Password:  p.ElasticsearchPass,
			Index:     p.ElasticsearchIndex,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create elasticsearch searcher: %w", err)
		}
		textSearcher = es
		slog.Info("catalog text search uses elasticsearch", "index", p.ElasticsearchIndex)
	}

	orders := order.NewLog(s, 0)
	srv.Assistant = assistant.NewService(assistant.Config{
		Classifier: classifier.NewService(llm, srv.classifierOptions(ctx, llm)...),
		Expander:   expander.NewService(llm),
		Embedder:   embedder,
		Searcher:   retrieval.NewCatalog(s, textSearcher),
		LLM:        llm,
		Contexts:   session.NewContextStore(s),
		Orders:     orders,
		Policy:     session.PolicyFromProfile(p),
		Language:   p.SessionLanguage,
	})

	srv.cleanup = session.NewCleanupJob(s, session.CleanupConfig{
		RetentionDays:   p.ContextRetentionDays,
		CleanupInterval: session.DefaultCleanupInterval,
	})

	webhookService := webhook.NewWebhookService(p, srv.Assistant, events.NewRing(events.DefaultCapacity), orders)
	webhookService.Usage = s
	srv.limiter = webhookService.Limiter
	if p.CanSendWhatsApp() {
		webhookService.Sender = whatsapp.NewClient(whatsapp.Config{
			PhoneNumberID: p.MetaPhoneNumberID,
			AccessToken:   p.MetaAccessToken,
			GraphVersion:  p.MetaGraphVersion,
		}, nil)
	}

	echoServer := echo.New()
	echoServer.Debug = p.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	webhookService.Register(echoServer)
	srv.echoServer = echoServer

	return srv, nil
}

// newModels returns a nil llm when no provider is usable; the classifier then runs on rules only.
func (s *Server) newModels() (ai.LLMService, ai.EmbeddingService, error) {
	cfg := ai.NewConfigFromProfile(s.Profile)
	if err := cfg.Validate(); err != nil {
		slog.Warn("language model disabled, using rule classifier only", "error", err)
		return nil, nil, nil
	}

	s.usage = ai.NewUsageRecorder(s.Store, usageQueueSize)
	gateway, err := ai.NewGatewayFromConfig(cfg, nil, ai.WithUsageSink(s.usage))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create llm gateway: %w", err)
	}
	slog.Info("llm gateway ready", "providers", gateway.Providers())

	embedder, err := ai.NewEmbeddingService(&cfg.Embedding)
	if err != nil {
		slog.Warn("embeddings disabled, catalog search uses text only", "error", err)
		return gateway, nil, nil
	}
	return gateway, embedder, nil
}

// classifierOptions adds the shared stage caches and, when a Gemini cache is
// configured, marks the classify instruction as cacheable.
func (s *Server) classifierOptions(ctx context.Context, llm ai.LLMService) []classifier.Option {
	opts := s.stageCacheOptions(ctx)
	if llm != nil && (s.Profile.GeminiUseCache || s.Profile.GeminiCacheID != "") {
		opts = append(opts, classifier.WithStrategies(
			classifier.NewLLMStrategy(llm).WithPromptCache(s.Profile.GeminiCacheExamples),
			classifier.NewRuleClassifier(),
		))
	}
	return opts
}

// stageCacheOptions puts a shared Redis tier behind the classifier stage caches when configured.
func (s *Server) stageCacheOptions(ctx context.Context) []classifier.Option {
	if !s.Profile.IsRedisEnabled() {
		return nil
	}

	redisConfig := cache.DefaultRedisConfig()
	redisConfig.Addr = s.Profile.RedisAddr
	redisConfig.Password = s.Profile.RedisPassword
	redisConfig.DB = s.Profile.RedisDB
	redisConfig.KeyPrefix = s.Profile.RedisPrefix
	remote, err := cache.NewRedisCache(ctx, redisConfig)
	if err != nil {
		slog.Warn("redis unavailable, stage caches stay in process", "addr", s.Profile.RedisAddr, "error", err)
		return nil
	}
	s.redis = remote

	newStageCache := func(name string) *cache.Service {
		cfg := cache.DefaultServiceConfig(name)
		cfg.Remote = remote
		c := cache.NewService(cfg)
		s.caches = append(s.caches, c)
		return c
	}
	return []classifier.Option{
		classifier.WithStageCaches(newStageCache("translate"), newStageCache("classify")),
	}
}

// Start begins serving and starts the background runners.
func (s *Server) Start(ctx context.Context) error {
	if err := s.cleanup.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cleanup job: %w", err)
	}
	if s.embedder != nil {
		runnerCtx, cancel := context.WithCancel(ctx)
		s.runnerCancelFuncs = append(s.runnerCancelFuncs, cancel)
		go embedding.NewRunner(s.Store, s.embedder).Run(runnerCtx)
	}
	if s.limiter != nil {
		pruneCtx, cancel := context.WithCancel(ctx)
		s.runnerCancelFuncs = append(s.runnerCancelFuncs, cancel)
		go s.pruneLimiter(pruneCtx)
	}

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

// pruneLimiter drops the token buckets of senders that went quiet.
func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(ratelimit.DefaultIdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Prune(); n > 0 {
				slog.Debug("pruned idle sender limiters", "count", n)
			}
		}
	}
}

// Shutdown stops accepting requests and drains background writers.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown echo server", "error", err)
	}

	for _, cancelFunc := range s.runnerCancelFuncs {
		cancelFunc()
	}
	s.cleanup.Stop()
	for _, c := range s.caches {
		c.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Error("failed to close redis", "error", err)
		}
	}
	if s.usage != nil {
		s.usage.Close()
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server stopped properly")
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echoServer
}
