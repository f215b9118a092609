package classifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/bazaarbot/plugin/ai"
	"github.com/hrygo/bazaarbot/plugin/ai/cache"
	"github.com/hrygo/bazaarbot/plugin/ai/metrics"
)

const (
	translateCachePrefix = "translate:"
	classifyCachePrefix  = "classify:"
)

// Classifier turns a raw message into a ParsedIntent. It never fails.
type Classifier interface {
	Classify(ctx context.Context, text string) *ParsedIntent
}

// Service is the translate-then-classify pipeline.
// Stage outputs from the model are cached by exact input text; locally
// recovered results are not cached so the model is retried next time.
type Service struct {
	translator     *Translator
	strategies     []Strategy
	translateCache cache.CacheService
	classifyCache  cache.CacheService
}

// Option configures a Service.
type Option func(*Service)

// WithStageCaches replaces the default in-process stage caches.
func WithStageCaches(translate, classify cache.CacheService) Option {
	return func(s *Service) {
		s.translateCache = translate
		s.classifyCache = classify
	}
}

// WithStrategies replaces the classify strategy chain.
func WithStrategies(strategies ...Strategy) Option {
	return func(s *Service) { s.strategies = strategies }
}

// NewService creates the pipeline. With a nil llm only the rule classifier runs.
func NewService(llm ai.LLMService, opts ...Option) *Service {
	s := &Service{
		translateCache: cache.NewService(cache.DefaultServiceConfig("translate")),
		classifyCache:  cache.NewService(cache.DefaultServiceConfig("classify")),
	}
	if llm != nil {
		s.translator = NewTranslator(llm)
		s.strategies = []Strategy{NewLLMStrategy(llm), NewRuleClassifier()}
	} else {
		s.strategies = []Strategy{NewRuleClassifier()}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify implements Classifier.
func (s *Service) Classify(ctx context.Context, text string) *ParsedIntent {
	start := time.Now()
	raw := strings.TrimSpace(text)

	translation := s.translate(ctx, raw)
	in := ClassifyInput{
		RawText:        raw,
		NormalizedText: translation.NormalizedText,
		Hints:          translation.EntityHints,
	}
	parsed := s.classify(ctx, in)

	metrics.IntentsClassified.WithLabelValues(string(parsed.Intent), parsed.Source).Inc()
	slog.Debug("message classified",
		"input", ai.TruncateForLog(raw, 50),
		"intent", parsed.Intent,
		"source", parsed.Source,
		"latency_ms", time.Since(start).Milliseconds())
	return parsed
}

func (s *Service) translate(ctx context.Context, raw string) *Translation {
	if s.translator == nil || raw == "" {
		return fallbackTranslation(raw)
	}

	key := translateCachePrefix + raw
	if data, ok := s.translateCache.Get(ctx, key); ok {
		var cached Translation
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached
		}
	}

	t, err := s.translator.Translate(ctx, raw)
	if err != nil {
		metrics.StageFallbacks.WithLabelValues("translate").Inc()
		slog.Warn("translate stage failed, using raw text",
			"stage", "translate",
			"input", ai.TruncateForLog(raw, 50),
			"error", err)
		return fallbackTranslation(raw)
	}

	s.store(ctx, s.translateCache, key, t)
	return t
}

func (s *Service) classify(ctx context.Context, in ClassifyInput) *ParsedIntent {
	key := classifyCachePrefix + in.RawText + "\x00" + in.NormalizedText
	if data, ok := s.classifyCache.Get(ctx, key); ok {
		var cached ParsedIntent
		if err := json.Unmarshal(data, &cached); err == nil {
			return Normalize(&cached, in.NormalizedText)
		}
	}

	for _, strategy := range s.strategies {
		parsed, err := strategy.Attempt(ctx, in)
		if err != nil {
			metrics.StageFallbacks.WithLabelValues("classify").Inc()
			slog.Warn("classify strategy failed",
				"stage", "classify",
				"strategy", strategy.Name(),
				"input", ai.TruncateForLog(in.RawText, 50),
				"error", err)
			continue
		}
		if _, local := strategy.(*RuleClassifier); !local {
			s.store(ctx, s.classifyCache, key, parsed)
		}
		return parsed
	}

	return NewRuleClassifier().Classify(in.RawText)
}

func (s *Service) store(ctx context.Context, c cache.CacheService, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.Set(ctx, key, data, 0); err != nil {
		slog.Debug("stage cache write failed", "key", ai.TruncateForLog(key, 50), "error", err)
	}
}

// Reset clears both stage caches.
func (s *Service) Reset() {
	for _, c := range []cache.CacheService{s.translateCache, s.classifyCache} {
		if r, ok := c.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
}

var _ Classifier = (*Service)(nil)
