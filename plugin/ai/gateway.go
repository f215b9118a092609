package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hrygo/bazaarbot/plugin/ai/metrics"
	"github.com/hrygo/bazaarbot/plugin/ai/timeout"
)

// Completion is the raw result of one provider attempt.
type Completion struct {
	Text       string
	Model      string
	ResponseID string
	Usage      *Usage
}

// Provider is one completion strategy in the gateway chain.
type Provider interface {
	Name() string
	Attempt(ctx context.Context, messages []Message, opts *CallOptions) (*Completion, error)
}

// Gateway tries its providers in order and returns the first successful completion.
type Gateway struct {
	providers []Provider
	usage     UsageSink
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithUsageSink routes usage records of successful calls to sink.
func WithUsageSink(sink UsageSink) GatewayOption {
	return func(g *Gateway) {
		if sink != nil {
			g.usage = sink
		}
	}
}

// NewGateway creates a gateway over an ordered provider list.
func NewGateway(providers []Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		providers: providers,
		usage:     NopUsageSink{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGatewayFromConfig builds every configured provider in order.
func NewGatewayFromConfig(cfg *Config, httpClient *http.Client, opts ...GatewayOption) (*Gateway, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout.ProviderTimeout}
	}

	var cache *PromptCache
	if cfg.PromptCache.Enabled || cfg.PromptCache.PresetName != "" {
		cache = NewPromptCache(cfg.PromptCache, httpClient)
	}

	providers := make([]Provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := NewProvider(pc, httpClient, cache)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return NewGateway(providers, opts...), nil
}

// NewProvider creates the strategy for one provider config.
func NewProvider(cfg LLMConfig, httpClient *http.Client, cache *PromptCache) (Provider, error) {
	switch cfg.Provider {
	case ProviderOpenAI, ProviderDeepSeek:
		return newOpenAIProvider(cfg), nil
	case ProviderOllama:
		return newOllamaProvider(cfg)
	case ProviderGemini:
		return newGeminiProvider(cfg, httpClient, cache)
	case ProviderHuggingFace:
		return newTGIProvider(cfg, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// Providers returns the provider names in attempt order.
func (g *Gateway) Providers() []string {
	names := make([]string, len(g.providers))
	for i, p := range g.providers {
		names[i] = p.Name()
	}
	return names
}

// Chat implements LLMService.
func (g *Gateway) Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, error) {
	if len(g.providers) == 0 {
		return "", &ProviderError{Provider: "gateway", Err: ErrNoProvider}
	}

	o := buildCallOptions(opts)
	var errs []error
	for _, p := range g.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := time.Now()
		completion, err := p.Attempt(ctx, messages, o)
		metrics.ProviderLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
		if err == nil && strings.TrimSpace(completion.Text) == "" {
			err = &ProviderError{Provider: p.Name(), Err: errEmptyCompletion}
		}
		if err != nil {
			metrics.ProviderAttempts.WithLabelValues(p.Name(), "error").Inc()
			slog.Warn("llm provider attempt failed",
				"provider", p.Name(),
				"origin", o.Origin,
				"error", err)
			errs = append(errs, err)
			continue
		}

		metrics.ProviderAttempts.WithLabelValues(p.Name(), "ok").Inc()
		if completion.Usage != nil {
			u := *completion.Usage
			u.Origin = o.Origin
			if u.Model == "" {
				u.Model = completion.Model
			}
			if u.ResponseID == "" {
				u.ResponseID = completion.ResponseID
			}
			g.usage.Record(u)
		}
		return strings.TrimSpace(completion.Text), nil
	}

	var last *ProviderError
	if errors.As(errs[len(errs)-1], &last) && len(errs) == 1 {
		return "", last
	}
	return "", &ProviderError{Provider: "gateway", StatusCode: statusOf(errs), Err: errors.Join(errs...)}
}

func statusOf(errs []error) int {
	for i := len(errs) - 1; i >= 0; i-- {
		var pe *ProviderError
		if errors.As(errs[i], &pe) && pe.StatusCode != 0 {
			return pe.StatusCode
		}
	}
	return 0
}

var _ LLMService = (*Gateway)(nil)
