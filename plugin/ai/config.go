package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/bazaarbot/internal/profile"
)

const (
	ProviderOpenAI      = "openai"
	ProviderDeepSeek    = "deepseek"
	ProviderOllama      = "ollama"
	ProviderGemini      = "gemini"
	ProviderHuggingFace = "huggingface"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	// Providers are tried in order; the first success wins.
	Providers   []LLMConfig
	PromptCache PromptCacheConfig
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string // openai
	Model      string // text-embedding-3-small
	Dimensions int    // 1536
	APIKey     string
	BaseURL    string
}

// LLMConfig represents one completion provider.
type LLMConfig struct {
	Provider    string // openai, deepseek, ollama, gemini, huggingface
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// PromptCacheConfig configures the Gemini cachedContents handle.
type PromptCacheConfig struct {
	Enabled     bool
	APIKey      string
	BaseURL     string
	Model       string
	DisplayName string
	TTLSeconds  int
	PresetName  string // reuse an existing cachedContents/... name
	Examples    string
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Embedding: EmbeddingConfig{
			Provider:   ProviderOpenAI,
			Model:      p.OpenAIEmbeddingModel,
			Dimensions: p.EmbeddingDimensions,
			APIKey:     p.OpenAIAPIKey,
			BaseURL:    p.OpenAIBaseURL,
		},
		PromptCache: PromptCacheConfig{
			Enabled:     p.GeminiUseCache,
			APIKey:      p.GeminiAPIKey,
			BaseURL:     p.GeminiBaseURL,
			Model:       p.GeminiModel,
			DisplayName: p.GeminiCacheName,
			TTLSeconds:  p.GeminiCacheTTL,
			PresetName:  p.GeminiCacheID,
			Examples:    p.GeminiCacheExamples,
		},
	}

	for _, name := range p.LLMProviders {
		switch strings.ToLower(name) {
		case ProviderOpenAI:
			cfg.Providers = append(cfg.Providers, LLMConfig{
				Provider:    ProviderOpenAI,
				Model:       p.OpenAIChatModel,
				APIKey:      p.OpenAIAPIKey,
				BaseURL:     p.OpenAIBaseURL,
				Temperature: 0.3,
			})
		case ProviderDeepSeek:
			cfg.Providers = append(cfg.Providers, LLMConfig{
				Provider:    ProviderDeepSeek,
				Model:       p.DeepSeekModel,
				APIKey:      p.DeepSeekAPIKey,
				BaseURL:     p.DeepSeekBaseURL,
				Temperature: 0.3,
			})
		case ProviderOllama:
			cfg.Providers = append(cfg.Providers, LLMConfig{
				Provider:    ProviderOllama,
				Model:       p.OllamaModel,
				BaseURL:     p.OllamaBaseURL,
				Temperature: 0.3,
			})
		case ProviderGemini:
			cfg.Providers = append(cfg.Providers, LLMConfig{
				Provider: ProviderGemini,
				Model:    p.GeminiModel,
				APIKey:   p.GeminiAPIKey,
				BaseURL:  p.GeminiBaseURL,
			})
		case ProviderHuggingFace:
			cfg.Providers = append(cfg.Providers, LLMConfig{
				Provider:    ProviderHuggingFace,
				BaseURL:     p.HuggingFaceLocalURL,
				MaxTokens:   200,
				Temperature: 0.2,
			})
		}
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one LLM provider is required")
	}

	for _, p := range c.Providers {
		switch p.Provider {
		case ProviderOpenAI, ProviderDeepSeek, ProviderGemini:
			if p.APIKey == "" {
				return fmt.Errorf("%s API key is required", p.Provider)
			}
		case ProviderOllama, ProviderHuggingFace:
			if p.BaseURL == "" {
				return fmt.Errorf("%s base URL is required", p.Provider)
			}
		default:
			return fmt.Errorf("unsupported LLM provider: %s", p.Provider)
		}
	}

	if c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}

	return nil
}
