package ai

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// ollamaProvider runs completions against a local Ollama server.
type ollamaProvider struct {
	model       llms.Model
	maxTokens   int
	temperature float32
}

func newOllamaProvider(cfg LLMConfig) (*ollamaProvider, error) {
	model, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(cfg.BaseURL),
	)
	if err != nil {
		return nil, err
	}

	return &ollamaProvider{
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (p *ollamaProvider) Name() string {
	return ProviderOllama
}

func (p *ollamaProvider) Attempt(ctx context.Context, messages []Message, opts *CallOptions) (*Completion, error) {
	temperature := p.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	callOpts := []llms.CallOption{llms.WithTemperature(float64(temperature))}
	if maxTokens := max(opts.MaxTokens, p.maxTokens); maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(maxTokens))
	}

	resp, err := p.model.GenerateContent(ctx, convertMessages(messages), callOpts...)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderOllama, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: ProviderOllama, Err: errEmptyCompletion}
	}

	return &Completion{Text: resp.Choices[0].Content}, nil
}

func convertMessages(messages []Message) []llms.MessageContent {
	llmMessages := make([]llms.MessageContent, len(messages))
	for i, m := range messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case "system":
			role = llms.ChatMessageTypeSystem
		case "assistant":
			role = llms.ChatMessageTypeAI
		}

		llmMessages[i] = llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		}
	}
	return llmMessages
}
