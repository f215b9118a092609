package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// geminiProvider calls generateContent through the genai SDK so a cachedContents
// handle can be attached to the request.
type geminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
	cache       *PromptCache
}

func newGeminiProvider(cfg LLMConfig, httpClient *http.Client, cache *PromptCache) (*geminiProvider, error) {
	p := &geminiProvider{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		cache:       cache,
	}
	if cfg.APIKey == "" {
		return p, nil
	}
	client, err := newGeminiClient(context.Background(), cfg.APIKey, cfg.BaseURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	p.client = client
	return p, nil
}

// newGeminiClient targets the Gemini Developer API. An empty baseURL uses the SDK default.
func newGeminiClient(ctx context.Context, apiKey, baseURL string, httpClient *http.Client) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
}

func (p *geminiProvider) Name() string {
	return ProviderGemini
}

func (p *geminiProvider) Attempt(ctx context.Context, messages []Message, opts *CallOptions) (*Completion, error) {
	if p.client == nil {
		return nil, &ProviderError{Provider: ProviderGemini, Err: fmt.Errorf("gemini client not configured")}
	}

	temperature := p.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.CacheSeed != nil && p.cache != nil {
		config.CachedContent = p.cache.Handle(ctx, *opts.CacheSeed)
	}

	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			contents = append(contents, textContent("model", m.Content))
		default:
			contents = append(contents, textContent("user", m.Content))
		}
	}
	// A cached handle already carries the system instruction.
	if len(system) > 0 && config.CachedContent == "" {
		config.SystemInstruction = textContent("", strings.Join(system, "\n\n"))
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, StatusCode: geminiStatus(err), Err: err}
	}

	completion := &Completion{
		Model:      resp.ModelVersion,
		ResponseID: resp.ResponseID,
		Text:       firstCandidateText(resp),
	}
	if completion.Model == "" {
		completion.Model = p.model
	}
	if u := resp.UsageMetadata; u != nil {
		completion.Usage = &Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return completion, nil
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []*genai.Part{{Text: text}}}
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// geminiStatus returns the HTTP status carried by an SDK error, or 0.
func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}
