package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// tgiProvider talks to a local Hugging Face text-generation-inference endpoint.
type tgiProvider struct {
	client      *http.Client
	url         string
	maxTokens   int
	temperature float32
}

func newTGIProvider(cfg LLMConfig, client *http.Client) *tgiProvider {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 200
	}
	return &tgiProvider{
		client:      client,
		url:         cfg.BaseURL,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

type tgiRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters tgiParameters `json:"parameters"`
}

type tgiParameters struct {
	Temperature  float32 `json:"temperature"`
	MaxNewTokens int     `json:"max_new_tokens"`
	NumBeams     int     `json:"num_beams"`
}

type tgiOutput struct {
	GeneratedText string `json:"generated_text"`
}

func (p *tgiProvider) Name() string {
	return ProviderHuggingFace
}

func (p *tgiProvider) Attempt(ctx context.Context, messages []Message, opts *CallOptions) (*Completion, error) {
	if p.url == "" {
		return nil, &ProviderError{Provider: ProviderHuggingFace, Err: fmt.Errorf("hugging face local endpoint not configured")}
	}

	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = strings.ToUpper(m.Role) + ": " + m.Content
	}

	params := tgiParameters{Temperature: p.temperature, MaxNewTokens: p.maxTokens, NumBeams: 1}
	if opts.Temperature != nil {
		params.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		params.MaxNewTokens = opts.MaxTokens
	}

	body, err := json.Marshal(tgiRequest{Inputs: strings.Join(lines, "\n"), Parameters: params})
	if err != nil {
		return nil, &ProviderError{Provider: ProviderHuggingFace, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: ProviderHuggingFace, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderHuggingFace, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderHuggingFace, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Provider:   ProviderHuggingFace,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("local HF completion failed: %s", strings.TrimSpace(string(raw))),
		}
	}

	// TGI answers with either an object or a one-element array.
	var single tgiOutput
	if err := json.Unmarshal(raw, &single); err == nil && single.GeneratedText != "" {
		return &Completion{Text: single.GeneratedText}, nil
	}
	var list []tgiOutput
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return &Completion{Text: list[0].GeneratedText}, nil
	}
	return nil, &ProviderError{Provider: ProviderHuggingFace, StatusCode: resp.StatusCode, Err: errEmptyCompletion}
}
