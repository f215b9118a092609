package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Attempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": " hi there "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`)
	}))
	defer server.Close()

	p := newOpenAIProvider(LLMConfig{Provider: ProviderOpenAI, APIKey: "sk-test", BaseURL: server.URL + "/v1", Model: "gpt-4o-mini"})
	c, err := p.Attempt(context.Background(), []Message{UserMessage("hello")}, buildCallOptions(nil))

	require.NoError(t, err)
	assert.Equal(t, " hi there ", c.Text)
	assert.Equal(t, "chatcmpl-1", c.ResponseID)
	require.NotNil(t, c.Usage)
	assert.Equal(t, 15, c.Usage.TotalTokens)
}

func TestOpenAIProvider_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error": {"message": "overloaded", "type": "server_error"}}`)
	}))
	defer server.Close()

	p := newOpenAIProvider(LLMConfig{Provider: ProviderDeepSeek, APIKey: "k", BaseURL: server.URL})
	_, err := p.Attempt(context.Background(), []Message{UserMessage("hello")}, buildCallOptions(nil))

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ProviderDeepSeek, pe.Provider)
	assert.Equal(t, http.StatusServiceUnavailable, pe.StatusCode)
}

// geminiWireRequest is the generateContent body as the SDK sends it.
type geminiWireRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	SystemInstruction *struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
	CachedContent string `json:"cachedContent"`
}

func newTestGeminiProvider(t *testing.T, server *httptest.Server, cache *PromptCache) *geminiProvider {
	t.Helper()
	p, err := newGeminiProvider(LLMConfig{Provider: ProviderGemini, APIKey: "g-key", BaseURL: server.URL, Model: "gemini-2.5-flash-lite"}, server.Client(), cache)
	require.NoError(t, err)
	return p
}

func TestGeminiProvider_Attempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash-lite:generateContent"), r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var req geminiWireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "be brief", req.SystemInstruction.Parts[0].Text)
		require.Len(t, req.Contents, 2)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "model", req.Contents[1].Role)
		assert.Empty(t, req.CachedContent)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Chibai!"}]}}],
			"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 2, "totalTokenCount": 9},
			"modelVersion": "gemini-2.5-flash-lite-001",
			"responseId": "r-1"
		}`)
	}))
	defer server.Close()

	p := newTestGeminiProvider(t, server, nil)
	c, err := p.Attempt(context.Background(), []Message{
		SystemPrompt("be brief"),
		UserMessage("hello"),
		AssistantMessage("hi"),
	}, buildCallOptions(nil))

	require.NoError(t, err)
	assert.Equal(t, "Chibai!", c.Text)
	assert.Equal(t, "gemini-2.5-flash-lite-001", c.Model)
	require.NotNil(t, c.Usage)
	assert.Equal(t, 9, c.Usage.TotalTokens)
}

func TestGeminiProvider_UsesPromptCache(t *testing.T) {
	var cacheCreates atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/cachedContents") {
			cacheCreates.Add(1)
			_, _ = io.WriteString(w, `{"name": "cachedContents/abc"}`)
			return
		}
		var req geminiWireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cachedContents/abc", req.CachedContent)
		assert.Nil(t, req.SystemInstruction)
		_, _ = io.WriteString(w, `{"candidates": [{"content": {"parts": [{"text": "ok"}]}}]}`)
	}))
	defer server.Close()

	cache := NewPromptCache(PromptCacheConfig{Enabled: true, APIKey: "g-key", BaseURL: server.URL, Model: "gemini-2.5-flash-lite"}, server.Client())
	p := newTestGeminiProvider(t, server, cache)

	opts := buildCallOptions([]CallOption{WithPromptCache(CacheSeed{SystemInstruction: "classify"})})
	for i := 0; i < 3; i++ {
		_, err := p.Attempt(context.Background(), []Message{SystemPrompt("classify"), UserMessage("hi")}, opts)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), cacheCreates.Load())
}

func TestGeminiProvider_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": {"code": 400, "message": "model not found", "status": "INVALID_ARGUMENT"}}`)
	}))
	defer server.Close()

	p := newTestGeminiProvider(t, server, nil)
	_, err := p.Attempt(context.Background(), []Message{UserMessage("hi")}, buildCallOptions(nil))

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ProviderGemini, pe.Provider)
	assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
	assert.Contains(t, pe.Error(), "model not found")
}

func TestGeminiProvider_NotConfigured(t *testing.T) {
	p, err := newGeminiProvider(LLMConfig{Provider: ProviderGemini, Model: "m"}, nil, nil)
	require.NoError(t, err)

	_, err = p.Attempt(context.Background(), []Message{UserMessage("hi")}, buildCallOptions(nil))
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Zero(t, pe.StatusCode)
}

func TestTGIProvider_Attempt(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "object", body: `{"generated_text": "hello"}`, want: "hello"},
		{name: "array", body: `[{"generated_text": "hi"}]`, want: "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req tgiRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "SYSTEM: be nice\nUSER: hello", req.Inputs)
				assert.Equal(t, 64, req.Parameters.MaxNewTokens)
				assert.Equal(t, 1, req.Parameters.NumBeams)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			p := newTGIProvider(LLMConfig{BaseURL: server.URL, Temperature: 0.2}, server.Client())
			c, err := p.Attempt(context.Background(), []Message{SystemPrompt("be nice"), UserMessage("hello")},
				buildCallOptions([]CallOption{WithMaxTokens(64)}))

			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Text)
		})
	}
}

func TestTGIProvider_NotConfigured(t *testing.T) {
	p := newTGIProvider(LLMConfig{}, http.DefaultClient)
	_, err := p.Attempt(context.Background(), nil, buildCallOptions(nil))
	assert.True(t, IsProviderError(err))
}
