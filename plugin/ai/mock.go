package ai

import (
	"context"
	"errors"
	"sync"
)

// MockLLMService is a scripted LLMService for testing.
type MockLLMService struct {
	mu sync.Mutex

	// ChatFunc, when set, answers every call.
	ChatFunc func(ctx context.Context, messages []Message, opts *CallOptions) (string, error)
	// Responses are returned in order when ChatFunc is nil.
	Responses []string
	Err       error

	calls   [][]Message
	origins []string
}

// Chat implements LLMService.
func (m *MockLLMService) Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, error) {
	o := buildCallOptions(opts)

	m.mu.Lock()
	m.calls = append(m.calls, messages)
	m.origins = append(m.origins, o.Origin)
	fn := m.ChatFunc
	var resp string
	var hasResp bool
	if fn == nil && len(m.Responses) > 0 {
		resp, m.Responses = m.Responses[0], m.Responses[1:]
		hasResp = true
	}
	err := m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, o)
	}
	if err != nil {
		return "", err
	}
	if !hasResp {
		return "", &ProviderError{Provider: "mock", Err: errors.New("no scripted response")}
	}
	return resp, nil
}

// CallCount returns the number of Chat calls.
func (m *MockLLMService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns the prompts of every Chat call.
func (m *MockLLMService) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]Message(nil), m.calls...)
}

// Origins returns the origin tag of every Chat call.
func (m *MockLLMService) Origins() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.origins...)
}

// MockEmbeddingService returns a fixed vector or error.
type MockEmbeddingService struct {
	Vector []float32
	Err    error

	mu     sync.Mutex
	inputs []string
}

func (m *MockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, text)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

func (m *MockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return len(m.Vector)
}

// Inputs returns every text passed to Embed.
func (m *MockEmbeddingService) Inputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.inputs...)
}

var (
	_ LLMService       = (*MockLLMService)(nil)
	_ EmbeddingService = (*MockEmbeddingService)(nil)
)
