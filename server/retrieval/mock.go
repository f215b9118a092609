package retrieval

import (
	"context"
	"sync"

	"github.com/hrygo/bazaarbot/store"
)

// MockCall records one FindSimilar invocation.
type MockCall struct {
	Embedding []float32
	Options   Options
}

// MockSearcher returns canned products for testing.
type MockSearcher struct {
	// ByQuery maps Options.QueryText to results for text lookups.
	ByQuery map[string][]*store.Product
	// Vector is returned when an embedding is supplied.
	Vector []*store.Product
	Err    error

	mu    sync.Mutex
	calls []MockCall
}

func (m *MockSearcher) FindSimilar(_ context.Context, embedding []float32, opts Options) ([]*store.Product, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Embedding: embedding, Options: opts})
	m.mu.Unlock()

	if m.Err != nil {
		return []*store.Product{}, m.Err
	}
	if len(embedding) > 0 && len(m.Vector) > 0 {
		return m.Vector, nil
	}
	if products, ok := m.ByQuery[opts.QueryText]; ok {
		return products, nil
	}
	return []*store.Product{}, nil
}

// Calls returns every recorded invocation.
func (m *MockSearcher) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Queries returns the QueryText of every invocation.
func (m *MockSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c.Options.QueryText)
	}
	return out
}

var _ Searcher = (*MockSearcher)(nil)
