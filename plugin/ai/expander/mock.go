package expander

import (
	"context"
	"sync"
)

// MockExpander returns a fixed expansion.
type MockExpander struct {
	mu sync.Mutex

	// Result is returned for every query; nil returns Default().
	Result *Expansion
	inputs []string
}

func (m *MockExpander) Expand(_ context.Context, text string) *Expansion {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, text)
	if m.Result == nil {
		return Default()
	}
	e := *m.Result
	return &e
}

// Inputs returns every query passed to Expand.
func (m *MockExpander) Inputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.inputs...)
}

var _ Expander = (*MockExpander)(nil)
