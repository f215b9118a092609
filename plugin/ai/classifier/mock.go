package classifier

import (
	"context"
	"sync"
)

// MockClassifier returns scripted intents for testing.
type MockClassifier struct {
	mu sync.Mutex

	// Results maps exact input text to a result.
	Results map[string]*ParsedIntent
	// Default is returned for inputs missing from Results; nil falls back to the rule classifier.
	Default *ParsedIntent

	inputs []string
}

// NewMockClassifier creates a MockClassifier.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{Results: make(map[string]*ParsedIntent)}
}

// Classify implements Classifier.
func (m *MockClassifier) Classify(_ context.Context, text string) *ParsedIntent {
	m.mu.Lock()
	m.inputs = append(m.inputs, text)
	p, ok := m.Results[text]
	if !ok {
		p = m.Default
	}
	m.mu.Unlock()

	if p == nil {
		return NewRuleClassifier().Classify(text)
	}
	out := Normalize(p, text)
	if out.Source == "" {
		out.Source = "mock"
	}
	return out
}

// Inputs returns every text passed to Classify.
func (m *MockClassifier) Inputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.inputs...)
}

var _ Classifier = (*MockClassifier)(nil)
