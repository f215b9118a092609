package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/bazaarbot/plugin/ai"
)

// Strategy is one way of classifying a message. Strategies are tried in order
// until one succeeds.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, in ClassifyInput) (*ParsedIntent, error)
}

// LLMStrategy is the second model stage.
type LLMStrategy struct {
	llm ai.LLMService
	// examples are appended to the cached system instruction when set.
	examples       string
	usePromptCache bool
}

func NewLLMStrategy(llm ai.LLMService) *LLMStrategy {
	return &LLMStrategy{llm: llm}
}

// WithPromptCache marks the classify instruction as cacheable by providers that support it.
func (s *LLMStrategy) WithPromptCache(examples string) *LLMStrategy {
	s.usePromptCache = true
	s.examples = examples
	return s
}

func (s *LLMStrategy) Name() string {
	return "llm"
}

func (s *LLMStrategy) Attempt(ctx context.Context, in ClassifyInput) (*ParsedIntent, error) {
	opts := []ai.CallOption{ai.WithOrigin("classify"), ai.WithTemperature(0)}
	if s.usePromptCache {
		opts = append(opts, ai.WithPromptCache(ai.CacheSeed{SystemInstruction: classifySystemPrompt, Examples: s.examples}))
	}

	content, err := s.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(classifySystemPrompt),
		ai.UserMessage(buildClassifyPrompt(in)),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	obj, ok := ai.ExtractJSON(content)
	if !ok {
		return nil, fmt.Errorf("classify: %w in %q", ai.ErrNoJSON, ai.TruncateForLog(content, 80))
	}
	parsed, err := decodeParsedIntent(obj)
	if err != nil {
		return nil, fmt.Errorf("classify: decode: %w", err)
	}

	fillFromHints(parsed, in.Hints)
	parsed = Normalize(parsed, in.NormalizedText)
	parsed.Source = s.Name()
	return parsed, nil
}

func buildClassifyPrompt(in ClassifyInput) string {
	var b strings.Builder
	b.WriteString("Message: ")
	b.WriteString(in.RawText)
	if in.NormalizedText != "" && in.NormalizedText != in.RawText {
		b.WriteString("\nEnglish: ")
		b.WriteString(in.NormalizedText)
	}
	if hints, err := json.Marshal(in.Hints); err == nil && !isEmptyHints(in.Hints) {
		b.WriteString("\nHints: ")
		b.Write(hints)
	}
	return b.String()
}

func isEmptyHints(h EntityHints) bool {
	return h.Product == "" && h.Category == "" && h.Vendor == "" && h.Quantity == "" && len(h.Attributes) == 0
}

// fillFromHints copies translate-stage entities into fields the model left empty.
func fillFromHints(p *ParsedIntent, h EntityHints) {
	if p.Product == "" {
		p.Product = h.Product
	}
	if p.Category == "" {
		p.Category = h.Category
	}
	if p.Vendor == "" {
		p.Vendor = h.Vendor
	}
	if p.Quantity == "" {
		p.Quantity = h.Quantity
	}
	if len(p.Attributes) == 0 {
		p.Attributes = h.Attributes
	}
}
