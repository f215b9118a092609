// Package expander broadens a shopping query into retail categories and concrete keywords.
package expander

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hrygo/bazaarbot/plugin/ai"
	"github.com/hrygo/bazaarbot/plugin/ai/cache"
	"github.com/hrygo/bazaarbot/plugin/ai/metrics"
)

const (
	SpecificityGeneric  = "generic"
	SpecificitySpecific = "specific"

	defaultMemoSize = 50
)

const systemPrompt = `You help classify shopping intents. Return compact JSON only: {"categories":["..."],"keywords":["..."],"specificity":"generic|specific"}. Categories should be broad retail groups (e.g., bakery, toys, bikes, electronics). Keywords should be concrete product terms. Mark as generic when the user is broad or vague.`

// Expansion is the broadened reading of a query.
type Expansion struct {
	Categories  []string `json:"categories"`
	Keywords    []string `json:"keywords"`
	Specificity string   `json:"specificity"`
}

// Default is returned whenever the model cannot expand a query.
func Default() *Expansion {
	return &Expansion{Categories: []string{}, Keywords: []string{}, Specificity: SpecificityGeneric}
}

// Expander expands queries. It never fails.
type Expander interface {
	Expand(ctx context.Context, text string) *Expansion
}

// Service calls the model once per distinct query and memoizes the result.
type Service struct {
	llm  ai.LLMService
	memo *cache.LRUCache
}

func NewService(llm ai.LLMService) *Service {
	return &Service{
		llm:  llm,
		memo: cache.NewLRUCache(defaultMemoSize, 0),
	}
}

// Expand implements Expander.
func (s *Service) Expand(ctx context.Context, text string) *Expansion {
	text = strings.TrimSpace(text)
	if text == "" || s.llm == nil {
		return Default()
	}

	key := strings.ToLower(text)
	if data, ok := s.memo.Get(key); ok {
		var e Expansion
		if err := json.Unmarshal(data, &e); err == nil {
			return &e
		}
	}

	content, err := s.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(systemPrompt),
		ai.UserMessage(text),
	}, ai.WithOrigin("expand"), ai.WithTemperature(0))
	if err != nil {
		metrics.StageFallbacks.WithLabelValues("expand").Inc()
		slog.Warn("query expansion failed", "stage", "expand", "input", ai.TruncateForLog(text, 50), "error", err)
		return Default()
	}

	e, err := parse(content)
	if err != nil {
		metrics.StageFallbacks.WithLabelValues("expand").Inc()
		slog.Warn("query expansion unparseable", "stage", "expand", "input", ai.TruncateForLog(text, 50), "error", err)
		return Default()
	}

	if data, err := json.Marshal(e); err == nil {
		s.memo.Set(key, data, 0)
	}
	return e
}

// Reset clears the memo.
func (s *Service) Reset() {
	s.memo.Reset()
}

func parse(content string) (*Expansion, error) {
	var raw struct {
		Categories  []any  `json:"categories"`
		Keywords    []any  `json:"keywords"`
		Specificity string `json:"specificity"`
	}
	if err := ai.DecodeJSON(content, &raw); err != nil {
		return nil, err
	}

	e := Default()
	e.Categories = stringsOf(raw.Categories)
	e.Keywords = stringsOf(raw.Keywords)
	if strings.EqualFold(strings.TrimSpace(raw.Specificity), SpecificitySpecific) {
		e.Specificity = SpecificitySpecific
	}
	return e, nil
}

// stringsOf keeps truthy scalars as strings.
func stringsOf(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		switch v := item.(type) {
		case string:
			s = strings.TrimSpace(v)
		case float64:
			if v != 0 {
				s = strconv.FormatFloat(v, 'f', -1, 64)
			}
		case bool:
			if v {
				s = "true"
			}
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

var _ Expander = (*Service)(nil)
