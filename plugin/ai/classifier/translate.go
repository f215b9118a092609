package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/bazaarbot/plugin/ai"
)

// Translator is the first model stage: it normalizes mixed-language text and extracts entity hints.
type Translator struct {
	llm ai.LLMService
}

func NewTranslator(llm ai.LLMService) *Translator {
	return &Translator{llm: llm}
}

// Translate returns the model translation of raw, or an error when the model
// fails or returns nothing usable.
func (t *Translator) Translate(ctx context.Context, raw string) (*Translation, error) {
	content, err := t.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(translateSystemPrompt),
		ai.UserMessage(raw),
	}, ai.WithOrigin("translate"), ai.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}

	var out Translation
	if err := ai.DecodeJSON(content, &out); err != nil {
		return nil, fmt.Errorf("translate: decode %q: %w", ai.TruncateForLog(content, 80), err)
	}
	out.NormalizedText = strings.TrimSpace(out.NormalizedText)
	if out.NormalizedText == "" {
		return nil, fmt.Errorf("translate: empty normalized_text")
	}
	out.EntityHints = cleanHints(out.EntityHints)
	return &out, nil
}

// fallbackTranslation is used when the translate stage fails.
func fallbackTranslation(raw string) *Translation {
	return &Translation{
		NormalizedText: strings.TrimSpace(raw),
		EntityHints:    cleanHints(EntityHints{}),
	}
}

func cleanHints(h EntityHints) EntityHints {
	return EntityHints{
		Product:    strings.TrimSpace(h.Product),
		Category:   strings.TrimSpace(h.Category),
		Vendor:     strings.TrimSpace(h.Vendor),
		Quantity:   strings.TrimSpace(h.Quantity),
		Attributes: cleanList(h.Attributes),
	}
}
