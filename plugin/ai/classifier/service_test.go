package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/bazaarbot/plugin/ai"
	"github.com/hrygo/bazaarbot/plugin/ai/cache"
)

// scriptedLLM answers by call origin.
func scriptedLLM(translate, classify string, err error) *ai.MockLLMService {
	return &ai.MockLLMService{
		ChatFunc: func(_ context.Context, _ []ai.Message, o *ai.CallOptions) (string, error) {
			if err != nil {
				return "", err
			}
			switch o.Origin {
			case "translate":
				return translate, nil
			case "classify":
				return classify, nil
			}
			return "", fmt.Errorf("unexpected origin %q", o.Origin)
		},
	}
}

func TestService_ModelPath(t *testing.T) {
	llm := scriptedLLM(
		`{"normalized_text": "Is there apple juice?", "entity_hints": {"product": "apple juice", "category": "beverage"}}`,
		"```json\n{\"intent\": \"availability\", \"query\": \"apple juice\", \"mizo_response\": \"Aw, a awm e.\"}\n```",
		nil,
	)
	s := NewService(llm)

	p := s.Classify(context.Background(), "apple juice a awm em?")
	assert.Equal(t, IntentAvailability, p.Intent)
	assert.Equal(t, "apple juice", p.Query)
	assert.Equal(t, "apple juice", p.Product)
	assert.Equal(t, "beverage", p.Category)
	assert.Equal(t, "Aw, a awm e.", p.MizoResponse)
	assert.Equal(t, "llm", p.Source)
	assert.Equal(t, []string{"translate", "classify"}, llm.Origins())

	// The classify prompt carries both the raw and translated text.
	calls := llm.Calls()
	require.Len(t, calls, 2)
	userPrompt := calls[1][1].Content
	assert.Contains(t, userPrompt, "Message: apple juice a awm em?")
	assert.Contains(t, userPrompt, "English: Is there apple juice?")
	assert.Contains(t, userPrompt, `"product":"apple juice"`)
}

func TestService_CachesModelOutput(t *testing.T) {
	llm := scriptedLLM(
		`{"normalized_text": "cake", "entity_hints": {}}`,
		`{"intent": "search", "query": "cake"}`,
		nil,
	)
	s := NewService(llm)

	for i := 0; i < 3; i++ {
		p := s.Classify(context.Background(), "cake")
		assert.Equal(t, IntentSearch, p.Intent)
	}
	assert.Equal(t, 2, llm.CallCount())

	s.Reset()
	s.Classify(context.Background(), "cake")
	assert.Equal(t, 4, llm.CallCount())
}

func TestService_ModelFailureMatchesRules(t *testing.T) {
	inputs := []string{"I want apple juice", "hello", "bread a awm em?", "cake", "ka lawm e"}
	rules := NewRuleClassifier()

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			llm := scriptedLLM("", "", &ai.ProviderError{Provider: "mock", StatusCode: 503, Err: errors.New("down")})
			s := NewService(llm)

			got := s.Classify(context.Background(), input)
			assert.Equal(t, rules.Classify(input), got)
		})
	}
}

func TestService_FailuresAreNotCached(t *testing.T) {
	var mu sync.Mutex
	healthy := false
	llm := &ai.MockLLMService{
		ChatFunc: func(_ context.Context, _ []ai.Message, o *ai.CallOptions) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if !healthy {
				return "", errors.New("timeout")
			}
			if o.Origin == "translate" {
				return `{"normalized_text": "order cake"}`, nil
			}
			return `{"intent": "order", "product": "plum cake"}`, nil
		},
	}
	s := NewService(llm)

	p := s.Classify(context.Background(), "cake order")
	assert.Equal(t, "rules", p.Source)

	mu.Lock()
	healthy = true
	mu.Unlock()

	p = s.Classify(context.Background(), "cake order")
	assert.Equal(t, "llm", p.Source)
	assert.Equal(t, IntentOrder, p.Intent)
	assert.Equal(t, "plum cake", p.Product)
	assert.Equal(t, "order cake", p.Query)
}

func TestService_InvalidJSONFallsBack(t *testing.T) {
	llm := scriptedLLM("not json", "intent: order", nil)
	s := NewService(llm)

	p := s.Classify(context.Background(), "hello there")
	assert.Equal(t, IntentChitchat, p.Intent)
	assert.Equal(t, "rules", p.Source)
	assert.Empty(t, p.Query)
}

func TestService_ConversationalIntentClearsQuery(t *testing.T) {
	llm := scriptedLLM(
		`{"normalized_text": "what is the weather"}`,
		`{"intent": "other", "query": "weather"}`,
		nil,
	)
	p := NewService(llm).Classify(context.Background(), "weather?")
	assert.Equal(t, IntentOther, p.Intent)
	assert.Empty(t, p.Query)
}

func TestService_NilLLMUsesRules(t *testing.T) {
	s := NewService(nil)
	p := s.Classify(context.Background(), "Do you have scarves?")
	assert.Equal(t, IntentAvailability, p.Intent)
	assert.Equal(t, "Do you have scarves?", p.Query)
}

func TestService_IntentAlwaysValid(t *testing.T) {
	responses := []string{
		`{"intent": "weather"}`,
		`{"intent": null}`,
		`{}`,
		`[]`,
		``,
		`{"intent": "COMPARE", "query": "tea vs coffee"}`,
	}
	valid := make(map[Intent]bool)
	for _, i := range Intents {
		valid[i] = true
	}

	for _, resp := range responses {
		llm := scriptedLLM(`{"normalized_text": "x"}`, resp, nil)
		p := NewService(llm).Classify(context.Background(), "tea vs coffee")
		assert.True(t, valid[p.Intent], "intent %q for response %q", p.Intent, resp)
	}
}

func TestService_CustomCaches(t *testing.T) {
	translate, classify := cache.NewMockCacheService(), cache.NewMockCacheService()
	llm := scriptedLLM(`{"normalized_text": "tea"}`, `{"intent": "search", "query": "tea"}`, nil)
	s := NewService(llm, WithStageCaches(translate, classify))

	s.Classify(context.Background(), "tea")
	assert.Equal(t, 1, translate.Len())
	assert.Equal(t, 1, classify.Len())

	_, ok := translate.Get(context.Background(), "translate:tea")
	assert.True(t, ok)

	s.Reset()
	assert.Zero(t, translate.Len())
}

func TestService_PromptCacheOption(t *testing.T) {
	var seeds []*ai.CacheSeed
	llm := &ai.MockLLMService{
		ChatFunc: func(_ context.Context, _ []ai.Message, o *ai.CallOptions) (string, error) {
			seeds = append(seeds, o.CacheSeed)
			if o.Origin == "translate" {
				return `{"normalized_text": "tea"}`, nil
			}
			return `{"intent": "search"}`, nil
		},
	}
	s := NewService(llm, WithStrategies(NewLLMStrategy(llm).WithPromptCache("Q: tea\nA: search"), NewRuleClassifier()))
	s.Classify(context.Background(), "tea")

	require.Len(t, seeds, 2)
	assert.Nil(t, seeds[0])
	require.NotNil(t, seeds[1])
	assert.True(t, strings.HasPrefix(seeds[1].SystemInstruction, "You classify"))
	assert.Equal(t, "Q: tea\nA: search", seeds[1].Examples)
}

func TestMockClassifier(t *testing.T) {
	m := NewMockClassifier()
	m.Results["cake"] = &ParsedIntent{Intent: IntentSearch, Query: "cake"}

	p := m.Classify(context.Background(), "cake")
	assert.Equal(t, "cake", p.Query)
	assert.Equal(t, "mock", p.Source)

	p = m.Classify(context.Background(), "hello")
	assert.Equal(t, IntentChitchat, p.Intent)
	assert.Equal(t, []string{"cake", "hello"}, m.Inputs())
}
