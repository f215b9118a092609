package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestConvertMessages tests message conversion.
func TestConvertMessages(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "You are a helpful assistant"},
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there"},
		{Role: "user", Content: "How are you?"},
	}

	assert.Len(t, convertMessages(messages), len(messages))

	oa := toOpenAIMessages(messages)
	assert.Equal(t, "system", oa[0].Role)
	assert.Equal(t, "assistant", oa[2].Role)
	assert.Equal(t, "user", oa[3].Role)
}

// TestMessageHelpers tests helper functions.
func TestMessageHelpers(t *testing.T) {
	assert.Equal(t, "system", SystemPrompt("System prompt").Role)
	assert.Equal(t, "user", UserMessage("User message").Role)
	assert.Equal(t, "assistant", AssistantMessage("Assistant message").Role)
}

// TestFormatMessages tests message formatting.
func TestFormatMessages(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "Previous message"},
		{Role: "assistant", Content: "Previous response"},
	}

	messages := FormatMessages("System prompt", "Current message", history)

	assert.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[3].Role)
	assert.Equal(t, "Current message", messages[3].Content)

	assert.Len(t, FormatMessages("", "only", nil), 1)
}

func TestCallOptions(t *testing.T) {
	o := buildCallOptions(nil)
	assert.Equal(t, "unknown", o.Origin)
	assert.Nil(t, o.Temperature)

	o = buildCallOptions([]CallOption{
		WithOrigin("classify"),
		WithTemperature(0),
		WithMaxTokens(64),
		WithPromptCache(CacheSeed{SystemInstruction: "sys"}),
	})
	assert.Equal(t, "classify", o.Origin)
	if assert.NotNil(t, o.Temperature) {
		assert.Equal(t, float32(0), *o.Temperature)
	}
	assert.Equal(t, 64, o.MaxTokens)
	assert.Equal(t, "sys", o.CacheSeed.SystemInstruction)
}
