package ai

import (
	"context"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMService is the completion interface every pipeline stage depends on.
type LLMService interface {
	// Chat returns the trimmed completion text, or a *ProviderError.
	Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, error)
}

// CallOptions tunes a single completion call.
type CallOptions struct {
	// Origin tags usage records with the calling stage.
	Origin      string
	Temperature *float32
	MaxTokens   int
	// CacheSeed enables the prompt cache for providers that support it.
	CacheSeed *CacheSeed
}

// CacheSeed is the stable instruction set a prompt cache handle is built from.
type CacheSeed struct {
	SystemInstruction string
	Examples          string
}

// CallOption configures CallOptions.
type CallOption func(*CallOptions)

func WithOrigin(origin string) CallOption {
	return func(o *CallOptions) { o.Origin = origin }
}

func WithTemperature(t float32) CallOption {
	return func(o *CallOptions) { o.Temperature = &t }
}

func WithMaxTokens(n int) CallOption {
	return func(o *CallOptions) { o.MaxTokens = n }
}

// WithPromptCache asks providers to reuse a cached copy of the seed instruction.
func WithPromptCache(seed CacheSeed) CallOption {
	return func(o *CallOptions) { o.CacheSeed = &seed }
}

func buildCallOptions(opts []CallOption) *CallOptions {
	o := &CallOptions{Origin: "unknown"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Helper for creating system prompts
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// Helper for creating user messages
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Helper for creating assistant messages
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// FormatMessages formats messages for prompt templates.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}
