package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/bazaarbot/plugin/ai"
	"github.com/hrygo/bazaarbot/plugin/ai/session"
	"github.com/hrygo/bazaarbot/store"
)

const maxChitchatHistory = 20

const chitchatSystemPrompt = `You are a friendly shopping consultant for Aizawl. Default language: %s. Stay strictly within shopping, catalog browsing, product advice, and purchase help. If the user goes out of scope (health, personal, unrelated), politely say it's out of scope in one short sentence. Keep replies max 1-2 sentences. If the user is just chatting or undecided, be encouraging and concise. If they ask to switch language, respect it for this session.`

func (s *Service) handleChitchat(ctx context.Context, t *turn) (*Result, error) {
	reply, err := s.Chitchat(ctx, t.text, t.history, t.language)
	if err != nil {
		return nil, err
	}
	return &Result{Reply: reply, Branch: BranchChitchat}, nil
}

// Chitchat composes a short on-topic reply. A model failure yields ApologyReply;
// only a cancelled context is returned as an error.
func (s *Service) Chitchat(ctx context.Context, text string, history []session.Turn, language string) (string, error) {
	if s.llm == nil {
		return chitchatFallbackReply, nil
	}
	if language = strings.TrimSpace(language); language == "" {
		language = s.language
	}

	messages := ai.FormatMessages(fmt.Sprintf(chitchatSystemPrompt, language), text, historyToChat(history))
	reply, err := s.llm.Chat(ctx, messages, ai.WithOrigin("chitchat"))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		slog.Warn("chitchat reply failed",
			"error", err,
			"provider_error", ai.IsProviderError(err),
			"input", ai.TruncateForLog(text, 50))
		return ApologyReply, nil
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return chitchatFallbackReply, nil
	}
	return reply, nil
}

func historyToChat(history []session.Turn) []ai.Message {
	history = tail(history, maxChitchatHistory)
	messages := make([]ai.Message, 0, len(history))
	for _, h := range history {
		if h.Text == "" {
			continue
		}
		if h.Role == store.ConversationRoleAssistant {
			messages = append(messages, ai.AssistantMessage(h.Text))
		} else {
			messages = append(messages, ai.UserMessage(h.Text))
		}
	}
	return messages
}

func tail[T any](values []T, n int) []T {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}
