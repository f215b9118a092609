// Package session keeps a bounded, time-windowed conversation history per user.
package session

import (
	"context"
	"time"

	"github.com/hrygo/bazaarbot/store"
)

// Turn is one message in a conversation.
type Turn struct {
	Role      store.ConversationRole `json:"role"`
	Text      string                 `json:"text"`
	CreatedAt time.Time              `json:"createdAt"`
}

// UserTurn returns a user turn.
func UserTurn(text string) Turn {
	return Turn{Role: store.ConversationRoleUser, Text: text}
}

// AssistantTurn returns an assistant turn.
func AssistantTurn(text string) Turn {
	return Turn{Role: store.ConversationRoleAssistant, Text: text}
}

// ContextStore persists conversation history.
//
// Every method degrades instead of failing: a store that is missing or
// unavailable behaves as if the user had no history. A conversation id of 0
// means history is not tracked.
type ContextStore interface {
	// EnsureConversation returns the user's newest conversation created within
	// retentionDays, creating one when none exists.
	EnsureConversation(ctx context.Context, userID string, retentionDays int) int64

	// LoadRecentMessages returns up to policy.MaxTurns*2 turns from the trailing
	// policy.WindowMinutes, oldest first.
	LoadRecentMessages(ctx context.Context, conversationID int64, policy Policy) []Turn

	// SaveMessages appends turns in order.
	SaveMessages(ctx context.Context, conversationID int64, turns []Turn)
}
