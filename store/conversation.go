package store

// ConversationRole is the author of a conversation message.
type ConversationRole string

const (
	ConversationRoleUser      ConversationRole = "user"
	ConversationRoleAssistant ConversationRole = "assistant"
)

// Conversation groups one user's messages inside a retention window.
type Conversation struct {
	ID        int64
	UserID    string
	CreatedTs int64
}

type FindConversation struct {
	UserID *string
	// CreatedAfter keeps conversations with created_ts >= this value.
	CreatedAfter *int64
	Limit        int
}

// DeleteConversations removes conversations and, by cascade, their messages.
type DeleteConversations struct {
	CreatedBefore int64
}

// ConversationMessage is one append-only turn.
type ConversationMessage struct {
	ID             int64
	ConversationID int64
	Role           ConversationRole
	Text           string
	CreatedTs      int64
}

type FindConversationMessage struct {
	ConversationID int64
	// CreatedAfter keeps messages with created_ts >= this value.
	CreatedAfter *int64
	Limit        int
}
