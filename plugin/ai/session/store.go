package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/bazaarbot/plugin/ai/metrics"
	"github.com/hrygo/bazaarbot/store"
)

// Backend is the subset of *store.Store the context store needs.
type Backend interface {
	CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error)
	ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error)
	CreateConversationMessages(ctx context.Context, create []*store.ConversationMessage) error
	ListConversationMessages(ctx context.Context, find *store.FindConversationMessage) ([]*store.ConversationMessage, error)
}

// storeContext implements ContextStore on a database backend.
type storeContext struct {
	backend Backend
	now     func() time.Time
}

// NewContextStore creates a ContextStore. A nil backend gives the degraded,
// history-free mode.
func NewContextStore(backend Backend) ContextStore {
	return &storeContext{backend: backend, now: time.Now}
}

func (s *storeContext) EnsureConversation(ctx context.Context, userID string, retentionDays int) int64 {
	userID = strings.TrimSpace(userID)
	if s.backend == nil || userID == "" {
		return 0
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, -retentionDays).Unix()
	existing, err := s.backend.ListConversations(ctx, &store.FindConversation{
		UserID:       &userID,
		CreatedAfter: &cutoff,
		Limit:        1,
	})
	if err != nil {
		s.fail("conversation lookup", err, userID)
		return 0
	}
	if len(existing) > 0 {
		return existing[0].ID
	}

	created, err := s.backend.CreateConversation(ctx, &store.Conversation{UserID: userID, CreatedTs: now.Unix()})
	if err != nil {
		s.fail("conversation create", err, userID)
		return 0
	}
	slog.Debug("conversation started", "user", userID, "conversation", created.ID)
	return created.ID
}

func (s *storeContext) LoadRecentMessages(ctx context.Context, conversationID int64, policy Policy) []Turn {
	if s.backend == nil || conversationID == 0 {
		return []Turn{}
	}
	if policy.WindowMinutes <= 0 {
		policy.WindowMinutes = DefaultWindowMinutes
	}
	if policy.MaxTurns <= 0 {
		policy.MaxTurns = DefaultMaxTurns
	}

	cutoff := s.now().Add(-time.Duration(policy.WindowMinutes) * time.Minute).Unix()
	rows, err := s.backend.ListConversationMessages(ctx, &store.FindConversationMessage{
		ConversationID: conversationID,
		CreatedAfter:   &cutoff,
	})
	if err != nil {
		s.fail("history load", err, "")
		return []Turn{}
	}

	// Keep the newest pairs inside the window.
	if limit := policy.MaxTurns * 2; len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}

	turns := make([]Turn, 0, len(rows))
	for _, r := range rows {
		turns = append(turns, Turn{Role: r.Role, Text: r.Text, CreatedAt: time.Unix(r.CreatedTs, 0)})
	}
	return turns
}

func (s *storeContext) SaveMessages(ctx context.Context, conversationID int64, turns []Turn) {
	if s.backend == nil || conversationID == 0 || len(turns) == 0 {
		return
	}

	now := s.now().Unix()
	rows := make([]*store.ConversationMessage, 0, len(turns))
	for _, t := range turns {
		created := now
		if !t.CreatedAt.IsZero() {
			created = t.CreatedAt.Unix()
		}
		rows = append(rows, &store.ConversationMessage{
			ConversationID: conversationID,
			Role:           t.Role,
			Text:           t.Text,
			CreatedTs:      created,
		})
	}
	if err := s.backend.CreateConversationMessages(ctx, rows); err != nil {
		s.fail("history save", err, "")
	}
}

func (s *storeContext) fail(step string, err error, userID string) {
	metrics.PersistenceFailures.WithLabelValues(strings.ReplaceAll(step, " ", "_")).Inc()
	slog.Warn("context store degraded to no history",
		"step", step,
		"user", userID,
		"error", err)
}
