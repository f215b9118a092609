package session

import (
	"context"
	"sync"
	"time"
)

// MockContextStore keeps conversations in memory for testing.
type MockContextStore struct {
	mu sync.Mutex

	nextID        int64
	conversations map[string]int64
	turns         map[int64][]Turn
}

// NewMockContextStore creates a MockContextStore.
func NewMockContextStore() *MockContextStore {
	return &MockContextStore{
		conversations: make(map[string]int64),
		turns:         make(map[int64][]Turn),
	}
}

func (m *MockContextStore) EnsureConversation(_ context.Context, userID string, _ int) int64 {
	if userID == "" {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.conversations[userID]; ok {
		return id
	}
	m.nextID++
	m.conversations[userID] = m.nextID
	return m.nextID
}

func (m *MockContextStore) LoadRecentMessages(_ context.Context, conversationID int64, policy Policy) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.turns[conversationID]
	if limit := policy.MaxTurns * 2; limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]Turn{}, turns...)
}

func (m *MockContextStore) SaveMessages(_ context.Context, conversationID int64, turns []Turn) {
	if conversationID == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range turns {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now()
		}
		m.turns[conversationID] = append(m.turns[conversationID], t)
	}
}

// Turns returns every saved turn of a conversation.
func (m *MockContextStore) Turns(conversationID int64) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Turn{}, m.turns[conversationID]...)
}

var _ ContextStore = (*MockContextStore)(nil)
