package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/bazaarbot/internal/profile"
	"github.com/hrygo/bazaarbot/store"
	"github.com/hrygo/bazaarbot/store/db/sqlite"
)

func newSQLiteStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{Driver: "sqlite", Mode: "dev", DSN: ":memory:"}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestContextStore(t *testing.T) (*storeContext, *clock, *store.Store) {
	st := newSQLiteStore(t)
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return &storeContext{backend: st, now: c.now}, c, st
}

func TestEnsureConversation_Idempotent(t *testing.T) {
	ctx := context.Background()
	cs, clk, _ := newTestContextStore(t)

	first := cs.EnsureConversation(ctx, "919800000001", 7)
	require.NotZero(t, first)

	clk.t = clk.t.Add(3 * 24 * time.Hour)
	assert.Equal(t, first, cs.EnsureConversation(ctx, "919800000001", 7))

	other := cs.EnsureConversation(ctx, "919800000002", 7)
	assert.NotEqual(t, first, other)
}

func TestEnsureConversation_RetentionLapses(t *testing.T) {
	ctx := context.Background()
	cs, clk, _ := newTestContextStore(t)

	first := cs.EnsureConversation(ctx, "u1", 7)
	clk.t = clk.t.Add(8 * 24 * time.Hour)
	second := cs.EnsureConversation(ctx, "u1", 7)
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, cs.EnsureConversation(ctx, "u1", 7))
}

func TestEnsureConversation_NoUser(t *testing.T) {
	cs, _, _ := newTestContextStore(t)
	assert.Zero(t, cs.EnsureConversation(context.Background(), "  ", 7))
}

func TestMessages_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cs, clk, _ := newTestContextStore(t)
	policy := DefaultPolicy()

	id := cs.EnsureConversation(ctx, "u1", policy.RetentionDays)
	cs.SaveMessages(ctx, id, []Turn{UserTurn("cake"), AssistantTurn("- **Plum Cake** (₹350) @ City Bakery - Chanmari")})
	clk.t = clk.t.Add(time.Minute)
	cs.SaveMessages(ctx, id, []Turn{UserTurn("thanks"), AssistantTurn("Anytime!")})

	turns := cs.LoadRecentMessages(ctx, id, policy)
	require.Len(t, turns, 4)
	assert.Equal(t, store.ConversationRoleUser, turns[0].Role)
	assert.Equal(t, "cake", turns[0].Text)
	assert.Equal(t, store.ConversationRoleAssistant, turns[1].Role)
	assert.Equal(t, "thanks", turns[2].Text)
	assert.Equal(t, "Anytime!", turns[3].Text)
}

func TestLoadRecentMessages_Window(t *testing.T) {
	ctx := context.Background()
	cs, clk, _ := newTestContextStore(t)

	id := cs.EnsureConversation(ctx, "u1", 7)
	cs.SaveMessages(ctx, id, []Turn{UserTurn("old question"), AssistantTurn("old answer")})

	clk.t = clk.t.Add(3 * time.Hour)
	cs.SaveMessages(ctx, id, []Turn{UserTurn("new question"), AssistantTurn("new answer")})

	turns := cs.LoadRecentMessages(ctx, id, Policy{WindowMinutes: 120, MaxTurns: 10})
	require.Len(t, turns, 2)
	assert.Equal(t, "new question", turns[0].Text)

	turns = cs.LoadRecentMessages(ctx, id, Policy{WindowMinutes: 240, MaxTurns: 10})
	assert.Len(t, turns, 4)
}

func TestLoadRecentMessages_MaxTurnsKeepsNewest(t *testing.T) {
	ctx := context.Background()
	cs, clk, _ := newTestContextStore(t)

	id := cs.EnsureConversation(ctx, "u1", 7)
	for _, q := range []string{"one", "two", "three"} {
		cs.SaveMessages(ctx, id, []Turn{UserTurn(q), AssistantTurn("re: " + q)})
		clk.t = clk.t.Add(time.Minute)
	}

	turns := cs.LoadRecentMessages(ctx, id, Policy{WindowMinutes: 120, MaxTurns: 2})
	require.Len(t, turns, 4)
	assert.Equal(t, "two", turns[0].Text)
	assert.Equal(t, "re: three", turns[3].Text)
}

func TestDegradedMode(t *testing.T) {
	ctx := context.Background()
	cs := NewContextStore(nil)

	id := cs.EnsureConversation(ctx, "u1", 7)
	assert.Zero(t, id)
	assert.NotPanics(t, func() { cs.SaveMessages(ctx, id, []Turn{UserTurn("hi")}) })
	assert.Empty(t, cs.LoadRecentMessages(ctx, id, DefaultPolicy()))
}

type failingBackend struct{}

func (failingBackend) CreateConversation(context.Context, *store.Conversation) (*store.Conversation, error) {
	return nil, errors.New("db down")
}

func (failingBackend) ListConversations(context.Context, *store.FindConversation) ([]*store.Conversation, error) {
	return nil, errors.New("db down")
}

func (failingBackend) CreateConversationMessages(context.Context, []*store.ConversationMessage) error {
	return errors.New("db down")
}

func (failingBackend) ListConversationMessages(context.Context, *store.FindConversationMessage) ([]*store.ConversationMessage, error) {
	return nil, errors.New("db down")
}

func TestUnavailableStore(t *testing.T) {
	ctx := context.Background()
	cs := NewContextStore(failingBackend{})

	assert.Zero(t, cs.EnsureConversation(ctx, "u1", 7))
	assert.Empty(t, cs.LoadRecentMessages(ctx, 42, DefaultPolicy()))
	assert.NotPanics(t, func() { cs.SaveMessages(ctx, 42, []Turn{UserTurn("hi")}) })
}

func TestMockContextStore(t *testing.T) {
	ctx := context.Background()
	m := NewMockContextStore()

	id := m.EnsureConversation(ctx, "u1", 7)
	assert.Equal(t, id, m.EnsureConversation(ctx, "u1", 7))
	m.SaveMessages(ctx, id, []Turn{UserTurn("a"), AssistantTurn("b"), UserTurn("c"), AssistantTurn("d")})

	turns := m.LoadRecentMessages(ctx, id, Policy{MaxTurns: 1})
	require.Len(t, turns, 2)
	assert.Equal(t, "c", turns[0].Text)
	assert.Len(t, m.Turns(id), 4)
}
