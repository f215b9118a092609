package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/bazaarbot/internal/profile"
	"github.com/hrygo/bazaarbot/store"
)

func newTestingStore(t *testing.T, mode string) *store.Store {
	t.Helper()
	p := &profile.Profile{Driver: "sqlite", Mode: mode, DSN: ":memory:"}
	driver, err := NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestingStore(t, "dev")
	ok, err := s.GetDriver().IsInitialized(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestSearchProductsByVector_Unsupported(t *testing.T) {
	s := newTestingStore(t, "dev")
	_, err := s.SearchProductsByVector(context.Background(), &store.FindProductsByVector{Embedding: []float32{0.1}})
	assert.ErrorIs(t, err, store.ErrVectorSearchUnsupported)
}

func TestProductEmbeddings_Unsupported(t *testing.T) {
	s := newTestingStore(t, "dev")
	_, err := s.ListProductsWithoutEmbedding(context.Background(), &store.FindProductsWithoutEmbedding{Limit: 1})
	assert.ErrorIs(t, err, store.ErrVectorSearchUnsupported)
	err = s.UpdateProductEmbedding(context.Background(), &store.UpdateProductEmbedding{ID: 1, Embedding: []float32{0.1}})
	assert.ErrorIs(t, err, store.ErrVectorSearchUnsupported)
}

func TestSearchProductsByText_Seeded(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t, "demo")

	list, err := s.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "Cake", Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 1)
	cake := list[0]
	assert.Equal(t, "Plum Cake", cake.Name)
	require.NotNil(t, cake.Price)
	assert.Equal(t, 350.0, *cake.Price)
	assert.Equal(t, []string{"fresh-bake", "festive"}, cake.TagNames)
	require.NotNil(t, cake.Vendor)
	assert.Equal(t, "City Bakery", cake.Vendor.Name)
	assert.Equal(t, "Chanmari", cake.Vendor.Location)

	// Any term matches; ties are ordered by name.
	list, err = s.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "blazer scarf", Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Formal Blazer", list[0].Name)
	assert.Equal(t, "Wool Scarf", list[1].Name)

	// Tags are searchable.
	list, err = s.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "seasonal", Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mizo Bananas", list[0].Name)
	assert.Nil(t, list[0].Price)

	list, err = s.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "snack", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "?"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSearchProductsByText_IgnoresFillerWords(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t, "demo")
	_, err := s.GetDriver().GetDB().ExecContext(ctx, `INSERT INTO product
		(vendor_id, name, price, description, search_description, stock_status, stock_quantity, category_name, subcategory_name, tag_names)
		VALUES (5, 'Candle Set', 300, 'Scented candles for the home.', 'candle gift decor', 'in_stock', 6, 'Home', 'Decor', '["gift"]')`)
	require.NoError(t, err)

	list, err := s.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "spinach for me", Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Fresh Spinach", list[0].Name)

	list, err = s.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "is there a winter scarf for me", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, "Wool Scarf", list[0].Name)
	for _, p := range list {
		assert.NotEqual(t, "Candle Set", p.Name)
	}

	list, err = s.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "do you have any for me"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSearchProductsByText_RanksByMatchedTerms(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t, "demo")

	list, err := s.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "festive winter scarf", Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Wool Scarf", list[0].Name)
	assert.Equal(t, "Formal Blazer", list[1].Name)
	assert.Equal(t, "Plum Cake", list[2].Name)
}

func TestSearchProductsByText_SkipsUnpublished(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t, "demo")
	_, err := s.GetDriver().GetDB().ExecContext(ctx, "UPDATE product SET status = 'draft' WHERE name = 'Plum Cake'")
	require.NoError(t, err)

	list, err := s.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "plum"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNoSeedOutsideDemo(t *testing.T) {
	s := newTestingStore(t, "dev")
	list, err := s.SearchProductsByText(context.Background(), &store.SearchProductsByText{Query: "cake"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConversationStore(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t, "dev")
	userID := "919876543210"

	old, err := s.CreateConversation(ctx, &store.Conversation{UserID: userID, CreatedTs: 100})
	require.NoError(t, err)
	recent, err := s.CreateConversation(ctx, &store.Conversation{UserID: userID, CreatedTs: 500})
	require.NoError(t, err)
	_, err = s.CreateConversation(ctx, &store.Conversation{UserID: "other", CreatedTs: 900})
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, recent.ID)

	cutoff := int64(200)
	list, err := s.ListConversations(ctx, &store.FindConversation{UserID: &userID, CreatedAfter: &cutoff, Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, recent.ID, list[0].ID)

	list, err = s.ListConversations(ctx, &store.FindConversation{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, recent.ID, list[0].ID)

	require.NoError(t, s.CreateConversationMessages(ctx, []*store.ConversationMessage{
		{ConversationID: recent.ID, Role: store.ConversationRoleUser, Text: "bread a awm em?", CreatedTs: 510},
		{ConversationID: recent.ID, Role: store.ConversationRoleAssistant, Text: "Yes", CreatedTs: 510},
		{ConversationID: recent.ID, Role: store.ConversationRoleUser, Text: "early", CreatedTs: 300},
	}))

	after := int64(400)
	msgs, err := s.ListConversationMessages(ctx, &store.FindConversationMessage{ConversationID: recent.ID, CreatedAfter: &after})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, store.ConversationRoleUser, msgs[0].Role)
	assert.Equal(t, "bread a awm em?", msgs[0].Text)
	assert.Equal(t, store.ConversationRoleAssistant, msgs[1].Role)

	msgs, err = s.ListConversationMessages(ctx, &store.FindConversationMessage{ConversationID: recent.ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "early", msgs[0].Text)
}

func TestDeleteConversations_Cascades(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t, "dev")

	old, err := s.CreateConversation(ctx, &store.Conversation{UserID: "u", CreatedTs: 100})
	require.NoError(t, err)
	kept, err := s.CreateConversation(ctx, &store.Conversation{UserID: "u", CreatedTs: 300})
	require.NoError(t, err)
	require.NoError(t, s.CreateConversationMessages(ctx, []*store.ConversationMessage{
		{ConversationID: old.ID, Role: store.ConversationRoleUser, Text: "old", CreatedTs: 100},
		{ConversationID: kept.ID, Role: store.ConversationRoleUser, Text: "kept", CreatedTs: 300},
	}))

	n, err := s.DeleteConversations(ctx, &store.DeleteConversations{CreatedBefore: 200})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	msgs, err := s.ListConversationMessages(ctx, &store.FindConversationMessage{ConversationID: old.ID})
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = s.ListConversationMessages(ctx, &store.FindConversationMessage{ConversationID: kept.ID})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestConversationMessages_RejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t, "dev")
	c, err := s.CreateConversation(ctx, &store.Conversation{UserID: "u", CreatedTs: 1})
	require.NoError(t, err)

	err = s.CreateConversationMessages(ctx, []*store.ConversationMessage{{ConversationID: c.ID, Role: "system", Text: "x"}})
	assert.Error(t, err)
}

func TestPendingOrderStore(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t, "dev")

	for i, id := range []string{"order_a", "order_b"} {
		_, err := s.CreatePendingOrder(ctx, &store.PendingOrder{
			ID:               id,
			RequestedProduct: "plum cake",
			RawText:          "I want plum cake",
			Status:           store.PendingOrderStatusPendingPayment,
			CreatedTs:        int64(10 + i),
		})
		require.NoError(t, err)
	}

	list, err := s.ListPendingOrders(ctx, &store.FindPendingOrder{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "order_b", list[0].ID)
	assert.Equal(t, store.PendingOrderStatusPendingPayment, list[0].Status)

	_, err = s.CreatePendingOrder(ctx, &store.PendingOrder{ID: "order_a", Status: "pending_payment"})
	assert.Error(t, err)
}

func TestLLMUsageStore(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t, "dev")

	first, err := s.CreateLLMUsage(ctx, &store.LLMUsage{Model: "gpt-4o-mini", PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, Origin: "classify", CreatedTs: 100})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	_, err = s.CreateLLMUsage(ctx, &store.LLMUsage{Model: "gemini", PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5, Origin: "chitchat", CreatedTs: 200})
	require.NoError(t, err)

	after := int64(150)
	list, err := s.ListLLMUsage(ctx, &store.FindLLMUsage{CreatedAfter: &after})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "chitchat", list[0].Origin)

	list, err = s.ListLLMUsage(ctx, &store.FindLLMUsage{})
	require.NoError(t, err)
	totals := store.SummarizeLLMUsage(list)
	assert.Equal(t, 13, totals.PromptTokens)
	assert.Equal(t, 20, totals.TotalTokens)
}
