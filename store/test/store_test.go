package test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/bazaarbot/store"
)

func TestConversationWindow(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	userID := "15550001111"

	conv, err := ts.CreateConversation(ctx, &store.Conversation{UserID: userID, CreatedTs: 1000})
	require.NoError(t, err)

	require.NoError(t, ts.CreateConversationMessages(ctx, []*store.ConversationMessage{
		{ConversationID: conv.ID, Role: store.ConversationRoleUser, Text: "chhang a awm em?", CreatedTs: 1001},
		{ConversationID: conv.ID, Role: store.ConversationRoleAssistant, Text: "Aw, a awm e.", CreatedTs: 1002},
	}))

	cutoff := int64(900)
	convs, err := ts.ListConversations(ctx, &store.FindConversation{UserID: &userID, CreatedAfter: &cutoff, Limit: 1})
	require.NoError(t, err)
	require.Len(t, convs, 1)

	msgs, err := ts.ListConversationMessages(ctx, &store.FindConversationMessage{ConversationID: convs[0].ID, CreatedAfter: &cutoff, Limit: 20})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "chhang a awm em?", msgs[0].Text)
}

func TestProductSearch(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.GetDriver().GetDB().ExecContext(ctx,
		`INSERT INTO vendor (name, location) VALUES ('City Bakery', 'Chanmari')`)
	require.NoError(t, err)
	_, err = ts.GetDriver().GetDB().ExecContext(ctx,
		`INSERT INTO product (vendor_id, name, price, category_name) VALUES (1, 'Plum Cake', 350, 'Bakery')`)
	require.NoError(t, err)

	list, err := ts.SearchProductsByText(ctx, &store.SearchProductsByText{Query: "plum", Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Plum Cake", list[0].Name)

	// Without stored embeddings the vector path finds nothing, or is unsupported on SQLite.
	embedding := make([]float32, 1536)
	embedding[0] = 1
	list, err = ts.SearchProductsByVector(ctx, &store.FindProductsByVector{Embedding: embedding, Threshold: 0.1, Limit: 5})
	if err != nil {
		assert.True(t, errors.Is(err, store.ErrVectorSearchUnsupported))
	} else {
		assert.Empty(t, list)
	}
}
