package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Product catalog. Only embeddings are written.
	SearchProductsByVector(ctx context.Context, find *FindProductsByVector) ([]*Product, error)
	SearchProductsByText(ctx context.Context, find *SearchProductsByText) ([]*Product, error)
	ListProductsWithoutEmbedding(ctx context.Context, find *FindProductsWithoutEmbedding) ([]*Product, error)
	UpdateProductEmbedding(ctx context.Context, update *UpdateProductEmbedding) error

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	DeleteConversations(ctx context.Context, delete *DeleteConversations) (int64, error)

	// ConversationMessage model related methods.
	CreateConversationMessages(ctx context.Context, create []*ConversationMessage) error
	ListConversationMessages(ctx context.Context, find *FindConversationMessage) ([]*ConversationMessage, error)

	// PendingOrder model related methods.
	CreatePendingOrder(ctx context.Context, create *PendingOrder) (*PendingOrder, error)
	ListPendingOrders(ctx context.Context, find *FindPendingOrder) ([]*PendingOrder, error)

	// LLMUsage model related methods.
	CreateLLMUsage(ctx context.Context, create *LLMUsage) (*LLMUsage, error)
	ListLLMUsage(ctx context.Context, find *FindLLMUsage) ([]*LLMUsage, error)
}
