package store

import (
	"context"

	"github.com/hrygo/bazaarbot/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) SearchProductsByVector(ctx context.Context, find *FindProductsByVector) ([]*Product, error) {
	return s.driver.SearchProductsByVector(ctx, find)
}

func (s *Store) SearchProductsByText(ctx context.Context, find *SearchProductsByText) ([]*Product, error) {
	return s.driver.SearchProductsByText(ctx, find)
}

func (s *Store) ListProductsWithoutEmbedding(ctx context.Context, find *FindProductsWithoutEmbedding) ([]*Product, error) {
	return s.driver.ListProductsWithoutEmbedding(ctx, find)
}

func (s *Store) UpdateProductEmbedding(ctx context.Context, update *UpdateProductEmbedding) error {
	return s.driver.UpdateProductEmbedding(ctx, update)
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

func (s *Store) DeleteConversations(ctx context.Context, delete *DeleteConversations) (int64, error) {
	return s.driver.DeleteConversations(ctx, delete)
}

func (s *Store) CreateConversationMessages(ctx context.Context, create []*ConversationMessage) error {
	if len(create) == 0 {
		return nil
	}
	return s.driver.CreateConversationMessages(ctx, create)
}

func (s *Store) ListConversationMessages(ctx context.Context, find *FindConversationMessage) ([]*ConversationMessage, error) {
	return s.driver.ListConversationMessages(ctx, find)
}

func (s *Store) CreatePendingOrder(ctx context.Context, create *PendingOrder) (*PendingOrder, error) {
	return s.driver.CreatePendingOrder(ctx, create)
}

func (s *Store) ListPendingOrders(ctx context.Context, find *FindPendingOrder) ([]*PendingOrder, error) {
	return s.driver.ListPendingOrders(ctx, find)
}

func (s *Store) CreateLLMUsage(ctx context.Context, create *LLMUsage) (*LLMUsage, error) {
	return s.driver.CreateLLMUsage(ctx, create)
}

func (s *Store) ListLLMUsage(ctx context.Context, find *FindLLMUsage) ([]*LLMUsage, error) {
	return s.driver.ListLLMUsage(ctx, find)
}
