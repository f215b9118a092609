// Package order records purchase requests awaiting payment.
package order

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/bazaarbot/plugin/ai/metrics"
	"github.com/hrygo/bazaarbot/store"
)

const (
	// DefaultCapacity bounds the in-process log.
	DefaultCapacity = 500

	idPrefix = "order_"
)

// Sink accepts a purchase request and returns the recorded order.
type Sink interface {
	LogPendingOrder(ctx context.Context, rawText, requestedProduct string) (*store.PendingOrder, error)
}

// Writer persists orders. *store.Store satisfies it.
type Writer interface {
	CreatePendingOrder(ctx context.Context, create *store.PendingOrder) (*store.PendingOrder, error)
}

// Log keeps recent pending orders in memory and optionally writes them through to a store.
type Log struct {
	writer   Writer
	capacity int
	now      func() time.Time

	mu     sync.Mutex
	orders []*store.PendingOrder
}

// NewLog creates a Log. writer may be nil.
func NewLog(writer Writer, capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		writer:   writer,
		capacity: capacity,
		now:      time.Now,
	}
}

// LogPendingOrder records the order. The store write is best effort.
func (l *Log) LogPendingOrder(ctx context.Context, rawText, requestedProduct string) (*store.PendingOrder, error) {
	order := &store.PendingOrder{
		ID:               idPrefix + shortuuid.New(),
		RequestedProduct: strings.TrimSpace(requestedProduct),
		RawText:          rawText,
		Status:           store.PendingOrderStatusPendingPayment,
		CreatedTs:        l.now().Unix(),
	}

	l.mu.Lock()
	l.orders = append(l.orders, order)
	if over := len(l.orders) - l.capacity; over > 0 {
		l.orders = append([]*store.PendingOrder(nil), l.orders[over:]...)
	}
	l.mu.Unlock()

	slog.Info("pending order recorded",
		"order_id", order.ID,
		"product", order.RequestedProduct)

	if l.writer != nil {
		if _, err := l.writer.CreatePendingOrder(ctx, order); err != nil {
			metrics.PersistenceFailures.WithLabelValues("order_save").Inc()
			slog.Warn("failed to persist pending order",
				"order_id", order.ID,
				"error", err)
		}
	}

	copied := *order
	return &copied, nil
}

// List returns the recorded orders, oldest first.
func (l *Log) List() []store.PendingOrder {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]store.PendingOrder, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, *o)
	}
	return out
}

// Reset drops every in-memory order.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = nil
}

var _ Sink = (*Log)(nil)
