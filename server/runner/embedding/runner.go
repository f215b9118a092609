// Package embedding backfills catalog vectors so semantic search can find new products.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/bazaarbot/plugin/ai"
	"github.com/hrygo/bazaarbot/plugin/ai/timeout"
	"github.com/hrygo/bazaarbot/store"
)

const (
	defaultInterval  = 10 * time.Minute
	defaultBatchSize = 50
	// maxBatchesPerRun bounds one pass when some rows keep failing.
	maxBatchesPerRun = 20
	maxTextRunes     = 2000
)

// ProductStore is the catalog surface the runner writes to.
type ProductStore interface {
	ListProductsWithoutEmbedding(ctx context.Context, find *store.FindProductsWithoutEmbedding) ([]*store.Product, error)
	UpdateProductEmbedding(ctx context.Context, update *store.UpdateProductEmbedding) error
}

type Runner struct {
	store            ProductStore
	embeddingService ai.EmbeddingService
	interval         time.Duration
	batchSize        int
}

// NewRunner creates a product embedding runner.
func NewRunner(store ProductStore, embeddingService ai.EmbeddingService) *Runner {
	return &Runner{
		store:            store,
		embeddingService: embeddingService,
		interval:         defaultInterval,
		batchSize:        defaultBatchSize,
	}
}

// Run backfills once on startup and then on every tick until ctx is done.
// It returns immediately when the driver keeps no vectors.
func (r *Runner) Run(ctx context.Context) {
	if _, err := r.RunOnce(ctx); errors.Is(err, store.ErrVectorSearchUnsupported) {
		slog.Info("embedding runner disabled, driver has no vector column")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("embedding runner stopped")
			return
		}
	}
}

// RunOnce embeds products until none are missing a vector and returns how many were updated.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	updated := 0
	for i := 0; i < maxBatchesPerRun; i++ {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		products, err := r.store.ListProductsWithoutEmbedding(ctx, &store.FindProductsWithoutEmbedding{Limit: r.batchSize})
		if err != nil {
			if !errors.Is(err, store.ErrVectorSearchUnsupported) {
				slog.Error("failed to find products without embedding", "error", err)
			}
			return updated, err
		}
		if len(products) == 0 {
			break
		}

		n, err := r.processBatch(ctx, products)
		updated += n
		if err != nil {
			slog.Error("failed to process batch", "error", err)
			return updated, err
		}
		if n == 0 {
			// Every row in the batch failed; retry on the next tick.
			break
		}
		slog.Info("batch processed", "count", len(products), "updated", n)
	}

	if updated > 0 {
		slog.Info("product embeddings backfilled", "updated", updated)
	}
	return updated, nil
}

func (r *Runner) processBatch(ctx context.Context, products []*store.Product) (int, error) {
	var (
		texts   []string
		targets []*store.Product
	)
	for _, p := range products {
		if text := productText(p); text != "" {
			texts = append(texts, text)
			targets = append(targets, p)
		}
	}
	if len(texts) == 0 {
		return 0, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, timeout.EmbeddingTimeout)
	vectors, err := r.embeddingService.EmbedBatch(embedCtx, texts)
	cancel()
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(targets) {
		return 0, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(targets))
	}

	updated := 0
	for i, p := range targets {
		if len(vectors[i]) == 0 {
			slog.Warn("no embedding returned for product", "productID", p.ID)
			continue
		}
		err := r.store.UpdateProductEmbedding(ctx, &store.UpdateProductEmbedding{
			ID:        p.ID,
			Embedding: vectors[i],
		})
		if err != nil {
			slog.Error("failed to update embedding", "productID", p.ID, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}

// productText is "name. description", trimmed and capped.
func productText(p *store.Product) string {
	text := strings.TrimSpace(strings.TrimSpace(p.Name) + ". " + strings.TrimSpace(p.Description))
	text = strings.TrimSpace(strings.Trim(text, "."))
	if runes := []rune(text); len(runes) > maxTextRunes {
		text = string(runes[:maxTextRunes])
	}
	return text
}
