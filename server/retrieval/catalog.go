// Package retrieval finds catalog products for a shopper's query.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/bazaarbot/plugin/ai"
	"github.com/hrygo/bazaarbot/plugin/ai/metrics"
	"github.com/hrygo/bazaarbot/store"
)

const (
	DefaultMatchCount = 5
	DefaultThreshold  = 0.5

	StageVector = "vector"
	StageText   = "text"
)

// VectorSearcher ranks catalog rows by embedding similarity.
type VectorSearcher interface {
	SearchProductsByVector(ctx context.Context, find *store.FindProductsByVector) ([]*store.Product, error)
}

// TextSearcher matches published catalog rows by substring.
type TextSearcher interface {
	SearchProductsByText(ctx context.Context, find *store.SearchProductsByText) ([]*store.Product, error)
}

// Options controls one FindSimilar call.
type Options struct {
	MatchCount int
	// Threshold is the minimum similarity for the vector step.
	Threshold float64
	// QueryText feeds the text fallback.
	QueryText string
}

// RetrievalError is an infrastructure fault from a search backend.
type RetrievalError struct {
	Stage string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval %s search failed: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// IsRetrievalError reports whether err carries a RetrievalError.
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

// Searcher is the contract the orchestrator depends on.
type Searcher interface {
	FindSimilar(ctx context.Context, embedding []float32, opts Options) ([]*store.Product, error)
}

// Catalog runs the vector step and falls back to text search.
type Catalog struct {
	vector VectorSearcher
	text   TextSearcher
}

// NewCatalog creates a Catalog. Either searcher may be nil.
func NewCatalog(vector VectorSearcher, text TextSearcher) *Catalog {
	return &Catalog{vector: vector, text: text}
}

// FindSimilar returns up to MatchCount products. An empty result is not an error;
// only a failing text backend returns a RetrievalError. A failing vector step
// is logged and the text step is tried.
func (c *Catalog) FindSimilar(ctx context.Context, embedding []float32, opts Options) ([]*store.Product, error) {
	if opts.MatchCount <= 0 {
		opts.MatchCount = DefaultMatchCount
	}

	if len(embedding) > 0 && c.vector != nil {
		products, err := c.vector.SearchProductsByVector(ctx, &store.FindProductsByVector{
			Embedding: embedding,
			Threshold: opts.Threshold,
			Limit:     opts.MatchCount,
		})
		switch {
		case errors.Is(err, store.ErrVectorSearchUnsupported):
			metrics.RetrievalSteps.WithLabelValues(StageVector, "unsupported").Inc()
		case err != nil:
			metrics.RetrievalSteps.WithLabelValues(StageVector, "error").Inc()
			slog.Warn("vector search failed, falling back to text search",
				"error", err,
				"query", ai.TruncateForLog(opts.QueryText, 50))
		case len(products) > 0:
			metrics.RetrievalSteps.WithLabelValues(StageVector, "hit").Inc()
			return products, nil
		default:
			metrics.RetrievalSteps.WithLabelValues(StageVector, "empty").Inc()
		}
	}

	query := strings.TrimSpace(opts.QueryText)
	if query == "" || c.text == nil {
		return []*store.Product{}, nil
	}

	products, err := c.text.SearchProductsByText(ctx, &store.SearchProductsByText{
		Query: query,
		Limit: opts.MatchCount,
	})
	if err != nil {
		metrics.RetrievalSteps.WithLabelValues(StageText, "error").Inc()
		return []*store.Product{}, &RetrievalError{Stage: StageText, Err: err}
	}
	if len(products) == 0 {
		metrics.RetrievalSteps.WithLabelValues(StageText, "empty").Inc()
		return []*store.Product{}, nil
	}
	metrics.RetrievalSteps.WithLabelValues(StageText, "hit").Inc()
	return products, nil
}

var _ Searcher = (*Catalog)(nil)
