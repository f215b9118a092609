package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hrygo/bazaarbot/plugin/ai"
	"github.com/hrygo/bazaarbot/plugin/ai/classifier"
	"github.com/hrygo/bazaarbot/plugin/ai/expander"
	"github.com/hrygo/bazaarbot/server/retrieval"
	"github.com/hrygo/bazaarbot/store"
)

const (
	matchCount = 5

	searchThreshold       = 0.1
	searchFallbackThresh  = 0.4
	alternativesThreshold = 0.35

	availabilityThreshold      = 0.4
	availabilityFallbackThresh = 0.5

	maxFallbackKeywords   = 8
	maxFallbackCategories = 5

	festiveApparelSearch = "christmas blazer coat dress formal shirt shoes scarves"
)

func (s *Service) handleSearch(ctx context.Context, t *turn) *Result {
	query := t.parsed.Query
	expansion := s.expander.Expand(ctx, query)
	searchText := buildSearchText(query, expansion, t.parsed)

	products := s.find(ctx, s.embed(ctx, searchText), searchThreshold, searchText)
	if len(products) == 0 {
		for _, fb := range buildFallbackSearches(query, expansion, t.parsed) {
			if products = s.find(ctx, nil, searchFallbackThresh, fb); len(products) > 0 {
				break
			}
		}
	}

	usedAlternatives := false
	if len(products) == 0 {
		if alt := s.closestAlternatives(ctx, expansion, t.parsed); len(alt) > 0 {
			products = alt
			usedAlternatives = true
		}
	}

	relevant := filterLenient(products, t.parsed)
	return &Result{
		Reply:        searchReply(relevant, t.parsed, usedAlternatives),
		Products:     relevant,
		Expansion:    expansion,
		Branch:       BranchSearch,
		Alternatives: usedAlternatives,
	}
}

func (s *Service) handleAvailability(ctx context.Context, t *turn) *Result {
	query := firstNonEmpty(t.parsed.Query, t.parsed.Product, t.text)
	expansion := s.expander.Expand(ctx, query)
	searchText := buildSearchText(query, expansion, t.parsed)

	products := s.find(ctx, s.embed(ctx, searchText), availabilityThreshold, searchText)
	products = enforceRelevance(products, t.parsed, t.text)
	if len(products) == 0 {
		for _, fb := range buildFallbackSearches(query, expansion, t.parsed) {
			products = enforceRelevance(s.find(ctx, nil, availabilityFallbackThresh, fb), t.parsed, t.text)
			if len(products) > 0 {
				break
			}
		}
	}

	result := &Result{
		Products:  products,
		Expansion: expansion,
		Branch:    BranchAvailability,
	}
	if len(products) == 0 {
		result.Reply = availabilityEmptyReply
		return result
	}
	lead := firstNonEmpty(t.parsed.MizoResponse, t.parsed.EnglishResponse, availabilityLeadReply)
	result.Reply = lead + "\n" + FormatProductList(products)
	return result
}

// closestAlternatives tries broader queries and keeps the first non-empty hit.
func (s *Service) closestAlternatives(ctx context.Context, expansion *expander.Expansion, parsed *classifier.ParsedIntent) []*store.Product {
	keywords := nonEmpty(append(append([]string{}, expansion.Keywords...), parsed.Keywords...))
	categories := nonEmpty(expansion.Categories)

	var queries []string
	if len(keywords) > 0 {
		queries = append(queries, strings.Join(head(keywords, maxFallbackKeywords), " "))
	}
	if len(categories) > 0 {
		queries = append(queries, strings.Join(head(categories, maxFallbackCategories), " "))
	}
	queries = append(queries, parsed.Category, parsed.Product)

	for _, q := range unique(nonEmpty(queries)) {
		if hits := s.find(ctx, nil, alternativesThreshold, q); len(hits) > 0 {
			return head(hits, matchCount)
		}
	}
	return nil
}

func (s *Service) embed(ctx context.Context, text string) []float32 {
	if s.embedder == nil {
		return nil
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("embedding unavailable, falling back to text search",
			"error", err,
			"input", ai.TruncateForLog(text, 50))
		return nil
	}
	return vec
}

// find treats a retrieval fault as an empty result.
func (s *Service) find(ctx context.Context, embedding []float32, threshold float64, queryText string) []*store.Product {
	products, err := s.searcher.FindSimilar(ctx, embedding, retrieval.Options{
		MatchCount: matchCount,
		Threshold:  threshold,
		QueryText:  queryText,
	})
	if err != nil {
		slog.Warn("catalog retrieval failed",
			"error", err,
			"query", ai.TruncateForLog(queryText, 50))
		return nil
	}
	return products
}

func buildSearchText(query string, expansion *expander.Expansion, parsed *classifier.ParsedIntent) string {
	parts := []string{query, parsed.Product}
	parts = append(parts, parsed.Keywords...)
	parts = append(parts, parsed.Category)
	parts = append(parts, expansion.Keywords...)
	parts = append(parts, expansion.Categories...)
	return strings.Join(nonEmpty(parts), " ")
}

// buildFallbackSearches lists the broadened queries in priority order:
// festive apparel, keywords, categories, then the raw query.
func buildFallbackSearches(query string, expansion *expander.Expansion, parsed *classifier.ParsedIntent) []string {
	lower := strings.ToLower(query)
	categories := lowerAll(nonEmpty(expansion.Categories))

	keywords := append([]string{}, expansion.Keywords...)
	keywords = append(keywords, parsed.Keywords...)
	keywords = append(keywords, parsed.Category, parsed.Product)
	keywords = lowerAll(nonEmpty(keywords))

	festive := strings.Contains(lower, "christmas") || strings.Contains(lower, "church")
	apparel := contains(categories, "apparel") || contains(categories, "clothing") || contains(keywords, "apparel")

	var searches []string
	if festive && apparel {
		searches = append(searches, festiveApparelSearch)
	}
	if len(keywords) > 0 {
		searches = append(searches, strings.Join(head(keywords, maxFallbackKeywords), " "))
	}
	if len(categories) > 0 {
		searches = append(searches, strings.Join(head(categories, maxFallbackCategories), " "))
	}
	searches = append(searches, query)
	return unique(nonEmpty(searches))
}

func searchReply(products []*store.Product, parsed *classifier.ParsedIntent, alternatives bool) string {
	if len(products) == 0 {
		return searchEmptyReply
	}
	var b strings.Builder
	if alternatives {
		b.WriteString(alternativesPrefix)
	}
	if mizo := strings.TrimSpace(parsed.MizoResponse); mizo != "" {
		b.WriteString(mizo)
		b.WriteString("\n")
	}
	b.WriteString(FormatProductList(products))
	return b.String()
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func head[T any](values []T, n int) []T {
	if len(values) > n {
		return values[:n]
	}
	return values
}
