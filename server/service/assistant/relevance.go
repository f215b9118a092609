package assistant

import (
	"regexp"
	"strings"

	"github.com/hrygo/bazaarbot/plugin/ai/classifier"
	"github.com/hrygo/bazaarbot/store"
)

var needleSplit = regexp.MustCompile(`[^a-z0-9]+`)

// haystack is the lowercased searchable text of a product.
func haystack(p *store.Product) string {
	parts := []string{
		p.Name,
		p.Description,
		p.SearchDescription,
		p.CategoryName,
		p.SubcategoryName,
		strings.Join(p.TagNames, " "),
	}
	return strings.ToLower(strings.Join(nonEmpty(parts), " "))
}

// filterLenient keeps products mentioning a parsed keyword, product or category.
// When nothing matches the input set is returned unchanged.
func filterLenient(products []*store.Product, parsed *classifier.ParsedIntent) []*store.Product {
	terms := append([]string{}, parsed.Keywords...)
	terms = append(terms, parsed.Product, parsed.Category)
	terms = lowerAll(nonEmpty(terms))
	if len(terms) == 0 {
		return products
	}

	kept := matching(products, terms)
	if len(kept) == 0 {
		return products
	}
	return kept
}

// enforceRelevance keeps products containing at least one needle token from the
// parsed fields or the raw text. Unlike filterLenient it may return nothing.
func enforceRelevance(products []*store.Product, parsed *classifier.ParsedIntent, userText string) []*store.Product {
	needles := needlesOf(parsed, userText)
	if len(needles) == 0 {
		return products
	}
	return matching(products, needles)
}

func needlesOf(parsed *classifier.ParsedIntent, userText string) []string {
	parts := []string{parsed.Query, parsed.Product, parsed.Category}
	parts = append(parts, parsed.Keywords...)
	parts = append(parts, userText)
	text := strings.ToLower(strings.Join(nonEmpty(parts), " "))

	var tokens []string
	for _, tok := range needleSplit.Split(text, -1) {
		if len(tok) > 2 && !store.IsSearchStopWord(tok) {
			tokens = append(tokens, tok)
		}
	}
	return unique(tokens)
}

func matching(products []*store.Product, terms []string) []*store.Product {
	kept := make([]*store.Product, 0, len(products))
	for _, p := range products {
		hay := haystack(p)
		for _, term := range terms {
			if strings.Contains(hay, term) {
				kept = append(kept, p)
				break
			}
		}
	}
	return kept
}
