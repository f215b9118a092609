package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/bazaarbot/plugin/ai/classifier"
	"github.com/hrygo/bazaarbot/plugin/ai/expander"
	"github.com/hrygo/bazaarbot/store"
)

func TestBuildSearchText(t *testing.T) {
	parsed := &classifier.ParsedIntent{Product: "cake", Keywords: []string{"plum", " "}, Category: "bakery"}
	expansion := &expander.Expansion{Keywords: []string{"fruit cake"}, Categories: []string{"food"}}

	assert.Equal(t, "christmas cake cake plum bakery fruit cake food", buildSearchText("christmas cake", expansion, parsed))
	assert.Equal(t, "bread", buildSearchText("bread", expander.Default(), &classifier.ParsedIntent{}))
}

func TestBuildFallbackSearches(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		expansion *expander.Expansion
		parsed    *classifier.ParsedIntent
		want      []string
	}{
		{
			name:      "raw query only",
			query:     "bread",
			expansion: expander.Default(),
			parsed:    &classifier.ParsedIntent{},
			want:      []string{"bread"},
		},
		{
			name:      "keywords then categories then query",
			query:     "toy for kid",
			expansion: &expander.Expansion{Keywords: []string{"Lego", "Puzzle"}, Categories: []string{"Toys"}},
			parsed:    &classifier.ParsedIntent{Product: "toy"},
			want:      []string{"lego puzzle toy", "toys", "toy for kid"},
		},
		{
			name:      "festive apparel first",
			query:     "Church outfit",
			expansion: &expander.Expansion{Categories: []string{"Clothing"}},
			parsed:    &classifier.ParsedIntent{},
			want:      []string{festiveApparelSearch, "clothing", "Church outfit"},
		},
		{
			name:      "festive needs apparel",
			query:     "christmas lights",
			expansion: &expander.Expansion{Categories: []string{"decor"}},
			parsed:    &classifier.ParsedIntent{},
			want:      []string{"decor", "christmas lights"},
		},
		{
			name:      "deduplicated",
			query:     "rice",
			expansion: &expander.Expansion{Keywords: []string{"rice"}, Categories: []string{"rice"}},
			parsed:    &classifier.ParsedIntent{},
			want:      []string{"rice"},
		},
		{
			name:      "keywords capped at eight",
			query:     "q",
			expansion: &expander.Expansion{Keywords: []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9"}},
			parsed:    &classifier.ParsedIntent{},
			want:      []string{"a1 a2 a3 a4 a5 a6 a7 a8", "q"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFallbackSearches(tt.query, tt.expansion, tt.parsed))
		})
	}
}

func TestFormatProductList(t *testing.T) {
	qty := int32(0)
	products := []*store.Product{
		plumCake(),
		{Name: "Mizo Bananas"},
		{Name: "Wool Scarf", Price: price(12.5), Vendor: &store.Vendor{Name: "Bara Bazar Knits"}, StockQuantity: &qty},
		{Name: "Free Sample", Price: price(0), StockStatus: "out_of_stock"},
	}

	want := "- **Plum Cake** (₹350) @ City Bakery - Chanmari\n" +
		"- **Mizo Bananas** (Price on request) @ Unknown shop\n" +
		"- **Wool Scarf** (₹12.5) @ Bara Bazar Knits (out of stock)\n" +
		"- **Free Sample** (Price on request) @ Unknown shop (out of stock)"
	assert.Equal(t, want, FormatProductList(products))
	assert.Equal(t, "", FormatProductList(nil))
}
