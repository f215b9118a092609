package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	for _, i := range Intents {
		got, ok := ParseIntent(string(i))
		assert.True(t, ok)
		assert.Equal(t, i, got)
	}

	got, ok := ParseIntent(" Discover Options ")
	assert.True(t, ok)
	assert.Equal(t, IntentDiscoverOptions, got)

	got, ok = ParseIntent("greeting")
	assert.True(t, ok)
	assert.Equal(t, IntentChitchat, got)

	_, ok = ParseIntent("weather")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	t.Run("nil input", func(t *testing.T) {
		p := Normalize(nil, "raw text")
		assert.Equal(t, IntentSearch, p.Intent)
		assert.Equal(t, "raw text", p.Query)
		assert.Equal(t, []string{}, p.Keywords)
		assert.Equal(t, []string{}, p.Attributes)
	})

	t.Run("unknown intent becomes search", func(t *testing.T) {
		p := Normalize(&ParsedIntent{Intent: "weather", Query: "rain"}, "x")
		assert.Equal(t, IntentSearch, p.Intent)
		assert.Equal(t, "rain", p.Query)
	})

	for _, intent := range []Intent{IntentChitchat, IntentOther, IntentDissatisfaction} {
		t.Run(string(intent)+" clears query", func(t *testing.T) {
			p := Normalize(&ParsedIntent{Intent: intent, Query: "something"}, "fallback")
			assert.Empty(t, p.Query)
		})
	}

	t.Run("trims and dedupes", func(t *testing.T) {
		p := Normalize(&ParsedIntent{
			Intent:   IntentSearch,
			Query:    "  juice ",
			Keywords: []string{"Juice", " juice", "", "apple"},
		}, "")
		assert.Equal(t, "juice", p.Query)
		assert.Equal(t, []string{"Juice", "apple"}, p.Keywords)
	})

	t.Run("does not modify input", func(t *testing.T) {
		in := &ParsedIntent{Intent: IntentOther, Query: "q"}
		_ = Normalize(in, "")
		assert.Equal(t, "q", in.Query)
	})
}

func TestDecodeParsedIntent(t *testing.T) {
	p, err := decodeParsedIntent(`{
		"intent": "order",
		"product": "apple juice",
		"quantity": 2,
		"keywords": "apple, juice",
		"attributes": ["cold", null, 1],
		"price_range": {"min": 100, "max": 200},
		"mizo_response": null
	}`)
	require.NoError(t, err)
	assert.Equal(t, IntentOrder, p.Intent)
	assert.Equal(t, "apple juice", p.Product)
	assert.Equal(t, "2", p.Quantity)
	assert.Equal(t, []string{"apple", "juice"}, p.Keywords)
	assert.Equal(t, []string{"cold", "1"}, p.Attributes)
	assert.Equal(t, "100-200", p.PriceRange)
	assert.Empty(t, p.MizoResponse)

	p, err = decodeParsedIntent(`{"intent": "search", "price_range": {"max": 500}}`)
	require.NoError(t, err)
	assert.Equal(t, "under 500", p.PriceRange)

	p, err = decodeParsedIntent(`{"intent": "search", "price_range": "cheap"}`)
	require.NoError(t, err)
	assert.Equal(t, "cheap", p.PriceRange)

	_, err = decodeParsedIntent(`{"query": "cake"}`)
	assert.Error(t, err)

	_, err = decodeParsedIntent(`{"intent": "weather"}`)
	assert.Error(t, err)
}
