// Package classifier turns raw mixed Mizo/English shopping messages into a ParsedIntent.
//
// Classification runs two model stages: translate (normalize the text and extract
// entity hints) and classify (pick the intent and fill structured fields). Either
// stage degrades locally: translation falls back to the raw text and classification
// falls back to a keyword rule classifier.
package classifier

import (
	"strings"
)

// Intent is the classified purpose of a message.
type Intent string

const (
	IntentSearch          Intent = "search"
	IntentOrder           Intent = "order"
	IntentCompare         Intent = "compare"
	IntentDiscoverOptions Intent = "discover_options"
	IntentVendorSpecific  Intent = "vendor_specific"
	IntentAvailability    Intent = "availability"
	IntentChitchat        Intent = "chitchat"
	IntentDissatisfaction Intent = "dissatisfaction"
	IntentOther           Intent = "other"
)

// Intents lists every valid intent.
var Intents = []Intent{
	IntentSearch, IntentOrder, IntentCompare, IntentDiscoverOptions, IntentVendorSpecific,
	IntentAvailability, IntentChitchat, IntentDissatisfaction, IntentOther,
}

// ParseIntent maps model output such as "Discover Options" to an Intent.
func ParseIntent(s string) (Intent, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	for _, i := range Intents {
		if string(i) == s {
			return i, true
		}
	}
	switch s {
	case "availability_check", "available", "in_stock":
		return IntentAvailability, true
	case "discover", "browse":
		return IntentDiscoverOptions, true
	case "vendor", "shop":
		return IntentVendorSpecific, true
	case "greeting", "thanks", "smalltalk", "small_talk":
		return IntentChitchat, true
	case "complaint":
		return IntentDissatisfaction, true
	case "buy", "purchase":
		return IntentOrder, true
	}
	return "", false
}

// IsConversational reports intents that get a scoped chat reply instead of a catalog lookup.
func (i Intent) IsConversational() bool {
	return i == IntentChitchat || i == IntentOther || i == IntentDissatisfaction
}

// EntityHints are the entities the translate stage found in the message.
type EntityHints struct {
	Product    string   `json:"product"`
	Category   string   `json:"category"`
	Vendor     string   `json:"vendor"`
	Quantity   string   `json:"quantity"`
	Attributes []string `json:"attributes"`
}

// Translation is the output of the translate stage.
type Translation struct {
	NormalizedText string      `json:"normalized_text"`
	EntityHints    EntityHints `json:"entity_hints"`
}

// ParsedIntent is the structured reading of one inbound message.
// Every field is always present; strings default to "" and lists to empty.
type ParsedIntent struct {
	Intent          Intent   `json:"intent"`
	Query           string   `json:"query"`
	Product         string   `json:"product"`
	Vendor          string   `json:"vendor"`
	Category        string   `json:"category"`
	Keywords        []string `json:"keywords"`
	Attributes      []string `json:"attributes"`
	PriceRange      string   `json:"price_range"`
	Gender          string   `json:"gender"`
	AgeGroup        string   `json:"age_group"`
	Quantity        string   `json:"quantity"`
	EnglishResponse string   `json:"english_response"`
	MizoResponse    string   `json:"mizo_response"`
	PoliteResponse  string   `json:"polite_response"`

	// Source names the strategy that produced the intent.
	Source string `json:"source,omitempty"`
}

// ClassifyInput is what the classify stage sees.
type ClassifyInput struct {
	RawText        string
	NormalizedText string
	Hints          EntityHints
}
