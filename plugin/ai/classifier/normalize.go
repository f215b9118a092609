package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// rawIntent accepts whatever shapes the model returns for each field.
type rawIntent struct {
	Intent          json.RawMessage `json:"intent"`
	Query           json.RawMessage `json:"query"`
	Product         json.RawMessage `json:"product"`
	Vendor          json.RawMessage `json:"vendor"`
	Category        json.RawMessage `json:"category"`
	Keywords        json.RawMessage `json:"keywords"`
	Attributes      json.RawMessage `json:"attributes"`
	PriceRange      json.RawMessage `json:"price_range"`
	Gender          json.RawMessage `json:"gender"`
	AgeGroup        json.RawMessage `json:"age_group"`
	Quantity        json.RawMessage `json:"quantity"`
	EnglishResponse json.RawMessage `json:"english_response"`
	MizoResponse    json.RawMessage `json:"mizo_response"`
	PoliteResponse  json.RawMessage `json:"polite_response"`
}

// Normalize fills every field of p with a safe value.
// An unknown intent becomes search with the fallback query; conversational
// intents always carry an empty query.
func Normalize(p *ParsedIntent, fallbackQuery string) *ParsedIntent {
	if p == nil {
		p = &ParsedIntent{}
	}
	out := *p

	intent, ok := ParseIntent(string(out.Intent))
	if !ok {
		intent = IntentSearch
	}
	out.Intent = intent

	out.Query = strings.TrimSpace(out.Query)
	out.Product = strings.TrimSpace(out.Product)
	out.Vendor = strings.TrimSpace(out.Vendor)
	out.Category = strings.TrimSpace(out.Category)
	out.PriceRange = strings.TrimSpace(out.PriceRange)
	out.Gender = strings.TrimSpace(out.Gender)
	out.AgeGroup = strings.TrimSpace(out.AgeGroup)
	out.Quantity = strings.TrimSpace(out.Quantity)
	out.EnglishResponse = strings.TrimSpace(out.EnglishResponse)
	out.MizoResponse = strings.TrimSpace(out.MizoResponse)
	out.PoliteResponse = strings.TrimSpace(out.PoliteResponse)
	out.Keywords = cleanList(out.Keywords)
	out.Attributes = cleanList(out.Attributes)

	if intent.IsConversational() {
		out.Query = ""
	} else if out.Query == "" {
		out.Query = strings.TrimSpace(fallbackQuery)
	}
	return &out
}

// decodeParsedIntent reads a model JSON object into a ParsedIntent.
func decodeParsedIntent(obj string) (*ParsedIntent, error) {
	var raw rawIntent
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, err
	}
	intent := asString(raw.Intent)
	if intent == "" {
		return nil, fmt.Errorf("missing intent")
	}
	if _, ok := ParseIntent(intent); !ok {
		return nil, fmt.Errorf("unknown intent %q", intent)
	}
	return &ParsedIntent{
		Intent:          Intent(intent),
		Query:           asString(raw.Query),
		Product:         asString(raw.Product),
		Vendor:          asString(raw.Vendor),
		Category:        asString(raw.Category),
		Keywords:        asStrings(raw.Keywords),
		Attributes:      asStrings(raw.Attributes),
		PriceRange:      asPriceRange(raw.PriceRange),
		Gender:          asString(raw.Gender),
		AgeGroup:        asString(raw.AgeGroup),
		Quantity:        asString(raw.Quantity),
		EnglishResponse: asString(raw.EnglishResponse),
		MizoResponse:    asString(raw.MizoResponse),
		PoliteResponse:  asString(raw.PoliteResponse),
	}, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// asString accepts strings, numbers and booleans; lists are joined with spaces.
func asString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	if list := asStrings(raw); len(list) > 0 {
		return strings.Join(list, " ")
	}
	return ""
}

// asStrings accepts a list of scalars or a single comma separated string.
func asStrings(raw json.RawMessage) []string {
	if isNull(raw) {
		return []string{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return cleanList(out)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return cleanList(strings.Split(s, ","))
	}
	return []string{}
}

func asPriceRange(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var r struct {
		Min json.RawMessage `json:"min"`
		Max json.RawMessage `json:"max"`
	}
	if err := json.Unmarshal(raw, &r); err == nil && (!isNull(r.Min) || !isNull(r.Max)) {
		lo, hi := asString(r.Min), asString(r.Max)
		switch {
		case lo != "" && hi != "":
			return lo + "-" + hi
		case hi != "":
			return "under " + hi
		default:
			return "over " + lo
		}
	}
	return asString(raw)
}

// cleanList trims entries and drops empty and duplicate ones, case-insensitively.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
