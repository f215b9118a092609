package classifier

import (
	"context"
	"regexp"
	"strings"
)

// RuleClassifier is the deterministic keyword classifier used when the model
// cannot classify a message. Precedence: order, availability, greeting/thanks,
// otherwise search.
type RuleClassifier struct {
	orderPattern        *regexp.Regexp
	availabilityPattern *regexp.Regexp
	greetingPattern     *regexp.Regexp
}

// NewRuleClassifier creates a RuleClassifier with the built-in word lists.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{
		orderPattern: wordPattern(
			// English
			"order", "buy", "purchase", "book it", "i want", "i'll take", "i will take", "deliver",
			// Mizo
			"lei", "ka lei", "ka duh", "lei duh", "ka order", "thawn rawh", "min thawn", "pe rawh",
		),
		availabilityPattern: wordPattern(
			// English
			"available", "availability", "in stock", "do you have", "have you got", "is there", "any stock",
			// Mizo
			"a awm em", "awm em", "awm maw", "a awm maw", "in nei em", "i nei em", "nei em", "in nei maw",
		),
		greetingPattern: wordPattern(
			// English
			"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "thanks", "thank you", "thx",
			// Mizo
			"chibai", "ka lawm", "ka lawm e", "lawmawm", "i dam em",
		),
	}
}

// wordPattern matches any phrase on word boundaries, case-insensitively.
func wordPattern(phrases ...string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)(?:^|[^\pL\pN'])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\pL\pN'])`)
}

// Classify applies the keyword rules to text.
func (c *RuleClassifier) Classify(text string) *ParsedIntent {
	text = strings.TrimSpace(text)

	var intent Intent
	switch {
	case c.orderPattern.MatchString(text):
		intent = IntentOrder
	case c.availabilityPattern.MatchString(text):
		intent = IntentAvailability
	case c.greetingPattern.MatchString(text):
		intent = IntentChitchat
	default:
		intent = IntentSearch
	}

	p := Normalize(&ParsedIntent{Intent: intent}, text)
	p.Source = "rules"
	return p
}

// Name implements Strategy.
func (c *RuleClassifier) Name() string {
	return "rules"
}

// Attempt implements Strategy. It never fails.
func (c *RuleClassifier) Attempt(_ context.Context, in ClassifyInput) (*ParsedIntent, error) {
	p := c.Classify(in.RawText)
	if !p.Intent.IsConversational() && in.NormalizedText != "" {
		p.Query = strings.TrimSpace(in.NormalizedText)
	}
	fillFromHints(p, in.Hints)
	p.Attributes = cleanList(p.Attributes)
	return p, nil
}
