package store

import (
	"errors"
	"strings"
	"unicode"
)

// ErrVectorSearchUnsupported is returned by drivers without a vector index.
var ErrVectorSearchUnsupported = errors.New("vector search is not supported by this driver")

const (
	maxTextSearchTerms = 10
	minTermRunes       = 3
)

// searchStopWords are filler words of English and Mizo shopping messages that
// match most catalog descriptions.
var searchStopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "you": {}, "are": {}, "any": {}, "anything": {},
	"have": {}, "has": {}, "had": {}, "there": {}, "here": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "with": {}, "from": {}, "your": {}, "our": {}, "can": {},
	"could": {}, "would": {}, "will": {}, "want": {}, "need": {}, "please": {}, "show": {},
	"find": {}, "get": {}, "give": {}, "some": {}, "something": {}, "what": {}, "which": {},
	"where": {}, "who": {}, "how": {}, "does": {}, "did": {}, "not": {}, "but": {}, "all": {},
	"also": {}, "just": {}, "like": {}, "about": {}, "available": {}, "buy": {}, "looking": {},
	"look": {}, "shop": {}, "today": {}, "now": {}, "got": {}, "one": {}, "very": {},
	"much": {}, "many": {}, "more": {}, "its": {}, "sell": {}, "stock": {}, "aizawl": {},
	// Mizo
	"kan": {}, "nei": {}, "chu": {}, "kha": {}, "hei": {}, "nge": {}, "awm": {}, "duh": {},
	"lei": {}, "leh": {}, "tur": {}, "min": {}, "ang": {}, "em": {},
}

// IsSearchStopWord reports whether a lowercased term carries no product meaning.
func IsSearchStopWord(term string) bool {
	_, ok := searchStopWords[term]
	return ok
}

// TextSearchTerms lowercases query and splits it into unique terms of three or
// more runes, dropping stop words.
func TextSearchTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minTermRunes || IsSearchStopWord(f) {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
		if len(terms) == maxTextSearchTerms {
			break
		}
	}
	return terms
}
