package store

// LLMUsage is the token accounting of one completion call.
type LLMUsage struct {
	ID               int64  `json:"id"`
	Model            string `json:"model"`
	ResponseID       string `json:"responseId"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	TotalTokens      int    `json:"totalTokens"`
	Origin           string `json:"origin"`
	CreatedTs        int64  `json:"createdTs"`
}

type FindLLMUsage struct {
	CreatedAfter *int64
	Limit        int
}

// LLMUsageTotals sums token counts over a set of rows.
type LLMUsageTotals struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// SummarizeLLMUsage adds up the token columns.
func SummarizeLLMUsage(rows []*LLMUsage) LLMUsageTotals {
	var t LLMUsageTotals
	for _, r := range rows {
		t.PromptTokens += r.PromptTokens
		t.CompletionTokens += r.CompletionTokens
		t.TotalTokens += r.TotalTokens
	}
	return t
}
