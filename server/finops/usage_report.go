// Package finops summarizes model token spend for the admin usage endpoint.
package finops

import (
	"sort"

	"github.com/hrygo/bazaarbot/store"
)

// unknownKey groups rows that carry no model or origin.
const unknownKey = "unknown"

// UsageStats is the token spend of one model or origin.
type UsageStats struct {
	Key              string `json:"key"`
	Calls            int    `json:"calls"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	TotalTokens      int    `json:"totalTokens"`
}

// AvgTokens is the mean total tokens per call.
func (s *UsageStats) AvgTokens() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.TotalTokens) / float64(s.Calls)
}

// UsageReport breaks a usage window down by model and by origin.
// Both slices are ordered by total tokens, largest first.
type UsageReport struct {
	Days     int                  `json:"days"`
	Calls    int                  `json:"calls"`
	Totals   store.LLMUsageTotals `json:"totals"`
	ByModel  []*UsageStats        `json:"byModel"`
	ByOrigin []*UsageStats        `json:"byOrigin"`
}

// BuildUsageReport aggregates rows. Nil rows are skipped.
func BuildUsageReport(days int, rows []*store.LLMUsage) *UsageReport {
	report := &UsageReport{Days: days}
	byModel := map[string]*UsageStats{}
	byOrigin := map[string]*UsageStats{}

	for _, row := range rows {
		if row == nil {
			continue
		}
		report.Calls++
		report.Totals.PromptTokens += row.PromptTokens
		report.Totals.CompletionTokens += row.CompletionTokens
		report.Totals.TotalTokens += row.TotalTokens
		add(byModel, row.Model, row)
		add(byOrigin, row.Origin, row)
	}

	report.ByModel = sorted(byModel)
	report.ByOrigin = sorted(byOrigin)
	return report
}

func add(groups map[string]*UsageStats, key string, row *store.LLMUsage) {
	if key == "" {
		key = unknownKey
	}
	stats, ok := groups[key]
	if !ok {
		stats = &UsageStats{Key: key}
		groups[key] = stats
	}
	stats.Calls++
	stats.PromptTokens += row.PromptTokens
	stats.CompletionTokens += row.CompletionTokens
	stats.TotalTokens += row.TotalTokens
}

func sorted(groups map[string]*UsageStats) []*UsageStats {
	out := make([]*UsageStats, 0, len(groups))
	for _, stats := range groups {
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalTokens != out[j].TotalTokens {
			return out[i].TotalTokens > out[j].TotalTokens
		}
		return out[i].Key < out[j].Key
	})
	return out
}
