// Package ranking scores query/candidate relevance with an external
// OpenAI-compatible ranking call, tracked by an explicit UsageTracker.
// The call is best-effort: callers must treat failures as degraded quality,
// never as a request failure.
package ranking

import (
	"context"
	"strings"
	"sync"

	"github.com/hpungsan/pulse/internal/corpus"
)

// Candidate is what the ranking call sees for one document.
type Candidate struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Score is the per-candidate result of a ranking call.
type Score struct {
	Index  int     `json:"index"`
	Score  float64 `json:"score"` // [0,1]
	Reason string  `json:"reason"`
}

// Ranker scores candidates against a query.
type Ranker interface {
	Rank(ctx context.Context, query string, candidates []Candidate) ([]Score, error)
}

// UsageTracker accumulates ranking-call usage. Passed by handle into the
// client and aggregated by the caller; there is no package-level state.
type UsageTracker struct {
	mu               sync.Mutex
	calls            int
	failures         int
	promptTokens     int
	completionTokens int
}

// Usage is a snapshot of accumulated usage.
type Usage struct {
	Calls            int     `json:"calls"`
	Failures         int     `json:"failures"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// Untuned per-token pricing defaults; only used for the cost estimate.
const (
	promptCostPerToken     = 0.15 / 1e6
	completionCostPerToken = 0.60 / 1e6
)

// RecordCall adds one successful call's token usage.
func (u *UsageTracker) RecordCall(promptTokens, completionTokens int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	u.promptTokens += promptTokens
	u.completionTokens += completionTokens
}

// RecordFailure counts a failed or malformed call.
func (u *UsageTracker) RecordFailure() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	u.failures++
}

// Snapshot returns the current usage totals.
func (u *UsageTracker) Snapshot() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Usage{
		Calls:            u.calls,
		Failures:         u.failures,
		PromptTokens:     u.promptTokens,
		CompletionTokens: u.completionTokens,
		EstimatedCostUSD: float64(u.promptTokens)*promptCostPerToken +
			float64(u.completionTokens)*completionCostPerToken,
	}
}

// Heuristic is the local fallback ranker used when no external endpoint is
// configured: term overlap between the query and title/description.
type Heuristic struct{}

// Rank scores each candidate by the fraction of query terms present in its
// title (full weight) or description (half weight).
func (Heuristic) Rank(_ context.Context, query string, candidates []Candidate) ([]Score, error) {
	terms := corpus.Tokenize(query)
	scores := make([]Score, len(candidates))
	for i, c := range candidates {
		title := " " + corpus.Normalize(c.Title) + " "
		desc := " " + corpus.Normalize(c.Description) + " "

		var hit float64
		for _, t := range terms {
			needle := " " + t + " "
			switch {
			case strings.Contains(title, needle):
				hit += 1.0
			case strings.Contains(desc, needle):
				hit += 0.5
			}
		}
		score := 0.0
		if len(terms) > 0 {
			score = hit / float64(len(terms))
		}
		if score > 1 {
			score = 1
		}
		scores[i] = Score{Index: c.Index, Score: score, Reason: "local term overlap"}
	}
	return scores, nil
}
