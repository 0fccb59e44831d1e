package search

import (
	"context"
	"log"
	"sort"

	"github.com/hpungsan/pulse/internal/ranking"
)

// Hybrid blend weights. Fixed design constants, not per-call knobs: the
// semantic signal leads, the structured score keeps a relevance floor.
// Untuned defaults, pending calibration against labeled data.
const (
	structuredWeight = 0.4
	semanticWeight   = 0.6
)

// Rank blends structured and semantic relevance into one ordering. The
// external ranking call is best-effort: on failure every affected candidate
// keeps a semantic score of zero and the structured score alone orders the
// results. Returns the ranked candidates and whether ranking was degraded.
func Rank(ctx context.Context, ranker ranking.Ranker, logger *log.Logger, queryText string, candidates []Candidate, minScore float64, limit int) ([]Candidate, bool) {
	degraded := false

	if len(candidates) > 0 && ranker != nil {
		request := make([]ranking.Candidate, len(candidates))
		for i, c := range candidates {
			request[i] = ranking.Candidate{
				Index:       i,
				Title:       c.Document.Title,
				Description: c.Document.Description,
			}
		}

		scores, err := ranker.Rank(ctx, queryText, request)
		if err != nil {
			degraded = true
			if logger != nil {
				logger.Printf("ranking degraded, structured scores only: %v", err)
			}
		} else {
			for _, s := range scores {
				if s.Index < 0 || s.Index >= len(candidates) {
					continue
				}
				candidates[s.Index].SemanticScore = clamp01(s.Score)
				candidates[s.Index].Reason = s.Reason
			}
		}
	}

	for i := range candidates {
		candidates[i].FinalScore = structuredWeight*candidates[i].StructuredScore +
			semanticWeight*candidates[i].SemanticScore
	}

	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.FinalScore >= minScore {
			ranked = append(ranked, c)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		if ranked[i].StructuredScore != ranked[j].StructuredScore {
			return ranked[i].StructuredScore > ranked[j].StructuredScore
		}
		return ranked[i].Document.PublishedAt > ranked[j].Document.PublishedAt
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, degraded
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
