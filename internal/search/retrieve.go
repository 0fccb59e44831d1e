package search

import (
	"context"
	"database/sql"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/db"
)

// Retrieval limits
const (
	DefaultRetrieveLimit = 20
	MaxRetrieveLimit     = 50
)

// Candidate is a document returned by structured retrieval, pending ranking.
type Candidate struct {
	Document        *corpus.Document `json:"document"`
	StructuredScore float64          `json:"structured_score"`
	SemanticScore   float64          `json:"semantic_score"`
	FinalScore      float64          `json:"final_score"`
	Reason          string           `json:"reason,omitempty"`
}

// Retrieve runs the structured full-text search and returns up to limit
// candidates with normalized scores in [0,1]. An unreachable store is a hard
// failure: an empty candidate list and a store error mean different things
// to the user.
func Retrieve(ctx context.Context, database *sql.DB, queryText string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}
	if limit > MaxRetrieveLimit {
		limit = MaxRetrieveLimit
	}

	results, err := db.SearchDocuments(ctx, database, queryText, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, len(results))
	for i, r := range results {
		candidates[i] = Candidate{
			Document:        r.Document,
			StructuredScore: r.Score,
		}
	}
	return candidates, nil
}
