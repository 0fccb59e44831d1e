package search

import (
	"context"
	"database/sql"
	"log"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/db"
	"github.com/hpungsan/pulse/internal/errors"
	"github.com/hpungsan/pulse/internal/query"
	"github.com/hpungsan/pulse/internal/ranking"
)

// Resolve limits
const (
	DefaultResolveLimit = 5
	MaxResolveLimit     = 20
	MaxQueryChars       = 500

	// maxTimestampsPerResult bounds excerpts per document.
	maxTimestampsPerResult = 5
)

// Resolver wires the query-resolution pipeline: analyze → retrieve → rank →
// extract. Stateless per request; the only shared state (keyword index,
// segment cache) is safe for concurrent use.
type Resolver struct {
	DB     *sql.DB
	Index  *query.Index
	Ranker ranking.Ranker
	Cache  *SegmentCache
	Logger *log.Logger
}

// ResolveInput contains parameters for one query resolution.
type ResolveInput struct {
	Text     string  // required
	Limit    int     // default 5, max 20
	MinScore float64 // drop candidates below this final score
}

// ResultItem is one ranked answer.
type ResultItem struct {
	DocumentID      string      `json:"document_id"`
	Title           string      `json:"title"`
	PublishedAt     int64       `json:"published_at"`
	DurationSeconds int         `json:"duration_seconds"`
	ThumbnailURL    string      `json:"thumbnail_url,omitempty"`
	Score           float64     `json:"score"`
	StructuredScore float64     `json:"structured_score"`
	SemanticScore   float64     `json:"semantic_score"`
	Reason          string      `json:"reason,omitempty"`
	Excerpt         string      `json:"excerpt,omitempty"`
	Timestamps      []Timestamp `json:"timestamps"`
}

// ResolveOutput contains the ranked results plus the query analysis.
type ResolveOutput struct {
	Items    []ResultItem    `json:"items"`
	Analysis *query.Analysis `json:"analysis"`
	// Degraded is set when the external ranking call failed and ordering
	// fell back to structured scores. A logged condition, not an error.
	Degraded bool `json:"degraded,omitempty"`
}

// Resolve answers one natural-language question against the corpus. An empty
// item list is a valid outcome; a store failure or an expired deadline is
// surfaced as an explicit error, never as silent partial data.
func (r *Resolver) Resolve(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
	if len(input.Text) > MaxQueryChars {
		return nil, errors.NewInvalidRequest("query text too long")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultResolveLimit
	}
	if limit > MaxResolveLimit {
		limit = MaxResolveLimit
	}
	if input.MinScore < 0 || input.MinScore > 1 {
		return nil, errors.NewInvalidRequest("min_score must be in [0,1]")
	}

	analysis, err := r.Index.Analyze(input.Text)
	if err != nil {
		return nil, err
	}

	// Retrieve more than the caller asked for so ranking has room to reorder
	candidates, err := Retrieve(ctx, r.DB, input.Text, limit*3)
	if err != nil {
		return nil, r.checkDeadline(ctx, err)
	}

	ranked, degraded := Rank(ctx, r.Ranker, r.Logger, input.Text, candidates, input.MinScore, limit)
	if err := ctx.Err(); err != nil {
		return nil, errors.NewTimeout("query resolution deadline exceeded")
	}

	items := make([]ResultItem, 0, len(ranked))
	for _, c := range ranked {
		segments, err := r.segmentsFor(ctx, c.Document.ID)
		if err != nil {
			return nil, r.checkDeadline(ctx, err)
		}

		timestamps := ExtractTimestamps(segments, input.Text, maxTimestampsPerResult)
		excerpt := ""
		if len(timestamps) > 0 {
			excerpt = timestamps[0].Excerpt
		} else {
			excerpt = trimExcerpt(c.Document.Description, MaxExcerptChars)
		}

		items = append(items, ResultItem{
			DocumentID:      c.Document.ID,
			Title:           c.Document.Title,
			PublishedAt:     c.Document.PublishedAt,
			DurationSeconds: c.Document.DurationSeconds,
			ThumbnailURL:    c.Document.ThumbnailURL,
			Score:           c.FinalScore,
			StructuredScore: c.StructuredScore,
			SemanticScore:   c.SemanticScore,
			Reason:          c.Reason,
			Excerpt:         excerpt,
			Timestamps:      timestamps,
		})
	}

	return &ResolveOutput{
		Items:    items,
		Analysis: analysis,
		Degraded: degraded,
	}, nil
}

// segmentsFor reads a document's segments through the LRU cache.
func (r *Resolver) segmentsFor(ctx context.Context, documentID string) ([]corpus.Segment, error) {
	if r.Cache != nil {
		if segments, ok := r.Cache.Get(documentID); ok {
			return segments, nil
		}
	}
	segments, err := db.GetSegments(ctx, r.DB, documentID)
	if err != nil {
		return nil, err
	}
	if r.Cache != nil {
		r.Cache.Put(documentID, segments)
	}
	return segments, nil
}

// checkDeadline converts store errors caused by an expired context into an
// explicit timeout so callers never mistake a deadline for a store outage.
func (r *Resolver) checkDeadline(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.NewTimeout("query resolution deadline exceeded")
	}
	return err
}
