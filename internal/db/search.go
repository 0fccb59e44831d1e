package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/errors"
)

// Column weights for bm25: title matches count 5x, descriptions 2x,
// transcript text 1x. The first weight covers the unindexed doc_id column.
const ftsWeights = "0.0, 5.0, 2.0, 1.0"

// SearchResult pairs a document with its normalized structured-search score.
type SearchResult struct {
	Document *corpus.Document
	// Score is the bm25 relevance normalized into [0,1] against the best
	// match in this result set (top candidate scores 1.0).
	Score float64
}

// SearchDocuments runs a relevance-ranked FTS5 search over title,
// description, and transcript text. Ties break by publish date descending.
// Store errors propagate; an unreachable store is never an empty result.
func SearchDocuments(ctx context.Context, db *sql.DB, queryText string, limit int) ([]SearchResult, error) {
	match := buildMatchQuery(queryText)
	if match == "" {
		return nil, errors.NewInvalidRequest("query has no searchable terms")
	}

	rows, err := db.QueryContext(ctx, `
		SELECT d.id, d.title, d.description, d.duration_seconds, d.published_at,
			d.view_count, d.like_count, d.thumbnail_url, d.raw_payload,
			d.transcript_status, d.transcript_error, d.created_at, d.updated_at,
			bm25(documents_fts, `+ftsWeights+`) AS rank
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.doc_id
		WHERE documents_fts MATCH ?
		ORDER BY rank ASC, d.published_at DESC, d.id ASC
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	type ranked struct {
		doc  *corpus.Document
		bm25 float64
	}
	var hits []ranked
	for rows.Next() {
		var (
			d      corpus.Document
			status string
			tErr   sql.NullString
			rank   float64
		)
		err := rows.Scan(
			&d.ID, &d.Title, &d.Description, &d.DurationSeconds, &d.PublishedAt,
			&d.ViewCount, &d.LikeCount, &d.ThumbnailURL, &d.RawPayload,
			&status, &tErr, &d.CreatedAt, &d.UpdatedAt, &rank,
		)
		if err != nil {
			return nil, errors.NewStoreUnavailable(err)
		}
		d.TranscriptStatus = corpus.TranscriptStatus(status)
		if tErr.Valid {
			d.TranscriptError = &tErr.String
		}
		hits = append(hits, ranked{doc: &d, bm25: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}

	// bm25() reports better matches as lower (negative) values; negate and
	// scale by the best hit so scores land in [0,1].
	results := make([]SearchResult, len(hits))
	var best float64
	for _, h := range hits {
		if raw := -h.bm25; raw > best {
			best = raw
		}
	}
	for i, h := range hits {
		score := 0.0
		if best > 0 {
			raw := -h.bm25
			if raw < 0 {
				raw = 0
			}
			score = raw / best
		}
		results[i] = SearchResult{Document: h.doc, Score: score}
	}
	return results, nil
}

// buildMatchQuery turns free text into an FTS5 MATCH expression: each token
// is quoted (so user punctuation can't inject FTS syntax) and OR-joined.
func buildMatchQuery(queryText string) string {
	tokens := corpus.Tokenize(queryText)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.ReplaceAll(t, `"`, "")
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}
