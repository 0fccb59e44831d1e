package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/errors"
)

// UpsertResult reports whether an upsert inserted a new row or updated one.
type UpsertResult struct {
	Inserted bool
}

// UpsertDocument inserts a document by external id, or updates its mutable
// fields if the id already exists. The acquisition state machine column is
// untouched on update so re-acquisition never resets transcript progress.
// The row write and the FTS rewrite commit together, so a concurrent search
// never sees a document missing from the index.
func UpsertDocument(ctx context.Context, db *sql.DB, d *corpus.Document) (*UpsertResult, error) {
	now := time.Now().Unix()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", d.ID).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.NewStoreUnavailable(err)
	}
	inserted := err == sql.ErrNoRows

	query := `
		INSERT INTO documents (
			id, title, description, duration_seconds, published_at,
			view_count, like_count, thumbnail_url, raw_payload,
			transcript_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title            = excluded.title,
			description      = excluded.description,
			duration_seconds = excluded.duration_seconds,
			published_at     = excluded.published_at,
			view_count       = excluded.view_count,
			like_count       = excluded.like_count,
			thumbnail_url    = excluded.thumbnail_url,
			raw_payload      = excluded.raw_payload,
			updated_at       = excluded.updated_at
	`
	_, err = tx.ExecContext(ctx, query,
		d.ID, d.Title, d.Description, d.DurationSeconds, d.PublishedAt,
		d.ViewCount, d.LikeCount, d.ThumbnailURL, d.RawPayload,
		now, now,
	)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}

	if err := syncDocumentFTS(ctx, tx, d.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	return &UpsertResult{Inserted: inserted}, nil
}

// GetDocument retrieves a document by external id.
func GetDocument(ctx context.Context, db *sql.DB, id string) (*corpus.Document, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, title, description, duration_seconds, published_at,
			view_count, like_count, thumbnail_url, raw_payload,
			transcript_status, transcript_error, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	return d, nil
}

// ListDocuments returns documents newest first, up to limit (0 = all).
// Transcript acquisition walks this full set and skips per item, so the
// skipped count reflects how much duplicate work the markers saved.
func ListDocuments(ctx context.Context, db *sql.DB, limit int) ([]*corpus.Document, error) {
	query := `
		SELECT id, title, description, duration_seconds, published_at,
			view_count, like_count, thumbnail_url, raw_payload,
			transcript_status, transcript_error, created_at, updated_at
		FROM documents
		ORDER BY published_at DESC, id ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var docs []*corpus.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, errors.NewStoreUnavailable(err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	return docs, nil
}

// ClaimDocument transitions a document to in_progress if it is still
// eligible. Returns false when another run already finished it; this is the
// check-then-act guard that keeps concurrent acquisition idempotent.
func ClaimDocument(ctx context.Context, db *sql.DB, id string, force bool) (bool, error) {
	query := `
		UPDATE documents
		SET transcript_status = 'in_progress', updated_at = ?
		WHERE id = ?
	`
	if !force {
		query += " AND transcript_status NOT IN ('acquired', 'unavailable')"
	}

	result, err := db.ExecContext(ctx, query, time.Now().Unix(), id)
	if err != nil {
		return false, errors.NewStoreUnavailable(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewStoreUnavailable(err)
	}
	return n > 0, nil
}

// MarkTranscriptOutcome records a terminal or retryable acquisition outcome.
// errMsg is stored for failed/unavailable outcomes and cleared otherwise.
func MarkTranscriptOutcome(ctx context.Context, db *sql.DB, id string, status corpus.TranscriptStatus, errMsg string) error {
	var msg sql.NullString
	if errMsg != "" {
		msg = sql.NullString{String: errMsg, Valid: true}
	}

	result, err := db.ExecContext(ctx, `
		UPDATE documents
		SET transcript_status = ?, transcript_error = ?, updated_at = ?
		WHERE id = ?
	`, string(status), msg, time.Now().Unix(), id)
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}
	if n == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// CountByStatus returns document counts keyed by transcript status.
func CountByStatus(ctx context.Context, db *sql.DB) (map[corpus.TranscriptStatus]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT transcript_status, COUNT(*) FROM documents GROUP BY transcript_status
	`)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	counts := make(map[corpus.TranscriptStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.NewStoreUnavailable(err)
		}
		counts[corpus.TranscriptStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	return counts, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanDocument.
type scanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a single row into a Document struct.
func scanDocument(row scanner) (*corpus.Document, error) {
	var (
		d      corpus.Document
		status string
		tErr   sql.NullString
	)

	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.DurationSeconds, &d.PublishedAt,
		&d.ViewCount, &d.LikeCount, &d.ThumbnailURL, &d.RawPayload,
		&status, &tErr, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.TranscriptStatus = corpus.TranscriptStatus(status)
	if tErr.Valid {
		d.TranscriptError = &tErr.String
	}
	return &d, nil
}

// syncDocumentFTS rewrites the FTS row for a document from its current
// title, description, and transcript text, inside the caller's transaction.
func syncDocumentFTS(ctx context.Context, tx *sql.Tx, id string) error {
	var title, description string
	err := tx.QueryRowContext(ctx,
		"SELECT title, description FROM documents WHERE id = ?", id,
	).Scan(&title, &description)
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}

	var transcript string
	err = tx.QueryRowContext(ctx,
		"SELECT full_text FROM transcripts WHERE document_id = ?", id,
	).Scan(&transcript)
	if err != nil && err != sql.ErrNoRows {
		return errors.NewStoreUnavailable(err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents_fts WHERE doc_id = ?", id); err != nil {
		return errors.NewStoreUnavailable(err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents_fts (doc_id, title, description, transcript)
		VALUES (?, ?, ?, ?)
	`, id, title, description, transcript); err != nil {
		return errors.NewStoreUnavailable(err)
	}
	return nil
}
