package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/errors"
)

// ReplaceTranscript replaces a document's transcript and segment set as one
// transaction: old segments are deleted and new ones written atomically, so a
// concurrent reader never observes a half-rewritten segment set. Also marks
// the document acquired and refreshes its FTS row.
func ReplaceTranscript(ctx context.Context, db *sql.DB, t *corpus.Transcript, segments []corpus.Segment) error {
	if err := validateSegments(t.DocumentID, segments); err != nil {
		return err
	}

	now := time.Now().Unix()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}
	defer tx.Rollback()

	var title, description string
	err = tx.QueryRowContext(ctx,
		"SELECT title, description FROM documents WHERE id = ?", t.DocumentID,
	).Scan(&title, &description)
	if err == sql.ErrNoRows {
		return errors.NewNotFound(t.DocumentID)
	}
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transcript_segments WHERE document_id = ?", t.DocumentID,
	); err != nil {
		return errors.NewStoreUnavailable(err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transcripts WHERE document_id = ?", t.DocumentID,
	); err != nil {
		return errors.NewStoreUnavailable(err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transcripts (document_id, full_text, language, confidence, word_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.DocumentID, t.FullText, t.Language, t.Confidence, t.WordCount, now, now); err != nil {
		return errors.NewStoreUnavailable(err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transcript_segments (document_id, seq, start_time, end_time, text)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}
	defer stmt.Close()

	for _, s := range segments {
		if _, err := stmt.ExecContext(ctx, t.DocumentID, s.Seq, s.Start, s.End, s.Text); err != nil {
			return errors.NewStoreUnavailable(err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE documents
		SET transcript_status = 'acquired', transcript_error = NULL, updated_at = ?
		WHERE id = ?
	`, now, t.DocumentID); err != nil {
		return errors.NewStoreUnavailable(err)
	}

	// Keep the FTS row inside the same transaction so search never sees a
	// document whose transcript text disagrees with its segments.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM documents_fts WHERE doc_id = ?", t.DocumentID,
	); err != nil {
		return errors.NewStoreUnavailable(err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents_fts (doc_id, title, description, transcript)
		VALUES (?, ?, ?, ?)
	`, t.DocumentID, title, description, t.FullText); err != nil {
		return errors.NewStoreUnavailable(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStoreUnavailable(err)
	}
	return nil
}

// GetTranscript retrieves the transcript for a document.
func GetTranscript(ctx context.Context, db *sql.DB, documentID string) (*corpus.Transcript, error) {
	var t corpus.Transcript
	err := db.QueryRowContext(ctx, `
		SELECT document_id, full_text, language, confidence, word_count, created_at, updated_at
		FROM transcripts WHERE document_id = ?
	`, documentID).Scan(
		&t.DocumentID, &t.FullText, &t.Language, &t.Confidence,
		&t.WordCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(documentID)
	}
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	return &t, nil
}

// GetSegments retrieves a document's segments ordered by sequence index.
func GetSegments(ctx context.Context, db *sql.DB, documentID string) ([]corpus.Segment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT document_id, seq, start_time, end_time, text
		FROM transcript_segments
		WHERE document_id = ?
		ORDER BY seq ASC
	`, documentID)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var segments []corpus.Segment
	for rows.Next() {
		var s corpus.Segment
		if err := rows.Scan(&s.DocumentID, &s.Seq, &s.Start, &s.End, &s.Text); err != nil {
			return nil, errors.NewStoreUnavailable(err)
		}
		segments = append(segments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	return segments, nil
}

// validateSegments enforces the segment invariants before any write:
// contiguous seq from 0, end_time >= start_time.
func validateSegments(documentID string, segments []corpus.Segment) error {
	for i, s := range segments {
		if s.Seq != i {
			return errors.NewInvalidRequest(
				fmt.Sprintf("segment seq gap for %s: got %d at position %d", documentID, s.Seq, i))
		}
		if s.End < s.Start {
			return errors.NewInvalidRequest(
				fmt.Sprintf("segment %d of %s has end_time < start_time", i, documentID))
		}
	}
	return nil
}
