package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/pulse/internal/errors"
)

// JobRecord is the durable record of one acquisition run. The per-item
// outcome lives on the document rows; the job row is the batch summary.
type JobRecord struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"` // "documents" or "transcripts"
	Requested   int    `json:"requested"`
	Succeeded   int    `json:"succeeded"`
	Skipped     int    `json:"skipped"`
	Unavailable int    `json:"unavailable"`
	Failed      int    `json:"failed"`
	Words       int    `json:"words"`
	StartedAt   int64  `json:"started_at"`
	FinishedAt  *int64 `json:"finished_at,omitempty"`
}

// InsertJob records a started acquisition job.
func InsertJob(ctx context.Context, db *sql.DB, j *JobRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO acquisition_jobs (id, kind, requested, succeeded, skipped, unavailable, failed, words, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`, j.ID, j.Kind, j.Requested, j.Succeeded, j.Skipped, j.Unavailable, j.Failed, j.Words, j.StartedAt)
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}
	return nil
}

// FinishJob updates a job's counters and stamps its completion. Counters are
// written before the job is considered complete, so a restarted run can
// trust the per-document markers it finds.
func FinishJob(ctx context.Context, db *sql.DB, j *JobRecord) error {
	result, err := db.ExecContext(ctx, `
		UPDATE acquisition_jobs
		SET requested = ?, succeeded = ?, skipped = ?, unavailable = ?, failed = ?, words = ?, finished_at = ?
		WHERE id = ?
	`, j.Requested, j.Succeeded, j.Skipped, j.Unavailable, j.Failed, j.Words, j.FinishedAt, j.ID)
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}
	if n == 0 {
		return errors.NewNotFound(j.ID)
	}
	return nil
}

// RecentJobs returns the most recent acquisition jobs, newest first.
func RecentJobs(ctx context.Context, db *sql.DB, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, kind, requested, succeeded, skipped, unavailable, failed, words, started_at, finished_at
		FROM acquisition_jobs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var (
			j        JobRecord
			finished sql.NullInt64
		)
		if err := rows.Scan(&j.ID, &j.Kind, &j.Requested, &j.Succeeded, &j.Skipped,
			&j.Unavailable, &j.Failed, &j.Words, &j.StartedAt, &finished); err != nil {
			return nil, errors.NewStoreUnavailable(err)
		}
		if finished.Valid {
			j.FinishedAt = &finished.Int64
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	return jobs, nil
}
