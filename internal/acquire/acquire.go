// Package acquire populates the corpus store from the external provider in
// controlled, resumable batches. A single item's failure never aborts a run;
// re-invocation converges via per-document completion markers.
package acquire

import (
	"context"
	"crypto/rand"
	"database/sql"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/db"
	"github.com/hpungsan/pulse/internal/errors"
	"github.com/hpungsan/pulse/internal/provider"
)

// SegmentInvalidator drops cached segments for a document whose transcript
// was rewritten. A resolver sharing the process must not keep serving
// pre-rewrite segments.
type SegmentInvalidator interface {
	Invalidate(documentID string)
}

// Orchestrator runs acquisition jobs against one corpus store.
type Orchestrator struct {
	DB       *sql.DB
	Provider provider.Client
	Pacer    Pacer
	Cache    SegmentInvalidator
	Language string
	Logger   *log.Logger
}

// Outcome classifies one document's transcript acquisition result.
type Outcome string

const (
	OutcomeAcquired    Outcome = "acquired"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeFailed      Outcome = "failed"
	OutcomeQuota       Outcome = "quota_exceeded"
)

// DocumentsInput configures AcquireDocuments.
type DocumentsInput struct {
	Channel  string
	MaxItems int
}

// DocumentsOutput reports document acquisition counts.
type DocumentsOutput struct {
	JobID    string `json:"job_id"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Failed   int    `json:"failed"`
}

// TranscriptsInput configures AcquireTranscripts.
type TranscriptsInput struct {
	BatchSize    int
	MaxDocuments int
	Force        bool
}

// TranscriptsOutput is the durable summary of a transcript acquisition run.
type TranscriptsOutput struct {
	JobID       string `json:"job_id"`
	Requested   int    `json:"requested"`
	Succeeded   int    `json:"succeeded"`
	Skipped     int    `json:"skipped"`
	Unavailable int    `json:"unavailable"`
	Failed      int    `json:"failed"`
	Words       int    `json:"words"`
	// QuotaExceeded is set when the provider signaled quota exhaustion and
	// the run paused early. Remaining documents stay eligible for the next run.
	QuotaExceeded bool `json:"quota_exceeded,omitempty"`
	// Cancelled is set when the caller's context expired between items.
	Cancelled bool `json:"cancelled,omitempty"`
}

// AcquireDocuments pulls up to MaxItems documents for a channel and upserts
// them by external id. Existing documents get their mutable fields updated;
// none are ever duplicated.
func (o *Orchestrator) AcquireDocuments(ctx context.Context, input DocumentsInput) (*DocumentsOutput, error) {
	if input.Channel == "" {
		return nil, errors.NewInvalidRequest("channel is required")
	}
	if input.MaxItems <= 0 {
		return nil, errors.NewInvalidRequest("max_items must be positive")
	}

	jobID, err := newJobID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	job := &db.JobRecord{
		ID:        jobID,
		Kind:      "documents",
		StartedAt: time.Now().Unix(),
	}
	if err := db.InsertJob(ctx, o.DB, job); err != nil {
		return nil, err
	}

	docs, err := o.Provider.ListVideos(ctx, input.Channel, input.MaxItems)
	if err != nil {
		return nil, err
	}

	out := &DocumentsOutput{JobID: jobID}
	for i := range docs {
		result, err := db.UpsertDocument(ctx, o.DB, &docs[i])
		if err != nil {
			// Store failures are fatal: continuing would silently lose data
			if errors.Is(err, errors.ErrStoreUnavailable) {
				return nil, err
			}
			out.Failed++
			o.logf("document %s: %v", docs[i].ID, err)
			continue
		}
		if result.Inserted {
			out.Inserted++
		} else {
			out.Updated++
		}
	}

	job.Requested = len(docs)
	job.Succeeded = out.Inserted + out.Updated
	job.Failed = out.Failed
	now := time.Now().Unix()
	job.FinishedAt = &now
	if err := db.FinishJob(ctx, o.DB, job); err != nil {
		return nil, err
	}
	return out, nil
}

// AcquireTranscript acquires one document's transcript. On success the
// transcript and segments are replaced as a single transaction; a provider
// response with no segments is recorded as unavailable (terminal, not
// retried); transient failures are recorded as failed and stay eligible.
func (o *Orchestrator) AcquireTranscript(ctx context.Context, doc *corpus.Document, force bool) (Outcome, int, error) {
	claimed, err := db.ClaimDocument(ctx, o.DB, doc.ID, force)
	if err != nil {
		return OutcomeFailed, 0, err
	}
	if !claimed {
		return OutcomeSkipped, 0, nil
	}
	return o.acquireClaimed(ctx, doc)
}

// acquireClaimed fetches and stores the transcript for an already-claimed
// document.
func (o *Orchestrator) acquireClaimed(ctx context.Context, doc *corpus.Document) (Outcome, int, error) {
	payload, err := o.Provider.FetchTranscript(ctx, doc.ID, o.Language)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrQuotaExceeded):
			// Put the document back in the retryable pool before pausing
			if markErr := db.MarkTranscriptOutcome(ctx, o.DB, doc.ID, corpus.StatusFailed, err.Error()); markErr != nil {
				return OutcomeQuota, 0, markErr
			}
			return OutcomeQuota, 0, err
		case errors.Is(err, errors.ErrProviderPermanent):
			if markErr := db.MarkTranscriptOutcome(ctx, o.DB, doc.ID, corpus.StatusUnavailable, err.Error()); markErr != nil {
				return OutcomeFailed, 0, markErr
			}
			return OutcomeUnavailable, 0, nil
		default:
			if markErr := db.MarkTranscriptOutcome(ctx, o.DB, doc.ID, corpus.StatusFailed, err.Error()); markErr != nil {
				return OutcomeFailed, 0, markErr
			}
			// Retryable failures are absorbed; the next run picks the
			// document up again. Anything else reaches the caller's log.
			if errors.Retryable(err) {
				return OutcomeFailed, 0, nil
			}
			return OutcomeFailed, 0, err
		}
	}

	if payload.Empty() {
		if err := db.MarkTranscriptOutcome(ctx, o.DB, doc.ID, corpus.StatusUnavailable, "provider has no transcript"); err != nil {
			return OutcomeFailed, 0, err
		}
		return OutcomeUnavailable, 0, nil
	}

	segments, fullText := provider.BuildSegments(doc.ID, payload)
	transcript := &corpus.Transcript{
		DocumentID: doc.ID,
		FullText:   fullText,
		Language:   payload.Language,
		Confidence: payload.Confidence,
		WordCount:  corpus.CountWords(fullText),
	}
	if err := db.ReplaceTranscript(ctx, o.DB, transcript, segments); err != nil {
		return OutcomeFailed, 0, err
	}
	if o.Cache != nil {
		o.Cache.Invalidate(doc.ID)
	}
	return OutcomeAcquired, transcript.WordCount, nil
}

// AcquireTranscripts walks the document set in batches: a skip check before
// every item so repeated runs do no duplicate work, a short pause between
// provider calls, a longer pause between batches. Interruptible between
// items; a quota signal pauses the run with whatever progress is durable.
func (o *Orchestrator) AcquireTranscripts(ctx context.Context, input TranscriptsInput) (*TranscriptsOutput, error) {
	if input.BatchSize <= 0 {
		return nil, errors.NewInvalidRequest("batch_size must be positive")
	}

	docs, err := db.ListDocuments(ctx, o.DB, input.MaxDocuments)
	if err != nil {
		return nil, err
	}

	jobID, err := newJobID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	job := &db.JobRecord{
		ID:        jobID,
		Kind:      "transcripts",
		Requested: len(docs),
		StartedAt: time.Now().Unix(),
	}
	if err := db.InsertJob(ctx, o.DB, job); err != nil {
		return nil, err
	}

	out := &TranscriptsOutput{JobID: jobID, Requested: len(docs)}

	calls := 0
items:
	for _, doc := range docs {
		if ctx.Err() != nil {
			out.Cancelled = true
			break
		}

		// Completed documents cost no provider call and no pause
		claimed, err := db.ClaimDocument(ctx, o.DB, doc.ID, input.Force)
		if err != nil {
			return nil, err
		}
		if !claimed {
			out.Skipped++
			continue
		}

		if calls > 0 {
			var pauseErr error
			if calls%input.BatchSize == 0 {
				o.logf("batch done: %d fetched, %d acquired, %d failed, %d words",
					calls, out.Succeeded, out.Failed, out.Words)
				pauseErr = o.Pacer.BatchPause(ctx)
			} else {
				pauseErr = o.Pacer.ItemPause(ctx)
			}
			if pauseErr != nil {
				// The claim is already taken; put it back in the retryable pool
				if markErr := db.MarkTranscriptOutcome(context.WithoutCancel(ctx), o.DB, doc.ID, corpus.StatusFailed, "run cancelled"); markErr != nil {
					return nil, markErr
				}
				out.Cancelled = true
				break
			}
		}

		outcome, words, err := o.acquireClaimed(ctx, doc)
		calls++
		switch outcome {
		case OutcomeAcquired:
			out.Succeeded++
			out.Words += words
		case OutcomeUnavailable:
			out.Unavailable++
		case OutcomeQuota:
			out.Failed++
			out.QuotaExceeded = true
			o.logf("provider quota exceeded after %d calls; pausing run", calls)
			break items
		default:
			if err != nil && errors.Is(err, errors.ErrStoreUnavailable) {
				return nil, err
			}
			out.Failed++
			if err != nil {
				o.logf("document %s: %v", doc.ID, err)
			}
		}
	}

	job.Succeeded = out.Succeeded
	job.Skipped = out.Skipped
	job.Unavailable = out.Unavailable
	job.Failed = out.Failed
	job.Words = out.Words
	now := time.Now().Unix()
	job.FinishedAt = &now
	// The summary must land even when the run was cancelled or paused
	if err := db.FinishJob(context.WithoutCancel(ctx), o.DB, job); err != nil {
		return nil, err
	}

	o.logf("run %s finished: %d acquired, %d skipped, %d unavailable, %d failed",
		jobID, out.Succeeded, out.Skipped, out.Unavailable, out.Failed)
	return out, nil
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}

// newJobID generates a ULID for an acquisition job.
func newJobID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
