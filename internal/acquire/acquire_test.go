package acquire

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/db"
	"github.com/hpungsan/pulse/internal/errors"
	"github.com/hpungsan/pulse/internal/provider"
	"github.com/hpungsan/pulse/internal/search"
)

// fakeProvider is an in-memory provider.Client. Transcript fetches are
// recorded so tests can assert which documents hit the provider.
type fakeProvider struct {
	docs        []corpus.Document
	transcripts map[string]*provider.TranscriptPayload
	errs        map[string]error
	fetched     []string
}

func (f *fakeProvider) ListVideos(_ context.Context, channel string, maxItems int) ([]corpus.Document, error) {
	if len(f.docs) > maxItems {
		return f.docs[:maxItems], nil
	}
	return f.docs, nil
}

func (f *fakeProvider) FetchTranscript(_ context.Context, videoID, _ string) (*provider.TranscriptPayload, error) {
	f.fetched = append(f.fetched, videoID)
	if err, ok := f.errs[videoID]; ok {
		return nil, err
	}
	if p, ok := f.transcripts[videoID]; ok {
		return p, nil
	}
	return &provider.TranscriptPayload{Language: "en"}, nil
}

func transcriptFor(text string) *provider.TranscriptPayload {
	return &provider.TranscriptPayload{
		Language: "en",
		Segments: []provider.RawSegment{
			{Start: 0, Duration: 5, Text: text},
		},
	}
}

// setupOrchestrator seeds n pending documents and returns an orchestrator
// over a fresh store. Document ids are doc-01, doc-02, ... in processing order.
func setupOrchestrator(t *testing.T, n int) (*Orchestrator, *fakeProvider, *sql.DB) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	fake := &fakeProvider{
		transcripts: make(map[string]*provider.TranscriptPayload),
		errs:        make(map[string]error),
	}
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("doc-%02d", i)
		doc := &corpus.Document{ID: id, Title: "Video " + id}
		if _, err := db.UpsertDocument(ctx, database, doc); err != nil {
			t.Fatalf("UpsertDocument(%s) error = %v", id, err)
		}
		fake.transcripts[id] = transcriptFor("transcript words for " + id)
	}

	return &Orchestrator{
		DB:       database,
		Provider: fake,
		Pacer:    NopPacer{},
	}, fake, database
}

func TestAcquireDocuments(t *testing.T) {
	orch, fake, database := setupOrchestrator(t, 0)
	fake.docs = []corpus.Document{
		{ID: "v1", Title: "Sleep", TranscriptStatus: corpus.StatusPending},
		{ID: "v2", Title: "Focus", TranscriptStatus: corpus.StatusPending},
	}
	ctx := context.Background()

	out, err := orch.AcquireDocuments(ctx, DocumentsInput{Channel: "healthlab", MaxItems: 10})
	if err != nil {
		t.Fatalf("AcquireDocuments() error = %v", err)
	}
	if out.Inserted != 2 || out.Updated != 0 {
		t.Errorf("first run inserted/updated = %d/%d, want 2/0", out.Inserted, out.Updated)
	}

	// Second listing updates, never duplicates
	out, err = orch.AcquireDocuments(ctx, DocumentsInput{Channel: "healthlab", MaxItems: 10})
	if err != nil {
		t.Fatalf("second AcquireDocuments() error = %v", err)
	}
	if out.Inserted != 0 || out.Updated != 2 {
		t.Errorf("second run inserted/updated = %d/%d, want 0/2", out.Inserted, out.Updated)
	}

	jobs, err := db.RecentJobs(ctx, database, 10)
	if err != nil {
		t.Fatalf("RecentJobs() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("got %d job records, want 2", len(jobs))
	}
	for _, j := range jobs {
		if j.Kind != "documents" || j.FinishedAt == nil {
			t.Errorf("job = %+v, want finished documents job", j)
		}
	}
}

func TestAcquireDocuments_Validation(t *testing.T) {
	orch, _, _ := setupOrchestrator(t, 0)

	if _, err := orch.AcquireDocuments(context.Background(), DocumentsInput{MaxItems: 5}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing channel error = %v, want INVALID_REQUEST", err)
	}
	if _, err := orch.AcquireDocuments(context.Background(), DocumentsInput{Channel: "c"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("zero max_items error = %v, want INVALID_REQUEST", err)
	}
}

func TestAcquireTranscripts_FreshRun(t *testing.T) {
	orch, fake, database := setupOrchestrator(t, 3)
	ctx := context.Background()

	out, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10})
	if err != nil {
		t.Fatalf("AcquireTranscripts() error = %v", err)
	}
	if out.Requested != 3 || out.Succeeded != 3 || out.Failed != 0 || out.Skipped != 0 {
		t.Errorf("out = %+v, want 3 succeeded", out)
	}
	if out.Words == 0 {
		t.Error("expected a nonzero word count")
	}
	if len(fake.fetched) != 3 {
		t.Errorf("provider calls = %d, want 3", len(fake.fetched))
	}

	counts, err := db.CountByStatus(ctx, database)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if counts[corpus.StatusAcquired] != 3 {
		t.Errorf("acquired = %d, want 3", counts[corpus.StatusAcquired])
	}
}

func TestAcquireTranscripts_SecondRunFullySkipped(t *testing.T) {
	orch, fake, _ := setupOrchestrator(t, 3)
	ctx := context.Background()

	if _, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10}); err != nil {
		t.Fatalf("first run error = %v", err)
	}
	fake.fetched = nil

	out, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10})
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if out.Requested != 3 || out.Skipped != 3 || out.Succeeded != 0 {
		t.Errorf("second run = %+v, want everything skipped", out)
	}
	if len(fake.fetched) != 0 {
		t.Errorf("provider calls on second run = %d, want 0", len(fake.fetched))
	}
}

func TestAcquireTranscripts_SingleFailureDoesNotAbort(t *testing.T) {
	orch, fake, _ := setupOrchestrator(t, 10)
	fake.errs["doc-06"] = errors.NewProviderTransient(fmt.Errorf("connection reset"))
	ctx := context.Background()

	out, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10})
	if err != nil {
		t.Fatalf("AcquireTranscripts() error = %v", err)
	}
	if out.Succeeded != 9 || out.Failed != 1 {
		t.Errorf("out = %+v, want 9 succeeded / 1 failed", out)
	}

	// The retry run touches only the failed document
	delete(fake.errs, "doc-06")
	fake.fetched = nil

	out, err = orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10})
	if err != nil {
		t.Fatalf("retry run error = %v", err)
	}
	if out.Succeeded != 1 || out.Skipped != 9 {
		t.Errorf("retry run = %+v, want 1 succeeded / 9 skipped", out)
	}
	if len(fake.fetched) != 1 || fake.fetched[0] != "doc-06" {
		t.Errorf("retry fetched %v, want only doc-06", fake.fetched)
	}
}

func TestAcquireTranscripts_EmptyPayloadIsUnavailable(t *testing.T) {
	orch, fake, database := setupOrchestrator(t, 1)
	fake.transcripts["doc-01"] = &provider.TranscriptPayload{Language: "en"}
	ctx := context.Background()

	out, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10})
	if err != nil {
		t.Fatalf("AcquireTranscripts() error = %v", err)
	}
	if out.Unavailable != 1 {
		t.Errorf("out = %+v, want 1 unavailable", out)
	}

	doc, err := db.GetDocument(ctx, database, "doc-01")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.TranscriptStatus != corpus.StatusUnavailable {
		t.Errorf("status = %q, want unavailable", doc.TranscriptStatus)
	}

	// Unavailable is terminal: the next run skips it
	fake.fetched = nil
	out, err = orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10})
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if out.Skipped != 1 || len(fake.fetched) != 0 {
		t.Errorf("second run = %+v with %d fetches, want skip", out, len(fake.fetched))
	}
}

func TestAcquireTranscripts_QuotaPausesRun(t *testing.T) {
	orch, fake, database := setupOrchestrator(t, 4)
	fake.errs["doc-02"] = errors.NewQuotaExceeded("daily quota exhausted")
	ctx := context.Background()

	out, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10})
	if err != nil {
		t.Fatalf("AcquireTranscripts() error = %v", err)
	}
	if !out.QuotaExceeded {
		t.Error("QuotaExceeded not set")
	}
	if out.Succeeded != 1 || out.Failed != 1 {
		t.Errorf("out = %+v, want 1 succeeded / 1 failed before pause", out)
	}

	// Documents after the quota hit stay untouched and eligible
	for _, id := range []string{"doc-03", "doc-04"} {
		doc, err := db.GetDocument(ctx, database, id)
		if err != nil {
			t.Fatalf("GetDocument(%s) error = %v", id, err)
		}
		if doc.TranscriptStatus != corpus.StatusPending {
			t.Errorf("%s status = %q, want pending", id, doc.TranscriptStatus)
		}
	}

	// The quota-hit document itself stays retryable
	doc, err := db.GetDocument(ctx, database, "doc-02")
	if err != nil {
		t.Fatalf("GetDocument(doc-02) error = %v", err)
	}
	if doc.TranscriptStatus != corpus.StatusFailed {
		t.Errorf("doc-02 status = %q, want failed", doc.TranscriptStatus)
	}

	// After the quota resets, the next run converges
	delete(fake.errs, "doc-02")
	out, err = orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10})
	if err != nil {
		t.Fatalf("resume run error = %v", err)
	}
	if out.Succeeded != 3 || out.Skipped != 1 {
		t.Errorf("resume run = %+v, want 3 succeeded / 1 skipped", out)
	}
}

func TestAcquireTranscripts_Cancellation(t *testing.T) {
	orch, fake, database := setupOrchestrator(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10})
	if err != nil {
		t.Fatalf("AcquireTranscripts() error = %v", err)
	}
	if !out.Cancelled {
		t.Error("Cancelled not set")
	}
	if out.Succeeded != 0 || len(fake.fetched) != 0 {
		t.Errorf("cancelled run did work: %+v, %d fetches", out, len(fake.fetched))
	}

	// The job summary is durable even for a cancelled run
	jobs, err := db.RecentJobs(context.Background(), database, 5)
	if err != nil {
		t.Fatalf("RecentJobs() error = %v", err)
	}
	if len(jobs) != 1 || jobs[0].FinishedAt == nil {
		t.Errorf("jobs = %+v, want one finished record", jobs)
	}
}

func TestAcquireTranscripts_Force(t *testing.T) {
	orch, fake, _ := setupOrchestrator(t, 2)
	ctx := context.Background()

	if _, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10}); err != nil {
		t.Fatalf("first run error = %v", err)
	}

	fake.fetched = nil
	out, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10, Force: true})
	if err != nil {
		t.Fatalf("force run error = %v", err)
	}
	if out.Succeeded != 2 || out.Skipped != 0 {
		t.Errorf("force run = %+v, want full re-acquisition", out)
	}
	if len(fake.fetched) != 2 {
		t.Errorf("provider calls = %d, want 2", len(fake.fetched))
	}
}

func TestAcquireTranscripts_Validation(t *testing.T) {
	orch, _, _ := setupOrchestrator(t, 0)

	if _, err := orch.AcquireTranscripts(context.Background(), TranscriptsInput{BatchSize: 0}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestAcquireTranscripts_InvalidatesCachedSegments(t *testing.T) {
	orch, fake, database := setupOrchestrator(t, 1)
	ctx := context.Background()

	if _, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10}); err != nil {
		t.Fatalf("first run error = %v", err)
	}

	// A resolver in the same process has the pre-rewrite segments cached
	cache := search.NewSegmentCache(4)
	old, err := db.GetSegments(ctx, database, "doc-01")
	if err != nil {
		t.Fatalf("GetSegments() error = %v", err)
	}
	cache.Put("doc-01", old)
	orch.Cache = cache

	fake.transcripts["doc-01"] = transcriptFor("rewritten transcript for doc-01")
	if _, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10, Force: true}); err != nil {
		t.Fatalf("force run error = %v", err)
	}

	if _, ok := cache.Get("doc-01"); ok {
		t.Error("cached segments survived a transcript rewrite")
	}
	segments, err := db.GetSegments(ctx, database, "doc-01")
	if err != nil {
		t.Fatalf("GetSegments() after rewrite error = %v", err)
	}
	if len(segments) == 0 || segments[0].Text != "rewritten transcript for doc-01" {
		t.Errorf("segments after rewrite = %+v", segments)
	}
}

func TestAcquireTranscripts_UnexpectedErrorMarkedFailed(t *testing.T) {
	orch, fake, database := setupOrchestrator(t, 2)
	fake.errs["doc-01"] = errors.NewInternal(fmt.Errorf("malformed payload"))
	ctx := context.Background()

	out, err := orch.AcquireTranscripts(ctx, TranscriptsInput{BatchSize: 10})
	if err != nil {
		t.Fatalf("AcquireTranscripts() error = %v", err)
	}
	if out.Succeeded != 1 || out.Failed != 1 {
		t.Errorf("out = %+v, want 1 succeeded / 1 failed", out)
	}

	// The document stays retryable rather than stuck in_progress
	doc, err := db.GetDocument(ctx, database, "doc-01")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.TranscriptStatus != corpus.StatusFailed {
		t.Errorf("status = %q, want failed", doc.TranscriptStatus)
	}
}

func TestAcquireTranscript_SingleDocument(t *testing.T) {
	orch, fake, database := setupOrchestrator(t, 1)
	ctx := context.Background()

	doc, err := db.GetDocument(ctx, database, "doc-01")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}

	outcome, words, err := orch.AcquireTranscript(ctx, doc, false)
	if err != nil {
		t.Fatalf("AcquireTranscript() error = %v", err)
	}
	if outcome != OutcomeAcquired {
		t.Errorf("outcome = %q, want acquired", outcome)
	}
	if words == 0 {
		t.Error("expected a word count")
	}

	// Second call without force is a skip
	outcome, _, err = orch.AcquireTranscript(ctx, doc, false)
	if err != nil {
		t.Fatalf("second AcquireTranscript() error = %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Errorf("outcome = %q, want skipped", outcome)
	}
	if len(fake.fetched) != 1 {
		t.Errorf("provider calls = %d, want 1", len(fake.fetched))
	}
}
