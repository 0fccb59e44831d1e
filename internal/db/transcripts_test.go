package db

import (
	"context"
	"testing"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/errors"
)

func testTranscript(documentID, fullText string) *corpus.Transcript {
	return &corpus.Transcript{
		DocumentID: documentID,
		FullText:   fullText,
		Language:   "en",
		Confidence: 0.9,
		WordCount:  corpus.CountWords(fullText),
	}
}

func testSegments(documentID string, texts ...string) []corpus.Segment {
	segments := make([]corpus.Segment, len(texts))
	for i, text := range texts {
		start := float64(i * 10)
		segments[i] = corpus.Segment{
			DocumentID: documentID,
			Seq:        i,
			Start:      start,
			End:        start + 10,
			Text:       text,
		}
	}
	return segments
}

func TestReplaceTranscript(t *testing.T) {
	database := initTestDB(t)
	ctx := context.Background()

	if _, err := UpsertDocument(ctx, database, testDoc("vid-1", "Sleep", 100)); err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}

	segments := testSegments("vid-1", "first segment", "second segment")
	if err := ReplaceTranscript(ctx, database, testTranscript("vid-1", "first segment second segment"), segments); err != nil {
		t.Fatalf("ReplaceTranscript() error = %v", err)
	}

	transcript, err := GetTranscript(ctx, database, "vid-1")
	if err != nil {
		t.Fatalf("GetTranscript() error = %v", err)
	}
	if transcript.WordCount != 4 {
		t.Errorf("WordCount = %d, want 4", transcript.WordCount)
	}

	stored, err := GetSegments(ctx, database, "vid-1")
	if err != nil {
		t.Fatalf("GetSegments() error = %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("got %d segments, want 2", len(stored))
	}
	for i, s := range stored {
		if s.Seq != i {
			t.Errorf("segment %d has Seq %d", i, s.Seq)
		}
	}

	doc, err := GetDocument(ctx, database, "vid-1")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.TranscriptStatus != corpus.StatusAcquired {
		t.Errorf("status = %q, want acquired", doc.TranscriptStatus)
	}
	if doc.TranscriptError != nil {
		t.Errorf("TranscriptError = %v, want nil", doc.TranscriptError)
	}
}

func TestReplaceTranscript_ReplacesOldSegments(t *testing.T) {
	database := initTestDB(t)
	ctx := context.Background()

	if _, err := UpsertDocument(ctx, database, testDoc("vid-1", "Sleep", 100)); err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}

	first := testSegments("vid-1", "one", "two", "three")
	if err := ReplaceTranscript(ctx, database, testTranscript("vid-1", "one two three"), first); err != nil {
		t.Fatalf("first ReplaceTranscript() error = %v", err)
	}

	second := testSegments("vid-1", "replacement")
	if err := ReplaceTranscript(ctx, database, testTranscript("vid-1", "replacement"), second); err != nil {
		t.Fatalf("second ReplaceTranscript() error = %v", err)
	}

	stored, err := GetSegments(ctx, database, "vid-1")
	if err != nil {
		t.Fatalf("GetSegments() error = %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("got %d segments, want 1 (old set replaced)", len(stored))
	}
	if stored[0].Text != "replacement" {
		t.Errorf("segment text = %q", stored[0].Text)
	}
}

func TestReplaceTranscript_RejectsSeqGap(t *testing.T) {
	database := initTestDB(t)
	ctx := context.Background()

	if _, err := UpsertDocument(ctx, database, testDoc("vid-1", "Sleep", 100)); err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}

	segments := testSegments("vid-1", "a", "b")
	segments[1].Seq = 5

	err := ReplaceTranscript(ctx, database, testTranscript("vid-1", "a b"), segments)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want INVALID_REQUEST for seq gap", err)
	}

	// Nothing was written
	if _, err := GetTranscript(ctx, database, "vid-1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("transcript should not exist after rejected write, got %v", err)
	}
}

func TestReplaceTranscript_RejectsEndBeforeStart(t *testing.T) {
	database := initTestDB(t)
	ctx := context.Background()

	if _, err := UpsertDocument(ctx, database, testDoc("vid-1", "Sleep", 100)); err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}

	segments := testSegments("vid-1", "a")
	segments[0].End = segments[0].Start - 1

	err := ReplaceTranscript(ctx, database, testTranscript("vid-1", "a"), segments)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST for end < start", err)
	}
}

func TestReplaceTranscript_UnknownDocument(t *testing.T) {
	database := initTestDB(t)
	ctx := context.Background()

	err := ReplaceTranscript(ctx, database, testTranscript("missing", "x"), testSegments("missing", "x"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestGetSegments_Empty(t *testing.T) {
	database := initTestDB(t)

	segments, err := GetSegments(context.Background(), database, "missing")
	if err != nil {
		t.Fatalf("GetSegments() error = %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("got %d segments, want 0", len(segments))
	}
}
