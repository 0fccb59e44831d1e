// Package provider talks to the external video/transcript source. It is the
// normalization boundary: loose provider payloads are mapped into corpus
// structs here, and nothing downstream ever sees the raw shape.
package provider

import (
	"context"

	"github.com/hpungsan/pulse/internal/corpus"
)

// Client is the interface the acquisition orchestrator consumes. The
// external source is rate-limited and billed per call, so callers are
// expected to pace their requests.
type Client interface {
	// ListVideos returns up to maxItems documents for a channel/handle.
	ListVideos(ctx context.Context, channel string, maxItems int) ([]corpus.Document, error)

	// FetchTranscript returns the transcript for one video. A payload with
	// zero segments means the provider has no transcript for this video;
	// a permanent outcome, not an error.
	FetchTranscript(ctx context.Context, videoID, language string) (*TranscriptPayload, error)
}

// TranscriptPayload is the normalized transcript response.
type TranscriptPayload struct {
	Language   string
	Confidence float64
	Segments   []RawSegment
}

// RawSegment mirrors the provider's start/duration segment shape.
type RawSegment struct {
	Start    float64
	Duration float64
	Text     string
}

// Empty reports whether the provider returned no transcript content.
func (p *TranscriptPayload) Empty() bool {
	return p == nil || len(p.Segments) == 0
}
