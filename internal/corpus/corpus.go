package corpus

// TranscriptStatus tracks where a document is in the acquisition state
// machine: pending → in_progress → {acquired | unavailable | failed}.
// acquired and unavailable are terminal unless a force-refresh is requested;
// failed (and in_progress left behind by a crash) stay eligible for retry.
type TranscriptStatus string

const (
	StatusPending     TranscriptStatus = "pending"
	StatusInProgress  TranscriptStatus = "in_progress"
	StatusAcquired    TranscriptStatus = "acquired"
	StatusUnavailable TranscriptStatus = "unavailable"
	StatusFailed      TranscriptStatus = "failed"
)

// Terminal reports whether the status needs no further acquisition work.
func (s TranscriptStatus) Terminal() bool {
	return s == StatusAcquired || s == StatusUnavailable
}

// Document represents one source video's metadata record.
type Document struct {
	// ID is the provider's stable external identifier (unique)
	ID string

	// Title is the video title
	Title string

	// Description is the provider description text
	Description string

	// DurationSeconds is the video length in seconds
	DurationSeconds int

	// PublishedAt is the Unix timestamp the video was published
	PublishedAt int64

	// ViewCount and LikeCount are popularity counters from the provider
	ViewCount int64
	LikeCount int64

	// ThumbnailURL references the provider thumbnail
	ThumbnailURL string

	// RawPayload is the provider's original JSON for this item. Retained
	// for reprocessing; nothing downstream reads it.
	RawPayload string

	// TranscriptStatus is the acquisition marker for this document
	TranscriptStatus TranscriptStatus

	// TranscriptError holds the last acquisition failure message (nullable)
	TranscriptError *string

	// CreatedAt and UpdatedAt are Unix timestamps
	CreatedAt int64
	UpdatedAt int64
}

// Transcript is the full spoken-word text for a Document (one-to-one).
type Transcript struct {
	DocumentID string
	FullText   string
	Language   string
	Confidence float64
	WordCount  int
	CreatedAt  int64
	UpdatedAt  int64
}

// Segment is a time-aligned fragment of a transcript. Segments for a
// document are contiguous in Seq starting at 0, with End >= Start.
type Segment struct {
	DocumentID string
	Seq        int
	Start      float64 // seconds
	End        float64 // seconds
	Text       string
}

// Topic is a named domain category used to classify queries.
type Topic struct {
	ID          int64
	Name        string
	Description string
	Keywords    []string
}
