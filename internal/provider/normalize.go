package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/errors"
)

// rawVideo is the loosely-typed listing item shape. Numeric fields arrive as
// numbers or strings depending on provider version, so everything tolerant
// goes through json.Number or flexValue.
type rawVideo struct {
	ID          string `json:"id"`
	VideoID     string `json:"video_id"` // older payloads
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    any    `json:"duration"` // seconds (number/string) or "HH:MM:SS"
	PublishedAt string `json:"published_at"`
	Statistics  struct {
		Views any `json:"views"`
		Likes any `json:"likes"`
	} `json:"statistics"`
	Thumbnail struct {
		URL string `json:"url"`
	} `json:"thumbnail"`
}

// NormalizeVideo maps one raw listing item into a strict Document. The raw
// JSON is retained on the document for reprocessing.
func NormalizeVideo(raw json.RawMessage) (*corpus.Document, error) {
	var v rawVideo
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.NewProviderPermanent(fmt.Sprintf("malformed video item: %v", err))
	}

	id := v.ID
	if id == "" {
		id = v.VideoID
	}
	if id == "" {
		return nil, errors.NewProviderPermanent("video item missing id")
	}
	if strings.TrimSpace(v.Title) == "" {
		return nil, errors.NewProviderPermanent(fmt.Sprintf("video %s missing title", id))
	}

	return &corpus.Document{
		ID:               id,
		Title:            strings.TrimSpace(v.Title),
		Description:      strings.TrimSpace(v.Description),
		DurationSeconds:  parseDuration(v.Duration),
		PublishedAt:      parsePublishedAt(v.PublishedAt),
		ViewCount:        parseCount(v.Statistics.Views),
		LikeCount:        parseCount(v.Statistics.Likes),
		ThumbnailURL:     v.Thumbnail.URL,
		RawPayload:       string(raw),
		TranscriptStatus: corpus.StatusPending,
	}, nil
}

// NormalizeTranscript maps the raw transcript response into a payload of
// start/duration segments.
func NormalizeTranscript(body []byte, language string) (*TranscriptPayload, error) {
	var raw struct {
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
		Segments   []struct {
			Start    any    `json:"start"`
			Duration any    `json:"duration"`
			Text     string `json:"text"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.NewProviderTransient(fmt.Errorf("malformed transcript response: %w", err))
	}

	lang := raw.Language
	if lang == "" {
		lang = language
	}

	payload := &TranscriptPayload{
		Language:   lang,
		Confidence: raw.Confidence,
		Segments:   make([]RawSegment, 0, len(raw.Segments)),
	}
	for _, s := range raw.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		payload.Segments = append(payload.Segments, RawSegment{
			Start:    parseSeconds(s.Start),
			Duration: parseSeconds(s.Duration),
			Text:     text,
		})
	}
	return payload, nil
}

// BuildSegments converts the raw start/duration pairs into contiguous,
// time-aligned corpus segments (seq from 0, end = start + duration).
func BuildSegments(documentID string, payload *TranscriptPayload) ([]corpus.Segment, string) {
	segments := make([]corpus.Segment, 0, len(payload.Segments))
	var full strings.Builder
	for i, s := range payload.Segments {
		end := s.Start + s.Duration
		if end < s.Start {
			end = s.Start
		}
		segments = append(segments, corpus.Segment{
			DocumentID: documentID,
			Seq:        i,
			Start:      s.Start,
			End:        end,
			Text:       s.Text,
		})
		if full.Len() > 0 {
			full.WriteByte(' ')
		}
		full.WriteString(s.Text)
	}
	return segments, full.String()
}

// parseDuration accepts seconds as a number, a numeric string, or "HH:MM:SS".
func parseDuration(v any) int {
	switch d := v.(type) {
	case float64:
		return int(d)
	case string:
		if n, err := strconv.Atoi(d); err == nil {
			return n
		}
		parts := strings.Split(d, ":")
		total := 0
		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return 0
			}
			total = total*60 + n
		}
		return total
	}
	return 0
}

// parseCount accepts counters as numbers or numeric strings.
func parseCount(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}

// parseSeconds accepts offsets as numbers or numeric strings.
func parseSeconds(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return parsed
		}
	}
	return 0
}

// parsePublishedAt accepts RFC3339 timestamps and falls back to zero.
func parsePublishedAt(s string) int64 {
	if s == "" {
		return 0
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix()
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Unix()
	}
	return 0
}
