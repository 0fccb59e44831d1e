package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/pulse/internal/corpus"
)

// Extraction constants
const (
	// phraseBonus is added when the full query phrase appears verbatim in a
	// segment, so exact-phrase hits outrank scattered single-term hits.
	phraseBonus = 3

	// minTermLength filters trivial tokens ("a", "to", "is") from scoring.
	minTermLength = 2

	// MaxExcerptChars bounds a timestamp's text excerpt.
	MaxExcerptChars = 280
)

// Timestamp is one relevant moment inside a document.
type Timestamp struct {
	StartSeconds float64 `json:"start_seconds"`
	Label        string  `json:"label"`
	Excerpt      string  `json:"excerpt"`
}

// ExtractTimestamps scores every segment by whole-word term occurrences plus
// a phrase bonus for a verbatim query match, and returns the top maxResults
// as timestamped excerpts. When no segment scores above zero the longest
// segments are returned instead, so a document with segments never yields an
// empty list.
func ExtractTimestamps(segments []corpus.Segment, queryText string, maxResults int) []Timestamp {
	if len(segments) == 0 {
		return nil
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	phrase := corpus.Normalize(queryText)
	var terms []string
	for _, t := range strings.Fields(phrase) {
		if len(t) > minTermLength {
			terms = append(terms, t)
		}
	}

	type scored struct {
		seg   corpus.Segment
		score int
	}
	hits := make([]scored, 0, len(segments))
	for _, seg := range segments {
		normalized := corpus.Normalize(seg.Text)
		padded := " " + normalized + " "

		score := 0
		for _, term := range terms {
			score += strings.Count(padded, " "+term+" ")
		}
		if phrase != "" && strings.Contains(padded, " "+phrase+" ") {
			score += phraseBonus
		}
		if score > 0 {
			hits = append(hits, scored{seg: seg, score: score})
		}
	}

	if len(hits) == 0 {
		return longestSegments(segments, maxResults)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].seg.Seq < hits[j].seg.Seq
	})
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	out := make([]Timestamp, len(hits))
	for i, h := range hits {
		out[i] = makeTimestamp(h.seg)
	}
	return out
}

// longestSegments is the fallback when query terms literally appear nowhere:
// the maxResults longest segments by text length, so the caller always gets
// something to show.
func longestSegments(segments []corpus.Segment, maxResults int) []Timestamp {
	sorted := make([]corpus.Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Text) != len(sorted[j].Text) {
			return len(sorted[i].Text) > len(sorted[j].Text)
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	if len(sorted) > maxResults {
		sorted = sorted[:maxResults]
	}

	out := make([]Timestamp, 0, len(sorted))
	for _, seg := range sorted {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		out = append(out, makeTimestamp(seg))
	}
	return out
}

func makeTimestamp(seg corpus.Segment) Timestamp {
	return Timestamp{
		StartSeconds: seg.Start,
		Label:        corpus.FormatTimestamp(seg.Start),
		Excerpt:      trimExcerpt(seg.Text, MaxExcerptChars),
	}
}

// trimExcerpt truncates text to roughly maxChars at a word boundary without
// splitting multi-byte runes.
func trimExcerpt(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxChars {
		return text
	}
	truncateAt := maxChars
	for truncateAt > 0 && !utf8.RuneStart(text[truncateAt]) {
		truncateAt--
	}
	cut := text[:truncateAt]
	if lastSpace := strings.LastIndex(cut, " "); lastSpace > maxChars/2 {
		cut = cut[:lastSpace]
	}
	return cut + "..."
}
