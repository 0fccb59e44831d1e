// Package query turns a raw user question into a structured analysis:
// normalized text, extracted domain terms, matched topics, and an intent
// classification. The keyword index is built once at startup and read-only
// afterward, so analysis is safe to run concurrently without locking.
package query

import (
	"sort"
	"strings"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/errors"
)

// Topic match weights. Untuned defaults carried from the original design:
// keyword-list overlap counts double, topic-name token overlap triple.
const (
	keywordWeight = 2
	nameWeight    = 3
)

// maxTopicMatches caps how many topics an analysis reports.
const maxTopicMatches = 5

// Intent classifies what kind of answer the user is after.
type Intent string

const (
	IntentHowTo       Intent = "howto"
	IntentSymptom     Intent = "symptom"
	IntentProtocol    Intent = "protocol"
	IntentInformation Intent = "information"
)

// Analysis is the structured result for one question. Ephemeral: the core
// never persists it.
type Analysis struct {
	Normalized string       `json:"normalized"`
	Terms      []string     `json:"terms"`
	Topics     []TopicMatch `json:"topics"`
	Intent     Intent       `json:"intent"`
	Confidence float64      `json:"confidence"`
}

// TopicMatch is one matched topic with its overlap score.
type TopicMatch struct {
	Name         string   `json:"name"`
	Score        int      `json:"score"`
	MatchedTerms []string `json:"matched_terms"`
}

// Index holds the preloaded keyword/topic tables. Build once, read forever.
type Index struct {
	words   map[string]bool
	phrases []string // multi-word, longest first
	topics  []corpus.Topic
}

// NewIndex builds the term index from the static domain keyword table
// unioned with every topic's keyword list.
func NewIndex(topics []corpus.Topic) *Index {
	idx := &Index{
		words:  make(map[string]bool),
		topics: topics,
	}

	phraseSet := make(map[string]bool)
	add := func(keyword string) {
		keyword = corpus.Normalize(keyword)
		if keyword == "" {
			return
		}
		if strings.Contains(keyword, " ") {
			if !phraseSet[keyword] {
				phraseSet[keyword] = true
				idx.phrases = append(idx.phrases, keyword)
			}
			return
		}
		idx.words[keyword] = true
	}

	for _, k := range domainKeywords {
		add(k)
	}
	for _, t := range topics {
		for _, k := range t.Keywords {
			add(k)
		}
	}

	// Longest phrases first so "deep sleep quality" wins over "deep sleep";
	// ties alphabetical for determinism.
	sort.Slice(idx.phrases, func(i, j int) bool {
		if len(idx.phrases[i]) != len(idx.phrases[j]) {
			return len(idx.phrases[i]) > len(idx.phrases[j])
		}
		return idx.phrases[i] < idx.phrases[j]
	})

	return idx
}

// Analyze runs the full analysis pipeline on a raw question.
func (idx *Index) Analyze(text string) (*Analysis, error) {
	normalized := corpus.Normalize(text)
	if normalized == "" {
		return nil, errors.NewInvalidRequest("query text is required")
	}

	terms := idx.ExtractTerms(normalized)
	intent, confidence := ClassifyIntent(normalized, terms)

	return &Analysis{
		Normalized: normalized,
		Terms:      terms,
		Topics:     idx.MatchTopics(terms),
		Intent:     intent,
		Confidence: confidence,
	}, nil
}

// ExtractTerms returns the known single words and multi-word phrases present
// in normalized text, in order of first appearance, deduplicated.
func (idx *Index) ExtractTerms(normalized string) []string {
	padded := " " + normalized + " "

	type hit struct {
		term string
		pos  int
	}
	var hits []hit
	seen := make(map[string]bool)

	for _, phrase := range idx.phrases {
		if pos := strings.Index(padded, " "+phrase+" "); pos >= 0 && !seen[phrase] {
			seen[phrase] = true
			hits = append(hits, hit{term: phrase, pos: pos})
		}
	}

	offset := 0
	for _, tok := range strings.Fields(normalized) {
		pos := strings.Index(normalized[offset:], tok) + offset
		offset = pos + len(tok)
		if idx.words[tok] && !seen[tok] {
			seen[tok] = true
			hits = append(hits, hit{term: tok, pos: pos})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	terms := make([]string, len(hits))
	for i, h := range hits {
		terms[i] = h.term
	}
	return terms
}

// MatchTopics scores every topic by term overlap: keyword-list hits weigh
// 2x, topic-name token hits 3x. Returns the top 5 by score descending, ties
// broken by name ascending.
func (idx *Index) MatchTopics(terms []string) []TopicMatch {
	termSet := make(map[string]bool, len(terms))
	termWords := make(map[string]bool)
	for _, t := range terms {
		termSet[t] = true
		for _, w := range strings.Fields(t) {
			termWords[w] = true
		}
	}

	var matches []TopicMatch
	for _, topic := range idx.topics {
		score := 0
		var matched []string
		matchedSet := make(map[string]bool)

		for _, k := range topic.Keywords {
			if termSet[k] && !matchedSet[k] {
				score += keywordWeight
				matchedSet[k] = true
				matched = append(matched, k)
			}
		}
		for _, nameTok := range strings.Fields(corpus.Normalize(topic.Name)) {
			if (termSet[nameTok] || termWords[nameTok]) && !matchedSet[nameTok] {
				score += nameWeight
				matchedSet[nameTok] = true
				matched = append(matched, nameTok)
			}
		}

		if score > 0 {
			matches = append(matches, TopicMatch{
				Name:         topic.Name,
				Score:        score,
				MatchedTerms: matched,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Name < matches[j].Name
	})

	if len(matches) > maxTopicMatches {
		matches = matches[:maxTopicMatches]
	}
	return matches
}
