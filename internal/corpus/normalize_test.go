package corpus

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercase and trim",
			input: "  How To Improve Sleep  ",
			want:  "how to improve sleep",
		},
		{
			name:  "punctuation becomes separator",
			input: "sleep,focus;energy!",
			want:  "sleep focus energy",
		},
		{
			name:  "apostrophes kept",
			input: "What's the best way?",
			want:  "what's the best way",
		},
		{
			name:  "internal whitespace collapsed",
			input: "deep\t sleep \n quality",
			want:  "deep sleep quality",
		},
		{
			name:  "empty input",
			input: "   ",
			want:  "",
		},
		{
			name:  "digits kept",
			input: "zone 2 training",
			want:  "zone 2 training",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("How to improve SLEEP quality?")
	want := []string{"how", "to", "improve", "sleep", "quality"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}

	if got := Tokenize("   "); len(got) != 0 {
		t.Errorf("Tokenize(blank) = %v, want empty", got)
	}
}

func TestCountWords(t *testing.T) {
	if got := CountWords("one two  three"); got != 3 {
		t.Errorf("CountWords() = %d, want 3", got)
	}
	if got := CountWords(""); got != 0 {
		t.Errorf("CountWords(empty) = %d, want 0", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{65, "1:05"},
		{600, "10:00"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-10, "0:00"},
		{61.9, "1:01"},
	}

	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
