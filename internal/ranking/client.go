package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultTimeout = 20 * time.Second

// Client calls an OpenAI-compatible chat-completions endpoint and asks the
// model to score each candidate's relevance to the query as strict JSON.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	usage   *UsageTracker
}

// Config configures the ranking client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates a ranking client. The tracker must not be nil; every
// call and failure is recorded on it.
func NewClient(cfg Config, usage *UsageTracker) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ranking base URL is required")
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing ranking API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	t := cfg.Timeout
	if t == 0 {
		t = defaultTimeout
	}
	if usage == nil {
		usage = &UsageTracker{}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		model:   cfg.Model,
		client:  &http.Client{Timeout: t},
		usage:   usage,
	}, nil
}

// Usage returns the tracker handle.
func (c *Client) Usage() *UsageTracker { return c.usage }

// Rank sends query + candidates and parses [{index, score, reason}] back.
// Any transport or parse failure returns an error; the caller degrades to
// structured-only scores.
func (c *Client) Rank(ctx context.Context, query string, candidates []Candidate) ([]Score, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildPrompt(query, candidates)},
		},
		"temperature": 0.0,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		c.usage.RecordFailure()
		return nil, fmt.Errorf("marshal ranking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		c.usage.RecordFailure()
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.usage.RecordFailure()
		return nil, fmt.Errorf("ranking call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.usage.RecordFailure()
		return nil, fmt.Errorf("ranking call failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.usage.RecordFailure()
		return nil, fmt.Errorf("read ranking response: %w", err)
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		c.usage.RecordFailure()
		return nil, fmt.Errorf("parse ranking response: %w", err)
	}
	if len(response.Choices) == 0 {
		c.usage.RecordFailure()
		return nil, fmt.Errorf("ranking call returned no choices")
	}

	scores, err := parseScores(response.Choices[0].Message.Content, len(candidates))
	if err != nil {
		c.usage.RecordFailure()
		return nil, err
	}

	c.usage.RecordCall(response.Usage.PromptTokens, response.Usage.CompletionTokens)
	return scores, nil
}

const systemPrompt = "You score how relevant each video is to a health question. " +
	"Respond with a JSON array only, one object per candidate: " +
	`[{"index": <candidate index>, "score": <0.0-1.0>, "reason": "<short justification>"}]`

// buildPrompt lists candidates with their index, title, and description.
func buildPrompt(query string, candidates []Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nCandidates:\n", query)
	for _, c := range candidates {
		desc := c.Description
		if len(desc) > 300 {
			desc = desc[:300]
		}
		fmt.Fprintf(&b, "[%d] %s: %s\n", c.Index, c.Title, desc)
	}
	b.WriteString("\nScore every candidate.")
	return b.String()
}

// parseScores decodes the model output, tolerating a fenced code block, and
// drops out-of-range indexes. Scores are clamped into [0,1].
func parseScores(content string, candidateCount int) ([]Score, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var scores []Score
	if err := json.Unmarshal([]byte(content), &scores); err != nil {
		return nil, fmt.Errorf("malformed ranking scores: %w", err)
	}

	out := make([]Score, 0, len(scores))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= candidateCount {
			continue
		}
		if s.Score < 0 {
			s.Score = 0
		}
		if s.Score > 1 {
			s.Score = 1
		}
		out = append(out, s)
	}
	return out, nil
}
