package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/errors"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
)

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Config configures the provider HTTP client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Timeout   time.Duration
}

// NewHTTPClient creates a provider client using the provided configuration.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider base URL is required")
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing provider API key in env %s", cfg.APIKeyEnv)
	}
	t := cfg.Timeout
	if t == 0 {
		t = defaultTimeout
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		client:  &http.Client{Timeout: t},
	}, nil
}

// ListVideos fetches up to maxItems videos for a channel and normalizes them.
// A single malformed item is skipped, not fatal to the listing.
func (c *HTTPClient) ListVideos(ctx context.Context, channel string, maxItems int) ([]corpus.Document, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/videos?limit=%d",
		c.baseURL, url.PathEscape(channel), maxItems)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.NewProviderTransient(fmt.Errorf("malformed listing response: %w", err))
	}

	docs := make([]corpus.Document, 0, len(payload.Items))
	for _, raw := range payload.Items {
		doc, err := NormalizeVideo(raw)
		if err != nil {
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// FetchTranscript fetches and normalizes the transcript for one video.
func (c *HTTPClient) FetchTranscript(ctx context.Context, videoID, language string) (*TranscriptPayload, error) {
	if language == "" {
		language = "en"
	}
	endpoint := fmt.Sprintf("%s/videos/%s/transcript?lang=%s",
		c.baseURL, url.PathEscape(videoID), url.QueryEscape(language))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		if errors.Is(err, errors.ErrProviderPermanent) {
			// 404 on the transcript endpoint means no transcript exists
			return &TranscriptPayload{Language: language}, nil
		}
		return nil, err
	}

	return NormalizeTranscript(body, language)
}

// get issues a GET with auth headers, retrying transient failures with
// exponential backoff. Quota signals are returned immediately: the caller
// must pause the run, not hammer the provider.
func (c *HTTPClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay(attempt - 1)):
			case <-ctx.Done():
				return nil, errors.NewProviderTransient(ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Api-Key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.NewProviderTransient(ctx.Err())
			}
			lastErr = errors.NewProviderTransient(err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				lastErr = errors.NewProviderTransient(readErr)
				continue
			}
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			// Respect Retry-After once, then surface quota to the caller
			if ra := resp.Header.Get("Retry-After"); ra != "" && attempt == 0 {
				if secs, err := strconv.Atoi(ra); err == nil && secs <= 10 {
					select {
					case <-time.After(time.Duration(secs) * time.Second):
						continue
					case <-ctx.Done():
						return nil, errors.NewProviderTransient(ctx.Err())
					}
				}
			}
			return nil, errors.NewQuotaExceeded(fmt.Sprintf("provider rate limit: %s", resp.Status))

		case resp.StatusCode == http.StatusForbidden:
			// Providers report exhausted daily quota as 403
			return nil, errors.NewQuotaExceeded(fmt.Sprintf("provider quota exhausted: %s", resp.Status))

		case resp.StatusCode == http.StatusNotFound:
			return nil, errors.NewProviderPermanent(fmt.Sprintf("not found: %s", endpoint))

		case resp.StatusCode >= 500:
			lastErr = errors.NewProviderTransient(fmt.Errorf("provider error: %s", resp.Status))
			continue

		default:
			return nil, errors.NewProviderPermanent(fmt.Sprintf("unexpected provider status: %s", resp.Status))
		}
	}
	if lastErr == nil {
		lastErr = errors.NewProviderTransient(fmt.Errorf("provider request failed"))
	}
	return nil, lastErr
}

// retryDelay is exponential backoff capped at 5s.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
