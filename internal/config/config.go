package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// ProviderBaseURL is the video/transcript provider API endpoint.
	ProviderBaseURL string `json:"provider_base_url,omitempty"`

	// ProviderAPIKeyEnv names the environment variable holding the
	// provider API key. The key itself never lives in config files.
	ProviderAPIKeyEnv string `json:"provider_api_key_env,omitempty"`

	// Channel is the default provider channel/handle to acquire from.
	Channel string `json:"channel,omitempty"`

	// RankingBaseURL is the OpenAI-compatible endpoint for semantic ranking.
	// Empty disables the external ranking call (local heuristic only).
	RankingBaseURL string `json:"ranking_base_url,omitempty"`

	// RankingAPIKeyEnv names the environment variable holding the ranking
	// API key.
	RankingAPIKeyEnv string `json:"ranking_api_key_env,omitempty"`

	// RankingModel is the model used for the ranking call.
	RankingModel string `json:"ranking_model,omitempty"`

	// BatchSize bounds in-flight provider calls during transcript acquisition.
	BatchSize int `json:"batch_size,omitempty"`

	// ItemDelayMS is the pause between provider calls within a batch.
	ItemDelayMS int `json:"item_delay_ms,omitempty"`

	// BatchDelayMS is the longer pause between batches.
	BatchDelayMS int `json:"batch_delay_ms,omitempty"`

	// MaxDocuments caps how many documents one acquisition run requests.
	MaxDocuments int `json:"max_documents,omitempty"`

	// TranscriptCacheSize bounds the in-memory segment cache (documents).
	TranscriptCacheSize int `json:"transcript_cache_size,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default. Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names to disable entirely.
	// Known types: "corpus", "query".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProviderAPIKeyEnv:   "PULSE_PROVIDER_API_KEY",
		RankingAPIKeyEnv:    "PULSE_RANKING_API_KEY",
		RankingModel:        "gpt-4o-mini",
		BatchSize:           10,
		ItemDelayMS:         1200,
		BatchDelayMS:        15000,
		MaxDocuments:        200,
		TranscriptCacheSize: 64,
	}
}

// ItemDelay returns the within-batch pause as a duration.
func (c *Config) ItemDelay() time.Duration {
	return time.Duration(c.ItemDelayMS) * time.Millisecond
}

// BatchDelay returns the between-batch pause as a duration.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.pulse.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.ProviderBaseURL = overlayString(base.ProviderBaseURL, overlay.ProviderBaseURL)
	result.ProviderAPIKeyEnv = overlayString(base.ProviderAPIKeyEnv, overlay.ProviderAPIKeyEnv)
	result.Channel = overlayString(base.Channel, overlay.Channel)
	result.RankingBaseURL = overlayString(base.RankingBaseURL, overlay.RankingBaseURL)
	result.RankingAPIKeyEnv = overlayString(base.RankingAPIKeyEnv, overlay.RankingAPIKeyEnv)
	result.RankingModel = overlayString(base.RankingModel, overlay.RankingModel)

	result.BatchSize = overlayInt(base.BatchSize, overlay.BatchSize)
	result.ItemDelayMS = overlayInt(base.ItemDelayMS, overlay.ItemDelayMS)
	result.BatchDelayMS = overlayInt(base.BatchDelayMS, overlay.BatchDelayMS)
	result.MaxDocuments = overlayInt(base.MaxDocuments, overlay.MaxDocuments)
	result.TranscriptCacheSize = overlayInt(base.TranscriptCacheSize, overlay.TranscriptCacheSize)
	result.DBMaxOpenConns = overlayInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns)
	result.DBMaxIdleConns = overlayInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns)

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func overlayString(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func overlayInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
