package mcp

import (
	"context"
	"database/sql"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/pulse/internal/acquire"
	"github.com/hpungsan/pulse/internal/config"
	"github.com/hpungsan/pulse/internal/db"
	"github.com/hpungsan/pulse/internal/errors"
	"github.com/hpungsan/pulse/internal/ranking"
	"github.com/hpungsan/pulse/internal/search"
)

// defaultResolveTimeout bounds query resolution when the caller doesn't
// specify one.
const defaultResolveTimeout = 30 * time.Second

// Handlers holds dependencies for MCP tool handlers. Orchestrator is nil
// when no provider is configured; acquisition tools then reject requests.
type Handlers struct {
	db           *sql.DB
	cfg          *config.Config
	resolver     *search.Resolver
	orchestrator *acquire.Orchestrator
	usage        *ranking.UsageTracker
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(database *sql.DB, cfg *config.Config, resolver *search.Resolver, orchestrator *acquire.Orchestrator, usage *ranking.UsageTracker) *Handlers {
	return &Handlers{
		db:           database,
		cfg:          cfg,
		resolver:     resolver,
		orchestrator: orchestrator,
		usage:        usage,
	}
}

// Request types for each tool

// ResolveRequest represents the arguments for query_resolve.
type ResolveRequest struct {
	Text      string  `json:"text"`
	Limit     int     `json:"limit,omitempty"`
	MinScore  float64 `json:"min_score,omitempty"`
	TimeoutMS int     `json:"timeout_ms,omitempty"`
}

func (r *ResolveRequest) applyDefaults(_ *config.Config) {
	if r.TimeoutMS <= 0 {
		r.TimeoutMS = int(defaultResolveTimeout / time.Millisecond)
	}
}

// AcquireRequest represents the arguments for corpus_acquire.
type AcquireRequest struct {
	Channel  string `json:"channel,omitempty"`
	MaxItems int    `json:"max_items,omitempty"`
}

func (r *AcquireRequest) applyDefaults(cfg *config.Config) {
	if r.Channel == "" {
		r.Channel = cfg.Channel
	}
	if r.MaxItems <= 0 {
		r.MaxItems = cfg.MaxDocuments
	}
}

// TranscriptsRequest represents the arguments for corpus_transcripts.
type TranscriptsRequest struct {
	BatchSize    int  `json:"batch_size,omitempty"`
	MaxDocuments int  `json:"max_documents,omitempty"`
	Force        bool `json:"force,omitempty"`
}

func (r *TranscriptsRequest) applyDefaults(cfg *config.Config) {
	if r.BatchSize <= 0 {
		r.BatchSize = cfg.BatchSize
	}
	if r.MaxDocuments <= 0 {
		r.MaxDocuments = cfg.MaxDocuments
	}
}

// StatusRequest represents the arguments for corpus_status.
type StatusRequest struct {
	Jobs int `json:"jobs,omitempty"`
}

func (r *StatusRequest) applyDefaults(_ *config.Config) {
	if r.Jobs <= 0 {
		r.Jobs = 5
	}
}

// HandleResolve handles the query_resolve tool call.
func (h *Handlers) HandleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ResolveRequest](req, h.cfg)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(input.TimeoutMS)*time.Millisecond)
	defer cancel()

	output, err := h.resolver.Resolve(ctx, search.ResolveInput{
		Text:     input.Text,
		Limit:    input.Limit,
		MinScore: input.MinScore,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(output)
}

// HandleTopics handles the query_topics tool call.
func (h *Handlers) HandleTopics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topics, err := db.ListTopics(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"topics": topics})
}

// HandleAcquire handles the corpus_acquire tool call.
func (h *Handlers) HandleAcquire(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.orchestrator == nil {
		return errorResult(errors.NewInvalidRequest("provider not configured; set provider_base_url and the API key")), nil
	}

	input, err := decode[AcquireRequest](req, h.cfg)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	output, err := h.orchestrator.AcquireDocuments(ctx, acquire.DocumentsInput{
		Channel:  input.Channel,
		MaxItems: input.MaxItems,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(output)
}

// HandleTranscripts handles the corpus_transcripts tool call.
func (h *Handlers) HandleTranscripts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.orchestrator == nil {
		return errorResult(errors.NewInvalidRequest("provider not configured; set provider_base_url and the API key")), nil
	}

	input, err := decode[TranscriptsRequest](req, h.cfg)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	output, err := h.orchestrator.AcquireTranscripts(ctx, acquire.TranscriptsInput{
		BatchSize:    input.BatchSize,
		MaxDocuments: input.MaxDocuments,
		Force:        input.Force,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(output)
}

// HandleStatus handles the corpus_status tool call.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StatusRequest](req, h.cfg)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	counts, err := db.CountByStatus(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	jobs, err := db.RecentJobs(ctx, h.db, input.Jobs)
	if err != nil {
		return errorResult(err), nil
	}

	payload := map[string]any{
		"documents_by_status": counts,
		"recent_jobs":         jobs,
	}
	if h.usage != nil {
		payload["ranking_usage"] = h.usage.Snapshot()
	}
	return successResult(payload)
}

// errorResult creates an MCP error result from a Pulse error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if pErr, ok := err.(*errors.PulseError); ok {
		errorObj := map[string]any{
			"code":    pErr.Code,
			"message": pErr.Message,
			"status":  pErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if pErr.Code != errors.ErrInternal && pErr.Details != nil {
			errorObj["details"] = pErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return mcp.NewToolResultError("an internal error occurred")
	}
	result.IsError = true
	return result
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
