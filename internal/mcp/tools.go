package mcp

import "github.com/mark3labs/mcp-go/mcp"

var queryResolveToolDef = mcp.NewTool("query_resolve",
	mcp.WithDescription("Answer a natural-language health question with ranked video excerpts and timestamps from the transcript corpus."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The question to resolve"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum results to return (default 5, max 20)"),
	),
	mcp.WithNumber("min_score",
		mcp.Description("Minimum blended relevance score in [0,1] (default 0)"),
	),
	mcp.WithNumber("timeout_ms",
		mcp.Description("Resolution deadline in milliseconds (default 30000)"),
	),
)

var queryTopicsToolDef = mcp.NewTool("query_topics",
	mcp.WithDescription("List the health topic catalog used to classify questions."),
)

var corpusAcquireToolDef = mcp.NewTool("corpus_acquire",
	mcp.WithDescription("Fetch document metadata from the provider and upsert it into the corpus. Returns inserted/updated/failed counts."),
	mcp.WithString("channel",
		mcp.Description("Provider channel or handle (defaults to the configured channel)"),
	),
	mcp.WithNumber("max_items",
		mcp.Description("Maximum documents to request (default from config)"),
	),
)

var corpusTranscriptsToolDef = mcp.NewTool("corpus_transcripts",
	mcp.WithDescription("Acquire transcripts for documents that still need them. Idempotent and resumable: already-acquired documents are skipped."),
	mcp.WithNumber("batch_size",
		mcp.Description("Documents per batch (default from config)"),
	),
	mcp.WithNumber("max_documents",
		mcp.Description("Cap on documents processed this run (default from config)"),
	),
	mcp.WithBoolean("force",
		mcp.Description("Re-acquire transcripts even for acquired/unavailable documents"),
	),
)

var corpusStatusToolDef = mcp.NewTool("corpus_status",
	mcp.WithDescription("Report document counts by acquisition status and recent acquisition jobs."),
	mcp.WithNumber("jobs",
		mcp.Description("How many recent jobs to include (default 5)"),
	),
)
