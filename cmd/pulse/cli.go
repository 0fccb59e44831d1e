package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/pulse/internal/acquire"
	"github.com/hpungsan/pulse/internal/db"
	"github.com/hpungsan/pulse/internal/errors"
	"github.com/hpungsan/pulse/internal/search"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:    "pulse",
		Usage:   "Health transcript search",
		Version: Version,
		Commands: []*cli.Command{
			queryCmd(d),
			acquireCmd(d),
			topicsCmd(d),
			statusCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// queryCmd resolves a question against the corpus.
func queryCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Resolve a health question to ranked video excerpts with timestamps",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: search.DefaultResolveLimit, Usage: "Maximum results"},
			&cli.Float64Flag{Name: "min-score", Value: 0, Usage: "Minimum blended score in [0,1]"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "Resolution deadline"},
		},
		Action: func(c *cli.Context) error {
			text := c.Args().First()
			if text == "" {
				return outputError(errors.NewInvalidRequest("question is required"))
			}

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			output, err := d.resolver.Resolve(ctx, search.ResolveInput{
				Text:     text,
				Limit:    c.Int("limit"),
				MinScore: c.Float64("min-score"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// acquireCmd runs document and/or transcript acquisition.
func acquireCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "acquire",
		Usage: "Acquire documents and transcripts from the provider",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "channel", Usage: "Provider channel/handle (defaults to configured channel)"},
			&cli.IntFlag{Name: "max-items", Usage: "Maximum documents to request (defaults to config)"},
			&cli.IntFlag{Name: "batch-size", Usage: "Documents per transcript batch (defaults to config)"},
			&cli.BoolFlag{Name: "documents-only", Usage: "Skip transcript acquisition"},
			&cli.BoolFlag{Name: "transcripts-only", Usage: "Skip document listing"},
			&cli.BoolFlag{Name: "force", Usage: "Re-acquire transcripts for terminal documents"},
		},
		Action: func(c *cli.Context) error {
			if d.orchestrator == nil {
				return outputError(errors.NewInvalidRequest("provider not configured; set provider_base_url and the API key"))
			}

			result := map[string]any{}

			if !c.Bool("transcripts-only") {
				channel := c.String("channel")
				if channel == "" {
					channel = d.cfg.Channel
				}
				maxItems := c.Int("max-items")
				if maxItems <= 0 {
					maxItems = d.cfg.MaxDocuments
				}

				docs, err := d.orchestrator.AcquireDocuments(c.Context, acquire.DocumentsInput{
					Channel:  channel,
					MaxItems: maxItems,
				})
				if err != nil {
					return outputError(err)
				}
				result["documents"] = docs
			}

			if !c.Bool("documents-only") {
				batchSize := c.Int("batch-size")
				if batchSize <= 0 {
					batchSize = d.cfg.BatchSize
				}

				transcripts, err := d.orchestrator.AcquireTranscripts(c.Context, acquire.TranscriptsInput{
					BatchSize:    batchSize,
					MaxDocuments: d.cfg.MaxDocuments,
					Force:        c.Bool("force"),
				})
				if err != nil {
					return outputError(err)
				}
				result["transcripts"] = transcripts
			}

			return outputJSON(result)
		},
	}
}

// topicsCmd lists the topic catalog.
func topicsCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "topics",
		Usage: "List the health topic catalog",
		Action: func(c *cli.Context) error {
			topics, err := db.ListTopics(c.Context, d.db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"topics": topics})
		},
	}
}

// statusCmd reports corpus and job status.
func statusCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show document counts by acquisition status and recent jobs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "jobs", Value: 5, Usage: "Recent jobs to include"},
		},
		Action: func(c *cli.Context) error {
			counts, err := db.CountByStatus(c.Context, d.db)
			if err != nil {
				return outputError(err)
			}
			jobs, err := db.RecentJobs(c.Context, d.db, c.Int("jobs"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"documents_by_status": counts,
				"recent_jobs":         jobs,
				"ranking_usage":       d.usage.Snapshot(),
			})
		},
	}
}

// outputJSON prints indented JSON to stdout.
func outputJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return outputError(errors.NewInternal(err))
	}
	fmt.Println(string(data))
	return nil
}

// outputError prints a structured error as JSON to stderr and returns it so
// the process exits non-zero.
func outputError(err error) error {
	pErr, ok := err.(*errors.PulseError)
	if !ok {
		pErr = errors.NewInternal(err)
	}
	payload := map[string]any{
		"error": map[string]any{
			"code":    pErr.Code,
			"message": pErr.Message,
			"status":  pErr.Status,
		},
	}
	data, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Fprintln(os.Stderr, string(data))
	return err
}
