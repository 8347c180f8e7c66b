package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	crmactions "github.com/salespilot/screen-crm-assistant/internal/crm"
	dbactions "github.com/salespilot/screen-crm-assistant/internal/db"
	"github.com/salespilot/screen-crm-assistant/internal/watch"
	"github.com/salespilot/screen-crm-assistant/pkg/session"
	"github.com/urfave/cli/v2"
)

func main() {
	// Ctrl-C cancels the loop's context so the run ends cleanly with its
	// stats recorded.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "batch_size",
			Aliases: []string{"batch-size"},
			Value:   5,
			Usage:   "number of frames to batch before processing",
		},
		&cli.DurationFlag{
			Name:    "sleep_interval",
			Aliases: []string{"sleep-interval"},
			Value:   500 * time.Millisecond,
			Usage:   "delay between live screen captures",
		},
		&cli.StringFlag{
			Name:  "leads",
			Value: "leads.csv",
			Usage: "path to the leads CSV",
		},
		&cli.StringFlag{
			Name:  "accounts",
			Value: "accounts.csv",
			Usage: "path to the accounts CSV",
		},
		&cli.StringFlag{
			Name:  "backend",
			Value: "gemini",
			Usage: "inference backend: gemini (multimodal) or openrouter (text-only, OCR)",
		},
		&cli.StringFlag{
			Name:  "model",
			Usage: "model identifier, backend default when empty",
		},
		&cli.BoolFlag{
			Name:    "apply_updates",
			Aliases: []string{"apply-updates"},
			Usage:   "parse model responses as CRM updates and write them back to the CSVs",
		},
		&cli.IntFlag{
			Name:  "max-batches",
			Usage: "stop after this many inference calls (0 = unbounded)",
		},
		&cli.StringFlag{
			Name:  "output-dir",
			Value: session.DefaultBaseDir,
			Usage: "directory for session transcripts",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "journal database path (default: next to the binary)",
		},
		&cli.StringFlag{
			Name:  "config",
			Value: "sca.yaml",
			Usage: "optional YAML defaults file",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "only log errors",
		},
	}
}

func corpusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "test_data_folder",
			Aliases: []string{"test-data-folder"},
			Usage:   "folder of .png/.jpg/.jpeg/.html corpus files, consumed in sorted order",
		},
		&cli.StringFlag{
			Name:    "test_data_file",
			Aliases: []string{"test-data-file"},
			Usage:   "JSON corpus document with a frames array of {text} entries",
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "sca",
		Usage: "screen-monitoring sales assistant: captures the screen, extracts text, and infers CRM updates",
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "Monitor the live screen and process frames in batches",
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "display",
						Usage: "display index to capture",
					},
				),
				Action: watch.WatchAction,
			},
			{
				Name:  "replay",
				Usage: "Run the loop against a pre-recorded test corpus (no sleeping)",
				Flags: append(append(commonFlags(), corpusFlags()...),
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "build prompts without calling the model",
					},
				),
				Action: watch.ReplayAction,
			},
			{
				Name:   "prompt",
				Usage:  "Build and print the prompt for a corpus without inference",
				Flags:  append(commonFlags(), corpusFlags()...),
				Action: watch.PromptAction,
			},
			{
				Name:  "crm",
				Usage: "Inspect the CRM CSV files",
				Subcommands: []*cli.Command{
					{
						Name:   "leads",
						Usage:  "Print the leads CSV",
						Flags:  crmInspectFlags(),
						Action: crmactions.LeadsAction,
					},
					{
						Name:   "accounts",
						Usage:  "Print the accounts CSV",
						Flags:  crmInspectFlags(),
						Action: crmactions.AccountsAction,
					},
				},
			},
			{
				Name:  "db",
				Usage: "Inspect the session journal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Usage: "journal database path (default: next to the binary)",
					},
				},
				Subcommands: []*cli.Command{
					{
						Name:   "sessions",
						Usage:  "List journaled runs",
						Flags:  journalFlags(),
						Action: dbactions.SessionsAction,
					},
					{
						Name:      "session",
						Usage:     "Show one run and its activities (latest when no ID given)",
						ArgsUsage: "[session-id]",
						Flags: append(journalFlags(),
							&cli.BoolFlag{
								Name:  "prompts",
								Usage: "print the full stored prompt for each batch",
							},
						),
						Action: dbactions.SessionAction,
					},
					{
						Name:   "activities",
						Usage:  "List recent inference results across runs",
						Flags:  journalFlags(),
						Action: dbactions.ActivitiesAction,
					},
				},
			},
		},
	}
}

func crmInspectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "leads",
			Value: "leads.csv",
			Usage: "path to the leads CSV",
		},
		&cli.StringFlag{
			Name:  "accounts",
			Value: "accounts.csv",
			Usage: "path to the accounts CSV",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "table",
			Usage: "output format: table or yaml",
		},
	}
}

func journalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "db",
			Usage: "journal database path (default: next to the binary)",
		},
		&cli.IntFlag{
			Name:  "limit",
			Value: 20,
			Usage: "maximum rows to list",
		},
	}
}
