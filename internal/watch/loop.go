package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/salespilot/screen-crm-assistant/models"
	"github.com/salespilot/screen-crm-assistant/pkg/activity"
	"github.com/salespilot/screen-crm-assistant/pkg/batcher"
	"github.com/salespilot/screen-crm-assistant/pkg/capture"
	"github.com/salespilot/screen-crm-assistant/pkg/extract"
	"github.com/salespilot/screen-crm-assistant/pkg/llm"
	"github.com/salespilot/screen-crm-assistant/pkg/prompt"
	"github.com/salespilot/screen-crm-assistant/pkg/session"
	"github.com/salespilot/screen-crm-assistant/pkg/storage"
)

// Runner drives the capture -> extract -> batch -> infer -> handle loop.
// A nil client makes the run a dry run: prompts are built and written to
// the session transcript but inference and activity handling are skipped.
type Runner struct {
	Logger    *slog.Logger
	Source    capture.Source
	Extractor extract.Extractor
	Batcher   *batcher.Batcher
	Builder   *prompt.Builder
	Client    llm.Client
	Handler   activity.Handler

	SessionID  int64
	SessionKey string
	BaseDir    string
	Store      *storage.Storage

	SleepInterval time.Duration
	MaxBatches    int
}

// Summary reports what a run did.
type Summary struct {
	Frames  int     `yaml:"frames"`
	Batches int     `yaml:"batches"`
	Seconds float64 `yaml:"seconds"`
}

// Run executes the loop until the corpus is exhausted, the context is
// cancelled, or MaxBatches is reached. Capture, extraction, and inference
// errors end the run; there are no retries.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{}

	for {
		frame, err := r.Source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return r.finish(summary, start), err
		}

		if err := r.Extractor.Extract(ctx, &frame); err != nil {
			return r.finish(summary, start), fmt.Errorf("failed to extract frame %d: %w", frame.Index, err)
		}
		summary.Frames++
		r.Logger.Debug("frame extracted",
			"index", frame.Index, "source", frame.Source,
			"chars", len(frame.Text), "language", frame.Language)

		if batch := r.Batcher.Add(frame); batch != nil {
			if err := r.processBatch(ctx, batch, summary.Batches); err != nil {
				return r.finish(summary, start), err
			}
			summary.Batches++
			if r.MaxBatches > 0 && summary.Batches >= r.MaxBatches {
				break
			}
		}

		if r.Source.Live() {
			select {
			case <-ctx.Done():
				return r.finish(summary, start), ctx.Err()
			case <-time.After(r.SleepInterval):
			}
		}
	}

	return r.finish(summary, start), nil
}

func (r *Runner) finish(summary Summary, start time.Time) Summary {
	summary.Seconds = time.Since(start).Seconds()
	return summary
}

func (r *Runner) processBatch(ctx context.Context, batch []models.Frame, batchIndex int) error {
	multimodal := r.Client != nil && r.Client.Multimodal()
	built, err := r.Builder.Build(batch, !multimodal)
	if err != nil {
		return err
	}
	if len(built) > prompt.WarnPromptBytes {
		r.Logger.Warn("prompt has grown large, no truncation is applied",
			"bytes", len(built), "batch_index", batchIndex)
	}

	r.writeTranscript(batchIndex, "prompt", built)

	if r.Client == nil {
		r.Logger.Info("dry run, skipping inference", "batch_index", batchIndex, "frames", len(batch))
		return nil
	}

	r.Logger.Info("running inference", "batch_index", batchIndex, "frames", len(batch), "model", r.Client.Model())
	inferStart := time.Now()
	response, err := r.Client.Infer(ctx, llm.Request{Prompt: built, Frames: batch})
	if err != nil {
		return fmt.Errorf("inference failed for batch %d: %w", batchIndex, err)
	}

	r.writeTranscript(batchIndex, "response", response)

	act := models.Activity{
		SessionID:  r.SessionID,
		BatchIndex: batchIndex,
		FrameCount: len(batch),
		Model:      r.Client.Model(),
		Response:   response,
		Language:   dominantLanguage(batch),
		Latency:    time.Since(inferStart),
		CreatedAt:  time.Now(),
	}
	return r.Handler.OnActivity(ctx, act)
}

// writeTranscript persists one side of a batch exchange under the session
// directory. Transcript failures are logged, never fatal.
func (r *Runner) writeTranscript(batchIndex int, kind, content string) {
	if r.BaseDir == "" || r.Store == nil {
		return
	}
	promptPath, responsePath := session.TranscriptPaths(r.BaseDir, r.SessionKey, batchIndex)
	path := promptPath
	if kind == "response" {
		path = responsePath
	}
	if err := r.Store.SaveFile(path, []byte(content)); err != nil {
		r.Logger.Warn("failed to write transcript", "path", path, "error", err)
	}
}

// dominantLanguage returns the most frequent detected language in a batch.
func dominantLanguage(batch []models.Frame) string {
	counts := make(map[string]int)
	best := ""
	for _, frame := range batch {
		if frame.Language == "" {
			continue
		}
		counts[frame.Language]++
		if best == "" || counts[frame.Language] > counts[best] {
			best = frame.Language
		}
	}
	return best
}
