package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/salespilot/screen-crm-assistant/models"
	"github.com/salespilot/screen-crm-assistant/pkg/activity"
	"github.com/salespilot/screen-crm-assistant/pkg/batcher"
	"github.com/salespilot/screen-crm-assistant/pkg/capture"
	"github.com/salespilot/screen-crm-assistant/pkg/crm"
	"github.com/salespilot/screen-crm-assistant/pkg/llm"
	"github.com/salespilot/screen-crm-assistant/pkg/prompt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// passthroughExtractor leaves frames as the source produced them.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(ctx context.Context, frame *models.Frame) error {
	return nil
}

// fakeClient records every inference request and answers with a canned
// response per call.
type fakeClient struct {
	requests  []llm.Request
	responses []string
}

func (c *fakeClient) Infer(ctx context.Context, req llm.Request) (string, error) {
	c.requests = append(c.requests, req)
	if len(c.requests) <= len(c.responses) {
		return c.responses[len(c.requests)-1], nil
	}
	return "ok", nil
}

func (c *fakeClient) Multimodal() bool { return false }

func (c *fakeClient) Model() string { return "fake-model" }

type collectingHandler struct {
	activities []models.Activity
}

func (h *collectingHandler) OnActivity(ctx context.Context, act models.Activity) error {
	h.activities = append(h.activities, act)
	return nil
}

func corpusFile(t *testing.T, texts ...string) string {
	t.Helper()
	var entries []string
	for _, text := range texts {
		entries = append(entries, fmt.Sprintf("{%q: %q}", "text", text))
	}
	doc := fmt.Sprintf("{%q: [%s]}", "frames", strings.Join(entries, ", "))
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestBuilder(t *testing.T) *prompt.Builder {
	t.Helper()
	dir := t.TempDir()
	leads, err := crm.Load(filepath.Join(dir, "leads.csv"))
	if err != nil {
		t.Fatal(err)
	}
	accounts, err := crm.Load(filepath.Join(dir, "accounts.csv"))
	if err != nil {
		t.Fatal(err)
	}
	return prompt.NewBuilder(leads, accounts)
}

func newTestRunner(t *testing.T, src capture.Source, batchSize int, client llm.Client, handler activity.Handler) *Runner {
	t.Helper()
	b, err := batcher.New(batchSize)
	if err != nil {
		t.Fatal(err)
	}
	return &Runner{
		Logger:    testLogger(),
		Source:    src,
		Extractor: passthroughExtractor{},
		Batcher:   b,
		Builder:   newTestBuilder(t),
		Client:    client,
		Handler:   handler,
	}
}

func TestRun_BatchesDriveInference(t *testing.T) {
	src, err := capture.NewJSONSource(corpusFile(t, "one", "two", "three", "four"))
	if err != nil {
		t.Fatal(err)
	}
	client := &fakeClient{}
	handler := &collectingHandler{}
	runner := newTestRunner(t, src, 2, client, handler)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got, want := summary.Frames, 4; got != want {
		t.Errorf("summary.Frames = %d, want %d", got, want)
	}
	if got, want := summary.Batches, 2; got != want {
		t.Errorf("summary.Batches = %d, want %d", got, want)
	}
	if got, want := len(client.requests), 2; got != want {
		t.Fatalf("inference calls = %d, want %d", got, want)
	}

	// Every batch carries exactly batch size frames in capture order.
	wantTexts := [][]string{{"one", "two"}, {"three", "four"}}
	for i, req := range client.requests {
		if got, want := len(req.Frames), 2; got != want {
			t.Fatalf("batch %d frames = %d, want %d", i, got, want)
		}
		for j, frame := range req.Frames {
			if frame.Text != wantTexts[i][j] {
				t.Errorf("batch %d frame %d text = %q, want %q", i, j, frame.Text, wantTexts[i][j])
			}
		}
		for _, text := range wantTexts[i] {
			if !strings.Contains(req.Prompt, text) {
				t.Errorf("batch %d prompt missing frame text %q", i, text)
			}
		}
	}
}

func TestRun_PartialBatchNeverInfers(t *testing.T) {
	src, err := capture.NewJSONSource(corpusFile(t, "one", "two", "three"))
	if err != nil {
		t.Fatal(err)
	}
	client := &fakeClient{}
	handler := &collectingHandler{}
	runner := newTestRunner(t, src, 5, client, handler)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := len(client.requests); got != 0 {
		t.Errorf("inference calls = %d, want 0 for a never-filled batch", got)
	}
	if got, want := summary.Frames, 3; got != want {
		t.Errorf("summary.Frames = %d, want %d", got, want)
	}
	if got := summary.Batches; got != 0 {
		t.Errorf("summary.Batches = %d, want 0", got)
	}
}

func TestRun_FolderSmallerThanBatchNeverInfers(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame-0.png", "frame-1.png", "frame-2.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("image bytes"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	src, err := capture.NewFolderSource(dir)
	if err != nil {
		t.Fatal(err)
	}

	client := &fakeClient{}
	runner := newTestRunner(t, src, 5, client, &collectingHandler{})

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := len(client.requests); got != 0 {
		t.Errorf("inference calls = %d, want 0 when the folder cannot fill a batch", got)
	}
	if got, want := summary.Frames, 3; got != want {
		t.Errorf("summary.Frames = %d, want %d", got, want)
	}
}

func TestRun_HandlerReceivesRawResponse(t *testing.T) {
	src, err := capture.NewJSONSource(corpusFile(t, "one", "two"))
	if err != nil {
		t.Fatal(err)
	}
	raw := "```json\n{\"updates\": []}\n```"
	client := &fakeClient{responses: []string{raw}}
	handler := &collectingHandler{}
	runner := newTestRunner(t, src, 2, client, handler)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := len(handler.activities); got != 1 {
		t.Fatalf("handler received %d activities, want 1", got)
	}
	act := handler.activities[0]
	if act.Response != raw {
		t.Errorf("activity response = %q, want the raw model output", act.Response)
	}
	if got, want := act.FrameCount, 2; got != want {
		t.Errorf("activity FrameCount = %d, want %d", got, want)
	}
	if got, want := act.Model, "fake-model"; got != want {
		t.Errorf("activity Model = %q, want %q", got, want)
	}
}

func TestRun_MaxBatchesStopsEarly(t *testing.T) {
	src, err := capture.NewJSONSource(corpusFile(t, "a", "b", "c", "d", "e", "f"))
	if err != nil {
		t.Fatal(err)
	}
	client := &fakeClient{}
	runner := newTestRunner(t, src, 2, client, &collectingHandler{})
	runner.MaxBatches = 1

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := summary.Batches; got != 1 {
		t.Errorf("summary.Batches = %d, want 1", got)
	}
	if got := len(client.requests); got != 1 {
		t.Errorf("inference calls = %d, want 1", got)
	}
}

func TestRun_DryRunSkipsInference(t *testing.T) {
	src, err := capture.NewJSONSource(corpusFile(t, "one", "two"))
	if err != nil {
		t.Fatal(err)
	}
	handler := &collectingHandler{}
	runner := newTestRunner(t, src, 2, nil, handler)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := summary.Batches; got != 1 {
		t.Errorf("summary.Batches = %d, want 1", got)
	}
	if got := len(handler.activities); got != 0 {
		t.Errorf("handler received %d activities on a dry run, want 0", got)
	}
}

func TestDominantLanguage(t *testing.T) {
	batch := []models.Frame{
		{Language: "en"}, {Language: "es"}, {Language: "en"}, {Language: ""},
	}
	if got, want := dominantLanguage(batch), "en"; got != want {
		t.Errorf("dominantLanguage() = %q, want %q", got, want)
	}
	if got := dominantLanguage(nil); got != "" {
		t.Errorf("dominantLanguage(nil) = %q, want empty", got)
	}
}
