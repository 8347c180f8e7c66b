// Package llm is the inference boundary: a prompt (optionally with
// associated images) goes in, a single text response comes out. Two
// interchangeable backends are provided, a multimodal Gemini client and a
// text-only OpenRouter client fed OCR output.
package llm

import (
	"context"

	"github.com/salespilot/screen-crm-assistant/models"
)

// Request carries one inference call. Frames are only consulted by
// multimodal backends, which attach each frame's image to the prompt.
type Request struct {
	Prompt string
	Frames []models.Frame
}

// Client is implemented by every inference backend.
type Client interface {
	Infer(ctx context.Context, req Request) (string, error)

	// Multimodal reports whether the backend consumes frame images. The
	// prompt builder omits the indexed frame text for such backends.
	Multimodal() bool

	// Model returns the model identifier for journal records.
	Model() string
}
