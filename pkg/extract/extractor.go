// Package extract converts captured frames into text. Image frames go
// through Tesseract OCR, saved pages through readability distillation, and
// pre-extracted corpus text passes through untouched. Every extracted text
// is annotated with its detected language.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
	"github.com/salespilot/screen-crm-assistant/models"
)

// Extractor fills in the Text (and Language) of a frame.
type Extractor interface {
	Extract(ctx context.Context, frame *models.Frame) error
}

// Pipeline routes each frame to the extractor matching its payload and
// runs language detection on the result.
type Pipeline struct {
	ocr      Extractor
	html     Extractor
	detector lingua.LanguageDetector
}

// NewPipeline wires the OCR and readability extractors together. Either may
// be nil when the corpus cannot produce that frame kind.
func NewPipeline(ocr, html Extractor) *Pipeline {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.Spanish, lingua.French, lingua.German, lingua.Portuguese).
		Build()

	return &Pipeline{ocr: ocr, html: html, detector: detector}
}

// Extract fills frame.Text from the frame's payload. Frames that already
// carry text (JSON corpus) pass through unmodified.
func (p *Pipeline) Extract(ctx context.Context, frame *models.Frame) error {
	switch {
	case frame.Text != "":
		// Pre-extracted corpus text.
	case len(frame.HTML) > 0:
		if p.html == nil {
			return fmt.Errorf("no HTML extractor configured for frame %d", frame.Index)
		}
		if err := p.html.Extract(ctx, frame); err != nil {
			return err
		}
	case frame.HasImage():
		if p.ocr == nil {
			return fmt.Errorf("no OCR extractor configured for frame %d", frame.Index)
		}
		if err := p.ocr.Extract(ctx, frame); err != nil {
			return err
		}
	}

	frame.Language = p.detectLanguage(frame.Text)
	return nil
}

func (p *Pipeline) detectLanguage(text string) string {
	if text == "" {
		return ""
	}
	lang, ok := p.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
