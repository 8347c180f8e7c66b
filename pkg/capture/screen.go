package capture

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"time"

	"github.com/kbinani/screenshot"
	"github.com/salespilot/screen-crm-assistant/models"
)

// ScreenSource captures the live screen, one full-display PNG per tick.
type ScreenSource struct {
	display int
	index   int
}

// NewScreenSource captures the given display (0 is the primary one).
func NewScreenSource(display int) (*ScreenSource, error) {
	if display < 0 || screenshot.NumActiveDisplays() <= display {
		return nil, fmt.Errorf("display %d not available", display)
	}
	return &ScreenSource{display: display}, nil
}

func (s *ScreenSource) Live() bool {
	return true
}

func (s *ScreenSource) Name() string {
	return fmt.Sprintf("screen:%d", s.display)
}

func (s *ScreenSource) Next(ctx context.Context) (models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return models.Frame{}, err
	}

	bounds := screenshot.GetDisplayBounds(s.display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return models.Frame{}, fmt.Errorf("failed to capture screen: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return models.Frame{}, fmt.Errorf("failed to encode screenshot: %w", err)
	}

	frame := models.Frame{
		Index:      s.index,
		Image:      buf.Bytes(),
		MIMEType:   "image/png",
		Source:     s.Name(),
		CapturedAt: time.Now(),
	}
	s.index++
	return frame, nil
}
