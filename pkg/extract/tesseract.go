package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/salespilot/screen-crm-assistant/internal/common"
	"github.com/salespilot/screen-crm-assistant/models"
	"github.com/salespilot/screen-crm-assistant/pkg/caching"
)

// DefaultOCRCacheTTL bounds how long OCR text is reused for an identical
// frame. Live monitoring recaptures the same screen often, so this saves
// most Tesseract runs.
const DefaultOCRCacheTTL = 24 * time.Hour

// TesseractExtractor runs OCR on image frames using the gosseract client.
// A fresh client per frame keeps the extractor safe without locking.
type TesseractExtractor struct {
	clientFactory func() *gosseract.Client
	languages     []string
	cache         *caching.Cache
}

// NewTesseractExtractor constructs a Tesseract-backed extractor. cache may
// be nil to disable OCR result caching.
func NewTesseractExtractor(languages []string, cache *caching.Cache) *TesseractExtractor {
	return &TesseractExtractor{
		clientFactory: gosseract.NewClient,
		languages:     languages,
		cache:         cache,
	}
}

func (e *TesseractExtractor) Extract(ctx context.Context, frame *models.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var cacheKey string
	if e.cache != nil {
		cacheKey = "ocr:" + common.ContentHash(frame.Image)
		if data, ok := e.cache.Get(cacheKey); ok {
			frame.Text = string(data)
			return nil
		}
	}

	client := e.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(frame.Image); err != nil {
		return fmt.Errorf("failed to set OCR image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return fmt.Errorf("failed to set OCR languages: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return fmt.Errorf("failed to recognize text: %w", err)
	}
	frame.Text = strings.TrimSpace(text)

	if e.cache != nil {
		if err := e.cache.Set(cacheKey, []byte(frame.Text)); err != nil {
			return fmt.Errorf("failed to cache OCR text: %w", err)
		}
	}
	return nil
}
