package extract

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/salespilot/screen-crm-assistant/models"
)

// ReadabilityExtractor distills saved web pages (html corpus entries) into
// plain text: go-readability finds the main content, goquery walks the
// clean HTML for text-bearing tags.
type ReadabilityExtractor struct{}

func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{}
}

func (e *ReadabilityExtractor) Extract(ctx context.Context, frame *models.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pageURL := &url.URL{Scheme: "file", Path: frame.Source}

	readabilityParser := readability.NewParser()
	article, err := readabilityParser.Parse(strings.NewReader(string(frame.HTML)), pageURL)
	if err != nil {
		// Pages readability cannot distill (frames, login walls) fall
		// back to the stripped text of the whole document.
		return e.extractRaw(frame)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return e.extractRaw(frame)
	}

	var lines []string
	if title := normalizeText(article.Title); title != "" {
		lines = append(lines, title)
	}
	doc.Find("h1,h2,h3,h4,p,li").Each(func(i int, s *goquery.Selection) {
		if text := normalizeText(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})

	frame.Text = strings.Join(lines, "\n")
	return nil
}

func (e *ReadabilityExtractor) extractRaw(frame *models.Frame) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(frame.HTML)))
	if err != nil {
		return err
	}
	frame.Text = normalizeText(doc.Text())
	return nil
}

// normalizeText collapses runs of whitespace into single spaces.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
