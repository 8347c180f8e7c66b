// Package capture produces frames for the monitoring loop, either from the
// live screen or from a pre-recorded test corpus.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/salespilot/screen-crm-assistant/internal/common"
	"github.com/salespilot/screen-crm-assistant/models"
)

// Source yields one frame per tick. Corpus sources return io.EOF when
// exhausted; the live screen source never does.
type Source interface {
	Next(ctx context.Context) (models.Frame, error)

	// Live reports whether the source captures in real time. The loop
	// only sleeps between live frames.
	Live() bool

	// Name labels the source for session records and logs.
	Name() string
}

// FolderSource iterates a directory of corpus files in sorted filename
// order. Images (.png/.jpg/.jpeg) become image frames; saved pages
// (.html/.htm) become HTML frames. Other files are ignored.
type FolderSource struct {
	dir   string
	files []string
	pos   int
}

// NewFolderSource scans the directory and fixes the iteration order.
func NewFolderSource(dir string) (*FolderSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test data folder: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if common.IsImageFile(name) || common.IsHTMLFile(name) {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	return &FolderSource{dir: dir, files: files}, nil
}

func (s *FolderSource) Live() bool {
	return false
}

func (s *FolderSource) Name() string {
	return "folder:" + s.dir
}

// Len returns the number of corpus entries.
func (s *FolderSource) Len() int {
	return len(s.files)
}

func (s *FolderSource) Next(ctx context.Context) (models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return models.Frame{}, err
	}
	if s.pos >= len(s.files) {
		return models.Frame{}, io.EOF
	}

	name := s.files[s.pos]
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return models.Frame{}, fmt.Errorf("failed to read corpus file %s: %w", name, err)
	}

	frame := models.Frame{
		Index:      s.pos,
		Source:     name,
		CapturedAt: time.Now(),
	}
	if common.IsHTMLFile(name) {
		frame.HTML = data
	} else {
		frame.Image = data
		frame.MIMEType = common.MIMETypeForFile(name)
	}

	s.pos++
	return frame, nil
}

// corpusDocument is the JSON test-corpus format: a frames array whose
// entries expose a text field.
type corpusDocument struct {
	Frames []corpusFrame `json:"frames"`
}

type corpusFrame struct {
	Text string `json:"text"`
}

// JSONSource iterates the frames array of a JSON corpus document in array
// order. Frames carry pre-extracted text, so the extraction step is a
// passthrough.
type JSONSource struct {
	path   string
	frames []corpusFrame
	pos    int
}

// NewJSONSource loads and validates the corpus document.
func NewJSONSource(path string) (*JSONSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test data file: %w", err)
	}

	var doc corpusDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse test data file: %w", err)
	}

	return &JSONSource{path: path, frames: doc.Frames}, nil
}

func (s *JSONSource) Live() bool {
	return false
}

func (s *JSONSource) Name() string {
	return "json:" + s.path
}

// Len returns the number of corpus entries.
func (s *JSONSource) Len() int {
	return len(s.frames)
}

func (s *JSONSource) Next(ctx context.Context) (models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return models.Frame{}, err
	}
	if s.pos >= len(s.frames) {
		return models.Frame{}, io.EOF
	}

	frame := models.Frame{
		Index:      s.pos,
		Text:       s.frames[s.pos].Text,
		Source:     fmt.Sprintf("%s#%d", filepath.Base(s.path), s.pos),
		CapturedAt: time.Now(),
	}
	s.pos++
	return frame, nil
}
