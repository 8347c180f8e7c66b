// Package batcher accumulates extracted frames until a fixed threshold is
// reached. The threshold check runs after each append, in every code path,
// so a corpus of N frames with batch size B always yields floor(N/B) full
// batches in original frame order; a trailing partial batch is dropped.
package batcher

import (
	"fmt"

	"github.com/salespilot/screen-crm-assistant/models"
)

// Batcher holds an ordered, bounded in-memory frame batch.
type Batcher struct {
	size   int
	frames []models.Frame
}

// New creates a batcher with the given positive batch size.
func New(size int) (*Batcher, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}
	return &Batcher{size: size, frames: make([]models.Frame, 0, size)}, nil
}

// Add appends a frame. When the append fills the batch, the full batch is
// returned and the internal buffer is cleared; otherwise Add returns nil.
func (b *Batcher) Add(frame models.Frame) []models.Frame {
	b.frames = append(b.frames, frame)
	if len(b.frames) < b.size {
		return nil
	}

	batch := b.frames
	b.frames = make([]models.Frame, 0, b.size)
	return batch
}

// Len returns the number of frames pending in the current partial batch.
func (b *Batcher) Len() int {
	return len(b.frames)
}

// Size returns the configured batch threshold.
func (b *Batcher) Size() int {
	return b.size
}
