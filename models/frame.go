package models

import "time"

// Frame is one captured unit of screen content. Image holds encoded PNG/JPEG
// bytes when the frame came from the screen or an image corpus; Text holds
// the extracted (or pre-extracted) content once the extraction step ran.
type Frame struct {
	Index    int
	Text     string
	Image    []byte
	MIMEType string

	// HTML holds a saved web page from an html corpus entry; the
	// readability extractor distills it into Text.
	HTML   []byte
	Source string

	// Language is the ISO-639-1 code detected on the extracted text,
	// empty when detection was inconclusive.
	Language string

	CapturedAt time.Time
}

// HasImage reports whether the frame carries raw image bytes usable by a
// multimodal backend.
func (f Frame) HasImage() bool {
	return len(f.Image) > 0
}

// Activity is the raw text output of one inference call together with the
// metadata the journal records about it. Response is exactly what the model
// returned, unmodified.
type Activity struct {
	SessionID  int64
	BatchIndex int
	FrameCount int
	Model      string
	Response   string
	Language   string
	Latency    time.Duration
	CreatedAt  time.Time
}
