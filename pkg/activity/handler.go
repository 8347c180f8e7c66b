// Package activity receives inference results. The handler is a
// pass-through: whatever string the model returned reaches the journal,
// the transcripts, and every hook unmodified.
package activity

import (
	"context"
	"log/slog"

	"github.com/salespilot/screen-crm-assistant/models"
)

// Handler consumes one model response per filled batch.
type Handler interface {
	OnActivity(ctx context.Context, activity models.Activity) error
}

// Hook is an optional side-channel fed after the primary handling: alert
// webhooks, meeting scheduling, CRM application.
type Hook interface {
	Name() string
	Fire(ctx context.Context, activity models.Activity) error
}

// Journal is the subset of the db package the handler writes to.
type Journal interface {
	InsertActivity(activity models.Activity) (int64, error)
}

// LogHandler logs each activity, journals it, and fans out to hooks. Hook
// failures are logged but never stop the loop; the activity itself was
// already recorded.
type LogHandler struct {
	logger  *slog.Logger
	journal Journal
	hooks   []Hook
}

// NewLogHandler creates the default handler. journal may be nil (dry runs).
func NewLogHandler(logger *slog.Logger, journal Journal, hooks ...Hook) *LogHandler {
	return &LogHandler{logger: logger, journal: journal, hooks: hooks}
}

func (h *LogHandler) OnActivity(ctx context.Context, activity models.Activity) error {
	h.logger.Info("activity",
		"session_id", activity.SessionID,
		"batch_index", activity.BatchIndex,
		"frame_count", activity.FrameCount,
		"model", activity.Model,
		"language", activity.Language,
		"latency_ms", activity.Latency.Milliseconds(),
		"response", activity.Response,
	)

	if h.journal != nil {
		if _, err := h.journal.InsertActivity(activity); err != nil {
			return err
		}
	}

	for _, hook := range h.hooks {
		if err := hook.Fire(ctx, activity); err != nil {
			h.logger.Warn("activity hook failed", "hook", hook.Name(), "error", err)
		}
	}

	return nil
}
