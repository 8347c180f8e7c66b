package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/salespilot/screen-crm-assistant/models"
	"github.com/salespilot/screen-crm-assistant/pkg/crm"
)

// CRMApplier parses the model response as a CRM update batch and applies it
// to the lead/account stores. Responses that are not valid update JSON are
// skipped with a log line; the model is free-form and a malformed update is
// not an error of the loop.
type CRMApplier struct {
	logger   *slog.Logger
	leads    *crm.Store
	accounts *crm.Store
}

func NewCRMApplier(logger *slog.Logger, leads, accounts *crm.Store) *CRMApplier {
	return &CRMApplier{logger: logger, leads: leads, accounts: accounts}
}

func (a *CRMApplier) Name() string {
	return "crm-applier"
}

func (a *CRMApplier) Fire(ctx context.Context, activity models.Activity) error {
	batch, ok := ParseUpdates(activity.Response)
	if !ok {
		a.logger.Info("response carries no CRM update JSON, skipping",
			"session_id", activity.SessionID, "batch_index", activity.BatchIndex)
		return nil
	}

	applied := 0
	for _, update := range batch.Updates {
		store, err := a.storeFor(update.Target)
		if err != nil {
			a.logger.Warn("skipping CRM update", "error", err)
			continue
		}
		if len(update.Set) == 0 {
			a.logger.Warn("skipping CRM update with no values", "target", update.Target)
			continue
		}

		created := store.Upsert(update.Match, update.Set)
		applied++
		a.logger.Info("applied CRM update",
			"target", update.Target, "created", created, "columns", len(update.Set))
	}

	if applied == 0 {
		return nil
	}
	return a.save()
}

func (a *CRMApplier) storeFor(target string) (*crm.Store, error) {
	switch target {
	case "leads":
		return a.leads, nil
	case "accounts":
		return a.accounts, nil
	}
	return nil, fmt.Errorf("unknown CRM target %q", target)
}

func (a *CRMApplier) save() error {
	if a.leads.Changed() {
		if err := a.leads.Save(); err != nil {
			return fmt.Errorf("failed to save leads: %w", err)
		}
	}
	if a.accounts.Changed() {
		if err := a.accounts.Save(); err != nil {
			return fmt.Errorf("failed to save accounts: %w", err)
		}
	}
	return nil
}

// ParseUpdates extracts a CRM update batch from a model response. It
// tolerates markdown code fences and accepts either the batch wrapper, a
// bare update object, or a bare array of updates.
func ParseUpdates(response string) (models.CRMUpdateBatch, bool) {
	text := stripCodeFence(strings.TrimSpace(response))
	if text == "" {
		return models.CRMUpdateBatch{}, false
	}

	var batch models.CRMUpdateBatch
	if err := json.Unmarshal([]byte(text), &batch); err == nil && len(batch.Updates) > 0 {
		return batch, true
	}

	var single models.CRMUpdate
	if err := json.Unmarshal([]byte(text), &single); err == nil && single.Action != "" {
		return models.CRMUpdateBatch{Updates: []models.CRMUpdate{single}}, true
	}

	var list []models.CRMUpdate
	if err := json.Unmarshal([]byte(text), &list); err == nil && len(list) > 0 {
		return models.CRMUpdateBatch{Updates: list}, true
	}

	return models.CRMUpdateBatch{}, false
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
