package activity

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/salespilot/screen-crm-assistant/models"
	"github.com/salespilot/screen-crm-assistant/pkg/crm"
)

func TestParseUpdates(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantOK      bool
		wantUpdates int
	}{
		{
			name:        "batch wrapper",
			response:    `{"updates": [{"action": "update_crm", "target": "leads", "set": {"name": "Ada"}}]}`,
			wantOK:      true,
			wantUpdates: 1,
		},
		{
			name:        "single update object",
			response:    `{"action": "update_crm", "target": "accounts", "set": {"company": "Acme"}}`,
			wantOK:      true,
			wantUpdates: 1,
		},
		{
			name:        "bare array",
			response:    `[{"action": "update_crm", "target": "leads", "set": {"name": "Ada"}}, {"action": "update_crm", "target": "accounts", "set": {"company": "Acme"}}]`,
			wantOK:      true,
			wantUpdates: 2,
		},
		{
			name: "markdown fenced",
			response: "```json\n" +
				`{"updates": [{"action": "update_crm", "target": "leads", "set": {"name": "Ada"}}]}` +
				"\n```",
			wantOK:      true,
			wantUpdates: 1,
		},
		{
			name:     "free-form prose",
			response: "I could not find any CRM-relevant data on these screens.",
			wantOK:   false,
		},
		{
			name:     "empty response",
			response: "   ",
			wantOK:   false,
		},
		{
			name:     "json without updates",
			response: `{"summary": "nothing to do"}`,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, ok := ParseUpdates(tt.response)
			if ok != tt.wantOK {
				t.Fatalf("ParseUpdates() ok = %v, want %v", ok, tt.wantOK)
			}
			if got := len(batch.Updates); got != tt.wantUpdates {
				t.Errorf("len(Updates) = %d, want %d", got, tt.wantUpdates)
			}
		})
	}
}

func loadTestStore(t *testing.T, dir, name, content string) *crm.Store {
	t.Helper()
	path := filepath.Join(dir, name)
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := crm.Load(path)
	if err != nil {
		t.Fatalf("crm.Load(%s) error = %v", name, err)
	}
	return store
}

func TestFire_AppliesAndSaves(t *testing.T) {
	dir := t.TempDir()
	leads := loadTestStore(t, dir, "leads.csv", "name,status\nAda Lovelace,new\n")
	accounts := loadTestStore(t, dir, "accounts.csv", "")
	applier := NewCRMApplier(discardLogger(), leads, accounts)

	response := `{"updates": [
		{"action": "update_crm", "target": "leads", "match": {"name": "Ada Lovelace"}, "set": {"status": "contacted"}},
		{"action": "update_crm", "target": "accounts", "set": {"company": "Analytical Engines"}}
	]}`
	activity := models.Activity{Response: response}

	if err := applier.Fire(context.Background(), activity); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "leads.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Ada Lovelace,contacted") {
		t.Errorf("leads.csv not updated on disk:\n%s", data)
	}

	data, err = os.ReadFile(filepath.Join(dir, "accounts.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Analytical Engines") {
		t.Errorf("accounts.csv missing new row:\n%s", data)
	}
}

func TestFire_NonUpdateResponseIsNoop(t *testing.T) {
	dir := t.TempDir()
	leads := loadTestStore(t, dir, "leads.csv", "name\nAda Lovelace\n")
	accounts := loadTestStore(t, dir, "accounts.csv", "")
	applier := NewCRMApplier(discardLogger(), leads, accounts)

	if err := applier.Fire(context.Background(), models.Activity{Response: "no structured data here"}); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if leads.Changed() || accounts.Changed() {
		t.Error("stores mutated by a non-update response")
	}
}

func TestFire_UnknownTargetSkipped(t *testing.T) {
	dir := t.TempDir()
	leads := loadTestStore(t, dir, "leads.csv", "")
	accounts := loadTestStore(t, dir, "accounts.csv", "")
	applier := NewCRMApplier(discardLogger(), leads, accounts)

	response := `{"updates": [{"action": "update_crm", "target": "opportunities", "set": {"x": "y"}}]}`
	if err := applier.Fire(context.Background(), models.Activity{Response: response}); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if len(leads.Rows()) != 0 || len(accounts.Rows()) != 0 {
		t.Error("unknown target wrote rows")
	}
}
