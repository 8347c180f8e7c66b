// Package prompt builds the deterministic instruction sent to the model:
// a fixed preamble, the batched frame text as an indexed list, and the full
// current contents of both CRM CSVs serialized as indented JSON.
package prompt

import (
	"fmt"
	"strings"

	"github.com/salespilot/screen-crm-assistant/models"
)

const instruction = "You are an AI assistant that gets screenshots from a user screen doing sales " +
	"and your job is to update a CRM system with the data extracted from the screen."

const responseDirective = "Return a JSON function call to update the CRM system with the processed text. " +
	`Use the shape {"updates": [{"action": "update_crm", "target": "leads"|"accounts", ` +
	`"match": {column: value}, "set": {column: value}}]}.`

// WarnPromptBytes is the size above which callers should log that the
// prompt has grown large. There is no truncation; growth is unbounded.
const WarnPromptBytes = 256 * 1024

// CRMRenderer supplies the serialized CRM state. *crm.Store implements it.
type CRMRenderer interface {
	RenderJSON() (string, error)
}

// Builder assembles prompts from a frame batch plus the loaded CRM state.
type Builder struct {
	leads    CRMRenderer
	accounts CRMRenderer
}

func NewBuilder(leads, accounts CRMRenderer) *Builder {
	return &Builder{leads: leads, accounts: accounts}
}

// Build serializes the batch into a single prompt. When includeFrameText is
// false (multimodal backends receive the images directly) the indexed frame
// list is omitted; the CRM state is always embedded.
func (b *Builder) Build(batch []models.Frame, includeFrameText bool) (string, error) {
	leadsJSON, err := b.leads.RenderJSON()
	if err != nil {
		return "", fmt.Errorf("failed to render leads: %w", err)
	}
	accountsJSON, err := b.accounts.RenderJSON()
	if err != nil {
		return "", fmt.Errorf("failed to render accounts: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(instruction)
	sb.WriteString("\n\n")

	if includeFrameText {
		sb.WriteString("Extracted screen text, in capture order:\n")
		for i, frame := range batch {
			fmt.Fprintf(&sb, "Frame %d: %s\n", i+1, frame.Text)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Leads CSV content: %s\n\n", leadsJSON)
	fmt.Fprintf(&sb, "Accounts CSV content: %s\n\n", accountsJSON)
	sb.WriteString(responseDirective)

	return sb.String(), nil
}
