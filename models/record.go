package models

// Record is one CRM row: a mapping of column name to string value. The
// schema is implicit in the CSV header; no columns are required.
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Matches reports whether every key/value pair in criteria is present in
// the record. An empty criteria set matches nothing.
func (r Record) Matches(criteria map[string]string) bool {
	if len(criteria) == 0 {
		return false
	}
	for k, want := range criteria {
		if r[k] != want {
			return false
		}
	}
	return true
}

// CRMUpdate is the JSON "function call" shape the prompt asks the model to
// return. Target selects the store (leads or accounts), Match selects the
// row to update, Set holds the column values to write. An update with no
// match criteria creates a new row.
type CRMUpdate struct {
	Action string            `json:"action"`
	Target string            `json:"target"`
	Match  map[string]string `json:"match,omitempty"`
	Set    map[string]string `json:"set"`
}

// CRMUpdateBatch wraps the list of updates a single model response may
// carry.
type CRMUpdateBatch struct {
	Updates []CRMUpdate `json:"updates"`
}
