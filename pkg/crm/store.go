// Package crm implements the flat-file CRM backing the assistant: one CSV
// for leads and one for accounts, header-defined columns, loaded once at
// startup and written back only when update application is enabled.
package crm

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/salespilot/screen-crm-assistant/models"
)

// Store holds the rows of a single CRM CSV file in memory.
type Store struct {
	path    string
	header  []string
	rows    []models.Record
	changed bool
}

// Load reads a CRM CSV. When the file does not exist it is created empty
// (no header columns) and an empty store is returned.
func Load(path string) (*Store, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		if writeErr := os.WriteFile(path, nil, 0644); writeErr != nil {
			return nil, fmt.Errorf("failed to create CRM file: %w", writeErr)
		}
		return &Store{path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open CRM file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		// Empty file, no header yet.
		return &Store{path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	store := &Store{path: path, header: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		record := make(models.Record, len(header))
		for i, value := range row {
			if i < len(header) {
				record[header[i]] = value
			}
		}
		store.rows = append(store.rows, record)
	}

	return store, nil
}

// Path returns the CSV file path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Header returns the column names in file order.
func (s *Store) Header() []string {
	return s.header
}

// Rows returns the records in file order.
func (s *Store) Rows() []models.Record {
	return s.rows
}

// Changed reports whether the store has unsaved mutations.
func (s *Store) Changed() bool {
	return s.changed
}

// Upsert updates the first row matching criteria with the given values, or
// appends a new row when no criteria or no match. Created rows keep their
// match columns, so repeating the same upsert updates the row it created.
// Columns not yet in the header are appended to it in sorted order.
func (s *Store) Upsert(criteria, values map[string]string) (created bool) {
	s.extendHeader(values)

	for i := range s.rows {
		if s.rows[i].Matches(criteria) {
			for k, v := range values {
				s.rows[i][k] = v
			}
			s.changed = true
			return false
		}
	}

	s.extendHeader(criteria)
	record := make(models.Record, len(criteria)+len(values))
	for k, v := range criteria {
		record[k] = v
	}
	for k, v := range values {
		record[k] = v
	}
	s.rows = append(s.rows, record)
	s.changed = true
	return true
}

func (s *Store) extendHeader(values map[string]string) {
	known := make(map[string]bool, len(s.header))
	for _, col := range s.header {
		known[col] = true
	}

	var added []string
	for col := range values {
		if !known[col] {
			added = append(added, col)
			known[col] = true
		}
	}
	sort.Strings(added)
	s.header = append(s.header, added...)
}

// Save writes the store back to its CSV file. A store with no header (never
// populated) writes an empty file.
func (s *Store) Save() error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create CRM file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if len(s.header) > 0 {
		if err := writer.Write(s.header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		for _, record := range s.rows {
			row := make([]string, len(s.header))
			for i, col := range s.header {
				row[i] = record[col]
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	s.changed = false
	return nil
}

// RenderJSON serializes the rows as 4-space-indented JSON for prompt
// embedding. An empty store renders as an empty array.
func (s *Store) RenderJSON() (string, error) {
	rows := s.rows
	if rows == nil {
		rows = []models.Record{}
	}
	data, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal CRM rows: %w", err)
	}
	return string(data), nil
}
