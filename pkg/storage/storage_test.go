package storage

import (
	"path/filepath"
	"testing"
)

func TestSaveReadRoundTrip(t *testing.T) {
	s := &Storage{}
	path := filepath.Join(t.TempDir(), "prompt-000.txt")

	if s.HasFile(path) {
		t.Error("HasFile() = true before save")
	}

	if err := s.SaveFile(path, []byte("prompt contents")); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	if !s.HasFile(path) {
		t.Error("HasFile() = false after save")
	}

	data, err := s.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got, want := string(data), "prompt contents"; got != want {
		t.Errorf("ReadFile() = %q, want %q", got, want)
	}

	stats, err := s.GetFileStats(path)
	if err != nil {
		t.Fatalf("GetFileStats() error = %v", err)
	}
	if got, want := stats.SizeBytes, int64(len("prompt contents")); got != want {
		t.Errorf("SizeBytes = %d, want %d", got, want)
	}
}

func TestReadFile_Missing(t *testing.T) {
	s := &Storage{}
	if _, err := s.ReadFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("ReadFile() error = nil for missing file")
	}
}
