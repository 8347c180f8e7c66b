// Package session names and lays out the on-disk artifacts of a run:
// a session directory holding prompt/response transcripts, plus a YAML
// index of all sessions.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseDir is the results root, created next to the working directory.
const DefaultBaseDir = "sca-results"

// Info represents metadata about a run for the sessions index.
type Info struct {
	SessionKey string    `yaml:"session_key"`
	Created    time.Time `yaml:"created"`
	Source     string    `yaml:"source"`
	Backend    string    `yaml:"backend"`
	Model      string    `yaml:"model"`
	BatchSize  int       `yaml:"batch_size"`
	Frames     int       `yaml:"frames"`
	Batches    int       `yaml:"batches"`
}

// Index represents the index.yaml file at the results root.
type Index struct {
	Sessions []Info `yaml:"sessions"`
}

// GenerateSessionKey creates a timestamp-first session key.
// Format: YYYY-MM-DDTHH-MM-{hash}
// Hash is derived from the source descriptor, so replays of the same corpus
// share a recognizable suffix.
func GenerateSessionKey(source string) string {
	h := sha256.New()
	h.Write([]byte(source))
	hashBytes := h.Sum(nil)
	shortHash := hex.EncodeToString(hashBytes[:6]) // 12 char hex

	timestamp := time.Now().Format("2006-01-02T15-04")
	return fmt.Sprintf("%s-%s", timestamp, shortHash)
}

// GetSessionDir returns the full path to a session directory.
func GetSessionDir(baseDir, sessionKey string) string {
	return filepath.Join(baseDir, "sessions", sessionKey)
}

// EnsureSessionDir creates the session directory structure if it doesn't exist.
func EnsureSessionDir(baseDir, sessionKey string) error {
	if err := os.MkdirAll(GetSessionDir(baseDir, sessionKey), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	return nil
}

// TranscriptPaths returns the prompt and response file paths for one batch.
func TranscriptPaths(baseDir, sessionKey string, batchIndex int) (promptPath, responsePath string) {
	dir := GetSessionDir(baseDir, sessionKey)
	promptPath = filepath.Join(dir, fmt.Sprintf("prompt-%03d.txt", batchIndex))
	responsePath = filepath.Join(dir, fmt.Sprintf("response-%03d.txt", batchIndex))
	return promptPath, responsePath
}

// GetIndexPath returns the path to the sessions index file.
func GetIndexPath(baseDir string) string {
	return filepath.Join(baseDir, "index.yaml")
}

// UpdateIndex adds or updates a session entry in index.yaml.
func UpdateIndex(baseDir string, info Info) error {
	indexPath := GetIndexPath(baseDir)

	var index Index
	data, err := os.ReadFile(indexPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read session index: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &index); err != nil {
			return fmt.Errorf("failed to parse session index: %w", err)
		}
	}

	found := false
	for i, s := range index.Sessions {
		if s.SessionKey == info.SessionKey {
			index.Sessions[i] = info
			found = true
			break
		}
	}
	if !found {
		index.Sessions = append(index.Sessions, info)
	}

	output, err := yaml.Marshal(&index)
	if err != nil {
		return fmt.Errorf("failed to marshal session index: %w", err)
	}
	if err := os.WriteFile(indexPath, output, 0644); err != nil {
		return fmt.Errorf("failed to write session index: %w", err)
	}

	return nil
}
