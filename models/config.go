// Package models defines data structures shared across the pipeline:
// runtime configuration, frames, CRM records, and model activities.
package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WatchConfig holds the resolved runtime configuration for a watch or
// replay run: CLI flags merged over the optional sca.yaml defaults.
type WatchConfig struct {
	BatchSize     int
	SleepInterval time.Duration
	LeadsPath     string
	AccountsPath  string
	Backend       string
	Model         string
	ApplyUpdates  bool
	Display       int
	MaxBatches    int

	// AlertWebhookURL comes only from sca.yaml; empty disables the
	// webhook hook.
	AlertWebhookURL string

	// Corpus paths for replay; both empty means live capture.
	TestDataFolder string
	TestDataFile   string
}

// FileConfig holds optional defaults loaded from sca.yaml. Flags always win;
// the file only fills values the user did not set on the command line.
type FileConfig struct {
	Backend         string `yaml:"backend,omitempty"`
	Model           string `yaml:"model,omitempty"`
	LeadsPath       string `yaml:"leads,omitempty"`
	AccountsPath    string `yaml:"accounts,omitempty"`
	AlertWebhookURL string `yaml:"alert_webhook_url,omitempty"`
}

// LoadFileConfig reads defaults from the given YAML path. A missing file is
// not an error; it yields an empty config.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &FileConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}
