package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/salespilot/screen-crm-assistant/models"
	"github.com/salespilot/screen-crm-assistant/pkg/activity"
	"github.com/salespilot/screen-crm-assistant/pkg/batcher"
	"github.com/salespilot/screen-crm-assistant/pkg/caching"
	"github.com/salespilot/screen-crm-assistant/pkg/capture"
	"github.com/salespilot/screen-crm-assistant/pkg/crm"
	"github.com/salespilot/screen-crm-assistant/pkg/db"
	"github.com/salespilot/screen-crm-assistant/pkg/extract"
	"github.com/salespilot/screen-crm-assistant/pkg/llm"
	"github.com/salespilot/screen-crm-assistant/pkg/prompt"
	"github.com/salespilot/screen-crm-assistant/pkg/session"
	"github.com/salespilot/screen-crm-assistant/pkg/storage"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// WatchAction runs the live monitoring loop against the screen.
func WatchAction(c *cli.Context) error {
	return runLoop(c, true)
}

// ReplayAction runs the loop against a pre-recorded test corpus.
func ReplayAction(c *cli.Context) error {
	return runLoop(c, false)
}

// PromptAction builds and prints the prompt for a corpus without calling
// the model. All corpus frames go into one batch.
func PromptAction(c *cli.Context) error {
	logger := newLogger(c)

	config, err := configFromFlags(c, false)
	if err != nil {
		return err
	}

	source, err := corpusSource(config)
	if err != nil {
		return err
	}

	leads, accounts, err := loadStores(config)
	if err != nil {
		return err
	}

	pipeline := extract.NewPipeline(newOCRExtractor(logger), extract.NewReadabilityExtractor())

	var frames []models.Frame
	for {
		frame, err := source.Next(c.Context)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := pipeline.Extract(c.Context, &frame); err != nil {
			return fmt.Errorf("failed to extract frame %d: %w", frame.Index, err)
		}
		frames = append(frames, frame)
	}

	builder := prompt.NewBuilder(leads, accounts)
	built, err := builder.Build(frames, true)
	if err != nil {
		return err
	}

	fmt.Println(built)
	return nil
}

func runLoop(c *cli.Context, live bool) error {
	logger := newLogger(c)

	config, err := configFromFlags(c, live)
	if err != nil {
		return err
	}

	leads, accounts, err := loadStores(config)
	if err != nil {
		return err
	}
	logger.Info("CRM state loaded",
		"leads", len(leads.Rows()), "accounts", len(accounts.Rows()),
		"leads_path", config.LeadsPath, "accounts_path", config.AccountsPath)

	var source capture.Source
	if live {
		source, err = capture.NewScreenSource(config.Display)
	} else {
		source, err = corpusSource(config)
	}
	if err != nil {
		return err
	}

	var client llm.Client
	if !c.Bool("dry-run") {
		client, err = newClient(c, config)
		if err != nil {
			return err
		}
	}

	modelName := "none"
	if client != nil {
		modelName = client.Model()
	}

	database, err := openJournal(c)
	if err != nil {
		return err
	}
	defer database.Close()

	sessionKey := session.GenerateSessionKey(source.Name())
	baseDir := c.String("output-dir")
	if err := session.EnsureSessionDir(baseDir, sessionKey); err != nil {
		return err
	}

	sessionID, err := database.CreateSession(sessionKey, source.Name(), config.Backend, modelName,
		config.BatchSize, session.GetSessionDir(baseDir, sessionKey))
	if err != nil {
		return err
	}
	logger.Info("session started",
		"session_id", sessionID, "session_key", sessionKey,
		"source", source.Name(), "batch_size", config.BatchSize)

	handler := buildHandler(logger, database, config, leads, accounts)

	frameBatcher, err := batcher.New(config.BatchSize)
	if err != nil {
		return err
	}

	runner := &Runner{
		Logger:        logger,
		Source:        source,
		Extractor:     extract.NewPipeline(newOCRExtractor(logger), extract.NewReadabilityExtractor()),
		Batcher:       frameBatcher,
		Builder:       prompt.NewBuilder(leads, accounts),
		Client:        client,
		Handler:       handler,
		SessionID:     sessionID,
		SessionKey:    sessionKey,
		BaseDir:       baseDir,
		Store:         &storage.Storage{},
		SleepInterval: config.SleepInterval,
		MaxBatches:    config.MaxBatches,
	}

	summary, runErr := runner.Run(c.Context)

	if err := database.UpdateSessionStats(sessionID, summary.Frames, summary.Batches); err != nil {
		logger.Warn("failed to update session stats", "error", err)
	}
	if err := session.UpdateIndex(baseDir, session.Info{
		SessionKey: sessionKey,
		Created:    time.Now(),
		Source:     source.Name(),
		Backend:    config.Backend,
		Model:      modelName,
		BatchSize:  config.BatchSize,
		Frames:     summary.Frames,
		Batches:    summary.Batches,
	}); err != nil {
		logger.Warn("failed to update session index", "error", err)
	}

	yamlBytes, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	fmt.Print(string(yamlBytes))

	return normalizeRunErr(runErr)
}

// normalizeRunErr treats a context cancellation (Ctrl-C, SIGTERM) as a
// clean shutdown; the session stats and summary were already written.
func normalizeRunErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// configFromFlags merges the optional sca.yaml defaults under the CLI
// flags. Flags are the source of truth.
func configFromFlags(c *cli.Context, live bool) (*models.WatchConfig, error) {
	fileCfg, err := models.LoadFileConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	config := &models.WatchConfig{
		BatchSize:      c.Int("batch_size"),
		SleepInterval:  c.Duration("sleep_interval"),
		LeadsPath:      c.String("leads"),
		AccountsPath:   c.String("accounts"),
		Backend:        c.String("backend"),
		Model:          c.String("model"),
		ApplyUpdates:   c.Bool("apply_updates"),
		Display:        c.Int("display"),
		MaxBatches:     c.Int("max-batches"),
		TestDataFolder: c.String("test_data_folder"),
		TestDataFile:   c.String("test_data_file"),
	}

	if !c.IsSet("backend") && fileCfg.Backend != "" {
		config.Backend = fileCfg.Backend
	}
	if !c.IsSet("model") && fileCfg.Model != "" {
		config.Model = fileCfg.Model
	}
	if !c.IsSet("leads") && fileCfg.LeadsPath != "" {
		config.LeadsPath = fileCfg.LeadsPath
	}
	if !c.IsSet("accounts") && fileCfg.AccountsPath != "" {
		config.AccountsPath = fileCfg.AccountsPath
	}
	config.AlertWebhookURL = fileCfg.AlertWebhookURL

	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch_size must be positive, got %d", config.BatchSize)
	}
	if config.SleepInterval < 0 {
		return nil, fmt.Errorf("sleep_interval must be non-negative")
	}
	if !live && config.TestDataFolder == "" && config.TestDataFile == "" {
		return nil, fmt.Errorf("replay requires --test_data_folder or --test_data_file")
	}

	return config, nil
}

func corpusSource(config *models.WatchConfig) (capture.Source, error) {
	if config.TestDataFolder != "" && config.TestDataFile != "" {
		return nil, fmt.Errorf("cannot use both --test_data_folder and --test_data_file")
	}
	if config.TestDataFile != "" {
		return capture.NewJSONSource(config.TestDataFile)
	}
	return capture.NewFolderSource(config.TestDataFolder)
}

func loadStores(config *models.WatchConfig) (leads, accounts *crm.Store, err error) {
	leads, err = crm.Load(config.LeadsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load leads: %w", err)
	}
	accounts, err = crm.Load(config.AccountsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	return leads, accounts, nil
}

func newOCRExtractor(logger *slog.Logger) extract.Extractor {
	cache, err := caching.NewCache(".sca-cache", extract.DefaultOCRCacheTTL)
	if err != nil {
		logger.Warn("failed to create OCR cache, running uncached", "error", err)
		cache = nil
	}
	return extract.NewTesseractExtractor(nil, cache)
}

func newClient(c *cli.Context, config *models.WatchConfig) (llm.Client, error) {
	switch config.Backend {
	case "gemini":
		return llm.NewGeminiClient(c.Context, os.Getenv("GEMINI_API_KEY"), config.Model)
	case "openrouter":
		return llm.NewOpenRouterClient(os.Getenv("OPENROUTER_API_KEY"), config.Model, "")
	}
	return nil, fmt.Errorf("unknown backend %q (want gemini or openrouter)", config.Backend)
}

func openJournal(c *cli.Context) (*db.DB, error) {
	if path := c.String("db"); path != "" {
		return db.OpenAt(path)
	}
	return db.Open()
}

func buildHandler(logger *slog.Logger, database *db.DB,
	config *models.WatchConfig, leads, accounts *crm.Store) activity.Handler {

	var hooks []activity.Hook
	if config.ApplyUpdates {
		hooks = append(hooks, activity.NewCRMApplier(logger, leads, accounts))
	}
	if config.AlertWebhookURL != "" {
		hooks = append(hooks, activity.NewWebhookAlerter(config.AlertWebhookURL))
	}

	return activity.NewLogHandler(logger, database, hooks...)
}
