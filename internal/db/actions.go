package db

import (
	"fmt"
	"path/filepath"
	"strings"

	dbpkg "github.com/salespilot/screen-crm-assistant/pkg/db"
	"github.com/salespilot/screen-crm-assistant/pkg/storage"
	"github.com/urfave/cli/v2"
)

func open(c *cli.Context) (*dbpkg.DB, error) {
	if path := c.String("db"); path != "" {
		return dbpkg.OpenAt(path)
	}
	return dbpkg.Open()
}

// SessionsAction lists journaled watch/replay runs.
func SessionsAction(c *cli.Context) error {
	database, err := open(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	sessions, err := database.ListSessions(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	fmt.Printf("%-6s %-20s %-28s %-12s %-8s %-8s %-8s\n",
		"ID", "Created", "Source", "Backend", "Batch", "Frames", "Batches")
	fmt.Println(strings.Repeat("-", 100))

	for _, s := range sessions {
		fmt.Printf("%-6d %-20s %-28s %-12s %-8d %-8d %-8d\n",
			s.SessionID,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
			s.Source,
			s.Backend,
			s.BatchSize,
			s.FrameCount,
			s.BatchCount,
		)
	}

	fmt.Printf("\nTotal: %d sessions\n", len(sessions))
	fmt.Printf("\nTip: Use 'sca db session <id>' to see a session's activities\n")

	return nil
}

// SessionAction shows one session and its activities.
func SessionAction(c *cli.Context) error {
	database, err := open(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	sessionID, err := sessionIDOrLatest(c, database)
	if err != nil {
		return err
	}

	s, err := database.GetSessionByID(sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	fmt.Printf("Session %d (%s)\n", s.SessionID, s.SessionKey)
	fmt.Printf("  Created:    %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Source:     %s\n", s.Source)
	fmt.Printf("  Backend:    %s (%s)\n", s.Backend, s.Model)
	fmt.Printf("  Batch size: %d\n", s.BatchSize)
	fmt.Printf("  Frames:     %d\n", s.FrameCount)
	fmt.Printf("  Batches:    %d\n", s.BatchCount)
	if s.SessionDir != "" {
		fmt.Printf("  Transcript: %s\n", s.SessionDir)
	}

	activities, err := database.GetSessionActivities(sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session activities: %w", err)
	}

	fmt.Printf("\nActivities: %d\n", len(activities))
	store := &storage.Storage{}
	for _, a := range activities {
		fmt.Printf("\n--- batch %d (%d frames, %dms, lang=%s) ---\n",
			a.BatchIndex, a.FrameCount, a.LatencyMS, a.Language)
		fmt.Println(a.Response)
		if s.SessionDir != "" {
			printTranscript(store, s.SessionDir, a.BatchIndex, c.Bool("prompts"))
		}
	}

	return nil
}

// printTranscript shows the stored prompt for a batch: its size always,
// its full contents when requested.
func printTranscript(store *storage.Storage, sessionDir string, batchIndex int, full bool) {
	path := filepath.Join(sessionDir, fmt.Sprintf("prompt-%03d.txt", batchIndex))
	if !store.HasFile(path) {
		return
	}

	if full {
		data, err := store.ReadFile(path)
		if err != nil {
			fmt.Printf("(failed to read prompt transcript: %v)\n", err)
			return
		}
		fmt.Printf("prompt:\n%s\n", indent(string(data), "  "))
		return
	}

	stats, err := store.GetFileStats(path)
	if err != nil {
		return
	}
	fmt.Printf("(prompt transcript: %d bytes, %s)\n", stats.SizeBytes, path)
}

// ActivitiesAction lists recent inference results across all sessions.
func ActivitiesAction(c *cli.Context) error {
	database, err := open(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	activities, err := database.ListActivities(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list activities: %w", err)
	}

	if len(activities) == 0 {
		fmt.Println("No activities found")
		return nil
	}

	for _, a := range activities {
		fmt.Printf("[%s] session=%d batch=%d frames=%d model=%s\n",
			a.CreatedAt.Format("2006-01-02 15:04:05"),
			a.SessionID, a.BatchIndex, a.FrameCount, a.Model)
		fmt.Println(indent(a.Response, "  "))
	}

	return nil
}

// sessionIDOrLatest resolves the session argument, defaulting to the most
// recent session when none is given.
func sessionIDOrLatest(c *cli.Context, database *dbpkg.DB) (int64, error) {
	if c.Args().Len() > 0 {
		var sessionID int64
		if _, err := fmt.Sscanf(c.Args().First(), "%d", &sessionID); err != nil {
			return 0, fmt.Errorf("invalid session ID: %s", c.Args().First())
		}
		return sessionID, nil
	}
	return database.LatestSessionID()
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
