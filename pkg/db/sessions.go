package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Session represents one watch or replay run.
type Session struct {
	SessionID  int64
	CreatedAt  time.Time
	SessionKey string
	Source     string
	Backend    string
	Model      string
	BatchSize  int
	FrameCount int
	BatchCount int
	SessionDir string
}

// CreateSession records the start of a run and returns its ID.
func (db *DB) CreateSession(sessionKey, source, backend, model string, batchSize int, sessionDir string) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO sessions (session_key, source, backend, model, batch_size, session_dir)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionKey, source, backend, model, batchSize, sessionDir)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}

	sessionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get session ID: %w", err)
	}
	return sessionID, nil
}

// UpdateSessionStats updates the frame and batch counts for a session.
func (db *DB) UpdateSessionStats(sessionID int64, frameCount, batchCount int) error {
	_, err := db.Exec(`
		UPDATE sessions
		SET frame_count = ?, batch_count = ?
		WHERE session_id = ?
	`, frameCount, batchCount, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session stats: %w", err)
	}
	return nil
}

// GetSessionByID retrieves a session by its ID
func (db *DB) GetSessionByID(sessionID int64) (*Session, error) {
	var session Session
	var sessionDir sql.NullString
	err := db.QueryRow(`
		SELECT session_id, created_at, session_key, source, backend, model,
		       batch_size, frame_count, batch_count, session_dir
		FROM sessions
		WHERE session_id = ?
	`, sessionID).Scan(
		&session.SessionID,
		&session.CreatedAt,
		&session.SessionKey,
		&session.Source,
		&session.Backend,
		&session.Model,
		&session.BatchSize,
		&session.FrameCount,
		&session.BatchCount,
		&sessionDir,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %d not found", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sessionDir.Valid {
		session.SessionDir = sessionDir.String
	}
	return &session, nil
}

// LatestSessionID returns the most recently created session's ID.
func (db *DB) LatestSessionID() (int64, error) {
	var sessionID int64
	err := db.QueryRow(`
		SELECT session_id FROM sessions ORDER BY created_at DESC, session_id DESC LIMIT 1
	`).Scan(&sessionID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("no sessions found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest session: %w", err)
	}
	return sessionID, nil
}

// ListSessions retrieves all sessions ordered by most recent first
func (db *DB) ListSessions(limit int) ([]Session, error) {
	query := `
		SELECT session_id, created_at, session_key, source, backend, model,
		       batch_size, frame_count, batch_count, session_dir
		FROM sessions
		ORDER BY created_at DESC, session_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var sessionDir sql.NullString
		if err := rows.Scan(&s.SessionID, &s.CreatedAt, &s.SessionKey, &s.Source,
			&s.Backend, &s.Model, &s.BatchSize, &s.FrameCount, &s.BatchCount, &sessionDir); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if sessionDir.Valid {
			s.SessionDir = sessionDir.String
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}
