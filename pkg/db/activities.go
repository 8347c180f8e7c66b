package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/salespilot/screen-crm-assistant/models"
)

// ActivityRow is one journaled inference result.
type ActivityRow struct {
	ActivityID int64
	SessionID  int64
	BatchIndex int
	FrameCount int
	Model      string
	Response   string
	Language   string
	LatencyMS  int64
	CreatedAt  time.Time
}

// InsertActivity records one inference result for a session.
func (db *DB) InsertActivity(activity models.Activity) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO activities (session_id, batch_index, frame_count, model, response, language, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, activity.SessionID, activity.BatchIndex, activity.FrameCount,
		activity.Model, activity.Response, activity.Language,
		activity.Latency.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("failed to insert activity: %w", err)
	}

	activityID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get activity ID: %w", err)
	}
	return activityID, nil
}

// GetSessionActivities retrieves all activities for a session in batch order.
func (db *DB) GetSessionActivities(sessionID int64) ([]ActivityRow, error) {
	rows, err := db.Query(`
		SELECT activity_id, session_id, batch_index, frame_count, model,
		       response, language, latency_ms, created_at
		FROM activities
		WHERE session_id = ?
		ORDER BY batch_index
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListActivities retrieves recent activities across all sessions.
func (db *DB) ListActivities(limit int) ([]ActivityRow, error) {
	query := `
		SELECT activity_id, session_id, batch_index, frame_count, model,
		       response, language, latency_ms, created_at
		FROM activities
		ORDER BY created_at DESC, activity_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func scanActivities(rows *sql.Rows) ([]ActivityRow, error) {
	var activities []ActivityRow
	for rows.Next() {
		var a ActivityRow
		var language sql.NullString
		if err := rows.Scan(&a.ActivityID, &a.SessionID, &a.BatchIndex, &a.FrameCount,
			&a.Model, &a.Response, &language, &a.LatencyMS, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if language.Valid {
			a.Language = language.String
		}
		activities = append(activities, a)
	}
	return activities, nil
}
