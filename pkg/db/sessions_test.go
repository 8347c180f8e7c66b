package db

import (
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenAt(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenAt() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreateSession(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.CreateSession("2026-08-29T10-00-abc123def456", "json:corpus.json",
		"gemini", "gemini-2.0-flash", 5, "/tmp/sessions/key")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if id <= 0 {
		t.Errorf("session ID = %d, want positive", id)
	}

	session, err := db.GetSessionByID(id)
	if err != nil {
		t.Fatalf("GetSessionByID() error = %v", err)
	}
	if got, want := session.SessionKey, "2026-08-29T10-00-abc123def456"; got != want {
		t.Errorf("SessionKey = %q, want %q", got, want)
	}
	if got, want := session.Backend, "gemini"; got != want {
		t.Errorf("Backend = %q, want %q", got, want)
	}
	if got, want := session.BatchSize, 5; got != want {
		t.Errorf("BatchSize = %d, want %d", got, want)
	}
	if session.FrameCount != 0 || session.BatchCount != 0 {
		t.Errorf("new session counts = (%d, %d), want zero", session.FrameCount, session.BatchCount)
	}
}

func TestUpdateSessionStats(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.CreateSession("key", "source", "gemini", "model", 2, "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if err := db.UpdateSessionStats(id, 10, 5); err != nil {
		t.Fatalf("UpdateSessionStats() error = %v", err)
	}

	session, err := db.GetSessionByID(id)
	if err != nil {
		t.Fatalf("GetSessionByID() error = %v", err)
	}
	if session.FrameCount != 10 || session.BatchCount != 5 {
		t.Errorf("counts = (%d, %d), want (10, 5)", session.FrameCount, session.BatchCount)
	}
}

func TestGetSessionByID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.GetSessionByID(999); err == nil {
		t.Error("GetSessionByID(999) error = nil, want not found")
	}
}

func TestLatestSessionID(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.LatestSessionID(); err == nil {
		t.Error("LatestSessionID() on empty db error = nil, want error")
	}

	first, err := db.CreateSession("first", "src", "gemini", "m", 5, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.CreateSession("second", "src", "gemini", "m", 5, "")
	if err != nil {
		t.Fatal(err)
	}
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}

	latest, err := db.LatestSessionID()
	if err != nil {
		t.Fatalf("LatestSessionID() error = %v", err)
	}
	if latest != second {
		t.Errorf("LatestSessionID() = %d, want %d", latest, second)
	}
}

func TestListSessions(t *testing.T) {
	db := setupTestDB(t)

	for _, key := range []string{"a", "b", "c"} {
		if _, err := db.CreateSession(key, "src", "gemini", "m", 5, ""); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := db.ListSessions(0)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if got, want := len(sessions), 3; got != want {
		t.Fatalf("len(sessions) = %d, want %d", got, want)
	}
	if got, want := sessions[0].SessionKey, "c"; got != want {
		t.Errorf("most recent first: sessions[0].SessionKey = %q, want %q", got, want)
	}

	limited, err := db.ListSessions(2)
	if err != nil {
		t.Fatalf("ListSessions(2) error = %v", err)
	}
	if got, want := len(limited), 2; got != want {
		t.Errorf("len(limited) = %d, want %d", got, want)
	}
}
