package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return store
}

func TestOpen_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "history.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if store.Path() != path {
		t.Errorf("Path() = %s, want %s", store.Path(), path)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := openTestStore(t)

	if err := store.Migrate(); err != nil {
		t.Errorf("second Migrate failed: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := openTestStore(t)

	id, err := store.StartSession("python")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if id == "" {
		t.Fatal("StartSession returned empty ID")
	}

	sessions, err := store.RecentSessions(10)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].ID != id || sessions[0].Profile != "python" {
		t.Errorf("session = %+v", sessions[0])
	}
	if sessions[0].EndedAt != nil {
		t.Error("new session should not have an end time")
	}

	if err := store.EndSession(id); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	sessions, err = store.RecentSessions(10)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if sessions[0].EndedAt == nil {
		t.Error("ended session should carry an end time")
	}
}

func TestMessagesOrderedByInsertion(t *testing.T) {
	store := openTestStore(t)

	id, err := store.StartSession("")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	lines := []struct{ role, body string }{
		{"user", "hello"},
		{"assistant", "hi there"},
		{"user", "bye"},
	}
	for _, l := range lines {
		if err := store.AppendMessage(id, l.role, l.body); err != nil {
			t.Fatalf("AppendMessage(%s) failed: %v", l.body, err)
		}
	}

	msgs, err := store.Messages(id)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != len(lines) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(lines))
	}
	for i, l := range lines {
		if msgs[i].Role != l.role || msgs[i].Body != l.body {
			t.Errorf("message %d = %s/%q, want %s/%q", i, msgs[i].Role, msgs[i].Body, l.role, l.body)
		}
		if msgs[i].CreatedAt.IsZero() {
			t.Errorf("message %d missing created_at", i)
		}
	}
}

func TestMessagesScopedToSession(t *testing.T) {
	store := openTestStore(t)

	a, _ := store.StartSession("")
	b, _ := store.StartSession("")

	if err := store.AppendMessage(a, "user", "for a"); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if err := store.AppendMessage(b, "user", "for b"); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	msgs, err := store.Messages(a)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != "for a" {
		t.Errorf("session a messages = %+v", msgs)
	}
}

func TestRecentSessionsNewestFirst(t *testing.T) {
	store := openTestStore(t)

	first, _ := store.StartSession("")
	time.Sleep(10 * time.Millisecond) // distinct started_at
	second, _ := store.StartSession("")

	sessions, err := store.RecentSessions(10)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != second || sessions[1].ID != first {
		t.Error("sessions not ordered newest first")
	}
}

func TestRecentSessionsLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := store.StartSession(""); err != nil {
			t.Fatalf("StartSession failed: %v", err)
		}
	}

	sessions, err := store.RecentSessions(3)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("got %d sessions, want 3", len(sessions))
	}
}

func TestSessionRecorder(t *testing.T) {
	store := openTestStore(t)

	rec, err := NewSessionRecorder(store, "loopback")
	if err != nil {
		t.Fatalf("NewSessionRecorder failed: %v", err)
	}
	if rec.SessionID() == "" {
		t.Fatal("recorder has no session ID")
	}

	if err := rec.Record("user", "ping"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := rec.Record("assistant", "pong"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := rec.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	msgs, err := store.Messages(rec.SessionID())
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Body != "ping" || msgs[1].Body != "pong" {
		t.Errorf("recorded messages = %+v", msgs)
	}
}
