package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"autosort/internal/mover"
	"autosort/internal/watcher"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	outcomes := []watcher.Outcome{
		{Kind: watcher.OutcomeMoved, Dir: "/dl", Source: "/dl/a.jpg", Dest: "/photos/a.jpg", Timestamp: now},
		{Kind: watcher.OutcomeSkipped, Dir: "/dl", Source: "/dl/c.txt", Timestamp: now},
		{Kind: watcher.OutcomeFailed, Dir: "/dl", Source: "/dl/b.pdf", Dest: "/docs",
			ErrKind: mover.KindPermissionDenied, Err: errors.New("permission denied"), Timestamp: now},
	}
	for _, o := range outcomes {
		if err := s.Record("sess-1", o); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	records, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	// Most recent first.
	if records[0].Outcome != "failed" || records[0].ErrorKind != "permission_denied" {
		t.Errorf("first record = %+v, want the failed move", records[0])
	}
	if records[0].Error == "" {
		t.Error("failed record lost its error text")
	}
	if records[2].Extension != ".jpg" {
		t.Errorf("extension = %q, want .jpg", records[2].Extension)
	}
	if records[2].SessionID != "sess-1" {
		t.Errorf("session id = %q, want sess-1", records[2].SessionID)
	}
	if records[2].Timestamp.Sub(now).Abs() > time.Second {
		t.Errorf("timestamp round trip drifted: %v vs %v", records[2].Timestamp, now)
	}
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.Record("s", watcher.Outcome{Kind: watcher.OutcomeMoved, Dir: "/dl", Source: "/dl/x.jpg"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Record("s", watcher.Outcome{Kind: watcher.OutcomeSkipped, Dir: "/dl", Source: "/dl/y.txt"}); err != nil {
		t.Fatal(err)
	}

	counts, err := s.Counts()
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts["moved"] != 3 {
		t.Errorf("counts[moved] = %d, want 3", counts["moved"])
	}
	if counts["skipped"] != 1 {
		t.Errorf("counts[skipped] = %d, want 1", counts["skipped"])
	}
	if counts["failed"] != 0 {
		t.Errorf("counts[failed] = %d, want 0", counts["failed"])
	}
}

func TestJournalBindsSession(t *testing.T) {
	s := newTestStore(t)

	j := s.Journal("sess-42")
	if err := j.RecordOutcome(watcher.Outcome{Kind: watcher.OutcomeMoved, Dir: "/dl", Source: "/dl/a.png"}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	records, err := s.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].SessionID != "sess-42" {
		t.Fatalf("journal did not bind session id: %+v", records)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	s1, err := New(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	// Re-opening runs migrations again; they must be a no-op.
	s2, err := New(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	if _, err := s2.DBSizeBytes(); err != nil {
		t.Errorf("DBSizeBytes: %v", err)
	}
}
