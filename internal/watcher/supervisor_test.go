package watcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"autosort/internal/mover"
	"autosort/internal/rules"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSupervisor(m rules.Map, fallback string, report ReportFunc) *Supervisor {
	return NewSupervisor(
		rules.NewResolver(m, fallback),
		mover.New(false),
		report,
		discardLogger(),
		Options{DebounceWindow: 50 * time.Millisecond, StopTimeout: 5 * time.Second},
	)
}

func TestStartRejectsMissingDirectory(t *testing.T) {
	valid := t.TempDir()
	invalid := filepath.Join(valid, "does-not-exist")

	s := testSupervisor(rules.Map{}, "", nil)
	session, err := s.Start(context.Background(), []string{valid, invalid}, false)
	if err == nil {
		session.Stop()
		t.Fatal("expected error for missing directory")
	}

	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if ce.Path != invalid {
		t.Errorf("ConfigError.Path = %q, want %q", ce.Path, invalid)
	}
	if session != nil {
		t.Error("no session should exist after a failed start")
	}
}

func TestStartRejectsFileAsDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := testSupervisor(rules.Map{}, "", nil)
	if _, err := s.Start(context.Background(), []string{file}, false); err == nil {
		t.Fatal("expected error for non-directory path")
	}
}

func TestStartRejectsEmptySet(t *testing.T) {
	s := testSupervisor(rules.Map{}, "", nil)
	if _, err := s.Start(context.Background(), nil, false); err == nil {
		t.Fatal("expected error for empty directory set")
	}
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestSessionSortsDroppedFiles(t *testing.T) {
	tracked := t.TempDir()
	sorted := t.TempDir()
	photos := filepath.Join(sorted, "photos")
	docs := filepath.Join(sorted, "docs")

	c := &collector{}
	s := testSupervisor(rules.Map{".jpg": photos, ".pdf": docs}, "", c.report)

	session, err := s.Start(context.Background(), []string{tracked}, false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer session.Stop()

	if err := os.WriteFile(filepath.Join(tracked, "a.jpg"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tracked, "b.PDF"), []byte("doc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tracked, "c.txt"), []byte("txt"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 5*time.Second, func() bool {
		_, errA := os.Stat(filepath.Join(photos, "a.jpg"))
		_, errB := os.Stat(filepath.Join(docs, "b.PDF"))
		return errA == nil && errB == nil
	})
	if !ok {
		t.Fatalf("files not sorted in time; outcomes: %v", c.all())
	}

	// Unmapped extension stays put with no fallback configured.
	if _, err := os.Stat(filepath.Join(tracked, "c.txt")); err != nil {
		t.Error("c.txt should have been left in place")
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSessionSurvivesFailedMove(t *testing.T) {
	tracked := t.TempDir()
	sorted := t.TempDir()
	photos := filepath.Join(sorted, "photos")

	c := &collector{}
	// .bad maps to a destination under a path that is a regular file, so
	// MkdirAll fails and the move errors out.
	blocker := filepath.Join(sorted, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	badDest := filepath.Join(blocker, "nested")

	s := testSupervisor(rules.Map{".bad": badDest, ".jpg": photos}, "", c.report)
	session, err := s.Start(context.Background(), []string{tracked}, false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer session.Stop()

	if err := os.WriteFile(filepath.Join(tracked, "broken.bad"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 5*time.Second, func() bool {
		for _, o := range c.all() {
			if o.Kind == OutcomeFailed {
				return true
			}
		}
		return false
	})
	if !ok {
		t.Fatalf("expected a failed outcome; got %v", c.all())
	}

	// The worker must keep sorting after the failure.
	if err := os.WriteFile(filepath.Join(tracked, "after.jpg"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	ok = waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(filepath.Join(photos, "after.jpg"))
		return err == nil
	})
	if !ok {
		t.Fatal("worker stopped processing after a failed move")
	}
}

func TestRecursiveSortsExistingSubdirectories(t *testing.T) {
	tracked := t.TempDir()
	nested := filepath.Join(tracked, "camera", "2026")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	photos := filepath.Join(t.TempDir(), "photos")

	c := &collector{}
	s := testSupervisor(rules.Map{".jpg": photos}, "", c.report)

	session, err := s.Start(context.Background(), []string{tracked}, true)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer session.Stop()

	if err := os.WriteFile(filepath.Join(nested, "deep.jpg"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(filepath.Join(photos, "deep.jpg"))
		return err == nil
	})
	if !ok {
		t.Fatalf("file in pre-existing subdirectory not sorted; outcomes: %v", c.all())
	}
}

func TestRecursiveWatchesNewSubdirectories(t *testing.T) {
	tracked := t.TempDir()
	photos := filepath.Join(t.TempDir(), "photos")

	c := &collector{}
	s := testSupervisor(rules.Map{".jpg": photos}, "", c.report)

	session, err := s.Start(context.Background(), []string{tracked}, true)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer session.Stop()

	newDir := filepath.Join(tracked, "incoming")
	if err := os.MkdirAll(newDir, 0o755); err != nil {
		t.Fatal(err)
	}

	// The subdirectory joins the watch asynchronously; keep generating write
	// events until one is observed after the watch is live.
	target := filepath.Join(newDir, "late.jpg")
	dest := filepath.Join(photos, "late.jpg")
	ok := waitFor(t, 5*time.Second, func() bool {
		if _, err := os.Stat(dest); err == nil {
			return true
		}
		_ = os.WriteFile(target, []byte("img"), 0o644)
		return false
	})
	if !ok {
		t.Fatalf("file in post-start subdirectory not sorted; outcomes: %v", c.all())
	}
}

func TestConcurrentSameNameArrivals(t *testing.T) {
	// Same-named files from several source directories race into one
	// destination; every one must land under a distinct name.
	root := t.TempDir()
	dest := filepath.Join(root, "docs")

	mv := mover.New(false)
	var wg sync.WaitGroup
	results := make([]string, 8)
	errs := make([]error, 8)

	for i := 0; i < 8; i++ {
		srcDir := filepath.Join(root, "src", string(rune('a'+i)))
		if err := os.MkdirAll(srcDir, 0o755); err != nil {
			t.Fatal(err)
		}
		src := filepath.Join(srcDir, "report.pdf")
		if err := os.WriteFile(src, []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			results[i], errs[i] = mv.Move(src, dest)
		}(i, src)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		if errs[i] != nil {
			t.Fatalf("move %d: %v", i, errs[i])
		}
		if seen[results[i]] {
			t.Fatalf("two moves claimed the same destination %q", results[i])
		}
		seen[results[i]] = true
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected 8 distinct files in destination, got %d", len(entries))
	}
}

func TestStopIsIdempotentAndBounded(t *testing.T) {
	tracked := t.TempDir()

	s := testSupervisor(rules.Map{}, "", nil)
	session, err := s.Start(context.Background(), []string{tracked}, false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := session.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
