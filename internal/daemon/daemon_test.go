package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autosort/internal/config"
	"autosort/internal/ipc"
	"autosort/internal/rules"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.DebounceMS = 50
	cfg.StopTimeoutSec = 5
	return cfg
}

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

func TestRunRefusesEmptyRuleSet(t *testing.T) {
	cfg := testConfig(t)
	d := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), []string{t.TempDir()}, false)
	if err := d.Run(context.Background()); err == nil {
		t.Fatal("expected error with no rules and no fallback")
	}
}

func TestRunRefusesBadDirectory(t *testing.T) {
	cfg := testConfig(t)
	if err := rules.Save(cfg.RulesPath(), rules.Map{".jpg": t.TempDir()}); err != nil {
		t.Fatal(err)
	}

	d := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), []string{filepath.Join(cfg.DataDir, "missing")}, false)
	if err := d.Run(context.Background()); err == nil {
		t.Fatal("expected configuration error for missing directory")
	}
}

// TestSessionEndToEnd runs the full daemon: watch, sort, status over the
// control socket, stop over the control socket.
func TestSessionEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	tracked := t.TempDir()
	photos := filepath.Join(cfg.DataDir, "photos")

	if err := rules.Save(cfg.RulesPath(), rules.Map{".jpg": photos}); err != nil {
		t.Fatal(err)
	}

	d := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), []string{tracked}, false)

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(context.Background()) }()

	client := ipc.NewClient(cfg.SocketPath())
	if !waitFor(t, 5*time.Second, func() bool { return client.Ping() == nil }) {
		t.Fatal("daemon never became reachable")
	}

	if err := os.WriteFile(filepath.Join(tracked, "a.jpg"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(filepath.Join(photos, "a.jpg"))
		return err == nil
	}) {
		t.Fatal("file was not sorted")
	}

	if !waitFor(t, 5*time.Second, func() bool {
		status, err := client.Status()
		return err == nil && status.Counts["moved"] >= 1
	}) {
		t.Fatal("status never reported the move")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.SessionID == "" {
		t.Error("status missing session id")
	}
	if len(status.TrackedDirs) != 1 {
		t.Errorf("TrackedDirs = %v, want 1 entry", status.TrackedDirs)
	}

	if err := client.RequestStop(); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}

	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not shut down")
	}

	if _, err := os.Stat(cfg.SocketPath()); !os.IsNotExist(err) {
		t.Error("socket file not removed on shutdown")
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := testConfig(t)
	tracked := t.TempDir()
	if err := rules.Save(cfg.RulesPath(), rules.Map{".jpg": filepath.Join(cfg.DataDir, "photos")}); err != nil {
		t.Fatal(err)
	}

	first := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), []string{tracked}, false)
	runErr := make(chan error, 1)
	go func() { runErr <- first.Run(context.Background()) }()

	client := ipc.NewClient(cfg.SocketPath())
	if !waitFor(t, 5*time.Second, func() bool { return client.Ping() == nil }) {
		t.Fatal("first instance never became reachable")
	}

	second := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), []string{tracked}, false)
	if err := second.Run(context.Background()); err == nil {
		t.Error("second instance should have been refused")
	}

	first.RequestStop()
	select {
	case <-runErr:
	case <-time.After(10 * time.Second):
		t.Fatal("first instance did not shut down")
	}
}
