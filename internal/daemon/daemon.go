// Package daemon runs one tracking session end to end: rule loading, the
// move journal, the watch supervisor, and the control socket, torn down in
// order on a stop request or signal.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"autosort/internal/config"
	"autosort/internal/ipc"
	"autosort/internal/logging"
	"autosort/internal/mover"
	"autosort/internal/rules"
	"autosort/internal/store"
	"autosort/internal/watcher"
)

// Daemon owns the lifecycle of a tracking session.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	dirs      []string
	recursive bool

	sessionID string
	startTime time.Time
	store     *store.Store
	session   *watcher.Session
	server    *ipc.Server
	lock      *flock.Flock

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a Daemon tracking dirs. Empty dirs fall back to the
// configured watch_dirs.
func New(cfg *config.Config, logger *slog.Logger, dirs []string, recursive bool) *Daemon {
	if len(dirs) == 0 {
		dirs = cfg.WatchDirs
	}
	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		dirs:      dirs,
		recursive: recursive || cfg.Recursive,
	}
}

// Run starts the session and blocks until a signal, a stop command over the
// control socket, or ctx cancellation. Startup errors (bad tracked
// directory, empty rule set, second instance) are returned before any
// watcher runs.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// One tracking session per data dir; a second instance would deliver
	// duplicate events and race the journal.
	d.lock = flock.New(d.cfg.LockPath())
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another autosort instance is already tracking (lock %s)", d.cfg.LockPath())
	}
	defer func() { _ = d.lock.Unlock() }()

	ruleMap, err := rules.Load(d.cfg.RulesPath())
	if err != nil {
		return err
	}
	if len(ruleMap) == 0 && d.cfg.FallbackDir == "" {
		return fmt.Errorf("no extension rules in %s and no fallback_dir configured; add rules with 'autosort config set'", d.cfg.RulesPath())
	}

	st, err := store.New(d.cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	d.store = st
	defer func() { _ = st.Close() }()

	d.sessionID = uuid.NewString()
	d.startTime = time.Now()

	sink := logging.NewOutcomeSink(d.logger, st.Journal(d.sessionID))
	supervisor := watcher.NewSupervisor(
		rules.NewResolver(ruleMap, d.cfg.FallbackDir),
		mover.New(d.cfg.DatedSubdirs),
		sink.Report,
		d.logger,
		watcher.Options{
			DebounceWindow: d.cfg.DebounceWindow(),
			StopTimeout:    d.cfg.StopTimeout(),
			IgnorePatterns: d.cfg.IgnorePatterns,
		},
	)

	runCtx, cancel := signalContext(ctx)
	defer cancel()
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	session, err := supervisor.Start(runCtx, d.dirs, d.recursive)
	if err != nil {
		return err
	}
	d.session = session

	d.server = ipc.NewServer(d, d.logger)
	ipcErr := make(chan error, 1)
	go func() {
		ipcErr <- d.server.Listen(runCtx, d.cfg.SocketPath())
	}()

	d.logger.Info("session started",
		slog.String("session_id", d.sessionID),
		slog.Int("pid", os.Getpid()),
		slog.Any("dirs", session.Dirs()),
		slog.Bool("recursive", d.recursive),
	)

	select {
	case <-runCtx.Done():
		d.logger.Info("shutdown requested")
	case err := <-ipcErr:
		if err != nil {
			d.logger.Error("control socket failed", slog.Any("error", err))
		}
	}

	return d.shutdown()
}

// shutdown performs ordered teardown: workers first so the journal is still
// open while the last outcomes land, then the control socket.
func (d *Daemon) shutdown() error {
	var stopErr error
	if d.session != nil {
		stopErr = d.session.Stop()
		if stopErr != nil {
			d.logger.Warn("session stop", slog.Any("error", stopErr))
		}
	}
	if d.server != nil {
		if err := d.server.Stop(); err != nil {
			d.logger.Warn("control socket stop", slog.Any("error", err))
		}
	}
	_ = os.Remove(d.cfg.SocketPath())

	d.logger.Info("session stopped", slog.String("session_id", d.sessionID))
	return stopErr
}

// RequestStop triggers a graceful shutdown. Implements ipc.StatusSource and
// is safe to call from any goroutine.
func (d *Daemon) RequestStop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
}

// Status reports the running session. Implements ipc.StatusSource.
func (d *Daemon) Status() ipc.StatusData {
	data := ipc.StatusData{
		SessionID: d.sessionID,
		Uptime:    time.Since(d.startTime).Truncate(time.Second).String(),
		Recursive: d.recursive,
	}
	if d.session != nil {
		data.TrackedDirs = d.session.Dirs()
	}
	if d.store != nil {
		if counts, err := d.store.Counts(); err == nil {
			data.Counts = counts
		}
		if size, err := d.store.DBSizeBytes(); err == nil {
			data.DBSizeBytes = size
		}
	}
	return data
}
