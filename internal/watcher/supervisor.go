package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"autosort/internal/mover"
	"autosort/internal/rules"
)

// Defaults for supervisor options left zero.
const (
	DefaultDebounceWindow = 500 * time.Millisecond
	DefaultStopTimeout    = 10 * time.Second
)

// ConfigError reports an invalid tracked directory at session start. It is
// the only failure surfaced to the caller as a hard error; once a session is
// running, nothing a single file does can end it.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tracked directory %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Options tunes a Supervisor. Zero values fall back to defaults.
type Options struct {
	DebounceWindow time.Duration
	StopTimeout    time.Duration
	IgnorePatterns []string
}

// Supervisor is lifecycle plumbing: it validates tracked directories, runs
// one worker per directory, and coordinates shutdown. The resolver and mover
// are read-only for the life of a session and shared across workers.
type Supervisor struct {
	resolver *rules.Resolver
	mover    *mover.Mover
	report   ReportFunc
	logger   *slog.Logger
	opts     Options
}

// NewSupervisor builds a Supervisor. report receives every per-file outcome;
// logger receives watch lifecycle events.
func NewSupervisor(resolver *rules.Resolver, mv *mover.Mover, report ReportFunc, logger *slog.Logger, opts Options) *Supervisor {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = DefaultDebounceWindow
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		resolver: resolver,
		mover:    mv,
		report:   report,
		logger:   logger,
		opts:     opts,
	}
}

// Session is the set of running workers between Start and Stop.
type Session struct {
	dirs    []string
	cancel  context.CancelFunc
	done    chan struct{}
	timeout time.Duration
}

// Start validates every directory, then starts one worker per directory.
// Validation happens before any watch is created: one bad path means zero
// workers start. The returned Session runs until Stop or ctx cancellation.
func (s *Supervisor) Start(ctx context.Context, dirs []string, recursive bool) (*Session, error) {
	if len(dirs) == 0 {
		return nil, &ConfigError{Path: "", Err: fmt.Errorf("no directories to track")}
	}

	resolved := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, &ConfigError{Path: dir, Err: err}
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, &ConfigError{Path: abs, Err: err}
		}
		if !info.IsDir() {
			return nil, &ConfigError{Path: abs, Err: fmt.Errorf("not a directory")}
		}
		resolved = append(resolved, abs)
	}

	filter := NewFilter(s.opts.IgnorePatterns)

	workers := make([]*Worker, 0, len(resolved))
	for _, dir := range resolved {
		handler := NewHandler(dir, s.resolver, s.mover, s.report)
		w, err := newWorker(dir, recursive, s.opts.DebounceWindow, filter, handler, s.logger)
		if err != nil {
			for _, started := range workers {
				_ = started.fsw.Close()
			}
			return nil, &ConfigError{Path: dir, Err: err}
		}
		workers = append(workers, w)
	}

	runCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Run(runCtx)
		}(w)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	return &Session{
		dirs:    resolved,
		cancel:  cancel,
		done:    done,
		timeout: s.opts.StopTimeout,
	}, nil
}

// Dirs returns the absolute tracked directories of this session.
func (s *Session) Dirs() []string {
	cp := make([]string, len(s.dirs))
	copy(cp, s.dirs)
	return cp
}

// Wait blocks until every worker has exited.
func (s *Session) Wait() {
	<-s.done
}

// Stop signals every worker to stop and blocks until all have released
// their watch handles, bounded by the stop timeout. It is safe to call from
// any goroutine, including a signal handler path, and safe to call more
// than once.
func (s *Session) Stop() error {
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-time.After(s.timeout):
		return fmt.Errorf("stop timed out after %s; abandoning remaining workers", s.timeout)
	}
}
