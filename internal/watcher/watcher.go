// Package watcher contains the event-driven sorting engine: one worker per
// tracked directory turning filesystem notifications into collision-safe
// moves, and the supervisor that runs workers concurrently while isolating
// per-event failures.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Worker owns the watch on one tracked directory. Events for the directory
// are debounced and then handled one at a time, in delivery order; events
// across different workers have no mutual ordering.
type Worker struct {
	dir       string
	recursive bool
	fsw       *fsnotify.Watcher
	filter    *Filter
	debouncer *Debouncer
	handler   *Handler
	logger    *slog.Logger

	pending chan string
	done    chan struct{}
}

// newWorker creates the OS watch up front so that Start can fail fast
// before any worker goroutine runs.
func newWorker(dir string, recursive bool, window time.Duration, filter *Filter, handler *Handler, logger *slog.Logger) (*Worker, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watch for %s: %w", dir, err)
	}

	w := &Worker{
		dir:       dir,
		recursive: recursive,
		fsw:       fsw,
		filter:    filter,
		handler:   handler,
		logger:    logger.With(slog.String("dir", dir)),
		pending:   make(chan string, 128),
		done:      make(chan struct{}),
	}
	w.debouncer = NewDebouncer(window, w.enqueue)

	if err := w.addPaths(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Worker) addPaths() error {
	if !w.recursive {
		if err := w.fsw.Add(w.dir); err != nil {
			return fmt.Errorf("watch %s: %w", w.dir, err)
		}
		return nil
	}
	return filepath.WalkDir(w.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// enqueue hands a debounced path to the worker loop. It runs on a timer
// goroutine; blocking here is bounded by the worker draining pending, and
// done unblocks any stragglers at shutdown.
func (w *Worker) enqueue(path string) {
	select {
	case w.pending <- path:
	case <-w.done:
	}
}

// Run is the worker loop. It blocks until ctx is cancelled, finishing the
// move in flight before releasing the OS watch handle.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	defer func() { _ = w.fsw.Close() }()

	w.logger.Info("watch started")
	defer w.logger.Info("watch stopped")

	for {
		select {
		case <-ctx.Done():
			w.debouncer.Stop()
			return

		case path := <-w.pending:
			w.handler.Handle(path)

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

// handleEvent filters one raw notification down to a debouncer feed.
// Only create and write operations matter for sorting.
func (w *Worker) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if w.filter.ShouldIgnore(ev.Name) {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			// New subdirectories join the watch in recursive mode and are
			// never sorted themselves.
			if w.recursive {
				if err := w.fsw.Add(ev.Name); err != nil {
					w.logger.Warn("watch subdirectory", slog.String("path", ev.Name), slog.Any("error", err))
				}
			}
			return
		}
	}

	w.debouncer.Feed(ev.Name)
}
