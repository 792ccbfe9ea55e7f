package watcher

import (
	"fmt"
	"os"
	"time"

	"autosort/internal/mover"
	"autosort/internal/rules"
)

// Handler bridges debounced notifications for one tracked directory into
// resolve-and-move actions. Every failure is converted into a reported
// Outcome at this boundary; nothing escapes to kill the worker.
type Handler struct {
	dir      string
	resolver *rules.Resolver
	mover    *mover.Mover
	report   ReportFunc
}

// NewHandler wires a handler for one tracked directory. The resolver and
// mover are shared across workers; both are safe for concurrent use.
func NewHandler(dir string, resolver *rules.Resolver, mv *mover.Mover, report ReportFunc) *Handler {
	return &Handler{dir: dir, resolver: resolver, mover: mv, report: report}
}

// Handle processes one debounced file path: re-checks it still exists and is
// a regular file, resolves a destination, and executes the move. A source
// that vanished between notification and handling is expected (either the
// writer removed it or an earlier notification already moved it) and is
// reported as OutcomeVanished rather than an error.
func (h *Handler) Handle(path string) {
	defer func() {
		if r := recover(); r != nil {
			h.emit(Outcome{
				Kind:    OutcomeFailed,
				Source:  path,
				ErrKind: mover.KindUnexpectedIO,
				Err:     fmt.Errorf("panic while handling %s: %v", path, r),
			})
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			h.emit(Outcome{Kind: OutcomeVanished, Source: path})
			return
		}
		h.emit(Outcome{Kind: OutcomeFailed, Source: path,
			ErrKind: mover.KindUnexpectedIO, Err: err})
		return
	}
	if info.IsDir() {
		return
	}

	dest, ok := h.resolver.Resolve(path)
	if !ok {
		h.emit(Outcome{Kind: OutcomeSkipped, Source: path})
		return
	}

	moved, err := h.mover.Move(path, dest)
	if err != nil {
		if mover.KindOf(err) == mover.KindSourceVanished {
			h.emit(Outcome{Kind: OutcomeVanished, Source: path})
			return
		}
		h.emit(Outcome{Kind: OutcomeFailed, Source: path, Dest: dest,
			ErrKind: mover.KindOf(err), Err: err})
		return
	}

	h.emit(Outcome{Kind: OutcomeMoved, Source: path, Dest: moved})
}

func (h *Handler) emit(o Outcome) {
	o.Dir = h.dir
	o.Timestamp = time.Now()
	if h.report != nil {
		h.report(o)
	}
}
