package watcher

import (
	"time"

	"autosort/internal/mover"
)

// OutcomeKind says what happened to one detected file.
type OutcomeKind string

const (
	// OutcomeMoved: the file was relocated to Dest.
	OutcomeMoved OutcomeKind = "moved"
	// OutcomeSkipped: no rule matched and no fallback is configured.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeVanished: the file disappeared between detection and move.
	// Expected during rapid-fire notifications, never an error.
	OutcomeVanished OutcomeKind = "vanished"
	// OutcomeFailed: the move was attempted and failed.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is the per-file fact reported upward to the logging and journal
// sinks. The core has no opinion on how it is formatted or persisted.
type Outcome struct {
	Kind      OutcomeKind
	Dir       string // tracked directory that produced the event
	Source    string
	Dest      string     // final path, set when Kind == OutcomeMoved
	ErrKind   mover.Kind // set when Kind == OutcomeFailed
	Err       error      // set when Kind == OutcomeFailed
	Timestamp time.Time
}

// ReportFunc receives outcomes. It must be safe for concurrent use; workers
// for different directories call it concurrently.
type ReportFunc func(Outcome)
