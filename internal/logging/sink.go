package logging

import (
	"log/slog"

	"autosort/internal/watcher"
)

// Journal persists outcomes. Implemented by the store; nil disables
// persistence (foreground tracking without a journal).
type Journal interface {
	RecordOutcome(o watcher.Outcome) error
}

// OutcomeSink consumes per-file outcomes from the sorting engine. Moves are
// logged at info, skips and vanished sources at debug, failures at error.
// The engine itself has no opinion on any of this; it only emits facts.
type OutcomeSink struct {
	logger  *slog.Logger
	journal Journal
}

// NewOutcomeSink builds a sink. journal may be nil.
func NewOutcomeSink(logger *slog.Logger, journal Journal) *OutcomeSink {
	return &OutcomeSink{logger: logger, journal: journal}
}

// Report implements watcher.ReportFunc. Safe for concurrent use.
func (s *OutcomeSink) Report(o watcher.Outcome) {
	switch o.Kind {
	case watcher.OutcomeMoved:
		s.logger.Info("moved",
			slog.String("src", o.Source),
			slog.String("dst", o.Dest),
		)
	case watcher.OutcomeSkipped:
		s.logger.Debug("skipped", slog.String("src", o.Source))
	case watcher.OutcomeVanished:
		s.logger.Debug("source vanished", slog.String("src", o.Source))
	case watcher.OutcomeFailed:
		s.logger.Error("move failed",
			slog.String("src", o.Source),
			slog.String("dst", o.Dest),
			slog.String("kind", string(o.ErrKind)),
			slog.Any("error", o.Err),
		)
	}

	if s.journal != nil {
		if err := s.journal.RecordOutcome(o); err != nil {
			s.logger.Warn("journal write failed", slog.Any("error", err))
		}
	}
}
