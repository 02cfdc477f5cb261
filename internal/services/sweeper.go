package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type overdueCompleter interface {
	CompleteOverdue(ctx context.Context) (int, error)
}

// SessionSweeper completes ended sessions even when no client is watching the countdown.
type SessionSweeper struct {
	sessions overdueCompleter
	interval time.Duration
	logger   zerolog.Logger
}

func NewSessionSweeper(sessions overdueCompleter, interval time.Duration, logger zerolog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SessionSweeper{sessions: sessions, interval: interval, logger: logger}
}

func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	completed, err := s.sessions.CompleteOverdue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("session sweep failed")
		}
		return
	}
	if completed > 0 {
		s.logger.Info().Int("completed", completed).Msg("completed overdue sessions")
	}
}
