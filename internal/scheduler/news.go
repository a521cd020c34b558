package scheduler

import (
	"context"
	"time"

	"github.com/pulsewire/ingest/internal/logger"
	"github.com/rs/zerolog"
)

// NewsScheduler runs the news pipeline on a fixed interval drawn from
// settings, with an independent lower-frequency retention sweep gated by
// CleanupFrequencyMinutes.
type NewsScheduler struct {
	engine *Engine
	log    zerolog.Logger
}

func NewNewsScheduler(engine *Engine) *NewsScheduler {
	engine.deps.RetentionDue = CleanupDue
	engine.deps.SweepRejected = true
	return &NewsScheduler{
		engine: engine,
		log:    logger.With("news-scheduler"),
	}
}

func (s *NewsScheduler) Engine() *Engine { return s.engine }

// Run loops cycles until the context is cancelled. A failed cycle only
// changes the logged outcome; the next cycle is always scheduled.
func (s *NewsScheduler) Run(ctx context.Context) {
	s.log.Info().Msg("News scheduler started")
	for {
		result := s.engine.RunCycle(ctx)
		delay := NextNewsDelay(result.Settings)

		s.log.Info().
			Dur("next_cycle_in", delay).
			Msg("Scheduled next news cycle")

		select {
		case <-ctx.Done():
			s.log.Info().Msg("News scheduler stopped")
			return
		case <-time.After(delay):
		}
	}
}
