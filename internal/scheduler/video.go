package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/pulsewire/ingest/internal/logger"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/pulsewire/ingest/internal/trending"
	"github.com/rs/zerolog"
)

// VideoScheduler runs the video pipeline with an adaptive interval: fast
// random polling while a trend is active, the daytime rate inside the
// configured window, and a slow nighttime rate otherwise.
type VideoScheduler struct {
	engine   *Engine
	trending trending.Signal
	window   DaytimeWindow
	rng      func() float64
	log      zerolog.Logger
}

func NewVideoScheduler(engine *Engine, signal trending.Signal, window DaytimeWindow) *VideoScheduler {
	if signal == nil {
		signal = trending.None{}
	}
	engine.deps.TrendSources = trendSourceProvider(signal)
	return &VideoScheduler{
		engine:   engine,
		trending: signal,
		window:   window,
		rng:      rand.Float64,
		log:      logger.With("video-scheduler"),
	}
}

func (s *VideoScheduler) Engine() *Engine { return s.engine }

// Run loops cycles until the context is cancelled
func (s *VideoScheduler) Run(ctx context.Context) {
	s.log.Info().Msg("Video scheduler started")
	for {
		s.engine.RunCycle(ctx)

		hasTrend := s.trending.HasActiveTrend(ctx)
		delay := NextVideoDelay(hasTrend, time.Now(), s.window, s.rng)

		s.log.Info().
			Bool("trending", hasTrend).
			Dur("next_cycle_in", delay).
			Msg("Scheduled next video cycle")

		select {
		case <-ctx.Done():
			s.log.Info().Msg("Video scheduler stopped")
			return
		case <-time.After(delay):
		}
	}
}

// trendSourceProvider turns active trends into extra keyword-search
// sources, tagged so their items carry the trending origin and the
// breaking flag.
func trendSourceProvider(signal trending.Signal) func(ctx context.Context) []models.Source {
	return func(ctx context.Context) []models.Source {
		trends, err := signal.ActiveTrends(ctx)
		if err != nil || len(trends) == 0 {
			return nil
		}
		sources := make([]models.Source, 0, len(trends))
		for i, trend := range trends {
			if trend.Keyword == "" {
				continue
			}
			sources = append(sources, models.Source{
				ID:       "trending-" + trend.Keyword,
				Name:     "Trend: " + trend.Keyword,
				Query:    trend.Keyword,
				Kind:     models.SourceKindSearch,
				Active:   true,
				Priority: i + 1,
			})
		}
		return sources
	}
}
