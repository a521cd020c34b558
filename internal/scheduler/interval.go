package scheduler

import (
	"time"

	"github.com/pulsewire/ingest/internal/models"
)

const (
	// Trending polls run at a random point in [5,10) minutes
	trendMinDelay = 5 * time.Minute
	trendSpread   = 5 * time.Minute

	daytimeDelay   = 30 * time.Minute
	nighttimeDelay = 2 * time.Hour
)

// DaytimeWindow is the local-time window during which the video scheduler
// polls at its daytime rate. Contains is inclusive of StartHour, exclusive
// of EndHour.
type DaytimeWindow struct {
	StartHour int
	EndHour   int
}

func (w DaytimeWindow) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= w.StartHour && h < w.EndHour
}

// NextVideoDelay computes the video scheduler's adaptive delay. rng returns
// a value in [0,1); it is injected so the policy tests without real timers.
func NextVideoDelay(hasTrend bool, now time.Time, window DaytimeWindow, rng func() float64) time.Duration {
	if hasTrend {
		return trendMinDelay + time.Duration(rng()*float64(trendSpread))
	}
	if window.Contains(now) {
		return daytimeDelay
	}
	return nighttimeDelay
}

// NextNewsDelay is the news scheduler's fixed interval, drawn from settings
func NextNewsDelay(settings models.Settings) time.Duration {
	minutes := settings.FetchIntervalMinutes
	if minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

// CleanupDue gates the news scheduler's lower-frequency retention sweep on
// elapsed time since the last run rather than running it every cycle.
func CleanupDue(lastRun time.Time, settings models.Settings, now time.Time) bool {
	minutes := settings.CleanupFrequencyMinutes
	if minutes <= 0 {
		minutes = 60
	}
	if lastRun.IsZero() {
		return true
	}
	return now.Sub(lastRun) >= time.Duration(minutes)*time.Minute
}
