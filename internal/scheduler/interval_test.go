package scheduler

import (
	"testing"
	"time"

	"github.com/pulsewire/ingest/internal/models"
	"github.com/stretchr/testify/assert"
)

var defaultWindow = DaytimeWindow{StartHour: 6, EndHour: 23}

func at(hour int) time.Time {
	return time.Date(2026, 8, 15, hour, 30, 0, 0, time.Local)
}

func TestNextVideoDelayTrending(t *testing.T) {
	// rng pinned to the extremes of [0,1)
	low := NextVideoDelay(true, at(12), defaultWindow, func() float64 { return 0 })
	assert.Equal(t, 5*time.Minute, low)

	high := NextVideoDelay(true, at(12), defaultWindow, func() float64 { return 0.999 })
	assert.GreaterOrEqual(t, high, 5*time.Minute)
	assert.Less(t, high, 10*time.Minute)

	// Trend wins even at night
	night := NextVideoDelay(true, at(3), defaultWindow, func() float64 { return 0.5 })
	assert.Less(t, night, 10*time.Minute)
}

func TestNextVideoDelayDaytime(t *testing.T) {
	assert.Equal(t, 30*time.Minute, NextVideoDelay(false, at(6), defaultWindow, nil))
	assert.Equal(t, 30*time.Minute, NextVideoDelay(false, at(12), defaultWindow, nil))
	assert.Equal(t, 30*time.Minute, NextVideoDelay(false, at(22), defaultWindow, nil))
}

func TestNextVideoDelayNighttime(t *testing.T) {
	assert.Equal(t, 2*time.Hour, NextVideoDelay(false, at(23), defaultWindow, nil))
	assert.Equal(t, 2*time.Hour, NextVideoDelay(false, at(3), defaultWindow, nil))
	assert.Equal(t, 2*time.Hour, NextVideoDelay(false, at(5), defaultWindow, nil))
}

func TestNextNewsDelay(t *testing.T) {
	assert.Equal(t, 45*time.Minute, NextNewsDelay(models.Settings{FetchIntervalMinutes: 45}))
	assert.Equal(t, 30*time.Minute, NextNewsDelay(models.Settings{}), "zero interval falls back to 30 minutes")
	assert.Equal(t, 30*time.Minute, NextNewsDelay(models.Settings{FetchIntervalMinutes: -1}))
}

func TestCleanupDue(t *testing.T) {
	now := time.Now()
	s := models.Settings{CleanupFrequencyMinutes: 60}

	assert.True(t, CleanupDue(time.Time{}, s, now), "first run is always due")
	assert.False(t, CleanupDue(now.Add(-30*time.Minute), s, now))
	assert.True(t, CleanupDue(now.Add(-60*time.Minute), s, now))
	assert.True(t, CleanupDue(now.Add(-2*time.Hour), s, now))

	assert.True(t, CleanupDue(now.Add(-61*time.Minute), models.Settings{}, now),
		"zero frequency falls back to 60 minutes")
}
