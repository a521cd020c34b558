package scheduler

import (
	"sync"
	"time"

	"github.com/pulsewire/ingest/internal/models"
)

// State names the scheduler's position in its cycle
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateProcessing State = "processing"
	StateRetaining  State = "retaining"
)

const maxRecentErrors = 20

// Stats is the scheduler-owned observability state: cycle counters, last
// success timestamp and a bounded ring of recent errors. Reset only on
// process restart.
type Stats struct {
	mu            sync.Mutex
	state         State
	cycles        int
	skipped       int
	lastSuccess   time.Time
	lastResult    CycleResult
	recentErrors  []string
	lastRetention time.Time
}

func newStats() *Stats {
	return &Stats{state: StateIdle}
}

func (s *Stats) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Stats) recordSkip() {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
}

func (s *Stats) recordCycle(res CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
	s.lastResult = res
	if res.Err == nil {
		s.lastSuccess = time.Now()
	}
	for _, msg := range res.Errors {
		s.recentErrors = append(s.recentErrors, msg)
	}
	if res.Err != nil {
		s.recentErrors = append(s.recentErrors, res.Err.Error())
	}
	if len(s.recentErrors) > maxRecentErrors {
		s.recentErrors = s.recentErrors[len(s.recentErrors)-maxRecentErrors:]
	}
}

func (s *Stats) lastRetentionRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRetention
}

func (s *Stats) markRetentionRun(t time.Time) {
	s.mu.Lock()
	s.lastRetention = t
	s.mu.Unlock()
}

// StatsSnapshot is the read-only view served by the status API
type StatsSnapshot struct {
	ContentType   models.ContentType `json:"content_type"`
	State         State              `json:"state"`
	Cycles        int                `json:"cycles"`
	SkippedCycles int                `json:"skipped_cycles"`
	LastSuccess   time.Time          `json:"last_success"`
	LastResult    CycleResult        `json:"last_result"`
	RecentErrors  []string           `json:"recent_errors"`
	LastRetention time.Time          `json:"last_retention"`
}

func (s *Stats) snapshot(ct models.ContentType) StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make([]string, len(s.recentErrors))
	copy(errs, s.recentErrors)
	return StatsSnapshot{
		ContentType:   ct,
		State:         s.state,
		Cycles:        s.cycles,
		SkippedCycles: s.skipped,
		LastSuccess:   s.lastSuccess,
		LastResult:    s.lastResult,
		RecentErrors:  errs,
		LastRetention: s.lastRetention,
	}
}
