package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pulsewire/ingest/internal/approval"
	"github.com/pulsewire/ingest/internal/archive"
	"github.com/pulsewire/ingest/internal/dedup"
	"github.com/pulsewire/ingest/internal/feed"
	"github.com/pulsewire/ingest/internal/logger"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/pulsewire/ingest/internal/moderation"
	"github.com/pulsewire/ingest/internal/resolve"
	"github.com/pulsewire/ingest/internal/retention"
	"github.com/pulsewire/ingest/internal/store"
	"github.com/rs/zerolog"
)

// ErrNoSources aborts a cycle when every resolver tier came back empty
var ErrNoSources = errors.New("scheduler: no usable sources")

// OriginTrending tags candidates fetched because of an active trend
const OriginTrending = "trending"

// CycleResult summarizes one ingestion cycle
type CycleResult struct {
	ContentType   models.ContentType `json:"content_type"`
	Skipped       bool               `json:"skipped,omitempty"`
	SourcesUsed   int                `json:"sources_used"`
	Provenance    resolve.Provenance `json:"source_provenance,omitempty"`
	Fetched       int                `json:"fetched"`
	Blocked       int                `json:"blocked"`
	Duplicates    int                `json:"duplicates"`
	Persisted     int                `json:"persisted"`
	PersistFailed int                `json:"persist_failed"`
	Deleted       int                `json:"deleted"`
	Errors        []string           `json:"errors,omitempty"`
	Err           error              `json:"-"`
	Settings      models.Settings    `json:"-"`
	Duration      time.Duration      `json:"duration_ms"`
}

// ItemFetcher pulls raw items from one source. *feed.Fetcher is the
// production implementation.
type ItemFetcher interface {
	Fetch(ctx context.Context, source models.Source, limit int) ([]feed.RawItem, error)
}

// Deps wires the collaborators one engine needs
type Deps struct {
	ContentType    models.ContentType
	Sources        *resolve.Chain[[]models.Source]
	Settings       SettingsResolver
	Fetcher        ItemFetcher
	Normalizer     *feed.Normalizer
	Classifier     *moderation.Classifier
	Trust          TrustDirectory
	Gate           *dedup.Gate
	Store          store.ContentStore
	Retention      *retention.Manager
	Archiver       *archive.Archiver
	MaxConcurrency int

	// TrendSources optionally injects extra sources for active trends; the
	// video scheduler uses it, the news scheduler leaves it nil.
	TrendSources func(ctx context.Context) []models.Source

	// RetentionDue gates the retention run. Nil means every cycle.
	RetentionDue func(lastRun time.Time, settings models.Settings, now time.Time) bool

	// SweepRejected enables the aged-rejected-item housekeeping pass
	SweepRejected bool
}

// Engine runs one ingestion cycle at a time for a single content type.
// The re-entrancy guard drops triggers that fire while a cycle is live.
type Engine struct {
	deps    Deps
	running atomic.Bool
	stats   *Stats
	log     zerolog.Logger
}

func NewEngine(deps Deps) *Engine {
	if deps.MaxConcurrency <= 0 {
		deps.MaxConcurrency = 5
	}
	return &Engine{
		deps:  deps,
		stats: newStats(),
		log:   logger.With("scheduler").With().Str("content_type", string(deps.ContentType)).Logger(),
	}
}

func (e *Engine) ContentType() models.ContentType { return e.deps.ContentType }

// Busy reports whether a cycle is currently live
func (e *Engine) Busy() bool { return e.running.Load() }

// Stats returns the scheduler-owned observability state
func (e *Engine) Stats() StatsSnapshot { return e.stats.snapshot(e.deps.ContentType) }

// RunCycle executes one full ingestion cycle. It never panics the loop:
// every failure mode either degrades to a fallback or is logged and
// counted, and a failed cycle still lets the caller reschedule.
func (e *Engine) RunCycle(ctx context.Context) CycleResult {
	if !e.running.CompareAndSwap(false, true) {
		e.log.Warn().Msg("Cycle already in progress, dropping trigger")
		e.stats.recordSkip()
		return CycleResult{ContentType: e.deps.ContentType, Skipped: true}
	}
	defer func() {
		e.stats.setState(StateIdle)
		e.running.Store(false)
	}()

	start := time.Now()
	result := CycleResult{ContentType: e.deps.ContentType}
	defer func() {
		result.Duration = time.Since(start)
		e.stats.recordCycle(result)
	}()

	e.stats.setState(StateFetching)

	settings, settingsProv := e.deps.Settings(ctx)
	result.Settings = settings

	sources, sourceProv := e.resolveSources(ctx, settings)
	result.Provenance = sourceProv
	if len(sources) == 0 {
		result.Err = ErrNoSources
		e.log.Error().Msg("No usable sources in any tier, aborting cycle")
		return result
	}
	result.SourcesUsed = len(sources)

	e.log.Info().
		Int("sources", len(sources)).
		Str("source_provenance", string(sourceProv)).
		Str("settings_provenance", string(settingsProv)).
		Msg("Starting ingestion cycle")

	candidates := e.fetchCandidates(ctx, sources, settings, &result)
	result.Fetched = len(candidates)

	e.stats.setState(StateProcessing)
	persisted := e.processCandidates(ctx, candidates, settings, &result)

	e.stats.setState(StateRetaining)
	now := time.Now()
	if e.deps.RetentionDue == nil || e.deps.RetentionDue(e.stats.lastRetentionRun(), settings, now) {
		deleted, err := e.deps.Retention.Run(ctx, e.deps.ContentType, settings)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("retention: %v", err))
			e.log.Warn().Err(err).Msg("Retention run failed")
		} else {
			result.Deleted = deleted
			e.stats.markRetentionRun(now)
		}
		if e.deps.SweepRejected {
			result.Deleted += e.deps.Retention.SweepRejected(ctx, e.deps.ContentType, settings, now)
		}
	}

	e.deps.Archiver.ArchiveCycle(ctx, e.deps.ContentType, persisted)

	e.log.Info().
		Int("fetched", result.Fetched).
		Int("blocked", result.Blocked).
		Int("duplicates", result.Duplicates).
		Int("persisted", result.Persisted).
		Int("persist_failed", result.PersistFailed).
		Int("deleted", result.Deleted).
		Dur("duration", time.Since(start)).
		Msg("Finished ingestion cycle")

	return result
}

// resolveSources walks the fallback chain, keeps usable sources in priority
// order, applies the per-cycle quota, and appends any trend-driven sources
// on top of the quota.
func (e *Engine) resolveSources(ctx context.Context, settings models.Settings) ([]models.Source, resolve.Provenance) {
	resolved, prov := e.deps.Sources.Resolve(ctx)

	var usable []models.Source
	for _, src := range resolved {
		if src.Usable() {
			usable = append(usable, src)
		}
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Priority < usable[j].Priority
	})

	quota := settings.SourceQuotaPerCycle
	if quota <= 0 {
		quota = 2
	}
	if len(usable) > quota {
		usable = usable[:quota]
	}

	if e.deps.TrendSources != nil {
		for _, src := range e.deps.TrendSources(ctx) {
			if src.Usable() {
				usable = append(usable, src)
			}
		}
	}
	return usable, prov
}

func (e *Engine) fetchCandidates(ctx context.Context, sources []models.Source, settings models.Settings, result *CycleResult) []models.CandidateItem {
	var candidates []models.CandidateItem
	for _, src := range sources {
		raws, err := e.deps.Fetcher.Fetch(ctx, src, settings.MaxItemsPerFetch)
		if err != nil {
			// One failed source never fails the cycle
			result.Errors = append(result.Errors, fmt.Sprintf("source %s: %v", src.ID, err))
			e.log.Warn().
				Err(err).
				Str("source", src.ID).
				Msg("Source fetch failed, continuing with remaining sources")
			continue
		}

		origin := e.originFor(src, result.Provenance)
		for _, raw := range raws {
			item, err := e.deps.Normalizer.Normalize(raw, src, origin)
			if err != nil {
				e.log.Debug().
					Err(err).
					Str("source", src.ID).
					Msg("Skipping malformed item")
				continue
			}
			candidates = append(candidates, item)
		}
	}
	return candidates
}

func (e *Engine) originFor(src models.Source, prov resolve.Provenance) string {
	if strings.HasPrefix(src.ID, "trending-") {
		return OriginTrending
	}
	return string(prov)
}

// processCandidates classifies, approves, dedups and persists in parallel.
// Per-item work is independent; identity-level write conflicts resolve via
// the store's duplicate rejection.
func (e *Engine) processCandidates(ctx context.Context, candidates []models.CandidateItem, settings models.Settings, result *CycleResult) []models.StoredItem {
	if len(candidates) == 0 {
		return nil
	}

	rules := e.deps.Classifier.LoadRules(ctx)
	if settings.ModerationEnabled && len(settings.ModerationKeywords) > 0 {
		rules = append(rules, moderation.KeywordRules(settings.ModerationKeywords)...)
	}
	var keywordRules, channelRules []models.BanRule
	for _, rule := range rules {
		if rule.IsChannelRule() {
			channelRules = append(channelRules, rule)
		} else {
			keywordRules = append(keywordRules, rule)
		}
	}

	lookup := e.deps.Trust(ctx)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		persisted []models.StoredItem
	)
	semaphore := make(chan struct{}, e.deps.MaxConcurrency)

	for _, cand := range candidates {
		select {
		case <-ctx.Done():
			result.Errors = append(result.Errors, ctx.Err().Error())
			wg.Wait()
			return persisted
		case semaphore <- struct{}{}:
		}

		cand := cand

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			var note string
			if settings.ModerationEnabled {
				verdict := e.deps.Classifier.Classify(cand, keywordRules)
				if verdict.Allowed {
					verdict = e.deps.Classifier.ClassifyChannel(cand.ChannelID, channelRules)
				}
				if !verdict.Allowed {
					e.log.Info().
						Str("title", cand.Title).
						Str("reason", verdict.Reason).
						Msg("Blocked item")
					mu.Lock()
					result.Blocked++
					mu.Unlock()
					return
				}
				note = "passed moderation"
			}

			state := approval.DecideApproval(ctx, cand.ChannelID, lookup)

			if e.deps.Gate.IsDuplicate(ctx, e.deps.ContentType, cand) {
				mu.Lock()
				result.Duplicates++
				mu.Unlock()
				return
			}

			stored := models.StoredItem{
				ID:             uuid.NewString(),
				ContentType:    e.deps.ContentType,
				Title:          cand.Title,
				Summary:        cand.Summary,
				Identity:       cand.Identity,
				URL:            cand.URL,
				Image:          cand.Image,
				ChannelID:      cand.ChannelID,
				Origin:         cand.Origin,
				Approval:       state,
				ModerationNote: note,
				Breaking:       cand.Origin == OriginTrending,
				PublishedAt:    cand.PublishedAt,
				CreatedAt:      time.Now(),
			}

			created, err := e.deps.Store.Create(ctx, e.deps.ContentType, stored)
			if errors.Is(err, store.ErrDuplicate) {
				mu.Lock()
				result.Duplicates++
				mu.Unlock()
				return
			}
			if err != nil {
				e.log.Warn().
					Err(err).
					Str("identity", cand.Identity).
					Msg("Failed to persist item, continuing")
				mu.Lock()
				result.PersistFailed++
				result.Errors = append(result.Errors, fmt.Sprintf("persist %s: %v", cand.Identity, err))
				mu.Unlock()
				return
			}

			e.deps.Gate.MarkSeen(ctx, e.deps.ContentType, cand)

			mu.Lock()
			result.Persisted++
			persisted = append(persisted, created)
			mu.Unlock()
		}()
	}

	wg.Wait()
	return persisted
}
