// Package retention enforces per-content-type storage limits with
// count-based, age-based or combined policies.
package retention

import (
	"context"
	"sort"
	"time"

	"github.com/pulsewire/ingest/internal/logger"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/pulsewire/ingest/internal/store"
	"github.com/rs/zerolog"
)

// Manager plans and applies deletions against the content store and writes
// cumulative cleanup statistics back through the stats patcher.
type Manager struct {
	store   store.ContentStore
	patcher store.StatsPatcher
	log     zerolog.Logger
}

func NewManager(contentStore store.ContentStore, patcher store.StatsPatcher) *Manager {
	return &Manager{
		store:   contentStore,
		patcher: patcher,
		log:     logger.With("retention"),
	}
}

// Plan selects the items to delete under the settings' retention mode.
// Candidate selection runs first; pinned/breaking exemptions are stripped
// afterwards, so an exempt item still occupies its slot in the count window.
// The returned plan is oldest-first and contains each item at most once.
func (m *Manager) Plan(items []models.StoredItem, settings models.Settings, now time.Time) []models.StoredItem {
	if len(items) == 0 {
		return nil
	}

	// Newest first for the count cutoff
	sorted := make([]models.StoredItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})

	candidates := make(map[string]models.StoredItem)

	mode := settings.RetentionMode
	if mode == "" {
		mode = models.RetentionCountAndAge
	}

	if mode == models.RetentionCountOnly || mode == models.RetentionCountAndAge {
		if settings.MaxArticleLimit > 0 && len(sorted) > settings.MaxArticleLimit {
			for _, item := range sorted[settings.MaxArticleLimit:] {
				candidates[item.ID] = item
			}
		}
	}

	if mode == models.RetentionAgeOnly || mode == models.RetentionCountAndAge {
		if settings.MaxAgeHours > 0 {
			cutoff := now.Add(-time.Duration(settings.MaxAgeHours) * time.Hour)
			for _, item := range sorted {
				if item.PublishedAt.Before(cutoff) {
					candidates[item.ID] = item
				}
			}
		}
	}

	plan := make([]models.StoredItem, 0, len(candidates))
	for _, item := range candidates {
		if settings.PreservePinned && item.Pinned {
			continue
		}
		if settings.PreserveBreaking && item.Breaking {
			continue
		}
		plan = append(plan, item)
	}

	sort.Slice(plan, func(i, j int) bool {
		return plan[i].PublishedAt.Before(plan[j].PublishedAt)
	})
	return plan
}

// Apply deletes the planned items. Individual failures are logged and
// skipped; the batch never aborts.
func (m *Manager) Apply(ctx context.Context, ct models.ContentType, plan []models.StoredItem) int {
	deleted := 0
	for _, item := range plan {
		if err := m.store.Delete(ctx, ct, item.ID); err != nil {
			m.log.Warn().
				Err(err).
				Str("id", item.ID).
				Str("identity", item.Identity).
				Msg("Failed to delete item, continuing")
			continue
		}
		deleted++
	}
	return deleted
}

// Run lists the corpus, plans, applies and persists cumulative statistics.
// The stats write is best-effort; its failure never rolls anything back.
func (m *Manager) Run(ctx context.Context, ct models.ContentType, settings models.Settings) (int, error) {
	items, err := m.store.ListActive(ctx, ct, store.Filters{})
	if err != nil {
		return 0, err
	}

	plan := m.Plan(items, settings, time.Now())
	if len(plan) == 0 {
		m.log.Debug().
			Str("content_type", string(ct)).
			Int("corpus", len(items)).
			Msg("Nothing to clean up")
		return 0, nil
	}

	deleted := m.Apply(ctx, ct, plan)

	m.log.Info().
		Str("content_type", string(ct)).
		Int("corpus", len(items)).
		Int("planned", len(plan)).
		Int("deleted", deleted).
		Msg("Retention run finished")

	if m.patcher != nil {
		stats := models.CleanupStats{
			TotalDeleted: settings.CleanupStats.TotalDeleted + deleted,
			LastDeleted:  deleted,
			LastRunAt:    time.Now(),
		}
		if err := m.patcher.PatchCleanupStats(ctx, ct, stats); err != nil {
			m.log.Warn().
				Err(err).
				Str("content_type", string(ct)).
				Msg("Failed to persist cleanup stats")
		}
	}

	return deleted, nil
}

// SweepRejected hard-deletes rejected items older than the configured
// threshold. Separate housekeeping pass, independent of the retention mode.
func (m *Manager) SweepRejected(ctx context.Context, ct models.ContentType, settings models.Settings, now time.Time) int {
	hours := settings.RejectedRetentionHours
	if hours <= 0 {
		hours = 168
	}
	cutoff := now.Add(-time.Duration(hours) * time.Hour)

	items, err := m.store.ListActive(ctx, ct, store.Filters{Approval: models.ApprovalRejected})
	if err != nil {
		m.log.Warn().
			Err(err).
			Str("content_type", string(ct)).
			Msg("Failed to list rejected items for sweep")
		return 0
	}

	deleted := 0
	for _, item := range items {
		if item.CreatedAt.After(cutoff) {
			continue
		}
		if err := m.store.Delete(ctx, ct, item.ID); err != nil {
			m.log.Warn().
				Err(err).
				Str("id", item.ID).
				Msg("Failed to delete rejected item, continuing")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		m.log.Info().
			Str("content_type", string(ct)).
			Int("deleted", deleted).
			Msg("Swept aged rejected items")
	}
	return deleted
}
