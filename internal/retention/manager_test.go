package retention

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pulsewire/ingest/internal/models"
	"github.com/pulsewire/ingest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(n int, newest time.Time) []models.StoredItem {
	items := make([]models.StoredItem, n)
	for i := 0; i < n; i++ {
		// index 0 is the newest, each following item one hour older
		items[i] = models.StoredItem{
			ID:          fmt.Sprintf("item-%d", i),
			Identity:    fmt.Sprintf("https://example.com/%d", i),
			PublishedAt: newest.Add(-time.Duration(i) * time.Hour),
		}
	}
	return items
}

func settings(mode models.RetentionMode) models.Settings {
	return models.Settings{
		MaxArticleLimit:  21,
		MaxAgeHours:      72,
		RetentionMode:    mode,
		PreservePinned:   true,
		PreserveBreaking: true,
	}
}

func TestPlanCountOnly(t *testing.T) {
	now := time.Now()
	m := NewManager(store.NewMemoryStore(), nil)
	items := makeItems(60, now)

	plan := m.Plan(items, settings(models.RetentionCountOnly), now)

	require.Len(t, plan, 39, "60 items with a limit of 21 leaves 39 to delete")

	// Oldest-first among candidates
	for i := 1; i < len(plan); i++ {
		assert.False(t, plan[i].PublishedAt.Before(plan[i-1].PublishedAt))
	}

	// The 21 most recent are retained
	planned := make(map[string]bool, len(plan))
	for _, item := range plan {
		planned[item.ID] = true
	}
	for i := 0; i < 21; i++ {
		assert.False(t, planned[fmt.Sprintf("item-%d", i)], "recent item must be retained")
	}
}

func TestPlanCountOnlyExemptsPinnedAndBreaking(t *testing.T) {
	now := time.Now()
	m := NewManager(store.NewMemoryStore(), nil)

	items := makeItems(10, now)
	items[8].Pinned = true
	items[9].Breaking = true

	s := settings(models.RetentionCountOnly)
	s.MaxArticleLimit = 5

	plan := m.Plan(items, s, now)

	// 5 beyond the cutoff, minus the pinned and the breaking one
	require.Len(t, plan, 3)
	for _, item := range plan {
		assert.False(t, item.Pinned)
		assert.False(t, item.Breaking)
	}
}

func TestPlanExemptionIsAppliedAfterSelection(t *testing.T) {
	now := time.Now()
	m := NewManager(store.NewMemoryStore(), nil)

	// A pinned item inside the retained window still occupies a slot: the
	// count cutoff is computed over all items, exemptions only strip the
	// final delete list.
	items := makeItems(6, now)
	items[0].Pinned = true

	s := settings(models.RetentionCountOnly)
	s.MaxArticleLimit = 4

	plan := m.Plan(items, s, now)
	require.Len(t, plan, 2)
	assert.ElementsMatch(t, []string{"item-4", "item-5"}, []string{plan[0].ID, plan[1].ID})
}

func TestPlanAgeOnly(t *testing.T) {
	now := time.Now()
	m := NewManager(store.NewMemoryStore(), nil)

	items := makeItems(100, now) // hourly items, oldest is 99h old
	s := settings(models.RetentionAgeOnly)

	plan := m.Plan(items, s, now)

	// Items older than 72h: indexes 73..99
	require.Len(t, plan, 27)
	for _, item := range plan {
		assert.True(t, item.PublishedAt.Before(now.Add(-72*time.Hour)))
	}
}

func TestPlanCombinedModeNoDoubleDelete(t *testing.T) {
	now := time.Now()
	m := NewManager(store.NewMemoryStore(), nil)

	items := makeItems(100, now)
	s := settings(models.RetentionCountAndAge) // limit 21, age 72h

	plan := m.Plan(items, s, now)

	// Count overflow: 79 items. Age overflow (73..99) is a subset of it:
	// the union must contain each item exactly once.
	require.Len(t, plan, 79)
	seen := make(map[string]int)
	for _, item := range plan {
		seen[item.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "item %s planned more than once", id)
	}
}

func TestPlanEmptyModeDefaultsToCombined(t *testing.T) {
	now := time.Now()
	m := NewManager(store.NewMemoryStore(), nil)

	items := makeItems(30, now)
	s := settings("")

	plan := m.Plan(items, s, now)
	assert.Len(t, plan, 9)
}

func TestRunDeletesAndPatchesStats(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	mem := store.NewMemoryStore()
	m := NewManager(mem, mem)

	for i := 0; i < 30; i++ {
		_, err := mem.Create(ctx, models.ContentTypeNews, models.StoredItem{
			Identity:    fmt.Sprintf("https://example.com/%d", i),
			PublishedAt: now.Add(-time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	s := settings(models.RetentionCountOnly)
	s.MaxArticleLimit = 10

	deleted, err := m.Run(ctx, models.ContentTypeNews, s)
	require.NoError(t, err)
	assert.Equal(t, 20, deleted)

	remaining, err := mem.Count(ctx, models.ContentTypeNews, store.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)

	patch, err := mem.GetSettings(ctx, models.ContentTypeNews)
	require.NoError(t, err)
	require.NotNil(t, patch.CleanupStats)
	assert.Equal(t, 20, patch.CleanupStats.TotalDeleted)
	assert.Equal(t, 20, patch.CleanupStats.LastDeleted)
	assert.False(t, patch.CleanupStats.LastRunAt.IsZero())
}

func TestApplySkipsFailedDeletes(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	m := NewManager(mem, nil)

	created, err := mem.Create(ctx, models.ContentTypeNews, models.StoredItem{
		Identity: "https://example.com/real",
	})
	require.NoError(t, err)

	plan := []models.StoredItem{
		{ID: "missing-item"},
		created,
	}

	deleted := m.Apply(ctx, models.ContentTypeNews, plan)
	assert.Equal(t, 1, deleted, "a failed delete is skipped, not fatal")
}

func TestSweepRejected(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	mem := store.NewMemoryStore()
	m := NewManager(mem, mem)

	old := models.StoredItem{
		Identity:    "https://example.com/old-rejected",
		Approval:    models.ApprovalRejected,
		CreatedAt:   now.Add(-200 * time.Hour),
		PublishedAt: now.Add(-200 * time.Hour),
	}
	recent := models.StoredItem{
		Identity:    "https://example.com/recent-rejected",
		Approval:    models.ApprovalRejected,
		CreatedAt:   now.Add(-time.Hour),
		PublishedAt: now.Add(-time.Hour),
	}
	approved := models.StoredItem{
		Identity:    "https://example.com/approved",
		Approval:    models.ApprovalApproved,
		CreatedAt:   now.Add(-200 * time.Hour),
		PublishedAt: now.Add(-200 * time.Hour),
	}
	for _, item := range []models.StoredItem{old, recent, approved} {
		_, err := mem.Create(ctx, models.ContentTypeNews, item)
		require.NoError(t, err)
	}

	s := settings(models.RetentionCountAndAge)
	s.RejectedRetentionHours = 168

	deleted := m.SweepRejected(ctx, models.ContentTypeNews, s, now)
	assert.Equal(t, 1, deleted)

	remaining, err := mem.Count(ctx, models.ContentTypeNews, store.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}
