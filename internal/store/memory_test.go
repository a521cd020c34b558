package store

import (
	"context"
	"testing"
	"time"

	"github.com/pulsewire/ingest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRejectsDuplicateIdentity(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	first, err := mem.Create(ctx, models.ContentTypeNews, models.StoredItem{
		Identity: "https://example.com/a",
		Title:    "A",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID, "an id is assigned when absent")
	assert.False(t, first.CreatedAt.IsZero())

	_, err = mem.Create(ctx, models.ContentTypeNews, models.StoredItem{
		Identity: "https://example.com/a",
		Title:    "A again",
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	// The same identity under the other content type is a distinct record
	_, err = mem.Create(ctx, models.ContentTypeVideo, models.StoredItem{
		Identity: "https://example.com/a",
	})
	assert.NoError(t, err)
}

func TestListActiveOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	now := time.Now()

	_, err := mem.Create(ctx, models.ContentTypeNews, models.StoredItem{
		Identity: "old", PublishedAt: now.Add(-2 * time.Hour), Approval: models.ApprovalApproved,
	})
	require.NoError(t, err)
	_, err = mem.Create(ctx, models.ContentTypeNews, models.StoredItem{
		Identity: "new", PublishedAt: now, Approval: models.ApprovalPendingReview,
	})
	require.NoError(t, err)

	items, err := mem.ListActive(ctx, models.ContentTypeNews, Filters{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "new", items[0].Identity, "newest first")

	pending, err := mem.ListActive(ctx, models.ContentTypeNews, Filters{Approval: models.ApprovalPendingReview})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "new", pending[0].Identity)

	n, err := mem.Count(ctx, models.ContentTypeNews, Filters{Identity: "old"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	created, err := mem.Create(ctx, models.ContentTypeNews, models.StoredItem{Identity: "x"})
	require.NoError(t, err)

	updated, err := mem.Update(ctx, models.ContentTypeNews, created.ID, map[string]any{
		"approval": models.ApprovalApproved,
		"pinned":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, updated.Approval)
	assert.True(t, updated.Pinned)

	_, err = mem.Update(ctx, models.ContentTypeNews, "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mem.Delete(ctx, models.ContentTypeNews, created.ID))
	assert.ErrorIs(t, mem.Delete(ctx, models.ContentTypeNews, created.ID), ErrNotFound)
}

func TestPatchCleanupStats(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	stats := models.CleanupStats{TotalDeleted: 7, LastDeleted: 7, LastRunAt: time.Now()}
	require.NoError(t, mem.PatchCleanupStats(ctx, models.ContentTypeNews, stats))

	patch, err := mem.GetSettings(ctx, models.ContentTypeNews)
	require.NoError(t, err)
	require.NotNil(t, patch.CleanupStats)
	assert.Equal(t, 7, patch.CleanupStats.TotalDeleted)
}
