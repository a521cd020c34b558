package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulsewire/ingest/internal/cache"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/pulsewire/ingest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	store.ContentStore
}

func (failingStore) Count(ctx context.Context, ct models.ContentType, f store.Filters) (int, error) {
	return 0, errors.New("store unreachable")
}

func TestIsDuplicateAgainstStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	gate := NewGate(cache.NewMemoryCache(), mem, time.Hour)

	_, err := mem.Create(ctx, models.ContentTypeNews, models.StoredItem{
		Identity:    "https://example.com/a",
		Title:       "A",
		PublishedAt: time.Now(),
	})
	require.NoError(t, err)

	existing := models.CandidateItem{Identity: "https://example.com/a"}
	fresh := models.CandidateItem{Identity: "https://example.com/b"}

	assert.True(t, gate.IsDuplicate(ctx, models.ContentTypeNews, existing))
	assert.False(t, gate.IsDuplicate(ctx, models.ContentTypeNews, fresh))
}

func TestIsDuplicateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	gate := NewGate(cache.NewMemoryCache(), mem, time.Hour)

	candidate := models.CandidateItem{Identity: "https://example.com/x"}

	first := gate.IsDuplicate(ctx, models.ContentTypeNews, candidate)
	second := gate.IsDuplicate(ctx, models.ContentTypeNews, candidate)
	assert.Equal(t, first, second)

	_, err := mem.Create(ctx, models.ContentTypeNews, models.StoredItem{Identity: "https://example.com/x"})
	require.NoError(t, err)

	first = gate.IsDuplicate(ctx, models.ContentTypeNews, candidate)
	second = gate.IsDuplicate(ctx, models.ContentTypeNews, candidate)
	assert.True(t, first)
	assert.Equal(t, first, second)
}

func TestSeenCacheFastPath(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(cache.NewMemoryCache(), store.NewMemoryStore(), time.Hour)

	candidate := models.CandidateItem{Identity: "video-123"}
	assert.False(t, gate.IsDuplicate(ctx, models.ContentTypeVideo, candidate))

	gate.MarkSeen(ctx, models.ContentTypeVideo, candidate)
	assert.True(t, gate.IsDuplicate(ctx, models.ContentTypeVideo, candidate))
}

func TestLookupFailureDegradesToNotDuplicate(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(nil, failingStore{}, time.Hour)

	candidate := models.CandidateItem{Identity: "https://example.com/a"}
	assert.False(t, gate.IsDuplicate(ctx, models.ContentTypeNews, candidate),
		"an unreachable store must not halt ingestion")
}

func TestEmptyIdentityIsNeverDuplicate(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(cache.NewMemoryCache(), store.NewMemoryStore(), time.Hour)

	assert.False(t, gate.IsDuplicate(ctx, models.ContentTypeNews, models.CandidateItem{}))
}
