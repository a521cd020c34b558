package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pulsewire/ingest/internal/cache"
	"github.com/pulsewire/ingest/internal/dedup"
	"github.com/pulsewire/ingest/internal/feed"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/pulsewire/ingest/internal/moderation"
	"github.com/pulsewire/ingest/internal/resolve"
	"github.com/pulsewire/ingest/internal/retention"
	"github.com/pulsewire/ingest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu      sync.Mutex
	items   map[string][]feed.RawItem // by source id
	fetched []string
	block   chan struct{} // when set, Fetch waits until closed
}

func (f *fakeFetcher) Fetch(ctx context.Context, source models.Source, limit int) ([]feed.RawItem, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.fetched = append(f.fetched, source.ID)
	f.mu.Unlock()

	items, ok := f.items[source.ID]
	if !ok {
		return nil, errors.New("source down")
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

type failingAdmin struct{}

func (failingAdmin) GetSettings(context.Context, models.ContentType) (models.SettingsPatch, error) {
	return models.SettingsPatch{}, errors.New("settings store unreachable")
}
func (failingAdmin) ListSources(context.Context, models.ContentType) ([]models.Source, error) {
	return nil, errors.New("source store unreachable")
}
func (failingAdmin) ListTrustRecords(context.Context, models.ContentType) ([]models.TrustRecord, error) {
	return nil, errors.New("trust store unreachable")
}
func (failingAdmin) ListBanRules(context.Context, models.ContentType) ([]models.BanRule, error) {
	return nil, errors.New("rule store unreachable")
}

func newTestEngine(mem *store.MemoryStore, fetcher ItemFetcher) *Engine {
	return NewEngine(Deps{
		ContentType:    models.ContentTypeNews,
		Sources:        NewSourceChain(models.ContentTypeNews, mem),
		Settings:       NewSettingsResolver(models.ContentTypeNews, mem),
		Fetcher:        fetcher,
		Normalizer:     feed.NewNormalizer(),
		Classifier:     moderation.NewClassifier(NewRuleFetcher(models.ContentTypeNews, mem)),
		Trust:          NewTrustDirectory(models.ContentTypeNews, mem),
		Gate:           dedup.NewGate(cache.NewMemoryCache(), mem, time.Hour),
		Store:          mem,
		Retention:      retention.NewManager(mem, mem),
		MaxConcurrency: 4,
	})
}

func TestRunCycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	now := time.Now()

	mem.SetSources(models.ContentTypeNews, []models.Source{{
		ID:       "src-1",
		Name:     "Test Feed",
		Endpoint: "https://news.example.com/feed.xml",
		Kind:     models.SourceKindFeed,
		Active:   true,
		Priority: 1,
	}})
	mem.SetTrustRecords(models.ContentTypeNews, []models.TrustRecord{{
		ChannelID:          "trusted-desk",
		VerificationStatus: "Verified",
		AutoApprove:        true,
	}})

	// One item already stored: the fetch below re-delivers it
	_, err := mem.Create(ctx, models.ContentTypeNews, models.StoredItem{
		Identity:    "https://news.example.com/old",
		Title:       "Old",
		PublishedAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)

	fetcher := &fakeFetcher{items: map[string][]feed.RawItem{
		"src-1": {
			{Title: "Trusted story", Link: "https://news.example.com/a", ChannelID: "trusted-desk", Published: now},
			{Title: "Unknown author story", Link: "https://news.example.com/b", ChannelID: "someone", Published: now},
			{Title: "A limited time scam offer", Link: "https://news.example.com/c", Published: now},
			{Title: "Old", Link: "https://news.example.com/old", Published: now.Add(-time.Hour)},
		},
	}}

	engine := newTestEngine(mem, fetcher)
	result := engine.RunCycle(ctx)

	require.NoError(t, result.Err)
	assert.False(t, result.Skipped)
	assert.Equal(t, resolve.Provenance("admin-sources"), result.Provenance)
	assert.Equal(t, 4, result.Fetched)
	assert.Equal(t, 1, result.Blocked, "the scam item is moderated out by the built-in rules")
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 2, result.Persisted)
	assert.Equal(t, 0, result.PersistFailed)

	items, err := mem.ListActive(ctx, models.ContentTypeNews, store.Filters{})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	byIdentity := make(map[string]models.StoredItem)
	for _, item := range items {
		byIdentity[item.Identity] = item
	}
	assert.Equal(t, models.ApprovalApproved, byIdentity["https://news.example.com/a"].Approval)
	assert.Equal(t, models.ApprovalPendingReview, byIdentity["https://news.example.com/b"].Approval)

	stats := engine.Stats()
	assert.Equal(t, 1, stats.Cycles)
	assert.False(t, stats.LastSuccess.IsZero())
}

func TestRunCycleSourceQuota(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()

	mem.SetSources(models.ContentTypeNews, []models.Source{
		{ID: "src-3", Endpoint: "https://c.example.com/f", Kind: models.SourceKindFeed, Active: true, Priority: 3},
		{ID: "src-1", Endpoint: "https://a.example.com/f", Kind: models.SourceKindFeed, Active: true, Priority: 1},
		{ID: "src-2", Endpoint: "https://b.example.com/f", Kind: models.SourceKindFeed, Active: true, Priority: 2},
		{ID: "inactive", Endpoint: "https://d.example.com/f", Kind: models.SourceKindFeed, Active: false, Priority: 0},
	})

	fetcher := &fakeFetcher{items: map[string][]feed.RawItem{
		"src-1": {}, "src-2": {}, "src-3": {},
	}}

	engine := newTestEngine(mem, fetcher)
	result := engine.RunCycle(ctx)

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"src-1", "src-2"}, fetcher.fetched,
		"two highest-priority active sources per cycle")
}

func TestRunCycleNoSources(t *testing.T) {
	mem := store.NewMemoryStore()
	engine := newTestEngine(mem, &fakeFetcher{})
	// Empty every tier, including the built-in fallback
	engine.deps.Sources = resolve.NewChain[[]models.Source]("empty", nil, resolve.EmptySlice[models.Source])

	result := engine.RunCycle(context.Background())
	assert.ErrorIs(t, result.Err, ErrNoSources)

	// The loop still gets a result to reschedule from
	stats := engine.Stats()
	assert.Equal(t, 1, stats.Cycles)
	assert.NotEmpty(t, stats.RecentErrors)
}

func TestRunCycleSourceFailureContinues(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	now := time.Now()

	mem.SetSources(models.ContentTypeNews, []models.Source{
		{ID: "down", Endpoint: "https://down.example.com/f", Kind: models.SourceKindFeed, Active: true, Priority: 1},
		{ID: "up", Endpoint: "https://up.example.com/f", Kind: models.SourceKindFeed, Active: true, Priority: 2},
	})

	fetcher := &fakeFetcher{items: map[string][]feed.RawItem{
		"up": {{Title: "Still ingested", Link: "https://up.example.com/1", Published: now}},
	}}

	engine := newTestEngine(mem, fetcher)
	result := engine.RunCycle(ctx)

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Persisted)
	assert.NotEmpty(t, result.Errors, "the failed source is reported, not fatal")
}

func TestRunCycleReentrancyGuard(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.SetSources(models.ContentTypeNews, []models.Source{{
		ID: "src-1", Endpoint: "https://a.example.com/f", Kind: models.SourceKindFeed, Active: true,
	}})

	block := make(chan struct{})
	fetcher := &fakeFetcher{
		items: map[string][]feed.RawItem{"src-1": {}},
		block: block,
	}
	engine := newTestEngine(mem, fetcher)

	done := make(chan CycleResult, 1)
	go func() {
		done <- engine.RunCycle(context.Background())
	}()

	// Wait for the first cycle to be live
	require.Eventually(t, engine.Busy, time.Second, time.Millisecond)

	second := engine.RunCycle(context.Background())
	assert.True(t, second.Skipped, "a trigger during a live cycle is dropped")

	close(block)
	first := <-done
	assert.False(t, first.Skipped)
	assert.Equal(t, 1, engine.Stats().SkippedCycles)
}

func TestSettingsResolverFallsBackToDefaults(t *testing.T) {
	// Settings store unreachable: the built-in defaults apply
	resolver := NewSettingsResolver(models.ContentTypeNews, failingAdmin{})

	settings, prov := resolver(context.Background())
	assert.Equal(t, resolve.ProvenanceDefault, prov)
	assert.Equal(t, 30, settings.FetchIntervalMinutes)
	assert.Equal(t, models.RetentionCountAndAge, settings.RetentionMode)
	assert.True(t, settings.ModerationEnabled)
}

func TestSettingsResolverMergesRemoteFields(t *testing.T) {
	mem := store.NewMemoryStore()
	interval := 15
	mem.SetSettings(models.ContentTypeNews, models.SettingsPatch{
		FetchIntervalMinutes: &interval,
	})

	resolver := NewSettingsResolver(models.ContentTypeNews, mem)
	settings, prov := resolver(context.Background())

	assert.Equal(t, resolve.Provenance("remote-settings"), prov)
	assert.Equal(t, 15, settings.FetchIntervalMinutes, "remote wins per field")
	assert.Equal(t, 100, settings.MaxArticleLimit, "absent fields keep defaults")
}

func TestSourceChainDerivesFromTrustedChannels(t *testing.T) {
	mem := store.NewMemoryStore()
	// No admin sources, but verified trust records exist
	mem.SetTrustRecords(models.ContentTypeVideo, []models.TrustRecord{
		{ChannelID: "chan-a", VerificationStatus: "verified"},
		{ChannelID: "chan-b", VerificationStatus: "pending"},
	})

	chain := NewSourceChain(models.ContentTypeVideo, mem)
	sources, prov := chain.Resolve(context.Background())

	assert.Equal(t, resolve.Provenance("trusted-channel-derived"), prov)
	require.Len(t, sources, 1)
	assert.Equal(t, models.SourceKindSearch, sources[0].Kind)
	assert.Contains(t, sources[0].Query, "chan-a")
}

func TestSourceChainEmergencyFallback(t *testing.T) {
	chain := NewSourceChain(models.ContentTypeNews, failingAdmin{})
	// builtin-sources still resolves from the embedded list, so the chain
	// never reaches the emergency constants here
	sources, prov := chain.Resolve(context.Background())
	assert.Equal(t, resolve.Provenance("builtin-sources"), prov)
	assert.NotEmpty(t, sources)
}
