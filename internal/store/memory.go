package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pulsewire/ingest/internal/models"
)

// MemoryStore is an in-process ContentStore. It backs tests and lets the
// pipeline run degraded when no CMS is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[models.ContentType]map[string]models.StoredItem // by id
	settings map[models.ContentType]models.SettingsPatch
	sources  map[models.ContentType][]models.Source
	trust    map[models.ContentType][]models.TrustRecord
	rules    map[models.ContentType][]models.BanRule
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    make(map[models.ContentType]map[string]models.StoredItem),
		settings: make(map[models.ContentType]models.SettingsPatch),
		sources:  make(map[models.ContentType][]models.Source),
		trust:    make(map[models.ContentType][]models.TrustRecord),
		rules:    make(map[models.ContentType][]models.BanRule),
	}
}

func matches(item models.StoredItem, f Filters) bool {
	if f.Identity != "" && item.Identity != f.Identity {
		return false
	}
	if f.Approval != "" && item.Approval != f.Approval {
		return false
	}
	return true
}

func (m *MemoryStore) ListActive(ctx context.Context, ct models.ContentType, f Filters) ([]models.StoredItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.StoredItem
	for _, item := range m.items[ct] {
		if matches(item, f) {
			out = append(out, item)
		}
	}

	// Newest first, matching the CMS listing order
	sort.Slice(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out, nil
}

func (m *MemoryStore) Create(ctx context.Context, ct models.ContentType, item models.StoredItem) (models.StoredItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := m.items[ct]
	if byID == nil {
		byID = make(map[string]models.StoredItem)
		m.items[ct] = byID
	}

	for _, existing := range byID {
		if existing.Identity == item.Identity {
			return models.StoredItem{}, ErrDuplicate
		}
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.ContentType = ct
	byID[item.ID] = item
	return item, nil
}

func (m *MemoryStore) Update(ctx context.Context, ct models.ContentType, id string, patch map[string]any) (models.StoredItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[ct][id]
	if !ok {
		return models.StoredItem{}, ErrNotFound
	}

	for key, val := range patch {
		switch key {
		case "approval":
			if s, ok := val.(models.ApprovalState); ok {
				item.Approval = s
			} else if s, ok := val.(string); ok {
				item.Approval = models.ApprovalState(s)
			}
		case "pinned":
			if b, ok := val.(bool); ok {
				item.Pinned = b
			}
		case "breaking":
			if b, ok := val.(bool); ok {
				item.Breaking = b
			}
		case "moderation_note":
			if s, ok := val.(string); ok {
				item.ModerationNote = s
			}
		}
	}

	m.items[ct][id] = item
	return item, nil
}

func (m *MemoryStore) Delete(ctx context.Context, ct models.ContentType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[ct][id]; !ok {
		return ErrNotFound
	}
	delete(m.items[ct], id)
	return nil
}

func (m *MemoryStore) Count(ctx context.Context, ct models.ContentType, f Filters) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, item := range m.items[ct] {
		if matches(item, f) {
			n++
		}
	}
	return n, nil
}

// Admin-owned records, settable for tests

func (m *MemoryStore) GetSettings(ctx context.Context, ct models.ContentType) (models.SettingsPatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[ct], nil
}

func (m *MemoryStore) SetSettings(ct models.ContentType, patch models.SettingsPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[ct] = patch
}

func (m *MemoryStore) PatchCleanupStats(ctx context.Context, ct models.ContentType, stats models.CleanupStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	patch := m.settings[ct]
	patch.CleanupStats = &stats
	m.settings[ct] = patch
	return nil
}

func (m *MemoryStore) ListSources(ctx context.Context, ct models.ContentType) ([]models.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sources[ct], nil
}

func (m *MemoryStore) SetSources(ct models.ContentType, sources []models.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[ct] = sources
}

func (m *MemoryStore) ListTrustRecords(ctx context.Context, ct models.ContentType) ([]models.TrustRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trust[ct], nil
}

func (m *MemoryStore) SetTrustRecords(ct models.ContentType, records []models.TrustRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trust[ct] = records
}

func (m *MemoryStore) ListBanRules(ctx context.Context, ct models.ContentType) ([]models.BanRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules[ct], nil
}

func (m *MemoryStore) SetBanRules(ct models.ContentType, rules []models.BanRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[ct] = rules
}
