package store

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pulsewire/ingest/internal/models"
)

// RESTStore talks to the external CMS over its JSON API. It implements
// ContentStore, AdminReader and StatsPatcher.
type RESTStore struct {
	client *resty.Client
}

func NewRESTStore(baseURL, apiKey string, timeout time.Duration) *RESTStore {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}
	return &RESTStore{client: client}
}

func (s *RESTStore) ListActive(ctx context.Context, ct models.ContentType, f Filters) ([]models.StoredItem, error) {
	var items []models.StoredItem
	req := s.client.R().
		SetContext(ctx).
		SetResult(&items).
		SetPathParam("type", string(ct))
	if f.Identity != "" {
		req.SetQueryParam("identity", f.Identity)
	}
	if f.Approval != "" {
		req.SetQueryParam("approval", string(f.Approval))
	}

	resp, err := req.Get("/api/v1/content/{type}")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s items: %w", ct, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d listing %s items", resp.StatusCode(), ct)
	}
	return items, nil
}

func (s *RESTStore) Create(ctx context.Context, ct models.ContentType, item models.StoredItem) (models.StoredItem, error) {
	var created models.StoredItem
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("type", string(ct)).
		SetBody(item).
		SetResult(&created).
		Post("/api/v1/content/{type}")
	if err != nil {
		return models.StoredItem{}, fmt.Errorf("failed to create %s item: %w", ct, err)
	}
	if resp.StatusCode() == http.StatusConflict {
		return models.StoredItem{}, ErrDuplicate
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return models.StoredItem{}, fmt.Errorf("unexpected status code %d creating %s item", resp.StatusCode(), ct)
	}
	return created, nil
}

func (s *RESTStore) Update(ctx context.Context, ct models.ContentType, id string, patch map[string]any) (models.StoredItem, error) {
	var updated models.StoredItem
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("type", string(ct)).
		SetPathParam("id", id).
		SetBody(patch).
		SetResult(&updated).
		Patch("/api/v1/content/{type}/{id}")
	if err != nil {
		return models.StoredItem{}, fmt.Errorf("failed to update %s item %s: %w", ct, id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.StoredItem{}, ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return models.StoredItem{}, fmt.Errorf("unexpected status code %d updating %s item %s", resp.StatusCode(), ct, id)
	}
	return updated, nil
}

func (s *RESTStore) Delete(ctx context.Context, ct models.ContentType, id string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("type", string(ct)).
		SetPathParam("id", id).
		Delete("/api/v1/content/{type}/{id}")
	if err != nil {
		return fmt.Errorf("failed to delete %s item %s: %w", ct, id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("unexpected status code %d deleting %s item %s", resp.StatusCode(), ct, id)
	}
	return nil
}

func (s *RESTStore) Count(ctx context.Context, ct models.ContentType, f Filters) (int, error) {
	var result struct {
		Count int `json:"count"`
	}
	req := s.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("type", string(ct))
	if f.Identity != "" {
		req.SetQueryParam("identity", f.Identity)
	}
	if f.Approval != "" {
		req.SetQueryParam("approval", string(f.Approval))
	}

	resp, err := req.Get("/api/v1/content/{type}/count")
	if err != nil {
		return 0, fmt.Errorf("failed to count %s items: %w", ct, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code %d counting %s items", resp.StatusCode(), ct)
	}
	return result.Count, nil
}

func (s *RESTStore) GetSettings(ctx context.Context, ct models.ContentType) (models.SettingsPatch, error) {
	var patch models.SettingsPatch
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("type", string(ct)).
		SetResult(&patch).
		Get("/api/v1/settings/{type}")
	if err != nil {
		return models.SettingsPatch{}, fmt.Errorf("failed to fetch %s settings: %w", ct, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.SettingsPatch{}, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return models.SettingsPatch{}, fmt.Errorf("unexpected status code %d fetching %s settings", resp.StatusCode(), ct)
	}
	return patch, nil
}

func (s *RESTStore) PatchCleanupStats(ctx context.Context, ct models.ContentType, stats models.CleanupStats) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("type", string(ct)).
		SetBody(map[string]any{"cleanup_stats": stats}).
		Patch("/api/v1/settings/{type}")
	if err != nil {
		return fmt.Errorf("failed to patch %s cleanup stats: %w", ct, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("unexpected status code %d patching %s cleanup stats", resp.StatusCode(), ct)
	}
	return nil
}

func (s *RESTStore) ListSources(ctx context.Context, ct models.ContentType) ([]models.Source, error) {
	var sources []models.Source
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("type", string(ct)).
		SetResult(&sources).
		Get("/api/v1/sources/{type}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s sources: %w", ct, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d fetching %s sources", resp.StatusCode(), ct)
	}
	return sources, nil
}

func (s *RESTStore) ListTrustRecords(ctx context.Context, ct models.ContentType) ([]models.TrustRecord, error) {
	var records []models.TrustRecord
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("type", string(ct)).
		SetResult(&records).
		Get("/api/v1/trusted-channels/{type}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s trust records: %w", ct, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d fetching %s trust records", resp.StatusCode(), ct)
	}
	return records, nil
}

func (s *RESTStore) ListBanRules(ctx context.Context, ct models.ContentType) ([]models.BanRule, error) {
	var rules []models.BanRule
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("type", string(ct)).
		SetResult(&rules).
		Get("/api/v1/ban-rules/{type}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s ban rules: %w", ct, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d fetching %s ban rules", resp.StatusCode(), ct)
	}
	return rules, nil
}
