// Package store defines the content store collaborator the pipeline writes
// into, plus the read-side endpoints (settings, sources, trust records, ban
// rules) owned by the external CMS.
package store

import (
	"context"
	"errors"

	"github.com/pulsewire/ingest/internal/models"
)

var (
	// ErrNotFound is returned when an item id does not exist
	ErrNotFound = errors.New("store: item not found")
	// ErrDuplicate is returned when a create collides with an existing
	// identity key. The dedup check and the insert are not atomic; this
	// rejection bounds the race window.
	ErrDuplicate = errors.New("store: duplicate identity")
)

// Filters narrows list/count operations. Zero values mean "no filter".
type Filters struct {
	Identity string
	Approval models.ApprovalState
}

// ContentStore is the persistence collaborator. Implementations must be safe
// for concurrent use; both schedulers share one instance.
type ContentStore interface {
	ListActive(ctx context.Context, ct models.ContentType, f Filters) ([]models.StoredItem, error)
	Create(ctx context.Context, ct models.ContentType, item models.StoredItem) (models.StoredItem, error)
	Update(ctx context.Context, ct models.ContentType, id string, patch map[string]any) (models.StoredItem, error)
	Delete(ctx context.Context, ct models.ContentType, id string) error
	Count(ctx context.Context, ct models.ContentType, f Filters) (int, error)
}

// AdminReader exposes the admin-owned records the pipeline reads through its
// resolver chains. All methods are read-only for the pipeline.
type AdminReader interface {
	GetSettings(ctx context.Context, ct models.ContentType) (models.SettingsPatch, error)
	ListSources(ctx context.Context, ct models.ContentType) ([]models.Source, error)
	ListTrustRecords(ctx context.Context, ct models.ContentType) ([]models.TrustRecord, error)
	ListBanRules(ctx context.Context, ct models.ContentType) ([]models.BanRule, error)
}

// StatsPatcher persists the retention manager's cumulative cleanup
// statistics. The single write the pipeline performs against admin-owned
// state.
type StatsPatcher interface {
	PatchCleanupStats(ctx context.Context, ct models.ContentType, stats models.CleanupStats) error
}
