package scheduler

import (
	"context"
	"errors"

	"github.com/pulsewire/ingest/internal/approval"
	"github.com/pulsewire/ingest/internal/fallback"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/pulsewire/ingest/internal/moderation"
	"github.com/pulsewire/ingest/internal/resolve"
	"github.com/pulsewire/ingest/internal/store"
)

var errNoAdminStore = errors.New("no admin store configured")

// NewSourceChain assembles the source fallback chain for a content type:
// admin-configured sources, sources derived from trusted channels, the
// shipped built-in list, and finally the emergency constants.
func NewSourceChain(ct models.ContentType, admin store.AdminReader) *resolve.Chain[[]models.Source] {
	return resolve.NewChain(
		string(ct)+"-sources",
		fallback.EmergencySources(ct),
		resolve.EmptySlice[models.Source],
		resolve.Provider[[]models.Source]{
			Name: "admin-sources",
			Fetch: func(ctx context.Context) ([]models.Source, error) {
				if admin == nil {
					return nil, errNoAdminStore
				}
				return admin.ListSources(ctx, ct)
			},
		},
		resolve.Provider[[]models.Source]{
			Name: "trusted-channel-derived",
			Fetch: func(ctx context.Context) ([]models.Source, error) {
				if admin == nil {
					return nil, errNoAdminStore
				}
				records, err := admin.ListTrustRecords(ctx, ct)
				if err != nil {
					return nil, err
				}
				return fallback.DeriveSearchSources(records), nil
			},
		},
		resolve.Provider[[]models.Source]{
			Name: "builtin-sources",
			Fetch: func(ctx context.Context) ([]models.Source, error) {
				return fallback.BuiltinSources(ct)
			},
		},
	)
}

// SettingsResolver resolves the remote settings record and merges it
// field-by-field over the built-in defaults. Remote wins per field when
// present; an unreachable or empty remote yields the defaults untouched.
type SettingsResolver func(ctx context.Context) (models.Settings, resolve.Provenance)

func NewSettingsResolver(ct models.ContentType, admin store.AdminReader) SettingsResolver {
	chain := resolve.NewChain(
		string(ct)+"-settings",
		models.SettingsPatch{},
		models.SettingsPatch.IsZero,
		resolve.Provider[models.SettingsPatch]{
			Name: "remote-settings",
			Fetch: func(ctx context.Context) (models.SettingsPatch, error) {
				if admin == nil {
					return models.SettingsPatch{}, errNoAdminStore
				}
				return admin.GetSettings(ctx, ct)
			},
		},
	)
	return func(ctx context.Context) (models.Settings, resolve.Provenance) {
		patch, prov := chain.Resolve(ctx)
		return patch.Merge(fallback.DefaultSettings()), prov
	}
}

// NewRuleFetcher exposes the admin ban rules to the classifier. The
// classifier itself degrades to built-in rules when this fails.
func NewRuleFetcher(ct models.ContentType, admin store.AdminReader) moderation.RuleFetcher {
	return func(ctx context.Context) ([]models.BanRule, error) {
		if admin == nil {
			return nil, errNoAdminStore
		}
		return admin.ListBanRules(ctx, ct)
	}
}

// TrustDirectory fetches the trust records once per cycle and serves
// lookups from memory. A fetch failure yields a lookup that fails, which
// the approval engine translates into pending review.
type TrustDirectory func(ctx context.Context) approval.TrustLookup

func NewTrustDirectory(ct models.ContentType, admin store.AdminReader) TrustDirectory {
	return func(ctx context.Context) approval.TrustLookup {
		if admin == nil {
			return approval.LookupFromRecords(nil)
		}
		records, err := admin.ListTrustRecords(ctx, ct)
		if err != nil {
			return func(context.Context, string) (*models.TrustRecord, error) {
				return nil, err
			}
		}
		return approval.LookupFromRecords(records)
	}
}
