// Package fallback holds the built-in tiers the resolver chains bottom out
// on: default settings, shipped source lists, emergency constants and the
// minimal moderation rule set.
package fallback

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/pulsewire/ingest/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var sourcesYAML []byte

var (
	loadOnce    sync.Once
	loadErr     error
	builtinSets map[models.ContentType][]models.Source
)

// DefaultSettings returns the built-in per-content-type configuration used
// whenever the remote settings record is missing or unreachable.
func DefaultSettings() models.Settings {
	return models.Settings{
		FetchIntervalMinutes:    30,
		MaxItemsPerFetch:        10,
		MaxArticleLimit:         100,
		MaxAgeHours:             72,
		RetentionMode:           models.RetentionCountAndAge,
		ModerationEnabled:       true,
		PreservePinned:          true,
		PreserveBreaking:        true,
		CleanupFrequencyMinutes: 60,
		RejectedRetentionHours:  168,
		SourceQuotaPerCycle:     2,
	}
}

// BuiltinSources returns the shipped source list for a content type
func BuiltinSources(ct models.ContentType) ([]models.Source, error) {
	loadOnce.Do(func() {
		var raw map[string][]models.Source
		if err := yaml.Unmarshal(sourcesYAML, &raw); err != nil {
			loadErr = fmt.Errorf("failed to parse built-in sources: %w", err)
			return
		}
		builtinSets = make(map[models.ContentType][]models.Source, len(raw))
		for key, sources := range raw {
			builtinSets[models.ContentType(key)] = sources
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return builtinSets[ct], nil
}

// EmergencySources is the last tier: a single hardcoded source per content
// type so a cycle can still run when even the shipped list fails to load.
func EmergencySources(ct models.ContentType) []models.Source {
	switch ct {
	case models.ContentTypeNews:
		return []models.Source{{
			ID:       "emergency-news",
			Name:     "BBC News (emergency)",
			Endpoint: "https://feeds.bbci.co.uk/news/rss.xml",
			Kind:     models.SourceKindFeed,
			Active:   true,
			Priority: 1,
		}}
	case models.ContentTypeVideo:
		return []models.Source{{
			ID:       "emergency-video",
			Name:     "News Search (emergency)",
			Query:    "news",
			Kind:     models.SourceKindSearch,
			Active:   true,
			Priority: 1,
		}}
	}
	return nil
}

// BuiltinBanRules is the minimal rule set the classifier falls back to when
// the remote rules cannot be fetched. Moderation never runs unchecked.
func BuiltinBanRules() []models.BanRule {
	return []models.BanRule{
		{Pattern: "scam", Strategy: models.MatchContains, Scope: models.ScopeAll, Active: true},
		{Pattern: "spam", Strategy: models.MatchContains, Scope: models.ScopeAll, Active: true},
		{Pattern: "clickbait", Strategy: models.MatchContains, Scope: models.ScopeAll, Active: true},
		{Pattern: "fake news", Strategy: models.MatchContains, Scope: models.ScopeAll, Active: true},
	}
}

// DeriveSearchSources builds keyword-search sources from verified trusted
// channels. Second resolver tier for the video pipeline when no
// admin-configured sources exist.
func DeriveSearchSources(records []models.TrustRecord) []models.Source {
	var out []models.Source
	for i, rec := range records {
		if !rec.Verified() || rec.ChannelID == "" {
			continue
		}
		name := rec.ChannelID
		out = append(out, models.Source{
			ID:       "trusted-" + rec.ChannelID,
			Name:     name,
			Query:    "channel:" + rec.ChannelID,
			Kind:     models.SourceKindSearch,
			Active:   true,
			Priority: i + 1,
		})
	}
	return out
}
