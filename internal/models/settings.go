package models

import "time"

// RetentionMode selects which cleanup policy the retention manager applies
type RetentionMode string

const (
	RetentionCountOnly   RetentionMode = "count_only"
	RetentionAgeOnly     RetentionMode = "age_only"
	RetentionCountAndAge RetentionMode = "both_count_and_age"
)

// CleanupStats is the cumulative record the retention manager writes back
// after each run. Best-effort: a failed write never rolls back deletions.
type CleanupStats struct {
	TotalDeleted int       `json:"total_deleted"`
	LastDeleted  int       `json:"last_deleted"`
	LastRunAt    time.Time `json:"last_run_at"`
}

// Settings is the per-content-type pipeline configuration. Exactly one
// logical record exists per content type; when the remote store is empty or
// unreachable the pipeline runs on built-in defaults instead.
type Settings struct {
	FetchIntervalMinutes    int           `json:"fetch_interval_minutes" validate:"gt=0"`
	MaxItemsPerFetch        int           `json:"max_items_per_fetch" validate:"gt=0"`
	MaxArticleLimit         int           `json:"max_article_limit" validate:"gt=0"`
	MaxAgeHours             int           `json:"max_age_hours" validate:"gt=0"`
	RetentionMode           RetentionMode `json:"retention_mode"`
	ModerationEnabled       bool          `json:"moderation_enabled"`
	ModerationKeywords      []string      `json:"moderation_keywords,omitempty"`
	PreservePinned          bool          `json:"preserve_pinned"`
	PreserveBreaking        bool          `json:"preserve_breaking"`
	CleanupFrequencyMinutes int           `json:"cleanup_frequency_minutes" validate:"gt=0"`
	RejectedRetentionHours  int           `json:"rejected_retention_hours" validate:"gt=0"`
	SourceQuotaPerCycle     int           `json:"source_quota_per_cycle" validate:"gt=0"`
	CleanupStats            CleanupStats  `json:"cleanup_stats"`
}

// SettingsPatch is the partial settings object the remote store may return.
// Nil fields mean "not set remotely" and keep the built-in default.
type SettingsPatch struct {
	FetchIntervalMinutes    *int           `json:"fetch_interval_minutes,omitempty"`
	MaxItemsPerFetch        *int           `json:"max_items_per_fetch,omitempty"`
	MaxArticleLimit         *int           `json:"max_article_limit,omitempty"`
	MaxAgeHours             *int           `json:"max_age_hours,omitempty"`
	RetentionMode           *RetentionMode `json:"retention_mode,omitempty"`
	ModerationEnabled       *bool          `json:"moderation_enabled,omitempty"`
	ModerationKeywords      []string       `json:"moderation_keywords,omitempty"`
	PreservePinned          *bool          `json:"preserve_pinned,omitempty"`
	PreserveBreaking        *bool          `json:"preserve_breaking,omitempty"`
	CleanupFrequencyMinutes *int           `json:"cleanup_frequency_minutes,omitempty"`
	RejectedRetentionHours  *int           `json:"rejected_retention_hours,omitempty"`
	SourceQuotaPerCycle     *int           `json:"source_quota_per_cycle,omitempty"`
	CleanupStats            *CleanupStats  `json:"cleanup_stats,omitempty"`
}

// IsZero reports whether the patch carries no remote values at all
func (p SettingsPatch) IsZero() bool {
	return p.FetchIntervalMinutes == nil &&
		p.MaxItemsPerFetch == nil &&
		p.MaxArticleLimit == nil &&
		p.MaxAgeHours == nil &&
		p.RetentionMode == nil &&
		p.ModerationEnabled == nil &&
		len(p.ModerationKeywords) == 0 &&
		p.PreservePinned == nil &&
		p.PreserveBreaking == nil &&
		p.CleanupFrequencyMinutes == nil &&
		p.RejectedRetentionHours == nil &&
		p.SourceQuotaPerCycle == nil &&
		p.CleanupStats == nil
}

// Merge overlays the patch onto base, field by field. Remote values win
// whenever present; absent fields keep the base value.
func (p SettingsPatch) Merge(base Settings) Settings {
	out := base
	if p.FetchIntervalMinutes != nil {
		out.FetchIntervalMinutes = *p.FetchIntervalMinutes
	}
	if p.MaxItemsPerFetch != nil {
		out.MaxItemsPerFetch = *p.MaxItemsPerFetch
	}
	if p.MaxArticleLimit != nil {
		out.MaxArticleLimit = *p.MaxArticleLimit
	}
	if p.MaxAgeHours != nil {
		out.MaxAgeHours = *p.MaxAgeHours
	}
	if p.RetentionMode != nil {
		out.RetentionMode = *p.RetentionMode
	}
	if p.ModerationEnabled != nil {
		out.ModerationEnabled = *p.ModerationEnabled
	}
	if len(p.ModerationKeywords) > 0 {
		out.ModerationKeywords = p.ModerationKeywords
	}
	if p.PreservePinned != nil {
		out.PreservePinned = *p.PreservePinned
	}
	if p.PreserveBreaking != nil {
		out.PreserveBreaking = *p.PreserveBreaking
	}
	if p.CleanupFrequencyMinutes != nil {
		out.CleanupFrequencyMinutes = *p.CleanupFrequencyMinutes
	}
	if p.RejectedRetentionHours != nil {
		out.RejectedRetentionHours = *p.RejectedRetentionHours
	}
	if p.SourceQuotaPerCycle != nil {
		out.SourceQuotaPerCycle = *p.SourceQuotaPerCycle
	}
	if p.CleanupStats != nil {
		out.CleanupStats = *p.CleanupStats
	}
	return out
}
