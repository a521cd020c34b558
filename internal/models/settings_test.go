package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsPatchIsZero(t *testing.T) {
	assert.True(t, SettingsPatch{}.IsZero())

	interval := 10
	assert.False(t, SettingsPatch{FetchIntervalMinutes: &interval}.IsZero())
	assert.False(t, SettingsPatch{ModerationKeywords: []string{"x"}}.IsZero())
	assert.False(t, SettingsPatch{CleanupStats: &CleanupStats{}}.IsZero())
}

func TestSettingsPatchMerge(t *testing.T) {
	base := Settings{
		FetchIntervalMinutes: 30,
		MaxArticleLimit:      100,
		RetentionMode:        RetentionCountAndAge,
		ModerationEnabled:    true,
		PreservePinned:       true,
	}

	interval := 15
	moderation := false
	mode := RetentionAgeOnly
	patch := SettingsPatch{
		FetchIntervalMinutes: &interval,
		ModerationEnabled:    &moderation,
		RetentionMode:        &mode,
		ModerationKeywords:   []string{"betting"},
	}

	merged := patch.Merge(base)

	assert.Equal(t, 15, merged.FetchIntervalMinutes)
	assert.False(t, merged.ModerationEnabled, "an explicit remote false overrides the default true")
	assert.Equal(t, RetentionAgeOnly, merged.RetentionMode)
	assert.Equal(t, []string{"betting"}, merged.ModerationKeywords)

	assert.Equal(t, 100, merged.MaxArticleLimit, "absent fields keep the base value")
	assert.True(t, merged.PreservePinned)
}

func TestSettingsPatchMergeEmptyKeepsBase(t *testing.T) {
	base := Settings{FetchIntervalMinutes: 30, MaxArticleLimit: 100}
	assert.Equal(t, base, SettingsPatch{}.Merge(base))
}
