// Package moderation evaluates candidate items against banned-keyword and
// banned-channel rules before anything is persisted.
package moderation

import (
	"context"
	"strings"

	"github.com/pulsewire/ingest/internal/fallback"
	"github.com/pulsewire/ingest/internal/logger"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/rs/zerolog"
)

// Verdict is the classification outcome for one item
type Verdict struct {
	Allowed bool
	Rule    models.BanRule
	Reason  string
}

// Allow is the verdict for items no active rule matched
var Allow = Verdict{Allowed: true}

func block(rule models.BanRule) Verdict {
	return Verdict{
		Allowed: false,
		Rule:    rule,
		Reason:  "matched banned pattern " + strings.ToLower(rule.Pattern) + " (" + string(rule.Strategy) + "/" + string(rule.Scope) + ")",
	}
}

// RuleFetcher loads the active ban rules for a content type
type RuleFetcher func(ctx context.Context) ([]models.BanRule, error)

// Classifier applies ban rules to candidate items. Safe for concurrent use;
// it holds no mutable state.
type Classifier struct {
	fetchRules RuleFetcher
	log        zerolog.Logger
}

func NewClassifier(fetchRules RuleFetcher) *Classifier {
	return &Classifier{
		fetchRules: fetchRules,
		log:        logger.With("classifier"),
	}
}

// LoadRules fetches the remote rule set, falling back to the built-in
// minimal rules on failure. A rule-fetch outage degrades classification, it
// never disables it and never fails the cycle.
func (c *Classifier) LoadRules(ctx context.Context) []models.BanRule {
	if c.fetchRules == nil {
		return fallback.BuiltinBanRules()
	}
	rules, err := c.fetchRules(ctx)
	if err != nil {
		c.log.Warn().
			Err(err).
			Msg("Rule fetch failed, classifying with built-in rules")
		return fallback.BuiltinBanRules()
	}
	if len(rules) == 0 {
		return fallback.BuiltinBanRules()
	}
	return rules
}

// Classify checks an item's text against the rule set. Any active rule
// matching blocks the item; evaluation stops at the first match. Rule order
// never changes the allow/block outcome, only which rule is reported.
func (c *Classifier) Classify(item models.CandidateItem, rules []models.BanRule) Verdict {
	for _, rule := range rules {
		if !rule.Active || rule.Pattern == "" {
			continue
		}
		if matchScoped(item, rule) {
			return block(rule)
		}
	}
	return Allow
}

// ClassifyChannel checks a channel/author id against channel ban rules
func (c *Classifier) ClassifyChannel(channelID string, rules []models.BanRule) Verdict {
	if channelID == "" {
		return Allow
	}
	text := strings.ToLower(channelID)
	for _, rule := range rules {
		if !rule.Active || rule.Pattern == "" {
			continue
		}
		if matchText(text, rule) {
			return block(rule)
		}
	}
	return Allow
}

// KeywordRules converts a settings keyword list into contains/all ban rules,
// so per-settings moderation keywords compose with the admin rule set.
func KeywordRules(keywords []string) []models.BanRule {
	rules := make([]models.BanRule, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		rules = append(rules, models.BanRule{
			Pattern:  kw,
			Strategy: models.MatchContains,
			Scope:    models.ScopeAll,
			Active:   true,
		})
	}
	return rules
}

func matchScoped(item models.CandidateItem, rule models.BanRule) bool {
	var text string
	switch rule.Scope {
	case models.ScopeTitle:
		text = item.Title
	case models.ScopeDescription:
		text = item.Summary
	default: // ScopeAll and anything unrecognized checks everything
		text = item.Title + " " + item.Summary
	}
	return matchText(strings.ToLower(text), rule)
}

func matchText(text string, rule models.BanRule) bool {
	pattern := strings.ToLower(rule.Pattern)
	switch rule.Strategy {
	case models.MatchExact:
		return strings.TrimSpace(text) == pattern
	case models.MatchStartsWith:
		return strings.HasPrefix(text, pattern)
	case models.MatchEndsWith:
		return strings.HasSuffix(text, pattern)
	default: // MatchContains is the safe default for unknown strategies
		return strings.Contains(text, pattern)
	}
}
