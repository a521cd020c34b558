package models

// MatchStrategy selects how a ban rule pattern is compared against text
type MatchStrategy string

const (
	MatchExact      MatchStrategy = "exact"
	MatchContains   MatchStrategy = "contains"
	MatchStartsWith MatchStrategy = "starts_with"
	MatchEndsWith   MatchStrategy = "ends_with"
)

// RuleScope selects which item fields a ban rule is evaluated against
type RuleScope string

const (
	ScopeTitle       RuleScope = "title"
	ScopeDescription RuleScope = "description"
	ScopeAll         RuleScope = "all"
)

// RuleKind separates keyword rules (matched against item text) from channel
// rules (matched against the origin channel/author id).
type RuleKind string

const (
	RuleKindKeyword RuleKind = "keyword"
	RuleKindChannel RuleKind = "channel"
)

// BanRule blocks content matching a pattern. Read-only to the pipeline.
// An empty Kind means keyword.
type BanRule struct {
	Pattern  string        `json:"pattern"`
	Kind     RuleKind      `json:"kind,omitempty"`
	Strategy MatchStrategy `json:"strategy"`
	Scope    RuleScope     `json:"scope"`
	Active   bool          `json:"active"`
}

// IsChannelRule reports whether the rule targets channel ids
func (r BanRule) IsChannelRule() bool {
	return r.Kind == RuleKindChannel
}
