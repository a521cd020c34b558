package models

import "strings"

// TrustRecord describes a known channel/author. Owned by the admin
// collaborator; the pipeline only reads it to decide approval states.
type TrustRecord struct {
	ChannelID          string `json:"channel_id"`
	Platform           string `json:"platform"`
	VerificationStatus string `json:"verification_status"`
	AutoApprove        bool   `json:"auto_approve"`
	Tier               string `json:"tier,omitempty"`
}

// Verified reports whether the record's verification status means verified,
// tolerating the casing variants the admin UI has produced over time.
func (t TrustRecord) Verified() bool {
	return strings.EqualFold(strings.TrimSpace(t.VerificationStatus), "verified")
}
