package models

import "time"

// ApprovalState records how a stored item may be published
type ApprovalState string

const (
	ApprovalApproved      ApprovalState = "approved"
	ApprovalPendingReview ApprovalState = "pending_review"
	ApprovalRejected      ApprovalState = "rejected"
)

// CandidateItem is a fetched-but-not-yet-stored piece of content. It lives
// only within one ingestion cycle; every field is the result of a defaulted
// extraction, never a trusted pass-through of the upstream payload.
type CandidateItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Identity    string    `json:"identity"`
	URL         string    `json:"url"`
	Image       string    `json:"image,omitempty"`
	ChannelID   string    `json:"channel_id,omitempty"`
	Origin      string    `json:"origin"`
	PublishedAt time.Time `json:"published_at"`
}

// StoredItem is a candidate that survived classification, approval and dedup
// and was written to the content store. Unique by Identity within its
// content type.
type StoredItem struct {
	ID             string        `json:"id"`
	ContentType    ContentType   `json:"content_type"`
	Title          string        `json:"title"`
	Summary        string        `json:"summary"`
	Identity       string        `json:"identity"`
	URL            string        `json:"url"`
	Image          string        `json:"image,omitempty"`
	ChannelID      string        `json:"channel_id,omitempty"`
	Origin         string        `json:"origin"`
	Approval       ApprovalState `json:"approval"`
	ModerationNote string        `json:"moderation_note,omitempty"`
	Pinned         bool          `json:"pinned"`
	Breaking       bool          `json:"breaking"`
	PublishedAt    time.Time     `json:"published_at"`
	CreatedAt      time.Time     `json:"created_at"`
}
