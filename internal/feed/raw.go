package feed

import "time"

// RawItem is the least-common-denominator shape both source kinds are
// flattened into before normalization. Nothing here is trusted; every field
// may be empty.
type RawItem struct {
	Title         string
	Description   string
	Content       string // HTML body, used for the inline-image strategy
	Link          string
	GUID          string
	VideoID       string
	ChannelID     string
	Published     time.Time
	MediaURL      string // structured media field (media:content)
	Thumbnail     string
	EnclosureURL  string
	EnclosureType string
}
