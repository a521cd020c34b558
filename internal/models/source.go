package models

// ContentType selects which pipeline a record belongs to
type ContentType string

const (
	ContentTypeNews  ContentType = "news"
	ContentTypeVideo ContentType = "video"
)

// SourceKind distinguishes how items are obtained from a source
type SourceKind string

const (
	// SourceKindFeed pulls a feed document (RSS/Atom) from Endpoint
	SourceKindFeed SourceKind = "feed"
	// SourceKindSearch runs Query against a keyword search API
	SourceKindSearch SourceKind = "search"
)

// Source represents an external content origin. Sources are owned by the
// admin collaborator; the pipeline only reads them and skips anything
// inactive or malformed.
type Source struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Endpoint string     `json:"endpoint,omitempty"`
	Query    string     `json:"query,omitempty"`
	Kind     SourceKind `json:"kind"`
	Active   bool       `json:"active"`
	Priority int        `json:"priority"`
}

// Usable reports whether the pipeline may fetch from this source
func (s Source) Usable() bool {
	if !s.Active {
		return false
	}
	switch s.Kind {
	case SourceKindFeed:
		return s.Endpoint != ""
	case SourceKindSearch:
		return s.Query != ""
	}
	return false
}
