package feed

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pulsewire/ingest/internal/models"
)

// Normalizer turns raw upstream items into CandidateItems. Every external
// field access is defaulted; a malformed item yields an error, never a
// panic.
type Normalizer struct {
	htmlTagRegex *regexp.Regexp
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		htmlTagRegex: regexp.MustCompile(`<[^>]*>`),
	}
}

// CleanHTML removes HTML tags and normalizes whitespace
func (n *Normalizer) CleanHTML(input string) string {
	cleaned := n.htmlTagRegex.ReplaceAllString(input, " ")
	cleaned = html.UnescapeString(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.TrimSpace(cleaned)
}

// Normalize builds a CandidateItem from a raw item. origin tags the
// candidate's provenance ("admin-sources", "trending", "builtin-sources"...).
func (n *Normalizer) Normalize(raw RawItem, source models.Source, origin string) (models.CandidateItem, error) {
	title := n.CleanHTML(raw.Title)
	if title == "" {
		return models.CandidateItem{}, fmt.Errorf("item from source %s has no title", source.ID)
	}

	identity := identityOf(raw)
	if identity == "" {
		return models.CandidateItem{}, fmt.Errorf("item %q from source %s has no stable identity", title, source.ID)
	}

	summary := raw.Description
	if summary == "" {
		summary = raw.Content
	}

	published := raw.Published
	if published.IsZero() {
		published = time.Now()
	}

	link := strings.TrimSpace(raw.Link)
	if link == "" && raw.VideoID != "" {
		link = "https://www.youtube.com/watch?v=" + url.QueryEscape(raw.VideoID)
	}

	return models.CandidateItem{
		Title:       title,
		Summary:     n.CleanHTML(summary),
		Identity:    identity,
		URL:         link,
		Image:       n.ExtractImage(raw, source),
		ChannelID:   strings.TrimSpace(raw.ChannelID),
		Origin:      origin,
		PublishedAt: published,
	}, nil
}

// identityOf picks the stable identity key: platform video id for search
// results, canonical URL for feed items, GUID as the last resort.
func identityOf(raw RawItem) string {
	if id := strings.TrimSpace(raw.VideoID); id != "" {
		return id
	}
	if link := strings.TrimSpace(raw.Link); link != "" {
		return link
	}
	return strings.TrimSpace(raw.GUID)
}

// ExtractImage resolves the item image through the strategy ladder:
// structured media field, thumbnail, image-typed enclosure, first inline
// <img> in the body. Relative URLs resolve against the source endpoint.
func (n *Normalizer) ExtractImage(raw RawItem, source models.Source) string {
	if img := strings.TrimSpace(raw.MediaURL); img != "" {
		return resolveURL(img, source.Endpoint)
	}
	if img := strings.TrimSpace(raw.Thumbnail); img != "" {
		return resolveURL(img, source.Endpoint)
	}
	if raw.EnclosureURL != "" && strings.HasPrefix(strings.ToLower(raw.EnclosureType), "image/") {
		return resolveURL(strings.TrimSpace(raw.EnclosureURL), source.Endpoint)
	}
	if img := firstInlineImage(raw.Content); img != "" {
		return resolveURL(img, source.Endpoint)
	}
	if img := firstInlineImage(raw.Description); img != "" {
		return resolveURL(img, source.Endpoint)
	}
	return ""
}

func firstInlineImage(body string) string {
	if !strings.Contains(body, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return strings.TrimSpace(src)
}

func resolveURL(ref, base string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
