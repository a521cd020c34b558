package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"github.com/pulsewire/ingest/internal/models"
)

// RSSPuller fetches and parses feed-pull sources (RSS/Atom)
type RSSPuller struct {
	client *resty.Client
	parser *gofeed.Parser
}

func NewRSSPuller(timeout time.Duration) *RSSPuller {
	return &RSSPuller{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(3).
			SetRetryWaitTime(2 * time.Second).
			SetRetryMaxWaitTime(10 * time.Second).
			SetHeader("User-Agent", "pulsewire-ingest/1.0"),
		parser: gofeed.NewParser(),
	}
}

// Pull retrieves the source's feed document and flattens it into RawItems
func (p *RSSPuller) Pull(ctx context.Context, source models.Source) ([]RawItem, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		Get(source.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed from %s: %w", source.Endpoint, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), source.Endpoint)
	}

	parsed, err := p.parser.ParseString(string(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed from %s: %w", source.Endpoint, err)
	}

	items := make([]RawItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		items = append(items, fromGofeedItem(item))
	}
	return items, nil
}

func fromGofeedItem(item *gofeed.Item) RawItem {
	raw := RawItem{
		Title:       item.Title,
		Description: item.Description,
		Content:     item.Content,
		Link:        item.Link,
		GUID:        item.GUID,
	}

	if item.PublishedParsed != nil {
		raw.Published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		raw.Published = *item.UpdatedParsed
	}

	if item.Author != nil {
		raw.ChannelID = item.Author.Name
	}
	if item.Image != nil {
		raw.Thumbnail = item.Image.URL
	}
	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		raw.EnclosureURL = item.Enclosures[0].URL
		raw.EnclosureType = item.Enclosures[0].Type
	}

	// media:content carries the structured image on most news feeds
	if media, ok := item.Extensions["media"]; ok {
		if contents, ok := media["content"]; ok && len(contents) > 0 {
			raw.MediaURL = contents[0].Attrs["url"]
		}
		if raw.Thumbnail == "" {
			if thumbs, ok := media["thumbnail"]; ok && len(thumbs) > 0 {
				raw.Thumbnail = thumbs[0].Attrs["url"]
			}
		}
	}

	return raw
}
