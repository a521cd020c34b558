package feed

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pulsewire/ingest/internal/models"
)

// VideoSearcher runs keyword-search sources against the external video
// search API.
type VideoSearcher struct {
	client *resty.Client
	apiKey string
}

func NewVideoSearcher(baseURL, apiKey string, timeout time.Duration) *VideoSearcher {
	return &VideoSearcher{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(3).
			SetRetryWaitTime(2 * time.Second).
			SetRetryMaxWaitTime(10 * time.Second).
			SetHeader("Accept", "application/json"),
		apiKey: apiKey,
	}
}

// searchResponse mirrors only the fields the pipeline extracts; everything
// else in the payload is ignored. All nesting is optional.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
			ChannelID   string `json:"channelId"`
			Thumbnails  struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search queries the API for a keyword, capped at limit results
func (v *VideoSearcher) Search(ctx context.Context, keyword string, limit int) ([]RawItem, error) {
	var result searchResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":          keyword,
			"maxResults": strconv.Itoa(limit),
			"order":      "date",
			"key":        v.apiKey,
		}).
		SetResult(&result).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("failed to search videos for %q: %w", keyword, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d searching videos for %q", resp.StatusCode(), keyword)
	}

	items := make([]RawItem, 0, len(result.Items))
	for _, entry := range result.Items {
		published, _ := time.Parse(time.RFC3339, entry.Snippet.PublishedAt)
		thumb := entry.Snippet.Thumbnails.High.URL
		if thumb == "" {
			thumb = entry.Snippet.Thumbnails.Default.URL
		}
		items = append(items, RawItem{
			Title:       entry.Snippet.Title,
			Description: entry.Snippet.Description,
			VideoID:     entry.ID.VideoID,
			ChannelID:   entry.Snippet.ChannelID,
			Published:   published,
			Thumbnail:   thumb,
		})
	}
	return items, nil
}

// Fetch dispatches a source to the right collaborator based on its kind
type Fetcher struct {
	rss    *RSSPuller
	search *VideoSearcher
}

func NewFetcher(rss *RSSPuller, search *VideoSearcher) *Fetcher {
	return &Fetcher{rss: rss, search: search}
}

// Fetch pulls up to limit raw items from a source
func (f *Fetcher) Fetch(ctx context.Context, source models.Source, limit int) ([]RawItem, error) {
	var (
		items []RawItem
		err   error
	)
	switch source.Kind {
	case models.SourceKindFeed:
		if f.rss == nil {
			return nil, fmt.Errorf("no feed puller configured for source %s", source.ID)
		}
		items, err = f.rss.Pull(ctx, source)
	case models.SourceKindSearch:
		if f.search == nil {
			return nil, fmt.Errorf("no search client configured for source %s", source.ID)
		}
		items, err = f.search.Search(ctx, source.Query, limit)
	default:
		return nil, fmt.Errorf("unknown source kind %q for source %s", source.Kind, source.ID)
	}
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
