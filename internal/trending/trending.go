// Package trending polls the external trending-signal collaborator that
// modulates the video scheduler's interval.
package trending

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pulsewire/ingest/internal/cache"
	"github.com/pulsewire/ingest/internal/logger"
	"github.com/rs/zerolog"
)

// Trend is one active trending topic
type Trend struct {
	Keyword string  `json:"keyword"`
	Weight  float64 `json:"weight"`
}

// Signal is what the scheduler consumes
type Signal interface {
	HasActiveTrend(ctx context.Context) bool
	ActiveTrends(ctx context.Context) ([]Trend, error)
}

const verdictTTL = time.Minute

// Client fetches trends over HTTP and caches the boolean verdict briefly so
// tight scheduler loops don't hammer the collaborator.
type Client struct {
	http    *resty.Client
	verdict *cache.RedisCache // optional
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, verdict *cache.RedisCache) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(time.Second).
			SetHeader("Accept", "application/json"),
		verdict: verdict,
		log:     logger.With("trending"),
	}
}

// ActiveTrends lists the currently hot topics
func (c *Client) ActiveTrends(ctx context.Context) ([]Trend, error) {
	var trends []Trend
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&trends).
		Get("/api/v1/trends/active")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active trends: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d fetching active trends", resp.StatusCode())
	}
	return trends, nil
}

// HasActiveTrend reports whether any trend is live. Collaborator failure
// means "no trend": the scheduler falls through to its time-of-day policy.
func (c *Client) HasActiveTrend(ctx context.Context) bool {
	if c.verdict != nil {
		if val, ok, err := c.verdict.GetString(ctx, "trending:verdict"); err == nil && ok {
			return val == "1"
		}
	}

	trends, err := c.ActiveTrends(ctx)
	if err != nil {
		c.log.Warn().
			Err(err).
			Msg("Trending signal unavailable, assuming no active trend")
		return false
	}

	active := len(trends) > 0
	if c.verdict != nil {
		val := "0"
		if active {
			val = "1"
		}
		if err := c.verdict.SetString(ctx, "trending:verdict", val, verdictTTL); err != nil {
			c.log.Debug().Err(err).Msg("Failed to cache trending verdict")
		}
	}
	return active
}

// None is a Signal that never reports a trend, used when no collaborator is
// configured.
type None struct{}

func (None) HasActiveTrend(ctx context.Context) bool           { return false }
func (None) ActiveTrends(ctx context.Context) ([]Trend, error) { return nil, nil }
