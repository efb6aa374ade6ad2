// Package reviews relays customer reviews from an external feed. The decoded
// list is cached for a fixed revalidation window so page renders never wait
// on the upstream more than once per window.
package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/showcasehq/showcase/internal/cache"
	"github.com/showcasehq/showcase/internal/model"
)

// ErrUpstream is returned when the feed answers with a non-2xx status or an
// undecodable body.
var ErrUpstream = errors.New("reviews upstream error")

const (
	cacheKey = "reviews:feed"

	// DefaultRevalidate is how long a fetched feed is served from cache.
	DefaultRevalidate = time.Hour

	maxBodyBytes = 1 << 20
)

// Config configures a Client.
type Config struct {
	URL        string
	APIKey     string
	Revalidate time.Duration
	HTTPClient *http.Client // defaults to an instrumented client with a 10s timeout
	Logger     *slog.Logger
}

// Client fetches the reviews feed.
type Client struct {
	url        string
	apiKey     string
	revalidate time.Duration
	http       *http.Client
	cache      cache.Cache
	logger     *slog.Logger
}

// NewClient returns a Client that caches results in c.
func NewClient(cfg Config, c cache.Cache) *Client {
	if cfg.Revalidate <= 0 {
		cfg.Revalidate = DefaultRevalidate
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		revalidate: cfg.Revalidate,
		http:       hc,
		cache:      c,
		logger:     logger,
	}
}

// Enabled reports whether a feed URL is configured.
func (c *Client) Enabled() bool {
	return c.url != ""
}

type feed struct {
	Reviews []model.Review `json:"reviews"`
}

// Fetch returns the current reviews. With no feed URL it returns an empty
// list. Cache failures are not fatal: the feed is fetched directly.
func (c *Client) Fetch(ctx context.Context) ([]model.Review, error) {
	if !c.Enabled() {
		return []model.Review{}, nil
	}

	if raw, ok, err := c.cache.Get(ctx, cacheKey); err == nil && ok {
		var cached []model.Review
		if json.Unmarshal(raw, &cached) == nil {
			return cached, nil
		}
	}

	reviews, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(reviews); err == nil {
		if err := c.cache.Set(ctx, cacheKey, raw, c.revalidate, cache.TagReviews); err != nil {
			c.logger.Debug("cache reviews feed", "error", err)
		}
	}
	return reviews, nil
}

func (c *Client) fetch(ctx context.Context) ([]model.Review, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("parse reviews url: %w", err)
	}
	if c.apiKey != "" {
		q := u.Query()
		q.Set("key", c.apiKey)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build reviews request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var f feed
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if f.Reviews == nil {
		f.Reviews = []model.Review{}
	}
	return f.Reviews, nil
}
