// Package cache stores rendered pages and decoded upstream payloads under
// tags, so a whole family of entries can be dropped at once when the
// content behind it changes.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Tags used across the site.
const (
	TagLayout   = "layout"
	TagPricing  = "pricing"
	TagProjects = "projects"
	TagContact  = "contact"
	TagReviews  = "reviews"
)

// Cache is a tag-invalidated byte cache. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the value for key. ok is false on a miss or after expiry.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value for ttl and records it under each tag.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error
	// InvalidateTag removes every entry recorded under tag.
	InvalidateTag(ctx context.Context, tag string) error
	Close() error
}

// Open returns a Redis-backed cache when redisURL is set and an in-memory
// one otherwise.
func Open(ctx context.Context, redisURL string) (Cache, error) {
	if strings.TrimSpace(redisURL) == "" {
		return NewMemory(), nil
	}
	c, err := NewRedis(ctx, redisURL)
	if err != nil {
		return nil, fmt.Errorf("open redis cache: %w", err)
	}
	return c, nil
}
