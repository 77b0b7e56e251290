// Package cache is a short-TTL read-through cache for list-type lookups
// against the external providers. Values are replaced wholesale on refresh,
// never partially merged; last-write-wins on population is acceptable
// because entries are swapped atomically by reference.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/syllabus-hq/syllabot/internal/flow"
)

const defaultSize = 512

type Options struct {
	lru *expirable.LRU[string, []flow.Option]
}

func New(ttl time.Duration) *Options {
	return &Options{
		lru: expirable.NewLRU[string, []flow.Option](defaultSize, nil, ttl),
	}
}

// Key builds the cache key for one list lookup. Only empty-search fetches
// are cacheable; search terms are high-cardinality.
func Key(kind, parentID string) string {
	return kind + "|" + parentID
}

// GetOrFetch returns the cached list for key, or invokes fetch and stores
// the result. A fetch error is never cached.
func (c *Options) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) ([]flow.Option, error)) ([]flow.Option, error) {
	if opts, ok := c.lru.Get(key); ok {
		return opts, nil
	}
	opts, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, opts)
	return opts, nil
}

// Invalidate drops one key; used by tests and by handlers that know a list
// changed upstream.
func (c *Options) Invalidate(key string) {
	c.lru.Remove(key)
}
