// Package ratelimit implements fixed-window request limiting with a local
// in-memory backend and a Redis backend for multi-instance deployments.
package ratelimit

import (
	"context"
	"time"
)

// Rule describes one fixed-window limit.
type Rule struct {
	MaxRequests int
	Window      time.Duration
}

// Result reports the limiter decision for one request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether a keyed request may proceed. Implementations fail
// open: when the backing store is unavailable the request is allowed rather
// than dropping legitimate webhooks.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	Close() error
}
