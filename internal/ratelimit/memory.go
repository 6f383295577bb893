package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

type windowEntry struct {
	count      int
	windowEnds time.Time
}

// MemoryLimiter is a fixed-window limiter backed by a local map. Suitable
// for single-instance deployments; expired windows are swept periodically.
type MemoryLimiter struct {
	rule Rule

	mu      sync.Mutex
	entries map[string]*windowEntry

	stopSweep chan struct{}
	sweepOnce sync.Once
}

const sweepInterval = time.Minute

// NewMemoryLimiter creates a MemoryLimiter for the given rule and starts its
// background sweep.
func NewMemoryLimiter(rule Rule) *MemoryLimiter {
	l := &MemoryLimiter{
		rule:      rule,
		entries:   make(map[string]*windowEntry),
		stopSweep: make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *MemoryLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := utils.Now()
			l.mu.Lock()
			for key, entry := range l.entries {
				if now.After(entry.windowEnds) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopSweep:
			return
		}
	}
}

// Allow counts the request against the key's current window.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := utils.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || now.After(entry.windowEnds) {
		entry = &windowEntry{windowEnds: now.Add(l.rule.Window)}
		l.entries[key] = entry
	}
	entry.count++

	remaining := l.rule.MaxRequests - entry.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   entry.count <= l.rule.MaxRequests,
		Limit:     l.rule.MaxRequests,
		Remaining: remaining,
		ResetAt:   entry.windowEnds,
	}, nil
}

// Close stops the background sweep.
func (l *MemoryLimiter) Close() error {
	l.sweepOnce.Do(func() { close(l.stopSweep) })
	return nil
}
