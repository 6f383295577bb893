// Package cache provides a read-through cache for webhook token resolution.
// Every webhook request starts with a token lookup, so resolved tokens are
// held in memory with a TTL to keep the hot path off the database.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/storage"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
)

// TokenCache resolves webhook tokens through an in-memory ristretto cache.
// Tokens are immutable once issued, so a TTL only bounds memory, not
// staleness.
type TokenCache struct {
	tokens *ristretto.Cache[string, *model.WebhookTokenIndexEntry]
	repo   storage.TokenRepo
	ttl    time.Duration
}

// NewTokenCache creates a TokenCache over the given repository. maxEntries
// bounds the number of cached tokens.
func NewTokenCache(repo storage.TokenRepo, maxEntries int64, ttl time.Duration) (*TokenCache, error) {
	tokens, err := ristretto.NewCache(&ristretto.Config[string, *model.WebhookTokenIndexEntry]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}
	return &TokenCache{tokens: tokens, repo: repo, ttl: ttl}, nil
}

// Resolve maps a webhook token to its tenant and platform, consulting the
// database on a cache miss.
func (c *TokenCache) Resolve(ctx context.Context, token string) (*model.WebhookTokenIndexEntry, error) {
	if entry, found := c.tokens.Get(token); found {
		return entry, nil
	}

	entry, err := c.repo.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	if !c.tokens.SetWithTTL(token, entry, 1, c.ttl) {
		logger.FromContext(ctx).Debug("Token cache set dropped", zap.String("platform", string(entry.Platform)))
	}
	return entry, nil
}

// Invalidate drops a token from the cache.
func (c *TokenCache) Invalidate(token string) {
	c.tokens.Del(token)
}

// Close releases the cache resources.
func (c *TokenCache) Close() {
	c.tokens.Close()
}
