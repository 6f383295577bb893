package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	storagemock "github.com/KhakiSkech/SOLAPI-alert/internal/storage/mock"
)

func TestTokenCacheResolve(t *testing.T) {
	t.Run("miss then hit", func(t *testing.T) {
		repo := new(storagemock.TokenRepoMock)
		cache, err := NewTokenCache(repo, 100, time.Minute)
		require.NoError(t, err)
		defer cache.Close()

		entry := &model.WebhookTokenIndexEntry{
			Token:    "tok-1",
			TenantID: "tenant-a",
			Platform: model.PlatformMeta,
		}
		repo.On("Resolve", mock.Anything, "tok-1").Return(entry, nil).Once()

		got, err := cache.Resolve(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "tenant-a", got.TenantID)

		// ristretto applies sets asynchronously
		cache.tokens.Wait()

		got, err = cache.Resolve(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.Equal(t, model.PlatformMeta, got.Platform)

		repo.AssertExpectations(t)
	})

	t.Run("unknown token is not cached", func(t *testing.T) {
		repo := new(storagemock.TokenRepoMock)
		cache, err := NewTokenCache(repo, 100, time.Minute)
		require.NoError(t, err)
		defer cache.Close()

		repo.On("Resolve", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound).Twice()

		_, err = cache.Resolve(context.Background(), "missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = cache.Resolve(context.Background(), "missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		repo.AssertExpectations(t)
	})

	t.Run("invalidate forces a re-read", func(t *testing.T) {
		repo := new(storagemock.TokenRepoMock)
		cache, err := NewTokenCache(repo, 100, time.Minute)
		require.NoError(t, err)
		defer cache.Close()

		entry := &model.WebhookTokenIndexEntry{
			Token:    "tok-2",
			TenantID: "tenant-b",
			Platform: model.PlatformGoogle,
		}
		repo.On("Resolve", mock.Anything, "tok-2").Return(entry, nil).Twice()

		_, err = cache.Resolve(context.Background(), "tok-2")
		require.NoError(t, err)
		cache.tokens.Wait()

		cache.Invalidate("tok-2")

		_, err = cache.Resolve(context.Background(), "tok-2")
		require.NoError(t, err)

		repo.AssertExpectations(t)
	})
}
