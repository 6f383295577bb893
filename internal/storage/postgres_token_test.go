package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/crypto"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
)

func newTokenCandidate(t *testing.T) model.WebhookTokenSet {
	t.Helper()
	meta, err := crypto.GenerateWebhookToken()
	require.NoError(t, err)
	google, err := crypto.GenerateWebhookToken()
	require.NoError(t, err)
	tiktok, err := crypto.GenerateWebhookToken()
	require.NoError(t, err)
	return model.WebhookTokenSet{
		TenantID: testTenantID,
		Meta:     meta,
		Google:   google,
		TikTok:   tiktok,
	}
}

func tokenSetColumns() []string {
	return []string{"tenant_id", "meta_token", "google_token", "tiktok_token"}
}

func TestEnsureTokenSet(t *testing.T) {
	t.Run("creates set and index rows when absent", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		defer teardown()

		candidate := newTokenCandidate(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .* FROM "webhook_token_sets" .*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(tokenSetColumns()))
		mock.ExpectExec(`INSERT INTO "webhook_token_sets"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "webhook_token_index"`).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		set, err := repo.EnsureTokenSet(context.Background(), candidate)
		require.NoError(t, err)
		assert.Equal(t, candidate.Meta, set.Meta)
		assert.Equal(t, candidate.Google, set.Google)
		assert.Equal(t, candidate.TikTok, set.TikTok)
	})

	t.Run("returns existing set untouched", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		defer teardown()

		candidate := newTokenCandidate(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .* FROM "webhook_token_sets" .*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(tokenSetColumns()).
				AddRow(testTenantID, "existing-meta", "existing-google", "existing-tiktok"))
		mock.ExpectCommit()

		set, err := repo.EnsureTokenSet(context.Background(), candidate)
		require.NoError(t, err)
		assert.Equal(t, "existing-meta", set.Meta)
		assert.Equal(t, "existing-google", set.Google)
		assert.Equal(t, "existing-tiktok", set.TikTok)
	})

	t.Run("missing tenant id", func(t *testing.T) {
		repo, _, teardown := newTestRepo(t)
		defer teardown()

		_, err := repo.EnsureTokenSet(context.Background(), model.WebhookTokenSet{})
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	})
}

func TestFindTokenSet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		defer teardown()

		mock.ExpectQuery(`SELECT .* FROM "webhook_token_sets"`).
			WillReturnRows(sqlmock.NewRows(tokenSetColumns()).
				AddRow(testTenantID, "m-token", "g-token", "t-token"))

		set, err := repo.FindTokenSet(context.Background(), testTenantID)
		require.NoError(t, err)
		assert.Equal(t, "g-token", set.Token(model.PlatformGoogle))
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		defer teardown()

		mock.ExpectQuery(`SELECT .* FROM "webhook_token_sets"`).
			WillReturnRows(sqlmock.NewRows(tokenSetColumns()))

		_, err := repo.FindTokenSet(context.Background(), "nope")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestResolveToken(t *testing.T) {
	t.Run("maps token to tenant and platform", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		defer teardown()

		mock.ExpectQuery(`SELECT .* FROM "webhook_token_index"`).
			WillReturnRows(sqlmock.NewRows([]string{"token", "tenant_id", "platform"}).
				AddRow("abc123", testTenantID, "tiktok"))

		entry, err := repo.ResolveToken(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, testTenantID, entry.TenantID)
		assert.Equal(t, model.PlatformTikTok, entry.Platform)
	})

	t.Run("unknown token", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		defer teardown()

		mock.ExpectQuery(`SELECT .* FROM "webhook_token_index"`).
			WillReturnRows(sqlmock.NewRows([]string{"token", "tenant_id", "platform"}))

		_, err := repo.ResolveToken(context.Background(), "unknown")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
