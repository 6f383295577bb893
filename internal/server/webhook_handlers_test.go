package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/ratelimit"
	"github.com/KhakiSkech/SOLAPI-alert/internal/solapi"
)

func signHex(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func marshalBody(t *testing.T, payload interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func decodeAck(t *testing.T, rec *httptest.ResponseRecorder) model.WebhookResponse {
	t.Helper()
	var ack model.WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	return ack
}

func TestGoogleWebhookEndpoint(t *testing.T) {
	t.Run("valid lead is acknowledged processed", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-google", model.PlatformGoogle)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil).Once()

		payload := model.NewGooglePayload("google-shared-key")
		req := httptest.NewRequest(http.MethodPost, "/webhooks/google-ads?token=tok-google", bytes.NewReader(marshalBody(t, payload)))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		ack := decodeAck(t, rec)
		assert.True(t, ack.Received)
		assert.True(t, ack.Processed)
		assert.Equal(t, payload.LeadID, ack.LeadID)
	})

	t.Run("test payloads are acknowledged unprocessed", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-google", model.PlatformGoogle)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil).Once()

		payload := model.NewGooglePayload("google-shared-key")
		payload.IsTest = true
		req := httptest.NewRequest(http.MethodPost, "/webhooks/google-ads?token=tok-google", bytes.NewReader(marshalBody(t, payload)))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		ack := decodeAck(t, rec)
		assert.True(t, ack.Received)
		assert.False(t, ack.Processed)
	})

	t.Run("wrong shared key is rejected", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-google", model.PlatformGoogle)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil).Once()

		payload := model.NewGooglePayload("not-the-key")
		req := httptest.NewRequest(http.MethodPost, "/webhooks/google-ads?token=tok-google", bytes.NewReader(marshalBody(t, payload)))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		ack := decodeAck(t, rec)
		assert.False(t, ack.Received)
		assert.False(t, ack.Processed)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		f := newServerFixture(t)
		f.tokRepo.On("Resolve", mock.Anything, "tok-nope").
			Return(nil, fmt.Errorf("%w: unknown webhook token", apperrors.ErrNotFound))

		req := httptest.NewRequest(http.MethodPost, "/webhooks/google-ads?token=tok-nope", bytes.NewReader([]byte("{}")))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		f := newServerFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/google-ads", bytes.NewReader([]byte("{}")))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token for another platform is rejected", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-meta", model.PlatformMeta)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/google-ads?token=tok-meta", bytes.NewReader([]byte("{}")))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body is an acknowledged server error", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-google", model.PlatformGoogle)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/google-ads?token=tok-google", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		ack := decodeAck(t, rec)
		assert.True(t, ack.Received)
		assert.False(t, ack.Processed)
		assert.NotEmpty(t, ack.Error)
	})

	t.Run("dispatch failure still acknowledges receipt", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-google", model.PlatformGoogle)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil).Once()
		f.sender.sendFunc = func(_ context.Context, _ model.SolapiCredentials, _ *model.Lead) (*solapi.SendResult, error) {
			return nil, apperrors.ErrUpstream
		}

		payload := model.NewGooglePayload("google-shared-key")
		req := httptest.NewRequest(http.MethodPost, "/webhooks/google-ads?token=tok-google", bytes.NewReader(marshalBody(t, payload)))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		ack := decodeAck(t, rec)
		assert.True(t, ack.Received)
		assert.False(t, ack.Processed)
		assert.NotEmpty(t, ack.Error)
	})
}

func TestTikTokWebhookEndpoint(t *testing.T) {
	t.Run("valid signed lead is processed", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-tiktok", model.PlatformTikTok)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil).Once()

		body := marshalBody(t, model.NewTikTokPayload())
		req := httptest.NewRequest(http.MethodPost, "/webhooks/tiktok?token=tok-tiktok", bytes.NewReader(body))
		req.Header.Set("X-Tiktok-Signature", signHex(body, "tiktok-secret"))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decodeAck(t, rec).Processed)
	})

	t.Run("bad signature is rejected without sink calls", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-tiktok", model.PlatformTikTok)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil).Once()

		sent := false
		f.sender.sendFunc = func(_ context.Context, _ model.SolapiCredentials, _ *model.Lead) (*solapi.SendResult, error) {
			sent = true
			return nil, nil
		}

		body := marshalBody(t, model.NewTikTokPayload())
		req := httptest.NewRequest(http.MethodPost, "/webhooks/tiktok?token=tok-tiktok", bytes.NewReader(body))
		req.Header.Set("X-Tiktok-Signature", "deadbeef")
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, decodeAck(t, rec).Received)
		assert.False(t, sent)
	})
}

func TestMetaWebhookEndpoint(t *testing.T) {
	t.Run("valid signed batch is processed", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-meta", model.PlatformMeta)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil).Once()

		body := marshalBody(t, model.NewMetaPayload("leadgen-1", "page-1"))
		req := httptest.NewRequest(http.MethodPost, "/webhooks/meta?token=tok-meta", bytes.NewReader(body))
		req.Header.Set("X-Hub-Signature-256", "sha256="+signHex(body, "meta-app-secret"))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		ack := decodeAck(t, rec)
		assert.True(t, ack.Processed)
		assert.Equal(t, "leadgen-1", ack.LeadID)
	})

	t.Run("missing signature is rejected", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-meta", model.PlatformMeta)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil).Once()

		body := marshalBody(t, model.NewMetaPayload("", ""))
		req := httptest.NewRequest(http.MethodPost, "/webhooks/meta?token=tok-meta", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMetaChallengeEndpoint(t *testing.T) {
	t.Run("valid handshake echoes the challenge", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-meta", model.PlatformMeta)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil).Once()

		req := httptest.NewRequest(http.MethodGet,
			"/webhooks/meta?token=tok-meta&hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=challenge-42", nil)
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "challenge-42", rec.Body.String())
	})

	t.Run("wrong verify token gets a generic forbidden", func(t *testing.T) {
		f := newServerFixture(t)
		f.expectToken("tok-meta", model.PlatformMeta)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil).Once()

		req := httptest.NewRequest(http.MethodGet,
			"/webhooks/meta?token=tok-meta&hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=challenge-42", nil)
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.NotContains(t, rec.Body.String(), "verify")
	})

	t.Run("unknown token gets the same forbidden", func(t *testing.T) {
		f := newServerFixture(t)
		f.tokRepo.On("Resolve", mock.Anything, "tok-nope").
			Return(nil, fmt.Errorf("%w: unknown webhook token", apperrors.ErrNotFound))

		req := httptest.NewRequest(http.MethodGet,
			"/webhooks/meta?token=tok-nope&hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=challenge-42", nil)
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestWebhookRateLimit(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Rule{MaxRequests: 1, Window: time.Minute})
	t.Cleanup(func() { _ = limiter.Close() })

	f := newServerFixture(t, withWebhookLimiter(limiter))
	f.expectToken("tok-google", model.PlatformGoogle)
	f.credRepo.On("Find", mock.Anything, testTenantID).Return(testBundle(), nil)

	payload := marshalBody(t, model.NewGooglePayload("google-shared-key"))

	first := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/webhooks/google-ads?token=tok-google", bytes.NewReader(payload)))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/webhooks/google-ads?token=tok-google", bytes.NewReader(payload)))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, second.Header().Get("X-RateLimit-Reset"))
}
