package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
)

func metaBody(t *testing.T, payload *model.MetaWebhookPayload) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func metaSignature(body []byte) string {
	return "sha256=" + signBody(body, "meta-app-secret")
}

func TestHandleMetaChallenge(t *testing.T) {
	t.Run("echoes the challenge on a valid handshake", func(t *testing.T) {
		f := newServiceFixture(t)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()

		echo, err := f.service.HandleMetaChallenge(context.Background(), testTenantID, "subscribe", "verify-me", "challenge-42")
		require.NoError(t, err)
		assert.Equal(t, "challenge-42", echo)

		f.assertExpectations(t)
	})

	t.Run("wrong verify token is unauthorized", func(t *testing.T) {
		f := newServiceFixture(t)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()

		_, err := f.service.HandleMetaChallenge(context.Background(), testTenantID, "subscribe", "wrong", "challenge-42")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		f.assertExpectations(t)
	})

	t.Run("wrong mode is unauthorized", func(t *testing.T) {
		f := newServiceFixture(t)
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()

		_, err := f.service.HandleMetaChallenge(context.Background(), testTenantID, "unsubscribe", "verify-me", "challenge-42")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		f.assertExpectations(t)
	})
}

func TestHandleMeta(t *testing.T) {
	t.Run("fetches and dispatches a lead", func(t *testing.T) {
		f := newServiceFixture(t)

		payload := model.NewMetaPayload("leadgen-1", "page-1")
		body := metaBody(t, payload)

		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()
		f.fetcher.On("FetchLead", mock.Anything, "leadgen-1", "page-token").
			Return(model.NewMetaLeadData("leadgen-1"), nil).Once()
		f.sender.On("SendLeadNotification", mock.Anything, mock.Anything, mock.MatchedBy(func(lead *model.Lead) bool {
			return lead.Platform == model.PlatformMeta && lead.LeadID == "leadgen-1"
		})).Return(okSendResult(), nil).Once()
		f.logWorker.On("SubmitTask", mock.Anything).Return(nil).Once()

		outcome, err := f.service.HandleMeta(context.Background(), testTenantID, body, metaSignature(body))
		require.NoError(t, err)
		assert.True(t, outcome.Processed)
		assert.Equal(t, "leadgen-1", outcome.LeadID)

		f.assertExpectations(t)
	})

	t.Run("invalid signature is unauthorized", func(t *testing.T) {
		f := newServiceFixture(t)

		body := metaBody(t, model.NewMetaPayload("", ""))
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()

		_, err := f.service.HandleMeta(context.Background(), testTenantID, body, "sha256=deadbeef")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		f.assertExpectations(t)
	})

	t.Run("non-page objects are skipped", func(t *testing.T) {
		f := newServiceFixture(t)

		payload := model.NewMetaPayload("", "")
		payload.Object = "user"
		body := metaBody(t, payload)

		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()

		outcome, err := f.service.HandleMeta(context.Background(), testTenantID, body, metaSignature(body))
		require.NoError(t, err)
		assert.True(t, outcome.Skipped)

		f.assertExpectations(t)
	})

	t.Run("non-leadgen changes are skipped", func(t *testing.T) {
		f := newServiceFixture(t)

		payload := model.NewMetaPayload("", "")
		payload.Entry[0].Changes[0].Field = "feed"
		body := metaBody(t, payload)

		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()

		outcome, err := f.service.HandleMeta(context.Background(), testTenantID, body, metaSignature(body))
		require.NoError(t, err)
		assert.True(t, outcome.Skipped)

		f.assertExpectations(t)
	})

	t.Run("one failing lead does not block its batch mates", func(t *testing.T) {
		f := newServiceFixture(t)

		payload := model.NewMetaPayload("leadgen-ok", "page-1")
		bad := model.NewMetaPayload("leadgen-bad", "page-1")
		payload.Entry = append(payload.Entry, bad.Entry...)
		body := metaBody(t, payload)

		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()
		f.fetcher.On("FetchLead", mock.Anything, "leadgen-ok", "page-token").
			Return(model.NewMetaLeadData("leadgen-ok"), nil).Once()
		f.fetcher.On("FetchLead", mock.Anything, "leadgen-bad", "page-token").
			Return(nil, apperrors.ErrUpstream).Once()
		f.sender.On("SendLeadNotification", mock.Anything, mock.Anything, mock.Anything).Return(okSendResult(), nil).Once()
		// One success log plus one failure log for the fetch failure
		f.logWorker.On("SubmitTask", mock.Anything).Return(nil).Twice()

		outcome, err := f.service.HandleMeta(context.Background(), testTenantID, body, metaSignature(body))
		require.NoError(t, err)
		assert.True(t, outcome.Processed)

		f.assertExpectations(t)
	})

	t.Run("all leads failing reports the error", func(t *testing.T) {
		f := newServiceFixture(t)

		payload := model.NewMetaPayload("leadgen-bad", "page-1")
		body := metaBody(t, payload)

		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()
		f.fetcher.On("FetchLead", mock.Anything, "leadgen-bad", "page-token").
			Return(nil, apperrors.ErrUpstream).Once()
		f.logWorker.On("SubmitTask", mock.Anything).Return(nil).Once()

		_, err := f.service.HandleMeta(context.Background(), testTenantID, body, metaSignature(body))
		assert.ErrorIs(t, err, apperrors.ErrUpstream)

		f.assertExpectations(t)
	})
}
