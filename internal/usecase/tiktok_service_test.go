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

func tiktokBody(t *testing.T, payload *model.TikTokWebhookPayload) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func TestHandleTikTok(t *testing.T) {
	t.Run("dispatches a valid lead", func(t *testing.T) {
		f := newServiceFixture(t)

		payload := model.NewTikTokPayload()
		body := tiktokBody(t, payload)

		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()
		f.sender.On("SendLeadNotification", mock.Anything, mock.Anything, mock.MatchedBy(func(lead *model.Lead) bool {
			return lead.Platform == model.PlatformTikTok && lead.LeadID == payload.Lead.LeadID
		})).Return(okSendResult(), nil).Once()
		f.logWorker.On("SubmitTask", mock.Anything).Return(nil).Once()

		outcome, err := f.service.HandleTikTok(context.Background(), testTenantID, body, signBody(body, "tiktok-secret"))
		require.NoError(t, err)
		assert.True(t, outcome.Processed)
		assert.Equal(t, payload.Lead.LeadID, outcome.LeadID)

		f.assertExpectations(t)
	})

	t.Run("invalid signature is unauthorized", func(t *testing.T) {
		f := newServiceFixture(t)

		body := tiktokBody(t, model.NewTikTokPayload())
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()

		_, err := f.service.HandleTikTok(context.Background(), testTenantID, body, signBody(body, "other-secret"))
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		f.assertExpectations(t)
	})

	t.Run("missing signature is unauthorized", func(t *testing.T) {
		f := newServiceFixture(t)

		body := tiktokBody(t, model.NewTikTokPayload())
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()

		_, err := f.service.HandleTikTok(context.Background(), testTenantID, body, "")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		f.assertExpectations(t)
	})

	t.Run("non-lead events are skipped", func(t *testing.T) {
		f := newServiceFixture(t)

		payload := model.NewTikTokPayload()
		payload.Event = "page_view"
		body := tiktokBody(t, payload)

		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()

		outcome, err := f.service.HandleTikTok(context.Background(), testTenantID, body, signBody(body, "tiktok-secret"))
		require.NoError(t, err)
		assert.True(t, outcome.Skipped)

		f.assertExpectations(t)
	})

	t.Run("malformed body after valid signature", func(t *testing.T) {
		f := newServiceFixture(t)

		body := []byte("{not json")
		f.credRepo.On("Find", mock.Anything, testTenantID).Return(fullBundle(), nil).Once()

		_, err := f.service.HandleTikTok(context.Background(), testTenantID, body, signBody(body, "tiktok-secret"))
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)

		f.assertExpectations(t)
	})
}
