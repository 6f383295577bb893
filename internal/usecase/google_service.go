package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/normalize"
	"github.com/KhakiSkech/SOLAPI-alert/internal/observer"
	"github.com/KhakiSkech/SOLAPI-alert/internal/signature"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

// HandleGoogle processes a Google Ads lead form webhook. Google carries its
// shared key inside the payload, so the body is parsed before verification.
func (s *WebhookService) HandleGoogle(ctx context.Context, tenantID string, body []byte) (*Outcome, error) {
	platform := string(model.PlatformGoogle)
	observer.IncWebhooksReceived(platform, tenantID)
	startTime := utils.Now()

	var payload model.GoogleWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		observer.IncWebhooksFailed(platform, tenantID, "unmarshal")
		return nil, fmt.Errorf("%w: failed to unmarshal google payload: %w", apperrors.ErrBadRequest, err)
	}

	bundle, err := s.platformCredentials(ctx, tenantID, model.PlatformGoogle)
	if err != nil {
		observer.IncWebhooksFailed(platform, tenantID, err.Error())
		return nil, err
	}

	if err := signature.VerifyGoogle(payload.GoogleKey, bundle.Google.WebhookKey); err != nil {
		observer.IncWebhooksFailed(platform, tenantID, "signature")
		return nil, asUnauthorized(err)
	}

	if payload.IsTest {
		logger.FromContext(ctx).Info("Skipping google test lead", zap.String("lead_id", payload.LeadID))
		observer.IncWebhooksSkipped(platform, tenantID)
		return &Outcome{Skipped: true, LeadID: payload.LeadID}, nil
	}

	lead := normalize.Google(&payload)
	if err := s.dispatcher.Dispatch(ctx, bundle, lead); err != nil {
		observer.IncWebhooksFailed(platform, tenantID, err.Error())
		return nil, err
	}

	observer.IncWebhooksProcessed(platform, tenantID)
	observer.ObserveWebhookProcessingDuration(platform, tenantID, time.Since(startTime))
	return &Outcome{Processed: true, LeadID: lead.LeadID}, nil
}
