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

// HandleTikTok processes a TikTok lead webhook. The signature covers the raw
// body, so verification happens before parsing.
func (s *WebhookService) HandleTikTok(ctx context.Context, tenantID string, body []byte, signatureHeader string) (*Outcome, error) {
	platform := string(model.PlatformTikTok)
	observer.IncWebhooksReceived(platform, tenantID)
	startTime := utils.Now()

	bundle, err := s.platformCredentials(ctx, tenantID, model.PlatformTikTok)
	if err != nil {
		observer.IncWebhooksFailed(platform, tenantID, err.Error())
		return nil, err
	}

	if err := signature.VerifyTikTok(body, signatureHeader, bundle.TikTok.WebhookSecret); err != nil {
		observer.IncWebhooksFailed(platform, tenantID, "signature")
		return nil, asUnauthorized(err)
	}

	var payload model.TikTokWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		observer.IncWebhooksFailed(platform, tenantID, "unmarshal")
		return nil, fmt.Errorf("%w: failed to unmarshal tiktok payload: %w", apperrors.ErrBadRequest, err)
	}

	if payload.Event != model.TikTokEventLeadGenerate {
		logger.FromContext(ctx).Info("Skipping tiktok event", zap.String("event", payload.Event))
		observer.IncWebhooksSkipped(platform, tenantID)
		return &Outcome{Skipped: true}, nil
	}

	lead := normalize.TikTok(&payload)
	if err := s.dispatcher.Dispatch(ctx, bundle, lead); err != nil {
		observer.IncWebhooksFailed(platform, tenantID, err.Error())
		return nil, err
	}

	observer.IncWebhooksProcessed(platform, tenantID)
	observer.ObserveWebhookProcessingDuration(platform, tenantID, time.Since(startTime))
	return &Outcome{Processed: true, LeadID: lead.LeadID}, nil
}
