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

// HandleMetaChallenge answers Meta's GET subscription handshake. On success
// the returned string must be echoed back as plain text.
func (s *WebhookService) HandleMetaChallenge(ctx context.Context, tenantID, mode, verifyToken, challenge string) (string, error) {
	bundle, err := s.platformCredentials(ctx, tenantID, model.PlatformMeta)
	if err != nil {
		return "", err
	}

	echo, err := signature.VerifyMetaChallenge(mode, verifyToken, challenge, bundle.Meta.VerifyToken)
	if err != nil {
		return "", asUnauthorized(err)
	}
	logger.FromContext(ctx).Info("Meta subscription handshake verified", zap.String("tenant_id", tenantID))
	return echo, nil
}

// HandleMeta processes a Meta Lead Ads webhook batch. Each lead in the batch
// is fetched, normalized and dispatched independently; one bad lead never
// blocks its batch mates.
func (s *WebhookService) HandleMeta(ctx context.Context, tenantID string, body []byte, signatureHeader string) (*Outcome, error) {
	platform := string(model.PlatformMeta)
	observer.IncWebhooksReceived(platform, tenantID)
	startTime := utils.Now()

	bundle, err := s.platformCredentials(ctx, tenantID, model.PlatformMeta)
	if err != nil {
		observer.IncWebhooksFailed(platform, tenantID, err.Error())
		return nil, err
	}

	if err := signature.VerifyMeta(body, signatureHeader, bundle.Meta.AppSecret); err != nil {
		observer.IncWebhooksFailed(platform, tenantID, "signature")
		return nil, asUnauthorized(err)
	}

	var payload model.MetaWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		observer.IncWebhooksFailed(platform, tenantID, "unmarshal")
		return nil, fmt.Errorf("%w: failed to unmarshal meta payload: %w", apperrors.ErrBadRequest, err)
	}

	if payload.Object != model.MetaObjectPage {
		logger.FromContext(ctx).Info("Skipping meta webhook object", zap.String("object", payload.Object))
		observer.IncWebhooksSkipped(platform, tenantID)
		return &Outcome{Skipped: true}, nil
	}

	var (
		attempted int
		succeeded int
		lastErr   error
		lastLead  string
	)
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != model.MetaFieldLeadgen {
				continue
			}
			attempted++
			leadID, err := s.processMetaLead(ctx, bundle, change.Value)
			if err != nil {
				lastErr = err
				logger.FromContext(ctx).Error("Failed to process meta lead",
					zap.String("leadgen_id", change.Value.LeadgenID),
					zap.Error(err),
				)
				continue
			}
			succeeded++
			lastLead = leadID
		}
	}

	if attempted == 0 {
		observer.IncWebhooksSkipped(platform, tenantID)
		return &Outcome{Skipped: true}, nil
	}
	if succeeded == 0 {
		observer.IncWebhooksFailed(platform, tenantID, lastErr.Error())
		return nil, lastErr
	}

	observer.IncWebhooksProcessed(platform, tenantID)
	observer.ObserveWebhookProcessingDuration(platform, tenantID, time.Since(startTime))
	return &Outcome{Processed: true, LeadID: lastLead}, nil
}

// processMetaLead fetches one lead's field data from the Graph API and
// dispatches it.
func (s *WebhookService) processMetaLead(ctx context.Context, bundle *model.CredentialBundle, change model.MetaLeadChangeValue) (string, error) {
	if change.LeadgenID == "" {
		return "", fmt.Errorf("%w: leadgen change without lead id", apperrors.ErrBadRequest)
	}

	data, err := s.leadFetcher.FetchLead(ctx, change.LeadgenID, bundle.Meta.PageAccessToken)
	if err != nil {
		// Record the failed lead so the tenant can see it in the log.
		s.dispatcher.recordOutcome(ctx, bundle.TenantID, &model.Lead{
			Platform: model.PlatformMeta,
			LeadID:   change.LeadgenID,
		}, "", err)
		return "", err
	}

	lead := normalize.Meta(change, data)
	if err := s.dispatcher.Dispatch(ctx, bundle, lead); err != nil {
		return "", err
	}
	return lead.LeadID, nil
}
