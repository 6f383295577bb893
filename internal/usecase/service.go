package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/metaapi"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/signature"
	"github.com/KhakiSkech/SOLAPI-alert/internal/storage"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

// Outcome describes how a webhook was handled. A skipped webhook was
// authentic but carried nothing to dispatch (test payload, uninteresting
// event type); it is acknowledged without processing.
type Outcome struct {
	Processed bool
	Skipped   bool
	LeadID    string
}

// WebhookService processes verified webhooks end to end: credential lookup,
// signature verification, normalization and dispatch.
type WebhookService struct {
	credentialRepo storage.CredentialRepo
	leadFetcher    metaapi.LeadFetcher
	dispatcher     *Dispatcher
}

// NewWebhookService creates a new webhook service.
func NewWebhookService(credentialRepo storage.CredentialRepo, leadFetcher metaapi.LeadFetcher, dispatcher *Dispatcher) *WebhookService {
	return &WebhookService{
		credentialRepo: credentialRepo,
		leadFetcher:    leadFetcher,
		dispatcher:     dispatcher,
	}
}

// SendTestNotification sends a test message to the given phone number using
// the tenant's SOLAPI credentials. Used from the management API to verify a
// tenant's setup before real leads arrive.
func (s *WebhookService) SendTestNotification(ctx context.Context, tenantID, phone string) (string, error) {
	phone = utils.CleanPhoneNumber(phone)
	if phone == "" {
		return "", fmt.Errorf("%w: phone number is required", apperrors.ErrBadRequest)
	}

	bundle, err := s.credentialRepo.Find(ctx, tenantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", fmt.Errorf("%w: solapi is not configured for this tenant", apperrors.ErrValidation)
		}
		return "", err
	}

	result, err := s.dispatcher.SendTest(ctx, bundle, phone)
	if err != nil {
		return "", err
	}
	return result.To, nil
}

// platformCredentials loads the tenant bundle and requires the platform
// section. A token for an unconfigured platform fails verification rather
// than revealing the tenant's configuration state.
func (s *WebhookService) platformCredentials(ctx context.Context, tenantID string, platform model.Platform) (*model.CredentialBundle, error) {
	bundle, err := s.credentialRepo.Find(ctx, tenantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no credentials for tenant", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if !bundle.HasPlatform(platform) {
		return nil, fmt.Errorf("%w: platform %s not configured", apperrors.ErrUnauthorized, platform)
	}
	return bundle, nil
}

// asUnauthorized converts signature failures into the unauthorized error
// class; anything else passes through.
func asUnauthorized(err error) error {
	if errors.Is(err, signature.ErrInvalidSignature) || errors.Is(err, signature.ErrMissingSignature) {
		return fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	return err
}
