package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/cache"
	"github.com/KhakiSkech/SOLAPI-alert/internal/crypto"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/storage"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
)

// TokenService issues and resolves the opaque per-tenant webhook tokens that
// route incoming webhooks to their tenant.
type TokenService struct {
	tokenRepo     storage.TokenRepo
	tokenCache    *cache.TokenCache
	publicBaseURL string
}

// NewTokenService creates a new token service. publicBaseURL is embedded in
// the webhook URLs handed to tenants.
func NewTokenService(tokenRepo storage.TokenRepo, tokenCache *cache.TokenCache, publicBaseURL string) *TokenService {
	return &TokenService{
		tokenRepo:     tokenRepo,
		tokenCache:    tokenCache,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// GetOrCreateTokens returns the tenant's webhook token set, generating one on
// first call. Repeated calls return the same tokens.
func (s *TokenService) GetOrCreateTokens(ctx context.Context, tenantID string) (*model.WebhookTokenSet, error) {
	metaToken, err := crypto.GenerateWebhookToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate meta token: %w", err)
	}
	googleToken, err := crypto.GenerateWebhookToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate google token: %w", err)
	}
	tiktokToken, err := crypto.GenerateWebhookToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tiktok token: %w", err)
	}

	set, err := s.tokenRepo.Ensure(ctx, model.WebhookTokenSet{
		TenantID: tenantID,
		Meta:     metaToken,
		Google:   googleToken,
		TikTok:   tiktokToken,
	})
	if err != nil {
		return nil, err
	}
	if set.Meta != metaToken {
		logger.FromContext(ctx).Debug("Webhook tokens already issued", zap.String("tenant_id", tenantID))
	}
	return set, nil
}

// ResolveTenant maps a webhook token to its tenant and platform through the
// token cache.
func (s *TokenService) ResolveTenant(ctx context.Context, token string) (*model.WebhookTokenIndexEntry, error) {
	return s.tokenCache.Resolve(ctx, token)
}

// WebhookURLs renders the tenant-facing webhook URLs for a token set.
func (s *TokenService) WebhookURLs(set *model.WebhookTokenSet) map[string]string {
	return map[string]string{
		"meta":   fmt.Sprintf("%s/webhooks/meta?token=%s", s.publicBaseURL, set.Meta),
		"google": fmt.Sprintf("%s/webhooks/google-ads?token=%s", s.publicBaseURL, set.Google),
		"tiktok": fmt.Sprintf("%s/webhooks/tiktok?token=%s", s.publicBaseURL, set.TikTok),
	}
}
