package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/tenant"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

// Webhook bodies are small JSON documents; anything bigger is not a lead.
const maxWebhookBodySize = 1 << 20

// resolveWebhookTenant maps the ?token= query parameter to its tenant. The
// token must have been issued for the endpoint's platform; a cross-platform
// token is rejected the same way as an unknown one.
func (s *Server) resolveWebhookTenant(r *http.Request, platform model.Platform) (*http.Request, string, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return r, "", errors.New("missing webhook token")
	}

	entry, err := s.tokens.ResolveTenant(r.Context(), token)
	if err != nil {
		return r, "", err
	}
	if entry.Platform != platform {
		return r, "", errors.New("token does not belong to this platform")
	}

	ctx := tenant.WithTenantID(r.Context(), entry.TenantID)
	ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(
		zap.String("tenant_id", entry.TenantID),
		zap.String("platform", string(platform)),
	))
	return r.WithContext(ctx), entry.TenantID, nil
}

func (s *Server) readWebhookBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusRequestEntityTooLarge, model.WebhookResponse{Error: "request body too large"})
		return nil, false
	}
	return body, true
}

func (s *Server) handleMetaChallenge(w http.ResponseWriter, r *http.Request) {
	r, tenantID, err := s.resolveWebhookTenant(r, model.PlatformMeta)
	if err != nil {
		// The handshake leaks nothing about why it failed.
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	query := r.URL.Query()
	echo, err := s.webhooks.HandleMetaChallenge(r.Context(), tenantID,
		query.Get("hub.mode"),
		query.Get("hub.verify_token"),
		query.Get("hub.challenge"),
	)
	if err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(echo))
}

func (s *Server) handleMetaWebhook(w http.ResponseWriter, r *http.Request) {
	r, tenantID, err := s.resolveWebhookTenant(r, model.PlatformMeta)
	if err != nil {
		writeWebhookError(w, wrapResolveError(err))
		return
	}

	body, ok := s.readWebhookBody(w, r)
	if !ok {
		return
	}

	outcome, err := s.webhooks.HandleMeta(r.Context(), tenantID, body, r.Header.Get("X-Hub-Signature-256"))
	if err != nil {
		writeWebhookError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

func (s *Server) handleGoogleWebhook(w http.ResponseWriter, r *http.Request) {
	r, tenantID, err := s.resolveWebhookTenant(r, model.PlatformGoogle)
	if err != nil {
		writeWebhookError(w, wrapResolveError(err))
		return
	}

	body, ok := s.readWebhookBody(w, r)
	if !ok {
		return
	}

	outcome, err := s.webhooks.HandleGoogle(r.Context(), tenantID, body)
	if err != nil {
		writeWebhookError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

func (s *Server) handleTikTokWebhook(w http.ResponseWriter, r *http.Request) {
	r, tenantID, err := s.resolveWebhookTenant(r, model.PlatformTikTok)
	if err != nil {
		writeWebhookError(w, wrapResolveError(err))
		return
	}

	body, ok := s.readWebhookBody(w, r)
	if !ok {
		return
	}

	outcome, err := s.webhooks.HandleTikTok(r.Context(), tenantID, body, r.Header.Get("X-Tiktok-Signature"))
	if err != nil {
		writeWebhookError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

// wrapResolveError classifies token resolution failures as authentication
// failures. Storage errors pass through as internal.
func wrapResolveError(err error) error {
	if errors.Is(err, apperrors.ErrDatabase) || errors.Is(err, apperrors.ErrTimeout) || errors.Is(err, apperrors.ErrUnauthorized) {
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
}
