package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/storage"
	"github.com/KhakiSkech/SOLAPI-alert/internal/tenant"
	"github.com/KhakiSkech/SOLAPI-alert/internal/validator"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

const defaultStatsWindow = 24 * time.Hour

// handleUpsertCredentials merges the submitted credential sections into the
// tenant's stored bundle. Omitted sections are left untouched.
func (s *Server) handleUpsertCredentials(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.MustFromContext(r.Context())

	var bundle model.CredentialBundle
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBodySize)).Decode(&bundle); err != nil {
		writeAPIError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}
	bundle.TenantID = tenantID

	for _, section := range []interface{}{bundle.Solapi, bundle.Meta, bundle.Google, bundle.TikTok, bundle.Kakao} {
		if isNilSection(section) {
			continue
		}
		if err := validator.Validate(section); err != nil {
			writeAPIError(w, fmt.Errorf("%w: %w", apperrors.ErrBadRequest, err))
			return
		}
	}

	if err := s.credentialRepo.Upsert(r.Context(), &bundle); err != nil {
		writeAPIError(w, err)
		return
	}

	logger.FromContext(r.Context()).Info("Tenant credentials updated", zap.String("tenant_id", tenantID))
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleGetCredentials returns the tenant's bundle with secrets masked. The
// dashboard only needs to show which sections are configured.
func (s *Server) handleGetCredentials(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.MustFromContext(r.Context())

	bundle, err := s.credentialRepo.Find(r.Context(), tenantID)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, maskBundle(bundle))
}

func (s *Server) handleRemoveCredentials(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.MustFromContext(r.Context())
	section := chi.URLParam(r, "section")

	if err := s.credentialRepo.RemovePlatform(r.Context(), tenantID, section); err != nil {
		writeAPIError(w, err)
		return
	}

	logger.FromContext(r.Context()).Info("Tenant credential section removed",
		zap.String("tenant_id", tenantID),
		zap.String("section", section),
	)
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleWebhookURLs returns the tenant's per-platform webhook URLs, issuing
// tokens on first call. GET and POST behave identically since issuance is
// idempotent.
func (s *Server) handleWebhookURLs(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.MustFromContext(r.Context())

	set, err := s.tokens.GetOrCreateTokens(r.Context(), tenantID)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"urls": s.tokens.WebhookURLs(set),
	})
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.MustFromContext(r.Context())

	query := r.URL.Query()
	filter := storage.LogFilter{
		Platform: model.Platform(query.Get("platform")),
		Status:   query.Get("status"),
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil {
		filter.Offset = offset
	}

	logs, err := s.logRepo.Find(r.Context(), tenantID, filter)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

func (s *Server) handleLogStats(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.MustFromContext(r.Context())

	window := defaultStatsWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeAPIError(w, fmt.Errorf("%w: invalid stats window %q", apperrors.ErrBadRequest, raw))
			return
		}
		window = parsed
	}

	stats, err := s.logRepo.Stats(r.Context(), tenantID, utils.Now().Add(-window))
	if err != nil {
		writeAPIError(w, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, stats)
}

// handleTestSend sends a test notification to the phone number in the body.
func (s *Server) handleTestSend(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.MustFromContext(r.Context())

	var req struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBodySize)).Decode(&req); err != nil {
		writeAPIError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}

	sentTo, err := s.webhooks.SendTestNotification(r.Context(), tenantID, req.PhoneNumber)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{
		"status":      "sent",
		"phoneNumber": sentTo,
	})
}

// maskedCredentialView mirrors CredentialBundle with secrets replaced by a
// configured flag.
type maskedCredentialView struct {
	TenantID string         `json:"tenant_id"`
	Solapi   *maskedSection `json:"solapi,omitempty"`
	Meta     *maskedSection `json:"meta,omitempty"`
	Google   *maskedSection `json:"google,omitempty"`
	TikTok   *maskedSection `json:"tiktok,omitempty"`
	Kakao    *maskedSection `json:"kakao,omitempty"`
}

type maskedSection struct {
	Configured   bool   `json:"configured"`
	SenderNumber string `json:"sender_number,omitempty"`
	VerifyToken  string `json:"verify_token,omitempty"`
	ChannelID    string `json:"channel_id,omitempty"`
}

func maskBundle(bundle *model.CredentialBundle) *maskedCredentialView {
	view := &maskedCredentialView{TenantID: bundle.TenantID}
	if bundle.Solapi != nil {
		view.Solapi = &maskedSection{Configured: true, SenderNumber: bundle.Solapi.SenderNumber}
	}
	if bundle.Meta != nil {
		view.Meta = &maskedSection{Configured: true, VerifyToken: bundle.Meta.VerifyToken}
	}
	if bundle.Google != nil {
		view.Google = &maskedSection{Configured: true}
	}
	if bundle.TikTok != nil {
		view.TikTok = &maskedSection{Configured: true}
	}
	if bundle.Kakao != nil {
		view.Kakao = &maskedSection{Configured: true, ChannelID: bundle.Kakao.ChannelID}
	}
	return view
}

// isNilSection reports whether a typed-nil credential section pointer was
// stored in an interface value.
func isNilSection(section interface{}) bool {
	switch v := section.(type) {
	case *model.SolapiCredentials:
		return v == nil
	case *model.MetaCredentials:
		return v == nil
	case *model.GoogleCredentials:
		return v == nil
	case *model.TikTokCredentials:
		return v == nil
	case *model.KakaoCredentials:
		return v == nil
	}
	return section == nil
}
