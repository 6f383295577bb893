// Package server exposes the webhook ingestion endpoints, the tenant
// management API and the operational endpoints over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/identity"
	"github.com/KhakiSkech/SOLAPI-alert/internal/ratelimit"
	"github.com/KhakiSkech/SOLAPI-alert/internal/storage"
	"github.com/KhakiSkech/SOLAPI-alert/internal/usecase"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

// Pinger reports storage connectivity for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options holds the HTTP-level settings for the server.
type Options struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MetricsEnabled bool
}

// Deps bundles the collaborators the handlers need.
type Deps struct {
	Webhooks       *usecase.WebhookService
	Tokens         *usecase.TokenService
	CredentialRepo storage.CredentialRepo
	LogRepo        storage.WebhookLogRepo
	Verifier       identity.Verifier
	WebhookLimiter ratelimit.Limiter
	APILimiter     ratelimit.Limiter
	Pinger         Pinger
}

// Server is the HTTP front of the service.
type Server struct {
	httpServer *http.Server
	router     chi.Router

	webhooks       *usecase.WebhookService
	tokens         *usecase.TokenService
	credentialRepo storage.CredentialRepo
	logRepo        storage.WebhookLogRepo
	verifier       identity.Verifier
	webhookLimiter ratelimit.Limiter
	apiLimiter     ratelimit.Limiter
	pinger         Pinger
	baseLogger     *zap.Logger
}

// HealthResponse is the response structure for health check endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details,omitempty"`
}

// NewServer creates the HTTP server and mounts all routes.
func NewServer(opts Options, deps Deps, baseLogger *zap.Logger) *Server {
	s := &Server{
		webhooks:       deps.Webhooks,
		tokens:         deps.Tokens,
		credentialRepo: deps.CredentialRepo,
		logRepo:        deps.LogRepo,
		verifier:       deps.Verifier,
		webhookLimiter: deps.WebhookLimiter,
		apiLimiter:     deps.APILimiter,
		pinger:         deps.Pinger,
		baseLogger:     baseLogger.Named("http"),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	if opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(s.rateLimitMiddleware(s.webhookLimiter, "webhook"))
		r.Get("/meta", s.handleMetaChallenge)
		r.Post("/meta", s.handleMetaWebhook)
		r.Post("/google-ads", s.handleGoogleWebhook)
		r.Post("/tiktok", s.handleTikTokWebhook)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.rateLimitMiddleware(s.apiLimiter, "api"))
		r.Use(s.authMiddleware)
		r.Post("/credentials", s.handleUpsertCredentials)
		r.Get("/credentials", s.handleGetCredentials)
		r.Delete("/credentials/{section}", s.handleRemoveCredentials)
		r.Post("/webhook-urls", s.handleWebhookURLs)
		r.Get("/webhook-urls", s.handleWebhookURLs)
		r.Get("/logs", s.handleListLogs)
		r.Get("/logs/stats", s.handleLogStats)
		r.Post("/test/send", s.handleTestSend)
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      r,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.baseLogger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.baseLogger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.baseLogger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, HealthResponse{Status: "UP"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			utils.WriteJSONResponse(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "DOWN",
				Details: map[string]string{"database": err.Error()},
			})
			return
		}
	}
	utils.WriteJSONResponse(w, http.StatusOK, HealthResponse{
		Status: "READY",
		Details: map[string]string{
			"timestamp": utils.FormatISO8601(utils.Now()),
		},
	})
}
