package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/observer"
	"github.com/KhakiSkech/SOLAPI-alert/internal/ratelimit"
	"github.com/KhakiSkech/SOLAPI-alert/internal/tenant"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

const headerRequestID = "X-Request-ID"

// requestIDMiddleware extracts the inbound request ID or generates one, and
// echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := tenant.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware attaches a request-scoped logger to the context and logs
// one line per request on completion.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, _ := tenant.FromRequestIDContext(r.Context())
		reqLogger := s.baseLogger.With(
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		ctx := logger.WithLogger(r.Context(), reqLogger)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		startTime := utils.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		reqLogger.Info("Request completed",
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(startTime)),
		)
	})
}

// recoveryMiddleware converts handler panics into an acknowledged error
// response. Webhook callers retry aggressively on transport failure, so even
// a panic must produce a well-formed body.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.baseLogger.Error("Panic recovered in HTTP handler",
					zap.Any("panic_error", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				if strings.HasPrefix(r.URL.Path, "/webhooks") {
					utils.WriteJSONResponse(w, http.StatusInternalServerError, model.WebhookResponse{
						Received: true,
						Error:    "internal server error",
					})
					return
				}
				utils.WriteJSONResponse(w, http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware applies a fixed-window limiter keyed by client address.
// Limit state travels on X-RateLimit-* headers; a rejected request gets 429.
func (s *Server) rateLimitMiddleware(limiter ratelimit.Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), scope+":"+utils.ClientIdentifier(r))
			if err != nil {
				// Limiters fail open; an error here means allow.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				observer.IncRateLimitRejected(scope)
				w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(result.ResetAt).Seconds())+1, 10))
				utils.WriteJSONResponse(w, http.StatusTooManyRequests, map[string]string{
					"error": "too many requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// authMiddleware authenticates management API calls. The resolved tenant ID
// is placed on the request context for the handlers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			if bearer := r.Header.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
				apiKey = strings.TrimPrefix(bearer, "Bearer ")
			}
		}

		tenantID, err := s.verifier.Verify(r.Context(), apiKey)
		if err != nil {
			utils.WriteJSONResponse(w, http.StatusUnauthorized, map[string]string{
				"error": "unauthorized",
			})
			return
		}

		ctx := tenant.WithTenantID(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
