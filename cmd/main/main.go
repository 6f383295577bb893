package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/cache"
	"github.com/KhakiSkech/SOLAPI-alert/internal/config"
	"github.com/KhakiSkech/SOLAPI-alert/internal/crypto"
	"github.com/KhakiSkech/SOLAPI-alert/internal/identity"
	"github.com/KhakiSkech/SOLAPI-alert/internal/metaapi"
	"github.com/KhakiSkech/SOLAPI-alert/internal/observer"
	"github.com/KhakiSkech/SOLAPI-alert/internal/ratelimit"
	"github.com/KhakiSkech/SOLAPI-alert/internal/server"
	"github.com/KhakiSkech/SOLAPI-alert/internal/solapi"
	"github.com/KhakiSkech/SOLAPI-alert/internal/storage"
	"github.com/KhakiSkech/SOLAPI-alert/internal/usecase"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize Metrics conditionally
	metricsEnabled := cfg.Metrics.Enabled
	observer.InitMetrics(metricsEnabled)

	logger.Log.Info("Starting SOLAPI lead alert relay",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Server.Port),
		zap.String("rate_limit_backend", cfg.RateLimit.Backend),
	)

	// Credential cipher
	cipher, err := crypto.NewCipher(cfg.Encryption.Key)
	if err != nil {
		logger.Log.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	// Initialize repositories
	postgresRepo, err := storage.NewPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate, cipher)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	credentialRepo := storage.NewCredentialRepoAdapter(postgresRepo)
	tokenRepo := storage.NewTokenRepoAdapter(postgresRepo)
	logRepo := storage.NewWebhookLogRepoAdapter(postgresRepo)

	// Token resolution cache in front of the token index
	tokenCache, err := cache.NewTokenCache(tokenRepo, cfg.TokenCache.MaxEntries, cfg.TokenCache.TTL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize token cache", zap.Error(err))
	}

	// Webhook log worker pool
	logWorker, err := usecase.NewLogWorker(cfg.WorkerPools.WebhookLog, logRepo, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to initialize webhook log worker pool", zap.Error(err))
	}

	// Outbound clients
	solapiClient := solapi.NewClient(cfg.Solapi.BaseURL, cfg.Solapi.Timeout)
	metaClient := metaapi.NewClient(cfg.Meta.GraphBaseURL, cfg.Meta.Timeout, cfg.Meta.RetryInterval, cfg.Meta.RetryMaxWait)

	// Services
	dispatcher := usecase.NewDispatcher(solapiClient, logWorker)
	webhookService := usecase.NewWebhookService(credentialRepo, metaClient, dispatcher)
	tokenService := usecase.NewTokenService(tokenRepo, tokenCache, cfg.Server.PublicBaseURL)

	// Rate limiters
	webhookLimiter, err := newLimiter(cfg, cfg.RateLimit.Webhook, "webhook")
	if err != nil {
		logger.Log.Fatal("Failed to initialize webhook rate limiter", zap.Error(err))
	}
	apiLimiter, err := newLimiter(cfg, cfg.RateLimit.API, "api")
	if err != nil {
		logger.Log.Fatal("Failed to initialize api rate limiter", zap.Error(err))
	}

	// HTTP server
	httpServer := server.NewServer(server.Options{
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MetricsEnabled: metricsEnabled,
	}, server.Deps{
		Webhooks:       webhookService,
		Tokens:         tokenService,
		CredentialRepo: credentialRepo,
		LogRepo:        logRepo,
		Verifier:       identity.NewStaticVerifier(cfg.Identity.APIKeys),
		WebhookLimiter: webhookLimiter,
		APILimiter:     apiLimiter,
		Pinger:         postgresRepo,
	}, logger.Log)

	httpServer.Start()

	logger.Log.Info("Webhook endpoints available",
		zap.String("meta", fmt.Sprintf("http://localhost:%d/webhooks/meta", cfg.Server.Port)),
		zap.String("google", fmt.Sprintf("http://localhost:%d/webhooks/google-ads", cfg.Server.Port)),
		zap.String("tiktok", fmt.Sprintf("http://localhost:%d/webhooks/tiktok", cfg.Server.Port)),
	)

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

	var wg sync.WaitGroup
	wg.Add(3)

	// Shutdown HTTP server first so no new webhooks arrive
	utils.SafeGo(func() {
		defer wg.Done()
		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping HTTP server", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] HTTP server stopped")
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping HTTP server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Shutdown log worker pool
	utils.SafeGo(func() {
		defer wg.Done()
		logWorker.Stop()
		logger.Log.Info("[shutdown] Webhook log worker pool stopped")
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping log worker pool",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Shutdown caches and limiters
	utils.SafeGo(func() {
		defer wg.Done()
		tokenCache.Close()
		if err := webhookLimiter.Close(); err != nil {
			logger.Log.Error("[shutdown] Error closing webhook rate limiter", zap.Error(err))
		}
		if err := apiLimiter.Close(); err != nil {
			logger.Log.Error("[shutdown] Error closing api rate limiter", zap.Error(err))
		}
		logger.Log.Info("[shutdown] Caches and rate limiters closed")
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while closing caches",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Wait for components, then close the database last
	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-shutdownCtx.Done():
		logger.Log.Warn("Graceful shutdown timed out")
	}

	if err := postgresRepo.Close(shutdownCtx); err != nil {
		logger.Log.Error("[shutdown] Error closing Postgres connection", zap.Error(err))
	}

	logger.Log.Info("Shutdown complete")
}

// newLimiter builds a rate limiter for one scope using the configured
// backend.
func newLimiter(cfg *config.Config, rule config.RateLimitRule, prefix string) (ratelimit.Limiter, error) {
	limiterRule := ratelimit.Rule{
		MaxRequests: rule.MaxRequests,
		Window:      rule.Window,
	}
	if cfg.RateLimit.Backend == "redis" {
		return ratelimit.NewRedisLimiter(
			cfg.RateLimit.Redis.Addr,
			cfg.RateLimit.Redis.Password,
			cfg.RateLimit.Redis.DB,
			prefix,
			limiterRule,
		)
	}
	return ratelimit.NewMemoryLimiter(limiterRule), nil
}
