// Command tester generates signed synthetic webhook traffic against a
// running relay instance. It fabricates realistic platform payloads, signs
// them the way the real platforms do, and reports the relay's responses.
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the relay")
	platform := flag.String("platform", "google", "Platform to simulate (meta, google, tiktok)")
	token := flag.String("token", "", "Webhook token issued for the tenant+platform (required)")
	secret := flag.String("secret", "", "Signing secret: Meta app secret, Google webhook key, or TikTok webhook secret")
	count := flag.Int("count", 1, "Number of webhooks to send")
	interval := flag.Duration("interval", time.Second, "Delay between webhooks")
	asTest := flag.Bool("test-flag", false, "Mark Google payloads as test traffic")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Webhook Traffic Generator\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Sends signed synthetic lead webhooks to a running relay.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := logger.Initialize(*logLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *token == "" {
		logger.Log.Fatal("A webhook token is required (-token)")
	}
	if *secret == "" {
		logger.Log.Fatal("A signing secret is required (-secret)")
	}

	target := model.Platform(*platform)
	if !target.Valid() {
		logger.Log.Fatal("Unknown platform", zap.String("platform", *platform))
	}

	logger.Log.Info("Starting webhook traffic generator",
		zap.String("url", *baseURL),
		zap.String("platform", *platform),
		zap.Int("count", *count),
		zap.Duration("interval", *interval),
	)

	client := &http.Client{Timeout: 15 * time.Second}
	succeeded := 0

	for i := 0; i < *count; i++ {
		if i > 0 {
			time.Sleep(*interval)
		}

		req, err := buildRequest(*baseURL, target, *token, *secret, *asTest)
		if err != nil {
			logger.Log.Error("Failed to build request", zap.Error(err))
			continue
		}

		resp, err := client.Do(req)
		if err != nil {
			logger.Log.Error("Request failed", zap.Error(err))
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			succeeded++
		}
		logger.Log.Info("Webhook sent",
			zap.Int("attempt", i+1),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bytes.TrimSpace(respBody)),
		)
	}

	logger.Log.Info("Traffic generation complete",
		zap.Int("sent", *count),
		zap.Int("succeeded", succeeded),
	)
}

// buildRequest fabricates one signed webhook request for the platform.
func buildRequest(baseURL string, platform model.Platform, token, secret string, asTest bool) (*http.Request, error) {
	var (
		path    string
		payload interface{}
		header  string
		sign    func(body []byte) string
	)

	switch platform {
	case model.PlatformMeta:
		path = "/webhooks/meta"
		payload = model.NewMetaPayload("", "")
		header = "X-Hub-Signature-256"
		sign = func(body []byte) string { return "sha256=" + hmacHex(body, secret) }
	case model.PlatformGoogle:
		path = "/webhooks/google-ads"
		google := model.NewGooglePayload(secret)
		google.IsTest = asTest
		payload = google
	case model.PlatformTikTok:
		path = "/webhooks/tiktok"
		payload = model.NewTikTokPayload()
		header = "X-Tiktok-Signature"
		sign = func(body []byte) string { return hmacHex(body, secret) }
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s%s?token=%s", baseURL, path, token)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set(header, sign(body))
	}
	return req, nil
}

func hmacHex(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
