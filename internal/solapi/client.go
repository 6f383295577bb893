// Package solapi sends lead notification messages through the SOLAPI
// messaging gateway.
package solapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/observer"
	"github.com/KhakiSkech/SOLAPI-alert/internal/tenant"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

const (
	sendPath = "/messages/v4/send"

	// Message bodies above this many characters must go as LMS; the Korean
	// carriers reject longer SMS payloads.
	smsMaxChars = 90

	// TypeSMS and TypeLMS are SOLAPI message type identifiers.
	TypeSMS = "SMS"
	TypeLMS = "LMS"
)

// APIError is a structured failure response from SOLAPI.
type APIError struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("solapi error %s: %s", e.Code, e.Message)
}

type message struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type sendRequest struct {
	Messages []message `json:"messages"`
}

// SendResult describes a dispatched notification.
type SendResult struct {
	To   string
	Type string
	Text string
}

// Sender dispatches notification messages for a lead.
type Sender interface {
	SendLeadNotification(ctx context.Context, creds model.SolapiCredentials, lead *model.Lead) (*SendResult, error)
	SendTestMessage(ctx context.Context, creds model.SolapiCredentials, to string) (*SendResult, error)
}

// Client is an HTTP client for the SOLAPI send API. Credentials are supplied
// per call since every tenant has its own SOLAPI account.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a SOLAPI client against the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BuildNotificationText renders the operator-facing alert for a lead.
func BuildNotificationText(lead *model.Lead) string {
	platform := strings.ToUpper(string(lead.Platform))
	return fmt.Sprintf("[%s] 새로운 문의가 접수되었습니다.\n이름: %s\n전화번호: %s", platform, lead.Name, lead.Phone)
}

// MessageTypeFor picks SMS or LMS based on the rendered text length. The
// boundary counts runes, not bytes; Korean text is multi-byte in UTF-8.
func MessageTypeFor(text string) string {
	if len([]rune(text)) > smsMaxChars {
		return TypeLMS
	}
	return TypeSMS
}

// BuildTestText renders the body of an operator-initiated test message.
func BuildTestText(now time.Time) string {
	return fmt.Sprintf("[테스트] 웹훅 알림 시스템 테스트 메시지입니다.\n발송 시각: %s", now.Format("2006-01-02 15:04:05"))
}

// SendLeadNotification validates the lead's phone number, renders the alert
// text and submits it to SOLAPI. The text carries the phone number as
// submitted on the form; only the destination address is cleaned to digits.
func (c *Client) SendLeadNotification(ctx context.Context, creds model.SolapiCredentials, lead *model.Lead) (*SendResult, error) {
	if lead.Phone == "" {
		return nil, fmt.Errorf("%w: lead has no phone number", apperrors.ErrValidation)
	}
	return c.send(ctx, creds, lead.Phone, BuildNotificationText(lead))
}

// SendTestMessage sends a test notification so a tenant can verify their
// SOLAPI setup end to end.
func (c *Client) SendTestMessage(ctx context.Context, creds model.SolapiCredentials, to string) (*SendResult, error) {
	return c.send(ctx, creds, to, BuildTestText(utils.Now()))
}

func (c *Client) send(ctx context.Context, creds model.SolapiCredentials, to, text string) (*SendResult, error) {
	if !utils.IsValidMobileNumber(to) {
		return nil, fmt.Errorf("%w: invalid mobile number %q", apperrors.ErrValidation, to)
	}
	to = utils.CleanPhoneNumber(to)

	msgType := MessageTypeFor(text)

	body, err := json.Marshal(sendRequest{Messages: []message{{
		To:   to,
		From: creds.SenderNumber,
		Text: text,
		Type: msgType,
	}}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)

	tenantID, _ := tenant.FromContext(ctx)

	startTime := utils.Now()
	resp, err := c.httpClient.Do(req)
	observer.ObserveSmsDispatchDuration(tenantID, time.Since(startTime))
	if err != nil {
		return nil, apperrors.NewRetryable(fmt.Errorf("%w: %w", apperrors.ErrUpstream, err), "solapi send request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		apiErr := &APIError{}
		if unmarshalErr := json.Unmarshal(respBody, apiErr); unmarshalErr != nil || apiErr.Code == "" {
			apiErr = &APIError{
				Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
				Message: strings.TrimSpace(string(respBody)),
			}
		}
		logger.FromContext(ctx).Warn("SOLAPI rejected message",
			zap.String("error_code", apiErr.Code),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUpstream, apiErr)
	}

	return &SendResult{To: to, Type: msgType, Text: text}, nil
}
