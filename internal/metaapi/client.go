// Package metaapi fetches lead field data from the Meta Graph API. Meta
// webhooks only announce a leadgen ID; the submitted form values live behind
// a separate authenticated fetch.
package metaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
)

// LeadFetcher retrieves lead details by leadgen ID.
type LeadFetcher interface {
	FetchLead(ctx context.Context, leadID, accessToken string) (*model.MetaLeadData, error)
}

// Client is an HTTP client for the Graph API lead endpoint.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	retryInterval time.Duration
	retryMaxWait  time.Duration
}

// NewClient creates a Graph API client. retryInterval and retryMaxWait bound
// the retry policy for transient fetch failures.
func NewClient(baseURL string, timeout, retryInterval, retryMaxWait time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retryInterval <= 0 {
		retryInterval = 500 * time.Millisecond
	}
	if retryMaxWait <= 0 {
		retryMaxWait = 5 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: timeout},
		retryInterval: retryInterval,
		retryMaxWait:  retryMaxWait,
	}
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// FetchLead retrieves the submitted field data for one lead, retrying
// transient failures with exponential backoff. Client errors (4xx) are
// permanent; the access token or lead ID will not get better by retrying.
func (c *Client) FetchLead(ctx context.Context, leadID, accessToken string) (*model.MetaLeadData, error) {
	if leadID == "" {
		return nil, fmt.Errorf("%w: lead id is required", apperrors.ErrBadRequest)
	}

	endpoint := fmt.Sprintf("%s/%s?access_token=%s", c.baseURL, url.PathEscape(leadID), url.QueryEscape(accessToken))

	var lead model.MetaLeadData
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build lead fetch request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: lead fetch failed: %w", apperrors.ErrUpstream, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("%w: failed to read lead response: %w", apperrors.ErrUpstream, err)
		}

		if resp.StatusCode != http.StatusOK {
			var gErr graphError
			_ = json.Unmarshal(body, &gErr)
			wrapped := fmt.Errorf("%w: graph api status %d code %d: %s",
				apperrors.ErrUpstream, resp.StatusCode, gErr.Error.Code, gErr.Error.Message)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(wrapped)
			}
			return wrapped
		}

		if err := json.Unmarshal(body, &lead); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: failed to unmarshal lead response: %w", apperrors.ErrUpstream, err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxElapsedTime = c.retryMaxWait
	b.Reset()

	notify := func(err error, d time.Duration) {
		logger.FromContext(ctx).Warn("Retrying Graph API lead fetch",
			zap.String("lead_id", leadID),
			zap.Error(err),
			zap.Duration("after", d),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	return &lead, nil
}
