// Package signature verifies webhook authenticity per platform. Meta and
// TikTok sign the raw request body with HMAC-SHA256; Google Ads carries a
// shared key inside the payload. All comparisons are constant time.
package signature

import "errors"

// ErrInvalidSignature is returned when a webhook fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrMissingSignature is returned when the expected signature header or
// payload key is absent.
var ErrMissingSignature = errors.New("missing webhook signature")
