// Package identity authenticates management API callers. Webhook endpoints
// authenticate through opaque tokens and signatures instead; this package
// only guards the /v1 surface.
package identity

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
)

// Verifier maps an API key to the tenant it belongs to.
type Verifier interface {
	Verify(ctx context.Context, apiKey string) (string, error)
}

// StaticVerifier verifies API keys against a fixed key-to-tenant mapping
// loaded from configuration.
type StaticVerifier struct {
	keys map[string]string
}

// NewStaticVerifier creates a StaticVerifier. The map is keyed by API key
// with tenant IDs as values.
func NewStaticVerifier(keys map[string]string) *StaticVerifier {
	return &StaticVerifier{keys: keys}
}

// Verify returns the tenant ID owning the API key. The scan compares every
// configured key so response timing does not reveal near-matches.
func (v *StaticVerifier) Verify(_ context.Context, apiKey string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("%w: missing api key", apperrors.ErrUnauthorized)
	}

	var tenantID string
	matched := 0
	for key, tenant := range v.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			tenantID = tenant
			matched = 1
		}
	}
	if matched != 1 {
		return "", fmt.Errorf("%w: invalid api key", apperrors.ErrUnauthorized)
	}
	return tenantID, nil
}
