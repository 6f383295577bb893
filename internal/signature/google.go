package signature

import "crypto/subtle"

// VerifyGoogle checks the google_key field from the payload against the
// tenant's configured webhook key.
func VerifyGoogle(providedKey, webhookKey string) error {
	if providedKey == "" {
		return ErrMissingSignature
	}
	if subtle.ConstantTimeCompare([]byte(providedKey), []byte(webhookKey)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
