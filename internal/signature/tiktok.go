package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// TikTokSignatureHeader carries TikTok's body signature.
const TikTokSignatureHeader = "X-Tiktok-Signature"

// VerifyTikTok checks the X-Tiktok-Signature header value, an unprefixed hex
// HMAC-SHA256 digest of the raw request body keyed by the webhook secret.
func VerifyTikTok(body []byte, header, webhookSecret string) error {
	if header == "" {
		return ErrMissingSignature
	}
	provided, err := hex.DecodeString(header)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
