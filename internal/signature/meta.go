package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// MetaSignatureHeader carries Meta's body signature.
const MetaSignatureHeader = "X-Hub-Signature-256"

const metaSignaturePrefix = "sha256="

// VerifyMeta checks the X-Hub-Signature-256 header value against the raw
// request body using the app secret. The header value is
// "sha256=<hex digest>".
func VerifyMeta(body []byte, header, appSecret string) error {
	if header == "" {
		return ErrMissingSignature
	}
	if !strings.HasPrefix(header, metaSignaturePrefix) {
		return ErrInvalidSignature
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(header, metaSignaturePrefix))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifyMetaChallenge validates Meta's GET subscription handshake and returns
// the challenge to echo back. Mode must be "subscribe" and the token must
// match the tenant's verify token.
func VerifyMetaChallenge(mode, token, challenge, verifyToken string) (string, error) {
	if mode != "subscribe" {
		return "", ErrInvalidSignature
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(verifyToken)) != 1 {
		return "", ErrInvalidSignature
	}
	return challenge, nil
}
