package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Encoding names how a provider renders its HMAC digest in the signature
// header.
type Encoding string

const (
	EncodingHex    Encoding = "hex"
	EncodingBase64 Encoding = "base64"
)

// VerifySignature recomputes an HMAC-SHA256 over the raw body with secret
// and compares it in constant time against header, after stripping an
// optional "sha256=" prefix. An empty secret means signing is unconfigured
// for this provider; callers treat that as accept-with-warning, not here.
func VerifySignature(secret string, body []byte, header string, enc Encoding) (bool, error) {
	header = strings.TrimPrefix(header, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	sum := mac.Sum(nil)

	var want []byte
	var err error
	switch enc {
	case EncodingBase64:
		want, err = base64.StdEncoding.DecodeString(header)
	default:
		want, err = hex.DecodeString(header)
	}
	if err != nil {
		return false, fmt.Errorf("webhook: decode signature header: %w", err)
	}

	return hmac.Equal(sum, want), nil
}
