package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"
)

func sign(secret string, body []byte, enc Encoding) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	sum := mac.Sum(nil)
	if enc == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(sum)
	}
	return hex.EncodeToString(sum)
}

func TestVerifySignature_HexValid(t *testing.T) {
	body := []byte(`{"event_id":"1"}`)
	header := sign("secret", body, EncodingHex)

	ok, err := VerifySignature("secret", body, header, EncodingHex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected signature to verify")
	}
}

func TestVerifySignature_ShaPrefixStripped(t *testing.T) {
	body := []byte(`{"event_id":"1"}`)
	header := "sha256=" + sign("secret", body, EncodingHex)

	ok, err := VerifySignature("secret", body, header, EncodingHex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected signature to verify with sha256= prefix")
	}
}

func TestVerifySignature_Base64Valid(t *testing.T) {
	body := []byte(`{"event_id":"1"}`)
	header := sign("secret", body, EncodingBase64)

	ok, err := VerifySignature("secret", body, header, EncodingBase64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected signature to verify")
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"event_id":"1"}`)
	header := sign("secret", body, EncodingHex)

	ok, err := VerifySignature("other-secret", body, header, EncodingHex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected signature mismatch")
	}
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	body := []byte(`{"event_id":"1"}`)
	header := sign("secret", body, EncodingHex)

	ok, err := VerifySignature("secret", []byte(`{"event_id":"2"}`), header, EncodingHex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected tampered body to fail verification")
	}
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	_, err := VerifySignature("secret", []byte("body"), "not-hex-!!", EncodingHex)
	if err == nil {
		t.Fatal("expected error decoding malformed header")
	}
}
