// Package signedrequest verifies and decodes signed_request tokens: a
// base64url-encoded HMAC-SHA256 signature and a base64url-encoded JSON
// payload joined by a dot. Decoding is pure; it fails closed on every
// malformed or unauthenticated input.
package signedrequest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Algorithm is the single supported signature algorithm identifier.
const Algorithm = "HMAC-SHA256"

// Decode verifies token against secret and returns the payload mapping.
// The signature covers the raw encoded payload bytes, and the comparison
// is constant-time. On any failure the payload is withheld:
//
//   - *FormatError: missing separator, bad base64url, or non-object JSON
//   - *UnsupportedAlgorithmError: payload declares anything but HMAC-SHA256
//   - *InvalidSignatureError: signature does not verify
func Decode(secret, token string) (map[string]any, error) {
	encodedSig, encodedPayload, found := strings.Cut(token, ".")
	if !found {
		return nil, &FormatError{Reason: "missing '.' separator"}
	}

	sig, err := base64URLDecode(encodedSig)
	if err != nil {
		return nil, &FormatError{Reason: "invalid base64url signature", Err: err}
	}
	rawPayload, err := base64URLDecode(encodedPayload)
	if err != nil {
		return nil, &FormatError{Reason: "invalid base64url payload", Err: err}
	}

	var payload map[string]any
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return nil, &FormatError{Reason: "payload is not a JSON object", Err: err}
	}

	// A payload that declares no algorithm is treated as HMAC-SHA256, the
	// convention of the issuing platform.
	algorithm := Algorithm
	if declared, ok := payload["algorithm"].(string); ok {
		algorithm = declared
	}
	if !strings.EqualFold(algorithm, Algorithm) {
		return nil, &UnsupportedAlgorithmError{Algorithm: algorithm}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encodedPayload))
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, &InvalidSignatureError{}
	}
	return payload, nil
}

// base64URLDecode decodes URL-safe base64, tolerating missing padding.
func base64URLDecode(encoded string) ([]byte, error) {
	if pad := len(encoded) % 4; pad != 0 {
		encoded += strings.Repeat("=", 4-pad)
	}
	return base64.URLEncoding.DecodeString(encoded)
}
