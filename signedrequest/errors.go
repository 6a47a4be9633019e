package signedrequest

import "fmt"

// FormatError is returned when the token is structurally malformed: bad
// separator, bad base64url, or a payload that is not a JSON object.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signedrequest: malformed token: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("signedrequest: malformed token: %s", e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// UnsupportedAlgorithmError is returned when the payload declares a
// signature algorithm other than HMAC-SHA256.
type UnsupportedAlgorithmError struct {
	Algorithm string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("signedrequest: unsupported algorithm %q", e.Algorithm)
}

// InvalidSignatureError is returned when the signature does not verify
// against the secret. The payload is never exposed in this case.
type InvalidSignatureError struct{}

func (e *InvalidSignatureError) Error() string {
	return "signedrequest: signature verification failed"
}
