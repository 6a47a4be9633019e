package graph

import (
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"
)

// Some Graph API error messages carry the numeric code only as a "(#NNN)"
// prefix of the message text.
var messageCodeRe = regexp.MustCompile(`^\(#(\d+)\)`)

// GraphError is returned when the remote API answers with a structured
// error object. Type, Subtype and Message are surfaced verbatim.
type GraphError struct {
	Code    int
	Type    string
	Subtype string
	Message string
}

func (e *GraphError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("graph: remote error %d (%s): %s", e.Code, e.Type, e.Message)
	}
	return fmt.Sprintf("graph: remote error (%s): %s", e.Type, e.Message)
}

// graphErrorFrom builds a GraphError from a decoded {"error": {...}} value,
// recovering the code from the message prefix when the field is absent.
func graphErrorFrom(errObj gjson.Result) *GraphError {
	e := &GraphError{
		Type:    errObj.Get("type").String(),
		Subtype: errObj.Get("error_subcode").String(),
		Message: errObj.Get("message").String(),
	}
	if code := errObj.Get("code"); code.Exists() {
		e.Code = int(code.Int())
	} else if m := messageCodeRe.FindStringSubmatch(e.Message); m != nil {
		fmt.Sscanf(m[1], "%d", &e.Code)
	}
	return e
}

// TransportError is returned when the transport fails below the HTTP layer
// (connection refused, timeout, DNS failure). The cause is wrapped, never
// retried or suppressed.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("graph: %s %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is returned when a response body cannot be decoded as JSON.
type DecodeError struct {
	Status int
	Body   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("graph: response (status %d) is not valid JSON: %.120s", e.Status, e.Body)
}

// UploadNotSupportedError is returned by PostFile when the injected
// transport cannot carry a raw multipart body.
type UploadNotSupportedError struct {
	Transport string
}

func (e *UploadNotSupportedError) Error() string {
	return fmt.Sprintf("graph: transport %s does not support file uploads", e.Transport)
}
