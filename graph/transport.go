package graph

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Transport performs one HTTP round trip for the client. Implementations
// return the response status and body; err is reserved for failures below
// the HTTP layer. The client never constructs sockets itself.
type Transport interface {
	RoundTrip(ctx context.Context, method, rawurl string, form url.Values) (status int, body []byte, err error)
}

// BodyTransport is an optional upgrade of Transport for requests carrying a
// raw body with its own content type, such as multipart uploads.
type BodyTransport interface {
	RoundTripBody(ctx context.Context, method, rawurl, contentType string, body io.Reader) (status int, respBody []byte, err error)
}

// DefaultTimeout bounds a single round trip of the default transport.
const DefaultTimeout = 30 * time.Second

// HTTPTransport is the default Transport on net/http. It performs exactly
// one attempt per call; cancellation and timeouts come from the request
// context and the client timeout.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates the default transport. A zero timeout means no
// client-level timeout; the caller's context still applies.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
	}
}

// RoundTrip sends form as an urlencoded body for POST and friends; for GET
// and HEAD the form must already be folded into the URL by the caller.
func (t *HTTPTransport) RoundTrip(ctx context.Context, method, rawurl string, form url.Values) (int, []byte, error) {
	var body io.Reader
	contentType := ""
	if len(form) > 0 && method != http.MethodGet && method != http.MethodHead {
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, method, rawurl, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return t.do(req)
}

// RoundTripBody sends a raw body with an explicit content type.
func (t *HTTPTransport) RoundTripBody(ctx context.Context, method, rawurl, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawurl, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)
	return t.do(req)
}

func (t *HTTPTransport) do(req *http.Request) (int, []byte, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	reader, err := charsetReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// charsetReader wraps the body in a decoder when the Content-Type declares
// a charset other than UTF-8.
func charsetReader(body io.Reader, contentType string) (io.Reader, error) {
	if contentType == "" {
		return body, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// An unparseable Content-Type is not fatal; assume UTF-8.
		return body, nil
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return body, nil
	}
	encoding, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported response charset %q: %w", charset, err)
	}
	return transform.NewReader(body, encoding.NewDecoder()), nil
}
