package graph

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/c2fo/vfs/v7/vfssimple"
)

// PostFile uploads the file at location to the current address as a
// multipart POST, with params as ordinary form fields. The location is a
// vfs URI (file://, s3://, gs://, ...), so uploads can stream straight from
// local disk or object storage. The response is decoded like any other
// invocation result.
func (g *Graph) PostFile(ctx context.Context, location string, params Params) (any, error) {
	bodyTransport, ok := g.transport.(BodyTransport)
	if !ok {
		return nil, &UploadNotSupportedError{Transport: fmt.Sprintf("%T", g.transport)}
	}

	file, err := vfssimple.NewFile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload source %q: %w", location, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, key := range sortedKeys(params) {
		if err := writer.WriteField(key, params[key]); err != nil {
			return nil, fmt.Errorf("failed to encode form field %q: %w", key, err)
		}
	}
	if g.accessToken != "" {
		if err := writer.WriteField("access_token", g.accessToken); err != nil {
			return nil, fmt.Errorf("failed to encode access token field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("file", file.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to create upload part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read upload source %q: %w", location, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	target := g.url.String()
	status, body, err := bodyTransport.RoundTripBody(ctx, http.MethodPost, target, writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, &TransportError{Method: http.MethodPost, URL: target, Err: err}
	}
	return g.decodeResponse(status, body)
}
