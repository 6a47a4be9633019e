// Package graph is a lazy client for JSON-over-HTTP graph APIs.
//
// A Graph value is an address, not a connection: chaining Attr and Item
// calls only builds URLs and performs no I/O. The single impure operation
// is Do (and its Get/Post/Delete/Search shortcuts), which performs one
// round trip through the injected Transport and decodes the JSON response.
//
// Usage:
//
//	g := graph.New(accessToken)
//	feed := g.Attr("me").Attr("feed")     // no network activity yet
//	result, err := feed.Get(ctx)          // one GET request
//	node := result.(*graph.Node)
//	post, err := feed.Post(ctx, graph.Params{"message": "Test."})
//
// Decoded JSON objects become *Node values; looking up a key a response did
// not include yields a new Graph addressed at the child, so traversal can
// continue lazily from any response.
package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/facegraph/facegraph-go/urlobject"
	"github.com/tidwall/gjson"
)

// APIRoot is the default base address.
const APIRoot = "https://graph.facebook.com/"

// Params carries query or form parameters for a single invocation.
type Params map[string]string

// Graph addresses one remote resource. Values are immutable: every
// addressing operation returns a new instance and two instances with equal
// credential and address are interchangeable.
type Graph struct {
	accessToken string
	url         urlobject.URL
	transport   Transport
}

// Option configures a Graph created by New.
type Option func(*Graph)

// WithBase overrides the default API root.
func WithBase(u urlobject.URL) Option {
	return func(g *Graph) { g.url = u }
}

// WithTransport injects the transport used for invocations.
func WithTransport(t Transport) Option {
	return func(g *Graph) { g.transport = t }
}

// New creates a Graph addressed at the API root. The access token may be
// empty for resources that allow unauthenticated reads.
func New(accessToken string, opts ...Option) *Graph {
	g := &Graph{
		accessToken: accessToken,
		url:         urlobject.MustParse(APIRoot),
		transport:   NewHTTPTransport(DefaultTimeout),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// copyWith returns a new Graph sharing credential and transport.
func (g *Graph) copyWith(u urlobject.URL) *Graph {
	return &Graph{
		accessToken: g.accessToken,
		url:         u,
		transport:   g.transport,
	}
}

// Attr addresses the named child node. Pure: no validation, no I/O.
func (g *Graph) Attr(name string) *Graph {
	return g.copyWith(g.url.AddPath(name))
}

// Item addresses a child node by identifier. Equivalent to Attr; numeric
// identifiers are stringified.
func (g *Graph) Item(item any) *Graph {
	return g.Attr(fmt.Sprint(item))
}

// WithParam sets a query parameter, replacing an existing value.
func (g *Graph) WithParam(key, value string) *Graph {
	return g.copyWith(g.url.WithParam(key, value))
}

// WithParams sets several query parameters at once.
func (g *Graph) WithParams(params Params) *Graph {
	u := g.url
	for _, key := range sortedKeys(params) {
		u = u.WithParam(key, params[key])
	}
	return g.copyWith(u)
}

// AddParam appends a query parameter, keeping existing values.
func (g *Graph) AddParam(key, value string) *Graph {
	return g.copyWith(g.url.AddParam(key, value))
}

// Fields is a shortcut for `?fields=x,y,z`.
func (g *Graph) Fields(fields ...string) *Graph {
	return g.WithParam("fields", strings.Join(fields, ","))
}

// IDs is a shortcut for `?ids=1,2,3`.
func (g *Graph) IDs(ids ...any) *Graph {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return g.WithParam("ids", strings.Join(parts, ","))
}

// Slice is a shortcut for `?offset=o&limit=n` windowing of connections.
func (g *Graph) Slice(offset, limit int) *Graph {
	return g.WithParam("offset", fmt.Sprint(offset)).WithParam("limit", fmt.Sprint(limit))
}

// URL returns the address this Graph points at.
func (g *Graph) URL() urlobject.URL {
	return g.url
}

func (g *Graph) String() string {
	return fmt.Sprintf("Graph(%s)", g.url.String())
}

// Do performs one HTTP round trip against the current address and decodes
// the JSON response. Every call issues a fresh request; there is no caching
// and no retry. The access token, when set, is injected as the
// `access_token` parameter.
//
// Decoding follows the Graph API conventions:
//   - a JSON object becomes a *Node bound to this address;
//   - the literal `true` becomes bool(true) (bodyless action responses);
//   - any other scalar or array is returned as its plain Go value;
//   - an object carrying an `error` key becomes a *GraphError.
func (g *Graph) Do(ctx context.Context, method string, params Params) (any, error) {
	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	if g.accessToken != "" {
		form.Set("access_token", g.accessToken)
	}

	target := g.url
	if method == http.MethodGet || method == http.MethodHead {
		// GET carries its parameters in the query string.
		for _, key := range sortedValueKeys(form) {
			target = target.WithParam(key, form.Get(key))
		}
		form = nil
	}

	status, body, err := g.transport.RoundTrip(ctx, method, target.String(), form)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target.String(), Err: err}
	}
	return g.decodeResponse(status, body)
}

// decodeResponse maps a response body onto the result conventions above.
func (g *Graph) decodeResponse(status int, body []byte) (any, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || !gjson.Valid(trimmed) {
		return nil, &DecodeError{Status: status, Body: trimmed}
	}
	result := gjson.Parse(trimmed)

	switch {
	case result.IsObject():
		if errObj := result.Get("error"); errObj.Exists() && errObj.IsObject() {
			return nil, graphErrorFrom(errObj)
		}
		return newNode(result, g), nil
	case result.Type == gjson.True:
		return true, nil
	case result.Type == gjson.False:
		return false, nil
	case result.Type == gjson.Null:
		return nil, nil
	default:
		// Arrays, numbers and strings pass through unwrapped.
		return result.Value(), nil
	}
}

// Get reads the current address. Invoking a Graph with no explicit method
// means GET.
func (g *Graph) Get(ctx context.Context) (any, error) {
	return g.Do(ctx, http.MethodGet, nil)
}

// Post creates or mutates the current node with form parameters.
func (g *Graph) Post(ctx context.Context, params Params) (any, error) {
	return g.Do(ctx, http.MethodPost, params)
}

// Delete removes the current node. The Graph API models deletion as a POST
// with a `method=delete` override, not an HTTP DELETE.
func (g *Graph) Delete(ctx context.Context) (bool, error) {
	result, err := g.Do(ctx, http.MethodPost, Params{"method": "delete"})
	if err != nil {
		return false, err
	}
	ok, _ := result.(bool)
	return ok, nil
}

// Search addresses the `search` endpoint below the current node (typically
// the root) with the given criteria and reads it.
func (g *Graph) Search(ctx context.Context, criteria Params) (any, error) {
	return g.Attr("search").Do(ctx, http.MethodGet, criteria)
}

// sortedKeys gives deterministic parameter order for map-driven addressing.
func sortedKeys(params Params) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedValueKeys(form url.Values) []string {
	keys := make([]string, 0, len(form))
	for key := range form {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
