// Package oauth holds the token-extraction helpers of the OAuth 2.0
// redirect flow: building the authorization URL and exchanging an
// authorization code for an access token. Session handling, token storage
// and the redirect plumbing itself belong to the host application.
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/facegraph/facegraph-go/graph"
	"github.com/facegraph/facegraph-go/urlobject"
)

// AuthorizeURL returns the URL to redirect a client to for authorization.
// scope and display are optional.
func AuthorizeURL(base urlobject.URL, clientID, redirectURI string, scope []string, display string) string {
	u := base.AddPath("oauth/authorize").
		WithParam("client_id", clientID).
		WithParam("redirect_uri", redirectURI)
	if len(scope) > 0 {
		u = u.WithParam("scope", strings.Join(scope, ","))
	}
	if display != "" {
		u = u.WithParam("display", display)
	}
	return u.String()
}

// AccessTokenURL returns the URL that exchanges an authorization code for
// an access token.
func AccessTokenURL(base urlobject.URL, clientID, clientSecret, redirectURI, code string) urlobject.URL {
	return base.AddPath("oauth/access_token").
		WithParam("client_id", clientID).
		WithParam("client_secret", clientSecret).
		WithParam("redirect_uri", redirectURI).
		WithParam("code", code)
}

// ExchangeCode fetches the access-token endpoint through t and extracts
// the token from the urlencoded response body.
func ExchangeCode(ctx context.Context, t graph.Transport, base urlobject.URL, clientID, clientSecret, redirectURI, code string) (string, error) {
	target := AccessTokenURL(base, clientID, clientSecret, redirectURI, code).String()

	status, body, err := t.RoundTrip(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &graph.TransportError{Method: http.MethodGet, URL: target, Err: err}
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("oauth: token exchange answered status %d: %.200s", status, string(body))
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "", fmt.Errorf("oauth: failed to parse token response: %w", err)
	}
	token := values.Get("access_token")
	if token == "" {
		return "", fmt.Errorf("oauth: token response carries no access_token: %.200s", string(body))
	}
	return token, nil
}
