// Package urlobject provides an immutable URL value used for addressing
// graph resources. Every operation returns a new URL; holders of a prior
// value never observe a change.
package urlobject

import (
	"fmt"
	"net/url"
	"strings"
)

// URL is an immutable resource address: scheme+host base, a raw path and an
// insertion-ordered query string. The zero value is an empty URL.
type URL struct {
	scheme   string
	host     string
	path     string
	params   []param
	fragment string
}

type param struct {
	key   string
	value string
}

// Parse splits a raw URL string into its parts. The query string is decoded
// but its parameter order is preserved.
func Parse(raw string) (URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return URL{}, fmt.Errorf("failed to parse url %q: %w", raw, err)
	}
	u := URL{
		scheme:   parsed.Scheme,
		host:     parsed.Host,
		path:     parsed.EscapedPath(),
		fragment: parsed.Fragment,
	}
	if parsed.RawQuery != "" {
		u.params, err = parseQuery(parsed.RawQuery)
		if err != nil {
			return URL{}, fmt.Errorf("failed to parse query of %q: %w", raw, err)
		}
	}
	return u, nil
}

// MustParse is Parse for compile-time constants; it panics on error.
func MustParse(raw string) URL {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// parseQuery decodes a raw query string keeping parameter order, unlike
// url.ParseQuery which collects values into an unordered map.
func parseQuery(rawQuery string) ([]param, error) {
	var params []param
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			return nil, err
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			return nil, err
		}
		params = append(params, param{key: decodedKey, value: decodedValue})
	}
	return params, nil
}

// Host returns the host part of the URL.
func (u URL) Host() string {
	return u.host
}

// Path returns the escaped path part of the URL.
func (u URL) Path() string {
	return u.path
}

// AddPath returns a new URL with newPath appended to the existing path.
// A '/' is inserted between the two unless the path already ends with one,
// so bases with and without a trailing slash behave the same. Each segment
// of newPath is URL-escaped; a trailing slash on newPath is kept.
func (u URL) AddPath(newPath string) URL {
	trailing := strings.HasSuffix(newPath, "/")
	newPath = strings.Trim(newPath, "/")

	var escaped []string
	for _, segment := range strings.Split(newPath, "/") {
		if segment == "" {
			continue
		}
		escaped = append(escaped, url.PathEscape(segment))
	}
	joined := strings.Join(escaped, "/")
	if trailing {
		joined += "/"
	}

	out := u
	if strings.HasSuffix(out.path, "/") {
		out.path += joined
	} else {
		out.path += "/" + joined
	}
	return out
}

// WithParam returns a new URL with key set to value, replacing every
// existing value for that key. The key keeps its original position when it
// was already present.
func (u URL) WithParam(key, value string) URL {
	out := u
	out.params = nil
	replaced := false
	for _, p := range u.params {
		if p.key == key {
			if !replaced {
				out.params = append(out.params, param{key: key, value: value})
				replaced = true
			}
			continue
		}
		out.params = append(out.params, p)
	}
	if !replaced {
		out.params = append(out.params, param{key: key, value: value})
	}
	return out
}

// AddParam returns a new URL with key=value appended to the query, keeping
// any existing values for the same key.
func (u URL) AddParam(key, value string) URL {
	out := u
	out.params = make([]param, 0, len(u.params)+1)
	out.params = append(out.params, u.params...)
	out.params = append(out.params, param{key: key, value: value})
	return out
}

// Param returns the first value stored under key and whether it was present.
func (u URL) Param(key string) (string, bool) {
	for _, p := range u.params {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// String renders the canonical URL. The query is rendered in insertion
// order and omitted entirely when empty.
func (u URL) String() string {
	var b strings.Builder
	if u.scheme != "" {
		b.WriteString(u.scheme)
		b.WriteString("://")
	}
	b.WriteString(u.host)
	b.WriteString(u.path)
	if len(u.params) > 0 {
		b.WriteByte('?')
		for i, p := range u.params {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(p.key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.value))
		}
	}
	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}
	return b.String()
}
