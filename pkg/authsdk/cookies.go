package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// SessionCookieName is the cookie the provider uses to correlate the
// authorization request with the login that follows it.
const SessionCookieName = "FERRISKEY_SESSION"

// ParseCookieHeader splits a Cookie header into a name to value map. Pairs are
// separated by ";" and split on the first "=", so values may contain "=".
// Entries without a name are skipped and a repeated name keeps its last value.
func ParseCookieHeader(header string) map[string]string {
	out := make(map[string]string)

	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, value, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}

	return out
}

type cookieHeaderKey struct{}

// WithCookieHeader attaches the Cookie header of an inbound request so that
// CookieStore reads the user agent's cookies instead of the client's jar.
func WithCookieHeader(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, cookieHeaderKey{}, header)
}

// CookieStore is a read-only view of the provider's cookies. It never writes.
type CookieStore struct {
	jar    http.CookieJar
	target *url.URL
}

// NewCookieStore returns a store that falls back to the cookies jar holds
// for baseURL. A nil jar or unparsable baseURL leaves only the context source.
//
// The provider marks its session cookie Secure even on plain HTTP
// deployments, and a jar withholds Secure cookies from http URLs, so the jar
// is always read through the https form of baseURL.
func NewCookieStore(jar http.CookieJar, baseURL string) *CookieStore {
	target, err := url.Parse(baseURL + "/")
	if err != nil {
		target = nil
	} else if target.Scheme == "http" {
		target.Scheme = "https"
	}
	return &CookieStore{jar: jar, target: target}
}

// Header renders the cookies visible to ctx as a Cookie header value.
func (s *CookieStore) Header(ctx context.Context) string {
	if h, ok := ctx.Value(cookieHeaderKey{}).(string); ok && h != "" {
		return h
	}

	if s == nil || s.jar == nil || s.target == nil {
		return ""
	}

	cookies := s.jar.Cookies(s.target)
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

// ReadSessionCode returns the FERRISKEY_SESSION value, or "" when absent.
func (s *CookieStore) ReadSessionCode(ctx context.Context) string {
	return ParseCookieHeader(s.Header(ctx))[SessionCookieName]
}
