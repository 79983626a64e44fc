package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
)

// AuthorizeRequest holds the parameters of an authorization code request.
type AuthorizeRequest struct {
	ClientID    string
	RedirectURI string
	// Scope is a space-delimited scope list, e.g. "openid profile email".
	Scope string
	// State is an opaque value echoed back on the callback.
	State string
}

// AuthorizeEndpoint returns the realm's authorization endpoint.
func (c *SDKClient) AuthorizeEndpoint(realm string) string {
	return c.url(realmPath(realm, "/protocol/openid-connect/auth"))
}

// TokenEndpoint returns the realm's token endpoint.
func (c *SDKClient) TokenEndpoint(realm string) string {
	return c.url(realmPath(realm, "/protocol/openid-connect/token"))
}

// BuildAuthorizeURL constructs the authorization URL the user agent is sent
// to when a login starts without an open authorization transaction.
//
// Example:
//
//	url := client.BuildAuthorizeURL("master", authsdk.AuthorizeRequest{
//		ClientID:    "security-admin-console",
//		RedirectURI: "http://localhost:5555/realms/master/authentication/callback",
//		Scope:       "openid profile email",
//		State:       uuid.NewString(),
//	})
func (c *SDKClient) BuildAuthorizeURL(realm string, req AuthorizeRequest) string {
	cfg := oauth2.Config{
		ClientID:    req.ClientID,
		RedirectURL: req.RedirectURI,
		Scopes:      strings.Fields(req.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthorizeEndpoint(realm),
			TokenURL: c.TokenEndpoint(realm),
		},
	}

	return cfg.AuthCodeURL(req.State)
}

// BeginAuthorization requests authorizeURL without following the redirect.
// The provider's session cookie lands in the client's jar and the login
// page location is returned. This is the headless stand-in for sending a
// browser to the authorization endpoint.
func (c *SDKClient) BeginAuthorization(ctx context.Context, authorizeURL string) (location string, err error) {
	ctx, span := startSpan(ctx, "BeginAuthorization")
	defer func() { endSpan(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authorizeURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Create HTTP client that doesn't follow redirects
	noRedirectClient := &http.Client{
		Timeout:   c.HTTPClient.Timeout,
		Transport: c.HTTPClient.Transport,
		Jar:       c.HTTPClient.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := noRedirectClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "authorize", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		return "", fmt.Errorf("%w: authorize answered %d instead of a redirect", ErrUnexpectedResponse, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return "", parseErrorResponse(resp, body)
	}

	loc, err := resp.Location()
	if err != nil {
		return "", fmt.Errorf("%w: redirect response missing Location header", ErrUnexpectedResponse)
	}

	span.SetAttributes(attribute.String("authsdk.location", loc.Path))
	return loc.String(), nil
}

// ParseAuthorizationCallback extracts the code and state from a redirect URL.
// A provider error in the redirect is returned as *OAuth2Error.
func ParseAuthorizationCallback(rawURL string) (code, state string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse redirect URL: %w", err)
	}

	q := u.Query()
	if errCode := q.Get("error"); errCode != "" {
		return "", "", NewOAuth2Error(http.StatusBadRequest, errCode, q.Get("error_description"))
	}

	code = q.Get("code")
	if code == "" {
		return "", "", fmt.Errorf("%w: redirect missing authorization code", ErrUnexpectedResponse)
	}

	return code, q.Get("state"), nil
}
