//go:build e2e

package console_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
)

// TestHealth checks both probes against a reachable provider.
func TestHealth(t *testing.T) {
	provider := newFakeProvider(t)
	baseURL, cleanup := setupConsoleContainer(t, provider)
	defer cleanup()

	var live authsdk.HealthResponse
	resp := call(t, http.MethodGet, baseURL+"/livez", nil, nil, &live)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", live.Status)

	var ready authsdk.HealthResponse
	resp = call(t, http.MethodGet, baseURL+"/readyz", nil, nil, &ready)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", ready.Checks.Storage)
	require.Equal(t, "ok", ready.Checks.IdentityProvider)
}

// TestBrowserLogin walks the redirects a browser would follow: login route,
// provider authorize, credential form, callback and overview.
func TestBrowserLogin(t *testing.T) {
	provider := newFakeProvider(t)
	baseURL, cleanup := setupConsoleContainer(t, provider)
	defer cleanup()

	// 1. Entering the login route starts a transaction.
	var nav navigation
	resp := call(t, http.MethodGet, baseURL+"/realms/master/authentication/login", nil, nil, &nav)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, nav.Navigate, "/protocol/openid-connect/auth?")

	// 2. The provider sets its session cookie and hands the transaction back.
	authorize, err := url.Parse(nav.Navigate)
	require.NoError(t, err)
	resp = call(t, http.MethodGet, provider.URL+authorize.RequestURI(), nil, nil, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == authsdk.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)

	// 3. Credentials are posted with the provider's cookie.
	form := url.Values{"username": {adminUsername}, "password": {adminPassword}}
	header := http.Header{
		"Content-Type": {"application/x-www-form-urlencoded"},
		"Cookie":       {sessionCookie.Name + "=" + sessionCookie.Value},
	}
	resp = call(t, http.MethodPost, baseURL+"/realms/master/authentication/login",
		strings.NewReader(form.Encode()), header, &nav)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(nav.Navigate, publicURL+"/realms/master/authentication/callback?"))

	// 4. The callback exchanges the code and lands on the overview.
	resp = call(t, http.MethodGet, onAgent(t, baseURL, nav.Navigate), nil, nil, &nav)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/realms/master/overview", nav.Navigate)

	var snap map[string]any
	resp = call(t, http.MethodGet, baseURL+"/realms/master/overview", nil, nil, &snap)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, snap["authenticated"])
	require.Equal(t, adminEmail, snap["email"])
}

// TestBrowserLoginWrongPassword shows the failure message and keeps the agent logged out.
func TestBrowserLoginWrongPassword(t *testing.T) {
	provider := newFakeProvider(t)
	baseURL, cleanup := setupConsoleContainer(t, provider)
	defer cleanup()

	resp := call(t, http.MethodGet, provider.URL+"/realms/master/protocol/openid-connect/auth?client_id=security-admin-console", nil, nil, nil)
	cookie := resp.Cookies()[0]

	var oauthErr authsdk.ErrorResponse
	resp = call(t, http.MethodPost, baseURL+"/realms/master/authentication/login",
		strings.NewReader("username=admin&password=nope"),
		http.Header{
			"Content-Type": {"application/x-www-form-urlencoded"},
			"Cookie":       {cookie.Name + "=" + cookie.Value},
		}, &oauthErr)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid credentials", oauthErr.ErrorDescription)

	resp = call(t, http.MethodGet, baseURL+"/v1/session", nil, nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestHeadlessLoginAndLogout uses the agent's own cookie jar end to end.
func TestHeadlessLoginAndLogout(t *testing.T) {
	provider := newFakeProvider(t)
	baseURL, cleanup := setupConsoleContainer(t, provider)
	defer cleanup()

	body := `{"realm":"master","username":"` + adminUsername + `","password":"` + adminPassword + `"}`

	var nav navigation
	resp := call(t, http.MethodPost, baseURL+"/v1/session/login", strings.NewReader(body),
		http.Header{"Content-Type": {"application/json"}}, &nav)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/realms/master/overview", nav.Navigate)

	var snap map[string]any
	resp = call(t, http.MethodGet, baseURL+"/v1/session", nil, nil, &snap)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "user-1", snap["subject"])
	require.Equal(t, true, snap["refresh_armed"])

	resp = call(t, http.MethodPost, baseURL+"/v1/session/logout", nil, nil, &nav)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/realms/master/authentication/login", nav.Navigate)

	resp = call(t, http.MethodGet, baseURL+"/v1/session", nil, nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
