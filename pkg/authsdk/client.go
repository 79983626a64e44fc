package authsdk

import (
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// SDKClient is a client for a FerrisKey compatible identity provider.
// It covers the public authorization endpoints and the login-action
// endpoints the console drives during an interactive login.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// Cookies reads the FERRISKEY_SESSION cookie, either from the request
	// that is being served (see WithCookieHeader) or from the cookies the
	// provider set on HTTPClient's jar.
	Cookies *CookieStore
}

// NewSDKClient creates a new identity provider client with a cookie jar so
// that a headless authorization keeps the provider's session cookie.
func NewSDKClient(baseURL string) *SDKClient {
	base := strings.TrimSuffix(baseURL, "/")

	// cookiejar.New only fails when given a broken PublicSuffixList.
	jar, _ := cookiejar.New(nil)

	return &SDKClient{
		BaseURL: base,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		Cookies: NewCookieStore(jar, base),
	}
}
