package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// RefreshGrant requests new tokens using a refresh token.
func (c *SDKClient) RefreshGrant(
	ctx context.Context,
	realm, clientID, refreshToken string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
	}

	return c.requestToken(ctx, realm, data)
}

// ExchangeAuthorizationCode trades the code from an authorization callback
// for a token pair. redirectURI is only sent when non-empty.
func (c *SDKClient) ExchangeAuthorizationCode(
	ctx context.Context,
	realm, clientID, code, redirectURI string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"authorization_code"},
		"client_id":  {clientID},
		"code":       {code},
	}
	if redirectURI != "" {
		data.Set("redirect_uri", redirectURI)
	}

	return c.requestToken(ctx, realm, data)
}

func (c *SDKClient) requestToken(ctx context.Context, realm string, data url.Values) (resp *TokenResponse, err error) {
	ctx, span := startSpan(ctx, "Token",
		attribute.String("authsdk.realm", realm),
		attribute.String("authsdk.grant_type", data.Get("grant_type")),
	)
	defer func() { endSpan(span, err) }()

	httpResp, err := c.doRequest(ctx, "token", http.MethodPost,
		realmPath(realm, "/protocol/openid-connect/token"),
		strings.NewReader(data.Encode()),
		requestOptions{headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		}},
	)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON("token", httpResp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}
