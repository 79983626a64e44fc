/*
Package authsdk provides a client for the public authentication endpoints of a
FerrisKey compatible identity provider.

# Overview

The package covers the part of the provider an interactive console talks to
while a user logs in: the authorization endpoint, the login-action endpoints
(authenticate, OTP setup and challenge, forced password change) and the token
endpoint. Every endpoint is scoped to a realm.

	client := authsdk.NewSDKClient("https://id.example.com")

	// Where to send the user agent to start a login
	url := client.BuildAuthorizeURL("master", authsdk.AuthorizeRequest{
		ClientID:    "security-admin-console",
		RedirectURI: "https://console.example.com/realms/master/authentication/callback",
		Scope:       "openid profile email",
		State:       state,
	})

# Authenticating

The provider correlates a login with its authorization request through the
FERRISKEY_SESSION cookie. Read it with the client's CookieStore and pass it on:

	code := client.Cookies.ReadSessionCode(authsdk.WithCookieHeader(ctx, r.Header.Get("Cookie")))

	resp, err := client.Authenticate(ctx, "master", authsdk.AuthenticateParams{
		ClientID:    "security-admin-console",
		SessionCode: code,
		Credentials: &authsdk.Credentials{Username: "alice", Password: "secret"},
	})

A 200 answer carries a status of Success, RequiresActions,
RequiresOtpChallenge or Failed. The last three return a temporary token which
is passed as BearerToken to the login-action calls and to a resumed
Authenticate.

# Tokens

	tokens, err := client.ExchangeAuthorizationCode(ctx, "master", clientID, code, redirectURI)
	tokens, err = client.RefreshGrant(ctx, "master", clientID, tokens.RefreshToken)

# Errors

Two error types separate "the provider said no" from "we could not reach the
provider":

  - *OAuth2Error: the provider answered with a non-2xx status. Retrying the
    same request will not help.
  - *TransportError: no usable answer arrived (connection, timeout, truncated
    body). A retry may succeed.

Use IsRejection and IsTransport to tell them apart.

# Tracing

Every call runs inside an OpenTelemetry client span named "authsdk.<Op>" using
the globally registered tracer provider. With no provider registered the spans
are no-ops.
*/
package authsdk
