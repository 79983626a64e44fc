package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
)

// AuthenticateParams are the inputs of a login-actions/authenticate call.
type AuthenticateParams struct {
	ClientID    string
	SessionCode string

	// Credentials is sent as the JSON body. Leave it nil when resuming an
	// authentication with a temporary bearer token; an empty object is sent.
	Credentials *Credentials

	// BearerToken is the temporary token from a previous RequiresActions or
	// RequiresOtpChallenge answer.
	BearerToken string
}

// Authenticate submits credentials (or resumes with a bearer token) for the
// authorization transaction identified by the session code. A 200 answer is
// returned as is, whatever its status field says.
func (c *SDKClient) Authenticate(
	ctx context.Context,
	realm string,
	params AuthenticateParams,
) (resp *AuthenticateResponse, err error) {
	ctx, span := startSpan(ctx, "Authenticate",
		attribute.String("authsdk.realm", realm),
		attribute.Bool("authsdk.resume", params.Credentials == nil),
	)
	defer func() { endSpan(span, err) }()

	var body any = struct{}{}
	if params.Credentials != nil {
		body = params.Credentials
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	query := url.Values{
		"client_id":    {params.ClientID},
		"session_code": {params.SessionCode},
	}

	httpResp, err := c.doRequest(ctx, "authenticate", http.MethodPost,
		realmPath(realm, "/login-actions/authenticate")+"?"+query.Encode(),
		bytes.NewReader(payload),
		requestOptions{
			bearer:      params.BearerToken,
			sessionCode: params.SessionCode,
			headers:     map[string]string{"Content-Type": "application/json"},
		},
	)
	if err != nil {
		return nil, err
	}

	var out AuthenticateResponse
	if err := decodeJSON("authenticate", httpResp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("authsdk.status", string(out.Status)))
	return &out, nil
}
