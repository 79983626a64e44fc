package authsdk

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
)

// GetOpenIDConfiguration fetches the realm's discovery document. The agent
// uses it as its readiness check against the provider.
func (c *SDKClient) GetOpenIDConfiguration(ctx context.Context, realm string) (cfg *OpenIDConfiguration, err error) {
	ctx, span := startSpan(ctx, "GetOpenIDConfiguration", attribute.String("authsdk.realm", realm))
	defer func() { endSpan(span, err) }()

	resp, err := c.doRequest(ctx, "discovery", http.MethodGet,
		realmPath(realm, "/.well-known/openid-configuration"), nil,
		requestOptions{headers: map[string]string{"Accept": "application/json"}},
	)
	if err != nil {
		return nil, err
	}

	var out OpenIDConfiguration
	if err := decodeJSON("discovery", resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}
