package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
)

// SetupOTP asks the provider to generate a TOTP secret for the user behind
// the temporary bearer token.
func (c *SDKClient) SetupOTP(ctx context.Context, realm, bearer string) (resp *SetupOTPResponse, err error) {
	ctx, span := startSpan(ctx, "SetupOTP", attribute.String("authsdk.realm", realm))
	defer func() { endSpan(span, err) }()

	httpResp, err := c.doRequest(ctx, "setup-otp", http.MethodGet,
		realmPath(realm, "/login-actions/setup-otp"), nil,
		requestOptions{bearer: bearer},
	)
	if err != nil {
		return nil, err
	}

	var out SetupOTPResponse
	if err := decodeJSON("setup-otp", httpResp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}

// VerifyOTP confirms an OTP enrollment with a code generated from secret.
func (c *SDKClient) VerifyOTP(
	ctx context.Context,
	realm, bearer string,
	req VerifyOTPRequest,
) (resp *MessageResponse, err error) {
	ctx, span := startSpan(ctx, "VerifyOTP", attribute.String("authsdk.realm", realm))
	defer func() { endSpan(span, err) }()

	out := &MessageResponse{}
	if err := c.postJSON(ctx, "verify-otp", realm, "/login-actions/verify-otp", req,
		requestOptions{bearer: bearer}, out); err != nil {
		return nil, err
	}

	return out, nil
}

// ChallengeOTP answers an OTP login challenge. The provider looks the
// transaction up by its session cookie, so sessionCode is forwarded.
func (c *SDKClient) ChallengeOTP(
	ctx context.Context,
	realm, bearer, sessionCode, code string,
) (resp *ChallengeOTPResponse, err error) {
	ctx, span := startSpan(ctx, "ChallengeOTP", attribute.String("authsdk.realm", realm))
	defer func() { endSpan(span, err) }()

	out := &ChallengeOTPResponse{}
	if err := c.postJSON(ctx, "challenge-otp", realm, "/login-actions/challenge-otp",
		ChallengeOTPRequest{Code: code},
		requestOptions{bearer: bearer, sessionCode: sessionCode}, out); err != nil {
		return nil, err
	}

	return out, nil
}

// UpdatePassword sets a new password during a forced password change.
func (c *SDKClient) UpdatePassword(
	ctx context.Context,
	realm, bearer, password string,
) (resp *MessageResponse, err error) {
	ctx, span := startSpan(ctx, "UpdatePassword", attribute.String("authsdk.realm", realm))
	defer func() { endSpan(span, err) }()

	out := &MessageResponse{}
	if err := c.postJSON(ctx, "update-password", realm, "/login-actions/update-password",
		UpdatePasswordRequest{Value: password},
		requestOptions{bearer: bearer}, out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *SDKClient) postJSON(
	ctx context.Context,
	op, realm, suffix string,
	body any,
	opts requestOptions,
	target any,
) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	if opts.headers == nil {
		opts.headers = map[string]string{}
	}
	opts.headers["Content-Type"] = "application/json"

	httpResp, err := c.doRequest(ctx, op, http.MethodPost, realmPath(realm, suffix), bytes.NewReader(payload), opts)
	if err != nil {
		return err
	}

	return decodeJSON(op, httpResp, target, http.StatusOK)
}
