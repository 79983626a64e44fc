package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/jwtx"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	rejection := authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant, "expired")
	transport := &authsdk.TransportError{Op: "token", Err: errors.New("dial tcp: refused")}

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"validation", &ValidationError{Field: "code", Message: "code must be 6 digits"}, KindValidation},
		{"state mismatch", ErrStateMismatch, KindValidation},
		{"unsupported action", fmt.Errorf("%w: verify_email", ErrUnsupportedAction), KindValidation},
		{"missing token", ErrMissingToken, KindMissingPrerequisite},
		{"missing session code", ErrMissingSessionCode, KindMissingPrerequisite},
		{"missing code", ErrMissingCode, KindMissingPrerequisite},
		{"not authenticated", ErrNotAuthenticated, KindMissingPrerequisite},
		{"failed outcome", &AuthenticationError{Message: "bad password"}, KindRejection},
		{"provider error", fmt.Errorf("failed to authenticate: %w", rejection), KindRejection},
		{"transport", fmt.Errorf("failed to authenticate: %w", transport), KindTransport},
		{"deadline", context.DeadlineExceeded, KindTransport},
		{"malformed", fmt.Errorf("%w: unknown status", ErrMalformedResponse), KindDecode},
		{"unexpected response", authsdk.ErrUnexpectedResponse, KindDecode},
		{"undecodable token", jwtx.ErrMalformed, KindDecode},
		{"exhausted by transport", exhausted(transport), KindSessionExhausted},
		{"exhausted by rejection", exhausted(rejection), KindSessionExhausted},
		{"missing refresh token", ErrMissingRefreshToken, KindSessionExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorKindString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "session_exhausted", KindSessionExhausted.String())
	require.Equal(t, "missing_prerequisite", KindMissingPrerequisite.String())
	require.Equal(t, "unknown", ErrorKind(99).String())
}

func TestExhaustedKeepsCause(t *testing.T) {
	t.Parallel()

	cause := &authsdk.TransportError{Op: "token", Err: errors.New("timeout")}
	err := exhausted(cause)

	require.ErrorIs(t, err, ErrSessionExhausted)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "timeout")
}
