package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/jwtx"
)

var (
	ErrMissingToken        = errors.New("token is missing")
	ErrMissingSessionCode  = errors.New("session code is missing")
	ErrMissingCode         = errors.New("authorization code is missing")
	ErrMissingRefreshToken = errors.New("refresh token is missing")
	ErrUnsupportedAction   = errors.New("required action is not supported")
	ErrStateMismatch       = errors.New("authorization state mismatch")
	ErrSessionExhausted    = errors.New("session exhausted")
	ErrMalformedResponse   = errors.New("malformed identity provider response")
	ErrNotAuthenticated    = errors.New("not authenticated")

	ErrSubmissionInProgress = errors.New("another submission for this login is in progress")
)

// ErrorKind classifies every error the orchestrator returns.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindDecode
	KindTransport
	KindRejection
	KindMissingPrerequisite
	KindSessionExhausted
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindTransport:
		return "transport"
	case KindRejection:
		return "rejection"
	case KindMissingPrerequisite:
		return "missing_prerequisite"
	case KindSessionExhausted:
		return "session_exhausted"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// ValidationError is a form check that failed before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthenticationError is a Failed outcome from the provider.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// KindOf classifies err. Session exhaustion wins over the cause that led to
// it, so a refresh that died on a transport failure reports as exhausted.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var (
		validation *ValidationError
		authn      *AuthenticationError
	)

	switch {
	case errors.Is(err, ErrSessionExhausted), errors.Is(err, ErrMissingRefreshToken):
		return KindSessionExhausted
	case errors.As(err, &validation),
		errors.Is(err, ErrStateMismatch),
		errors.Is(err, ErrUnsupportedAction),
		errors.Is(err, ErrSubmissionInProgress):
		return KindValidation
	case errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrMissingSessionCode),
		errors.Is(err, ErrMissingCode),
		errors.Is(err, ErrNotAuthenticated):
		return KindMissingPrerequisite
	case errors.As(err, &authn), authsdk.IsRejection(err):
		return KindRejection
	case authsdk.IsTransport(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindTransport
	case errors.Is(err, ErrMalformedResponse),
		errors.Is(err, authsdk.ErrUnexpectedResponse),
		errors.Is(err, jwtx.ErrMalformed),
		errors.Is(err, jwtx.ErrInvalidClaim):
		return KindDecode
	default:
		return KindUnknown
	}
}

func exhausted(cause error) error {
	return fmt.Errorf("%w: %w", ErrSessionExhausted, cause)
}
