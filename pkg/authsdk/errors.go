package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/consoleauth/pkg/httpx"
)

// ============================================================================
// OAuth2 Error Codes (RFC 6749)
// ============================================================================

const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeInvalidGrant   = "invalid_grant"
	ErrorCodeInvalidToken   = "invalid_token"
	ErrorCodeServerError    = "server_error"
	ErrorCodeAccessDenied   = "access_denied"
	ErrorCodeBadGateway     = "bad_gateway"
	ErrorCodeValidation     = "validation_error"
)

// ============================================================================
// OAuth2Error - the provider answered, and the answer was no
// ============================================================================

// OAuth2Error is a non-2xx answer from the identity provider, normalised from
// whichever error body shape the endpoint used. The same type is written back
// by the local HTTP surface so callers see one error format.
type OAuth2Error struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the error code (e.g., "invalid_grant", "E_UNAUTHORIZED")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this OAuth2Error to an HTTP response writer.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

// NewOAuth2Error creates a new OAuth2Error with the given status code, error code, and description.
func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	return &OAuth2Error{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

var (
	// ErrInvalidRequest is written when a local request is malformed.
	ErrInvalidRequest = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrServerError is written when something unexpected went wrong locally.
	ErrServerError = &OAuth2Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	// ErrInvalidToken is written when no usable session exists.
	ErrInvalidToken = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "no authenticated session",
	}
)

// ============================================================================
// TransportError - the provider never answered
// ============================================================================

// TransportError reports a request that could not complete: DNS, connection
// refused, timeouts, a truncated body. Retrying may help.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejection reports whether err is (or wraps) an answer from the provider.
func IsRejection(err error) bool {
	var oe *OAuth2Error
	return errors.As(err, &oe)
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *OAuth2Error. It tries
// the OAuth2 shape, then the provider's API error shape, then its validation
// shape, and finally falls back to the status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var oauthErr ErrorResponse
	if err := json.Unmarshal(body, &oauthErr); err == nil && oauthErr.Error != "" {
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        oauthErr.Error,
			Description: oauthErr.ErrorDescription,
		}
	}

	var apiErr APIErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        apiErr.Code,
			Description: apiErr.Message,
		}
	}

	var valErr ValidationErrorResponse
	if err := json.Unmarshal(body, &valErr); err == nil && len(valErr.Errors) > 0 {
		parts := make([]string, 0, len(valErr.Errors))
		for _, fe := range valErr.Errors {
			parts = append(parts, fe.Field+": "+fe.Message)
		}
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        ErrorCodeValidation,
			Description: strings.Join(parts, "; "),
		}
	}

	return &OAuth2Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
