package authsdk

// ============================================================================
// Error Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse represents a standard OAuth2 error response per RFC 6749.
// The token endpoint answers with this shape.
type ErrorResponse struct {
	// Error is the OAuth2 error code (e.g., "invalid_request", "invalid_grant")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// APIErrorResponse is the error body the identity provider uses for its own
// (non OAuth2) endpoints.
type APIErrorResponse struct {
	// Code is a machine readable code such as "E_UNAUTHORIZED"
	Code string `json:"code"`

	// Status mirrors the HTTP status code
	Status int `json:"status"`

	// Message is a human-readable error message
	Message string `json:"message"`
}

// ValidationErrorResponse is returned with 422 when request validation fails.
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

// FieldError describes a single failed field.
type FieldError struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse represents the OAuth2 token endpoint response per RFC 6749.
// It is returned for the authorization_code, refresh_token and password grants.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// RefreshToken is used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "Bearer" per OAuth2 spec
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	// IDToken is present when the openid scope was granted
	IDToken string `json:"id_token,omitempty"`
}

// ============================================================================
// Authentication Types
// ============================================================================

// AuthenticationStatus is the discriminator of an authenticate response.
type AuthenticationStatus string

const (
	StatusSuccess              AuthenticationStatus = "Success"
	StatusRequiresActions      AuthenticationStatus = "RequiresActions"
	StatusRequiresOtpChallenge AuthenticationStatus = "RequiresOtpChallenge"
	StatusFailed               AuthenticationStatus = "Failed"
)

// Credentials is the username/password body of an authenticate request.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthenticateResponse is the raw body returned by the authenticate endpoint.
// Which optional fields are populated depends on Status.
type AuthenticateResponse struct {
	Status          AuthenticationStatus `json:"status"`
	URL             string               `json:"url,omitempty"`
	RequiredActions []string             `json:"required_actions,omitempty"`
	Token           string               `json:"token,omitempty"`
	Message         string               `json:"message,omitempty"`
}

// ============================================================================
// Login Action Types
// ============================================================================

// SetupOTPResponse carries a freshly generated TOTP secret.
type SetupOTPResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	Issuer     string `json:"issuer"`
}

// VerifyOTPRequest confirms an OTP enrollment.
type VerifyOTPRequest struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Secret string `json:"secret"`
}

// ChallengeOTPRequest answers an OTP login challenge.
type ChallengeOTPRequest struct {
	Code string `json:"code"`
}

// ChallengeOTPResponse holds where the user agent goes next.
type ChallengeOTPResponse struct {
	URL string `json:"url"`
}

// UpdatePasswordRequest sets a new password for the authenticating user.
type UpdatePasswordRequest struct {
	Value string `json:"value"`
}

// MessageResponse is the generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Discovery Types
// ============================================================================

// OpenIDConfiguration is the subset of the discovery document we use.
type OpenIDConfiguration struct {
	Issuer                string   `json:"issuer"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	IntrospectionEndpoint string   `json:"introspection_endpoint"`
	UserinfoEndpoint      string   `json:"userinfo_endpoint"`
	JWKSURI               string   `json:"jwks_uri"`
	GrantTypesSupported   []string `json:"grant_types_supported"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by the console's /livez and /readyz endpoints.
// Only /readyz fills Checks.
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the process uptime as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the build version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness results for dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of the console's dependencies.
type HealthChecks struct {
	// Storage is the session storage driver status
	Storage string `json:"storage"`

	// IdentityProvider is the result of fetching the realm's discovery document
	IdentityProvider string `json:"identity_provider"`
}
