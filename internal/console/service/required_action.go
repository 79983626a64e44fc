package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"

	"github.com/pquerna/otp"

	"github.com/aussiebroadwan/consoleauth/internal/console/domain"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
)

const qrCodeSize = 256

// RequiredActionView is what the user sees for a required-action route.
// Exactly one of OTP, Password or NoActionRequired is set.
type RequiredActionView struct {
	Action           string         `json:"action"`
	OTP              *OTPEnrollment `json:"otp,omitempty"`
	Password         *PasswordForm  `json:"password,omitempty"`
	NoActionRequired bool           `json:"no_action_required,omitempty"`
}

// OTPEnrollment is the material for configuring an authenticator app.
type OTPEnrollment struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	Issuer     string `json:"issuer"`
	Account    string `json:"account"`
	QRCodePNG  []byte `json:"qr_code_png"`
}

// PasswordForm names the fields the update-password form submits.
type PasswordForm struct {
	Fields []string `json:"fields"`
}

// OTPSubmission is the user's answer to an OTP enrollment.
type OTPSubmission struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Secret string `json:"secret"`
}

// PasswordChange is the update-password form.
type PasswordChange struct {
	Password     string `json:"password"`
	Confirmation string `json:"confirmPassword"`
}

// RequiredActionResolver runs the required-action sub-flows. After a
// sub-flow succeeds it resumes the authenticate call with the same bearer
// token and hands the next outcome back to the caller.
type RequiredActionResolver struct {
	Gateway  Gateway
	Cookies  SessionCodeReader
	ClientID string
	Logger   *slog.Logger
}

// Begin prepares the view for execution. Unknown executions get a neutral
// view and cause no network call.
func (r *RequiredActionResolver) Begin(ctx context.Context, realm, execution, bearer string) (RequiredActionView, error) {
	action, err := domain.ParseRequiredAction(execution)
	if errors.Is(err, domain.ErrUnknownRequiredAction) {
		return RequiredActionView{Action: execution, NoActionRequired: true}, nil
	}

	switch action {
	case domain.ActionConfigureOTP:
		if bearer == "" {
			return RequiredActionView{}, ErrMissingToken
		}
		enrollment, err := r.setupOTP(ctx, realm, bearer)
		if err != nil {
			return RequiredActionView{}, err
		}
		return RequiredActionView{Action: action.String(), OTP: enrollment}, nil

	case domain.ActionUpdatePassword:
		if bearer == "" {
			return RequiredActionView{}, ErrMissingToken
		}
		return RequiredActionView{
			Action:   action.String(),
			Password: &PasswordForm{Fields: []string{"password", "confirmPassword"}},
		}, nil

	case domain.ActionVerifyEmail:
		return RequiredActionView{}, fmt.Errorf("%w: %s", ErrUnsupportedAction, action)

	default:
		return RequiredActionView{Action: execution, NoActionRequired: true}, nil
	}
}

func (r *RequiredActionResolver) setupOTP(ctx context.Context, realm, bearer string) (*OTPEnrollment, error) {
	resp, err := r.Gateway.SetupOTP(ctx, realm, bearer)
	if err != nil {
		return nil, fmt.Errorf("failed to set up OTP: %w", err)
	}

	key, err := otp.NewKeyFromURL(resp.OTPAuthURL)
	if err != nil {
		return nil, fmt.Errorf("%w: otpauth url: %v", ErrMalformedResponse, err)
	}

	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	secret := resp.Secret
	if secret == "" {
		secret = key.Secret()
	}
	issuer := resp.Issuer
	if issuer == "" {
		issuer = key.Issuer()
	}

	return &OTPEnrollment{
		Secret:     secret,
		OTPAuthURL: resp.OTPAuthURL,
		Issuer:     issuer,
		Account:    key.AccountName(),
		QRCodePNG:  buf.Bytes(),
	}, nil
}

// SubmitOTP verifies an enrollment code and resumes authentication.
func (r *RequiredActionResolver) SubmitOTP(ctx context.Context, realm, bearer string, in OTPSubmission) (domain.AuthenticationOutcome, error) {
	if err := validateOTPCode(in.Code); err != nil {
		return nil, err
	}
	if in.Secret == "" {
		return nil, &ValidationError{Field: "secret", Message: "secret is required"}
	}
	sessionCode, err := r.prerequisites(ctx, bearer)
	if err != nil {
		return nil, err
	}

	if _, err := r.Gateway.VerifyOTP(ctx, realm, bearer, authsdk.VerifyOTPRequest{
		Code:   in.Code,
		Label:  in.Label,
		Secret: in.Secret,
	}); err != nil {
		return nil, fmt.Errorf("failed to verify OTP: %w", err)
	}

	return r.resume(ctx, realm, bearer, sessionCode)
}

// SubmitPassword sets the new password and resumes authentication. The
// confirmation is checked before anything else.
func (r *RequiredActionResolver) SubmitPassword(ctx context.Context, realm, bearer string, in PasswordChange) (domain.AuthenticationOutcome, error) {
	if in.Password == "" {
		return nil, &ValidationError{Field: "password", Message: "password is required"}
	}
	if in.Password != in.Confirmation {
		return nil, &ValidationError{Field: "confirmPassword", Message: "passwords do not match"}
	}
	sessionCode, err := r.prerequisites(ctx, bearer)
	if err != nil {
		return nil, err
	}

	if _, err := r.Gateway.UpdatePassword(ctx, realm, bearer, in.Password); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	return r.resume(ctx, realm, bearer, sessionCode)
}

func (r *RequiredActionResolver) prerequisites(ctx context.Context, bearer string) (string, error) {
	if bearer == "" {
		return "", ErrMissingToken
	}
	sessionCode := r.Cookies.ReadSessionCode(ctx)
	if sessionCode == "" {
		return "", ErrMissingSessionCode
	}
	return sessionCode, nil
}

func (r *RequiredActionResolver) resume(ctx context.Context, realm, bearer, sessionCode string) (domain.AuthenticationOutcome, error) {
	resp, err := r.Gateway.Authenticate(ctx, realm, authsdk.AuthenticateParams{
		ClientID:    r.ClientID,
		SessionCode: sessionCode,
		BearerToken: bearer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resume authentication: %w", err)
	}
	return DecodeOutcome(resp)
}

func validateOTPCode(code string) error {
	if len(code) != 6 {
		return &ValidationError{Field: "code", Message: "code must be 6 digits"}
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return &ValidationError{Field: "code", Message: "code must be 6 digits"}
		}
	}
	return nil
}
