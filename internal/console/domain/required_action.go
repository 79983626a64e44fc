package domain

import (
	"errors"
	"fmt"
	"strings"
)

// RequiredAction is a step the identity provider requires before a login can
// finish.
type RequiredAction string

const (
	ActionConfigureOTP   RequiredAction = "configure_otp"
	ActionVerifyEmail    RequiredAction = "verify_email"
	ActionUpdatePassword RequiredAction = "update_password"
)

var ErrUnknownRequiredAction = errors.New("unknown required action")

// ParseRequiredAction accepts any letter case ("CONFIGURE_OTP" appears in
// links produced by older consoles).
func ParseRequiredAction(s string) (RequiredAction, error) {
	switch a := RequiredAction(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionConfigureOTP, ActionVerifyEmail, ActionUpdatePassword:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRequiredAction, s)
	}
}

func (a RequiredAction) String() string { return string(a) }
