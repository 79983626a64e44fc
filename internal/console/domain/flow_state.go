package domain

import "fmt"

// FlowState is where the user is in the login handshake.
type FlowState int

const (
	StateLoggedOut FlowState = iota
	StateAwaitingAuthorizationRedirect
	StateAwaitingCallback
	StateAwaitingRequiredAction
	StateOtpChallengeRequired
	StateAuthenticated
	StateFailed
)

var flowStateNames = [...]string{
	StateLoggedOut:                     "logged_out",
	StateAwaitingAuthorizationRedirect: "awaiting_authorization_redirect",
	StateAwaitingCallback:              "awaiting_callback",
	StateAwaitingRequiredAction:        "awaiting_required_action",
	StateOtpChallengeRequired:          "otp_challenge_required",
	StateAuthenticated:                 "authenticated",
	StateFailed:                        "failed",
}

func (s FlowState) String() string {
	if s < 0 || int(s) >= len(flowStateNames) {
		return "unknown"
	}
	return flowStateNames[s]
}

func (s FlowState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *FlowState) UnmarshalText(text []byte) error {
	for i, name := range flowStateNames {
		if name == string(text) {
			*s = FlowState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown flow state %q", text)
}
