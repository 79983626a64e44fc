package domain

// AuthenticationOutcome is the provider's verdict on an authenticate call.
// It is one of Success, RequiresActions, RequiresOtpChallenge or Failed.
type AuthenticationOutcome interface {
	outcome()
}

// Success means the transaction is complete; URL is where the user agent
// goes next (the callback, carrying the authorization code).
type Success struct {
	URL string
}

// RequiresActions lists pending required actions. Token authorizes the
// required-action sub-operations and the resumed authenticate call.
type RequiresActions struct {
	Actions []string
	Token   string
}

// RequiresOtpChallenge asks an already enrolled user for a one-time code.
type RequiresOtpChallenge struct {
	Token string
}

// Failed is a rejected attempt. Message may be empty.
type Failed struct {
	Message string
}

func (Success) outcome()              {}
func (RequiresActions) outcome()      {}
func (RequiresOtpChallenge) outcome() {}
func (Failed) outcome()               {}

// Primary is the action the user is routed to first. Unknown tags are passed
// through in lower case so the resolver can report them.
func (r RequiresActions) Primary() string {
	if len(r.Actions) == 0 {
		return ""
	}
	if a, err := ParseRequiredAction(r.Actions[0]); err == nil {
		return a.String()
	}
	return r.Actions[0]
}
