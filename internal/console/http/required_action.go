package http

import (
	"net/http"

	"github.com/aussiebroadwan/consoleauth/internal/console/service"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/httpx"
)

// bearerField carries the token of a RequiresActions outcome between routes.
const bearerField = "client_data"

// RequiredActionHandler serves the required-action sub-flows.
type RequiredActionHandler struct {
	Controller *service.FlowController
}

// HandleGet godoc
//
//	@Summary		Begin a required action
//	@Description	Prepares the sub-flow named by execution. configure_otp returns a fresh secret and a QR
//	@Description	code; update_password describes the password form. verify_email is not supported.
//	@Tags			Required Actions
//	@Produce		json
//	@Param			realm		path		string						true	"Realm name"
//	@Param			execution	query		string						true	"Required action"	Enums(configure_otp, update_password, verify_email)
//	@Param			client_data	query		string						false	"Bearer token from the RequiresActions outcome"
//	@Success		200			{object}	service.RequiredActionView	"sub-flow view"
//	@Failure		400			{object}	authsdk.ErrorResponse		"missing token or unsupported action"
//	@Failure		401			{object}	authsdk.ErrorResponse		"token rejected"
//	@Failure		502			{object}	authsdk.ErrorResponse		"identity provider unreachable"
//	@Router			/realms/{realm}/authentication/required-action [get].
func (h *RequiredActionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	view, err := h.Controller.BeginRequiredAction(r.Context(),
		r.PathValue("realm"),
		q.Get("execution"),
		bearerFrom(r, nil, bearerField),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, view)
}

// HandleOTP godoc
//
//	@Summary		Confirm OTP enrollment
//	@Description	Verifies the first code from the authenticator app, then resumes authentication.
//	@Tags			Required Actions
//	@Accept			application/x-www-form-urlencoded
//	@Accept			json
//	@Produce		json
//	@Param			realm		path		string				true	"Realm name"
//	@Param			code		formData	string				true	"Six digit code"
//	@Param			label		formData	string				false	"Device label"
//	@Param			secret		formData	string				true	"Secret returned by the begin step"
//	@Param			client_data	formData	string				false	"Bearer token from the RequiresActions outcome"
//	@Success		200			{object}	NavigateResponse	"next route (Accept: application/json)"
//	@Success		303			{string}	string				"redirect to the next route"
//	@Failure		400			{object}	authsdk.ErrorResponse	"invalid code or missing token"
//	@Failure		401			{object}	authsdk.ErrorResponse	"code rejected"
//	@Router			/realms/{realm}/authentication/required-action/otp [post].
func (h *RequiredActionHandler) HandleOTP(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	target, err := h.Controller.SubmitOTPEnrollment(r.Context(),
		r.PathValue("realm"),
		bearerFrom(r, fields, bearerField),
		service.OTPSubmission{
			Code:   fields.Get("code"),
			Label:  fields.Get("label"),
			Secret: fields.Get("secret"),
		},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	navigate(w, r, target)
}

// HandlePassword godoc
//
//	@Summary		Set a new password
//	@Description	Both fields must match; no request reaches the provider otherwise. On success
//	@Description	authentication is resumed.
//	@Tags			Required Actions
//	@Accept			application/x-www-form-urlencoded
//	@Accept			json
//	@Produce		json
//	@Param			realm			path		string				true	"Realm name"
//	@Param			password		formData	string				true	"New password"
//	@Param			confirmPassword	formData	string				true	"New password again"
//	@Param			client_data		formData	string				false	"Bearer token from the RequiresActions outcome"
//	@Success		200				{object}	NavigateResponse	"next route (Accept: application/json)"
//	@Success		303				{string}	string				"redirect to the next route"
//	@Failure		400				{object}	authsdk.ErrorResponse	"passwords differ or missing token"
//	@Failure		401				{object}	authsdk.ErrorResponse	"token rejected"
//	@Router			/realms/{realm}/authentication/required-action/password [post].
func (h *RequiredActionHandler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	target, err := h.Controller.SubmitPasswordChange(r.Context(),
		r.PathValue("realm"),
		bearerFrom(r, fields, bearerField),
		service.PasswordChange{
			Password:     fields.Get("password"),
			Confirmation: fields.Get("confirmPassword"),
		},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	navigate(w, r, target)
}
