package http

import (
	"net/http"

	"github.com/aussiebroadwan/consoleauth/internal/console/service"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/httpx"
)

// OTPHandler serves the login-time OTP challenge.
type OTPHandler struct {
	Controller *service.FlowController
}

// HandleGet godoc
//
//	@Summary		Show the OTP challenge
//	@Description	Identity fields are read from the challenge token without verification and are for
//	@Description	display only.
//	@Tags			OTP
//	@Produce		json
//	@Param			realm	path		string						true	"Realm name"
//	@Param			token	query		string						false	"Token from the RequiresOtpChallenge outcome"
//	@Success		200		{object}	service.OTPChallengeView	"email, username"
//	@Failure		400		{object}	authsdk.ErrorResponse		"missing token"
//	@Router			/realms/{realm}/authentication/otp [get].
func (h *OTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.Controller.OTPChallenge(bearerFrom(r, nil, "token"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, view)
}

// HandlePost godoc
//
//	@Summary		Answer the OTP challenge
//	@Tags			OTP
//	@Accept			application/x-www-form-urlencoded
//	@Accept			json
//	@Produce		json
//	@Param			realm	path		string				true	"Realm name"
//	@Param			code	formData	string				true	"Six digit code"
//	@Param			token	formData	string				false	"Token from the RequiresOtpChallenge outcome"
//	@Success		200		{object}	NavigateResponse	"callback url (Accept: application/json)"
//	@Success		303		{string}	string				"redirect to the callback"
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid code or missing token"
//	@Failure		401		{object}	authsdk.ErrorResponse	"code rejected"
//	@Router			/realms/{realm}/authentication/otp [post].
func (h *OTPHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	target, err := h.Controller.SubmitOTPChallenge(r.Context(),
		r.PathValue("realm"),
		bearerFrom(r, fields, "token"),
		fields.Get("code"),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	navigate(w, r, target)
}

// HandleCancel godoc
//
//	@Summary		Cancel the OTP challenge
//	@Tags			OTP
//	@Produce		json
//	@Param			realm	path		string				true	"Realm name"
//	@Success		200		{object}	NavigateResponse	"login route (Accept: application/json)"
//	@Success		303		{string}	string				"redirect to the login route"
//	@Router			/realms/{realm}/authentication/otp/cancel [post].
func (h *OTPHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	navigate(w, r, h.Controller.CancelOTPChallenge(r.PathValue("realm")))
}
