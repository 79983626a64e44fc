package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/consoleauth/internal/console/service"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/httpx"
)

// HeadlessLoginRequest is the body of POST /v1/session/login.
type HeadlessLoginRequest struct {
	Realm    string `json:"realm"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionHandler exposes the agent's own session.
type SessionHandler struct {
	Controller *service.FlowController
}

// HandleGet godoc
//
//	@Summary		Session snapshot
//	@Description	Flow state, expiry and refresh schedule of the held session. Tokens are never returned.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	service.Snapshot		"session snapshot"
//	@Failure		401	{object}	authsdk.ErrorResponse	"no authenticated session"
//	@Router			/v1/session [get].
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, h.Controller.Snapshot())
}

// HandleLogin godoc
//
//	@Summary		Headless login
//	@Description	Runs the whole Authorization Code flow with the agent's own cookie jar. On Success the code
//	@Description	is exchanged and the overview route returned. Other outcomes return the route to continue
//	@Description	with, such as a required action.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		HeadlessLoginRequest	true	"realm (optional), username, password"
//	@Success		200		{object}	NavigateResponse		"next route"
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation error"
//	@Failure		401		{object}	authsdk.ErrorResponse	"credentials rejected"
//	@Failure		502		{object}	authsdk.ErrorResponse	"identity provider unreachable"
//	@Router			/v1/session/login [post].
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req HeadlessLoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Realm == "" {
		req.Realm = h.Controller.Config.Realm
	}

	target, err := h.Controller.LoginWithPassword(r.Context(), req.Realm, authsdk.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, NavigateResponse{Navigate: target})
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Forgets the held tokens, removes the persisted session and disarms the refresh timer.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	NavigateResponse	"login route"
//	@Router			/v1/session/logout [post].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	target := h.Controller.Logout(r.Context())

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, NavigateResponse{Navigate: target})
}
