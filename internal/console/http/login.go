package http

import (
	"net/http"

	"github.com/aussiebroadwan/consoleauth/internal/console/service"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/httpx"
)

// LoginForm describes the credential form for an open transaction.
type LoginForm struct {
	Realm  string   `json:"realm"`
	Action string   `json:"action"`
	Fields []string `json:"fields"`
}

// LoginHandler serves the login route of a realm.
type LoginHandler struct {
	Controller *service.FlowController
}

// HandleGet godoc
//
//	@Summary		Enter the login route
//	@Description	Without client_id and redirect_uri a new authorization transaction is started and the
//	@Description	user agent is sent to the provider's authorize endpoint. With both present the transaction
//	@Description	is already open and the credential form is described instead.
//	@Tags			Authentication
//	@Produce		json
//	@Param			realm			path		string				true	"Realm name"
//	@Param			client_id		query		string				false	"Set by the provider when it hands the transaction back"
//	@Param			redirect_uri	query		string				false	"Set by the provider when it hands the transaction back"
//	@Success		200				{object}	LoginForm			"credential form"
//	@Success		302				{string}	string				"redirect to the authorize endpoint"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/realms/{realm}/authentication/login [get].
func (h *LoginHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	realm := r.PathValue("realm")

	target, err := h.Controller.EnterLogin(realm, r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if target != "" {
		navigate(w, r, target)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, LoginForm{
		Realm:  realm,
		Action: service.LoginPath(realm),
		Fields: []string{"username", "password"},
	})
}

// HandlePost godoc
//
//	@Summary		Submit credentials
//	@Description	Authenticates the open transaction. The provider session cookie of the caller is
//	@Description	forwarded. The outcome decides the next route: the callback, a required action or an
//	@Description	OTP challenge.
//	@Tags			Authentication
//	@Accept			application/x-www-form-urlencoded
//	@Accept			json
//	@Produce		json
//	@Param			realm		path		string				true	"Realm name"
//	@Param			username	formData	string				true	"Username"
//	@Param			password	formData	string				true	"Password"
//	@Success		200			{object}	NavigateResponse	"next route (Accept: application/json)"
//	@Success		303			{string}	string				"redirect to the next route"
//	@Failure		400			{object}	authsdk.ErrorResponse	"validation error or missing session cookie"
//	@Failure		401			{object}	authsdk.ErrorResponse	"credentials rejected"
//	@Failure		502			{object}	authsdk.ErrorResponse	"identity provider unreachable"
//	@Router			/realms/{realm}/authentication/login [post].
func (h *LoginHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	target, err := h.Controller.SubmitCredentials(r.Context(), r.PathValue("realm"), authsdk.Credentials{
		Username: fields.Get("username"),
		Password: fields.Get("password"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	navigate(w, r, target)
}

// CallbackHandler serves GET /realms/{realm}/authentication/callback.
type CallbackHandler struct {
	Controller *service.FlowController
}

// ServeHTTP godoc
//
//	@Summary		Authorization callback
//	@Description	Exchanges the authorization code once, stores the tokens and sends the user agent to the
//	@Description	realm overview. A repeated callback for the same code is not exchanged again.
//	@Tags			Authentication
//	@Produce		json
//	@Param			realm				path		string				true	"Realm name"
//	@Param			code				query		string				false	"Authorization code"
//	@Param			state				query		string				false	"State issued with the authorize request"
//	@Param			error				query		string				false	"Error code from the provider"
//	@Param			error_description	query		string				false	"Error description from the provider"
//	@Success		200					{object}	NavigateResponse	"overview route (Accept: application/json)"
//	@Success		302					{string}	string				"redirect to the overview"
//	@Failure		400					{object}	authsdk.ErrorResponse	"missing code or state mismatch"
//	@Failure		401					{object}	authsdk.ErrorResponse	"code rejected"
//	@Failure		502					{object}	authsdk.ErrorResponse	"identity provider unreachable"
//	@Router			/realms/{realm}/authentication/callback [get].
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target, err := h.Controller.HandleCallback(r.Context(), r.PathValue("realm"), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	navigate(w, r, target)
}
