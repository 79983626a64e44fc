package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/consoleauth/internal/console/service"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/httpx"
	"github.com/aussiebroadwan/consoleauth/pkg/slogx"
)

const maxBodyBytes = 64 << 10

// NavigateResponse tells a script-driven client where to go next.
type NavigateResponse struct {
	Navigate string `json:"navigate"`
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// navigate sends the user agent to target: a redirect for browsers, a
// NavigateResponse for clients that asked for JSON.
func navigate(w http.ResponseWriter, r *http.Request, target string) {
	httpx.NoCache(w)
	if wantsJSON(r) {
		httpx.WriteJSON(w, http.StatusOK, NavigateResponse{Navigate: target})
		return
	}

	status := http.StatusFound
	if r.Method == http.MethodPost {
		status = http.StatusSeeOther
	}
	http.Redirect(w, r, target, status)
}

// writeError renders err as an OAuth2 style error body. The status follows
// the error's kind.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.KindOf(err)
	oe := errorFor(kind, err)

	log := slogx.FromContext(r.Context())
	if oe.StatusCode >= http.StatusInternalServerError {
		log.Error("request failed", "kind", kind.String(), "error", err)
	} else {
		log.Debug("request refused", "kind", kind.String(), "error", err)
	}

	oe.WriteError(w)
}

func errorFor(kind service.ErrorKind, err error) *authsdk.OAuth2Error {
	switch kind {
	case service.KindValidation:
		desc := err.Error()
		var v *service.ValidationError
		if errors.As(err, &v) {
			desc = v.Message
		}
		return authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeValidation, desc)

	case service.KindMissingPrerequisite:
		return authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, err.Error())

	case service.KindRejection:
		var authn *service.AuthenticationError
		if errors.As(err, &authn) {
			return authsdk.NewOAuth2Error(http.StatusUnauthorized, authsdk.ErrorCodeAccessDenied, authn.Message)
		}
		var provider *authsdk.OAuth2Error
		if errors.As(err, &provider) {
			return authsdk.NewOAuth2Error(http.StatusUnauthorized, provider.Code, provider.Description)
		}
		return authsdk.NewOAuth2Error(http.StatusUnauthorized, authsdk.ErrorCodeAccessDenied, err.Error())

	case service.KindSessionExhausted:
		return authsdk.NewOAuth2Error(http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken, "session exhausted, log in again")

	case service.KindTransport:
		return authsdk.NewOAuth2Error(http.StatusBadGateway, authsdk.ErrorCodeBadGateway, "identity provider is unreachable")

	case service.KindDecode:
		return authsdk.NewOAuth2Error(http.StatusBadGateway, authsdk.ErrorCodeBadGateway, "identity provider sent an unexpected response")

	default:
		return authsdk.ErrServerError
	}
}

// readFields returns the submitted fields of a form or flat JSON body.
func readFields(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]string
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			return nil, err
		}
		fields := make(url.Values, len(body))
		for k, v := range body {
			fields.Set(k, v)
		}
		return fields, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

// bearerFrom prefers an explicit field over the Authorization header.
func bearerFrom(r *http.Request, fields url.Values, name string) string {
	if v := fields.Get(name); v != "" {
		return v
	}
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}
