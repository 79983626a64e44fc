package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/consoleauth/pkg/slogx"
)

// SessionCheck reports whether the request may proceed and, if so, the
// subject it acts for. subject may be empty when the session carries no
// decodable identity.
type SessionCheck func(r *http.Request) (subject string, ok bool)

// RequireSession rejects requests for which check fails with a 401 in the
// bearer error format.
func RequireSession(check SessionCheck) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := check(r)
			if !ok {
				slogx.FromContext(r.Context()).Debug("request without an authenticated session")
				writeBearerError(w, "not authenticated")
				return
			}

			ctx := r.Context()
			if subject != "" {
				ctx = WithSubject(ctx, subject)
				ctx = slogx.With(ctx, "sub", subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
