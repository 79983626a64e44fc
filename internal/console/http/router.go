package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aussiebroadwan/consoleauth/internal/console/service"
	"github.com/aussiebroadwan/consoleauth/internal/console/store"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/httpx"
	"github.com/aussiebroadwan/consoleauth/pkg/slogx"

	_ "github.com/aussiebroadwan/consoleauth/api/console" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Discovery fetches a realm's discovery document. *authsdk.SDKClient
// implements it; /readyz uses it to reach the identity provider.
type Discovery interface {
	GetOpenIDConfiguration(ctx context.Context, realm string) (*authsdk.OpenIDConfiguration, error)
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Controller *service.FlowController
	Store      store.Store
	Discovery  Discovery
	Gatherer   prometheus.Gatherer // Optional: /metrics is only served when set

	// Limits must be set before ApplyRoutes.
	Limits httpx.RateLimitProfiles
}

func NewRouter(
	c *service.FlowController,
	st store.Store,
	discovery Discovery,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Controller:   c,
		Store:        st,
		Discovery:    discovery,
		Limits:       httpx.DefaultRateLimits(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuthentication()
	r.registerRequiredActions()
	r.registerOTP()
	r.registerSession()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Console Authentication Agent API
//	@version		0.1.0
//	@description	Local surface of the console login agent. It drives the OAuth2 Authorization Code flow
//	@description	against a FerrisKey identity provider and keeps the resulting session refreshed.
//	@description
//	@description	Browser routes answer with redirects; send "Accept: application/json" to receive
//	@description	{"navigate": url} instead.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/consoleauth
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:5555
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuthentication() {
	h := &LoginHandler{Controller: r.Controller}

	// GET /login - lenient rate limit (starts a transaction or shows the form)
	r.Mux.Handle("GET /realms/{realm}/authentication/login",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)

	// POST /login - strict rate limit (credential submissions)
	// Note: Rate limited by IP + username form field to slow down guessing
	r.Mux.Handle("POST /realms/{realm}/authentication/login",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			forwardCookies,
			httpx.RateLimitByIPAndFormField(r.Limits.Strict, "username"),
		),
	)

	// GET /callback - moderate rate limit (one exchange per login)
	callback := &CallbackHandler{Controller: r.Controller}
	r.Mux.Handle("GET /realms/{realm}/authentication/callback",
		httpx.Chain(callback,
			httpx.RateLimitByIP(r.Limits.Moderate),
		),
	)
}

func (r *Router) registerRequiredActions() {
	h := &RequiredActionHandler{Controller: r.Controller}

	// GET /required-action - moderate rate limit (may call setup-otp)
	r.Mux.Handle("GET /realms/{realm}/authentication/required-action",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(r.Limits.Moderate),
		),
	)

	// POST /required-action/otp - strict rate limit (OTP codes are guessable)
	r.Mux.Handle("POST /realms/{realm}/authentication/required-action/otp",
		httpx.Chain(http.HandlerFunc(h.HandleOTP),
			forwardCookies,
			httpx.RateLimitByIP(r.Limits.Strict),
		),
	)

	// POST /required-action/password - moderate rate limit
	r.Mux.Handle("POST /realms/{realm}/authentication/required-action/password",
		httpx.Chain(http.HandlerFunc(h.HandlePassword),
			forwardCookies,
			httpx.RateLimitByIP(r.Limits.Moderate),
		),
	)
}

func (r *Router) registerOTP() {
	h := &OTPHandler{Controller: r.Controller}

	r.Mux.Handle("GET /realms/{realm}/authentication/otp",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)

	// POST /otp - strict rate limit (prevent brute force of TOTP codes)
	r.Mux.Handle("POST /realms/{realm}/authentication/otp",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			forwardCookies,
			httpx.RateLimitByIP(r.Limits.Strict),
		),
	)

	r.Mux.Handle("POST /realms/{realm}/authentication/otp/cancel",
		httpx.Chain(http.HandlerFunc(h.HandleCancel),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
}

func (r *Router) registerSession() {
	h := &SessionHandler{Controller: r.Controller}
	authenticated := httpx.RequireSession(r.sessionCheck)

	// GET /v1/session - session snapshot, only while authenticated
	r.Mux.Handle("GET /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			authenticated,
			httpx.RateLimitBySubject(r.Limits.Lenient),
		),
	)

	// GET /overview - where a finished login lands
	r.Mux.Handle("GET /realms/{realm}/overview",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			authenticated,
			httpx.RateLimitBySubject(r.Limits.Lenient),
		),
	)

	// POST /v1/session/login - strict rate limit (headless credential submission)
	// The agent's own cookie jar carries the provider session, so inbound
	// cookies are not forwarded here.
	r.Mux.Handle("POST /v1/session/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.Limits.Strict),
		),
	)

	r.Mux.Handle("POST /v1/session/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(r.Limits.Moderate),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - public rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.Store, r.Discovery, r.Controller.Config.Realm),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics",
			promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{ErrorLog: slog.NewLogLogger(r.logger.Handler(), slog.LevelError)}),
		)
	}
}

func (r *Router) sessionCheck(*http.Request) (string, bool) {
	snap := r.Controller.Snapshot()
	return snap.Subject, snap.Authenticated
}

// forwardCookies makes the user agent's cookies visible to the provider
// client for the rest of the request.
func forwardCookies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := authsdk.WithCookieHeader(r.Context(), r.Header.Get("Cookie"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
