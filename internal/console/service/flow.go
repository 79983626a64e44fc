package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/consoleauth/internal/console/domain"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/cryptox"
	"github.com/aussiebroadwan/consoleauth/pkg/jwtx"
)

const (
	DefaultRealm      = "master"
	DefaultClientID   = "security-admin-console"
	DefaultScope      = "openid profile email"
	DefaultExpirySkew = 60 * time.Second

	defaultFailureMessage = "Authentication failed. Please check your credentials and try again."
)

type FlowConfig struct {
	// Realm is used for refreshes of a restored session that was persisted
	// without one.
	Realm    string
	ClientID string
	Scope    string
	// PublicURL is the externally visible base URL of the local surface;
	// the callback redirect_uri is built from it.
	PublicURL string

	ExpirySkew          time.Duration
	RefreshLead         time.Duration
	RefreshRetryBackoff time.Duration
}

func (c *FlowConfig) applyDefaults() {
	if c.Realm == "" {
		c.Realm = DefaultRealm
	}
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}
	if c.Scope == "" {
		c.Scope = DefaultScope
	}
	if c.ExpirySkew <= 0 {
		c.ExpirySkew = DefaultExpirySkew
	}
	if c.RefreshLead <= 0 {
		c.RefreshLead = DefaultRefreshLead
	}
	if c.RefreshRetryBackoff <= 0 {
		c.RefreshRetryBackoff = DefaultRefreshRetryBackoff
	}
}

// FlowController drives the Authorization Code flow from logged out to
// authenticated. It owns the FlowState and is the only writer of the
// SessionStore. Credential replacement and re-arming the refresh timer
// happen under one lock.
type FlowController struct {
	Config    FlowConfig
	Gateway   Gateway
	Cookies   SessionCodeReader
	Session   *SessionStore
	Scheduler *RefreshScheduler
	Resolver  *RequiredActionResolver
	Logger    *slog.Logger
	Metrics   *Metrics

	mu        sync.Mutex
	state     domain.FlowState
	authState string
	bearer    string
	lastCode  string
	lastErr   error

	sessionRealm atomic.Value
	submissions  singleflight.Group
}

func NewFlowController(
	cfg FlowConfig,
	gw Gateway,
	cookies SessionCodeReader,
	session *SessionStore,
	clock Clock,
	logger *slog.Logger,
	metrics *Metrics,
) *FlowController {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	c := &FlowController{
		Config:  cfg,
		Gateway: gw,
		Cookies: cookies,
		Session: session,
		Logger:  logger,
		Metrics: metrics,
		state:   domain.StateLoggedOut,
	}
	c.sessionRealm.Store(cfg.Realm)

	c.Scheduler = NewRefreshScheduler(c.refresh, clock, logger.With("component", "refresh"))
	c.Scheduler.LeadTime = cfg.RefreshLead
	c.Scheduler.RetryBackoff = cfg.RefreshRetryBackoff
	c.Scheduler.StillAuthenticated = session.Authenticated
	c.Scheduler.Metrics = metrics

	c.Resolver = &RequiredActionResolver{
		Gateway:  gw,
		Cookies:  cookies,
		ClientID: cfg.ClientID,
		Logger:   logger,
	}

	session.Subscribe(func(p domain.CredentialPair) {
		metrics.SetAuthenticated(!p.IsZero())
	})

	return c
}

// ============================================================================
// Authorization
// ============================================================================

// EnterLogin handles arrival on the login route. Without client_id and
// redirect_uri a fresh authorization transaction is started and its URL
// returned; otherwise "" is returned and the login form should be shown.
func (c *FlowController) EnterLogin(realm string, query url.Values) (string, error) {
	if realm == "" {
		return "", &ValidationError{Field: "realm", Message: "realm is required"}
	}

	if query.Get("client_id") != "" && query.Get("redirect_uri") != "" {
		c.mu.Lock()
		c.transitionLocked(domain.StateAwaitingAuthorizationRedirect)
		c.mu.Unlock()
		return "", nil
	}

	return c.AuthorizeURL(realm), nil
}

// AuthorizeURL opens a new transaction with a fresh state value.
func (c *FlowController) AuthorizeURL(realm string) string {
	state := uuid.NewString()

	c.mu.Lock()
	c.authState = state
	c.bearer = ""
	c.lastErr = nil
	c.transitionLocked(domain.StateAwaitingAuthorizationRedirect)
	c.mu.Unlock()

	return c.Gateway.BuildAuthorizeURL(realm, authsdk.AuthorizeRequest{
		ClientID:    c.Config.ClientID,
		RedirectURI: c.redirectURI(realm),
		Scope:       c.Config.Scope,
		State:       state,
	})
}

func (c *FlowController) redirectURI(realm string) string {
	return strings.TrimRight(c.Config.PublicURL, "/") + CallbackPath(realm)
}

type submission struct {
	navigate string
	outcome  domain.AuthenticationOutcome
	input    any
}

// coalesce runs fn at most once at a time per key; concurrent callers with
// the same key share the first caller's result. A caller whose input differs
// from the one in flight gets ErrSubmissionInProgress. fn runs detached from
// the caller's cancellation since other callers may be waiting on it.
func (c *FlowController) coalesce(ctx context.Context, key string, input any, fn func(context.Context) (submission, error)) (submission, error) {
	v, err, shared := c.submissions.Do(key, func() (any, error) {
		res, err := fn(context.WithoutCancel(ctx))
		res.input = input
		return res, err
	})

	res, _ := v.(submission)
	if shared {
		if res.input != input {
			return submission{}, ErrSubmissionInProgress
		}
		c.Logger.Debug("coalesced duplicate submission")
	}
	return res, err
}

// SubmitCredentials authenticates the open transaction with a username and
// password and returns where to navigate next. Concurrent submissions for
// one session code share a single authenticate call, so the code is consumed
// once.
func (c *FlowController) SubmitCredentials(ctx context.Context, realm string, creds authsdk.Credentials) (string, error) {
	res, err := c.submit(ctx, realm, creds)
	return res.navigate, err
}

func (c *FlowController) submit(ctx context.Context, realm string, creds authsdk.Credentials) (submission, error) {
	if creds.Username == "" {
		return submission{}, &ValidationError{Field: "username", Message: "username is required"}
	}
	if creds.Password == "" {
		return submission{}, &ValidationError{Field: "password", Message: "password is required"}
	}

	sessionCode := c.Cookies.ReadSessionCode(ctx)
	if sessionCode == "" {
		return submission{}, ErrMissingSessionCode
	}

	key := strings.Join([]string{"authenticate", realm, sessionCode}, "\x00")
	return c.coalesce(ctx, key, creds, func(ctx context.Context) (submission, error) {
		resp, err := c.Gateway.Authenticate(ctx, realm, authsdk.AuthenticateParams{
			ClientID:    c.Config.ClientID,
			SessionCode: sessionCode,
			Credentials: &creds,
		})
		if err != nil {
			c.recordError(err)
			return submission{}, fmt.Errorf("failed to authenticate: %w", err)
		}

		outcome, err := DecodeOutcome(resp)
		if err != nil {
			c.recordError(err)
			return submission{}, err
		}

		nav, err := c.Dispatch(realm, outcome)
		return submission{navigate: nav, outcome: outcome}, err
	})
}

// Dispatch applies an authentication outcome to the flow state and returns
// the navigation target. A Failed outcome returns *AuthenticationError and
// leaves the session untouched.
func (c *FlowController) Dispatch(realm string, outcome domain.AuthenticationOutcome) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch o := outcome.(type) {
	case domain.Success:
		c.Metrics.ObserveOutcome(string(authsdk.StatusSuccess))
		c.bearer = ""
		c.transitionLocked(domain.StateAwaitingCallback)
		return o.URL, nil

	case domain.RequiresActions:
		c.Metrics.ObserveOutcome(string(authsdk.StatusRequiresActions))
		c.bearer = o.Token
		c.transitionLocked(domain.StateAwaitingRequiredAction)
		return RequiredActionPath(realm, o.Primary(), o.Token), nil

	case domain.RequiresOtpChallenge:
		c.Metrics.ObserveOutcome(string(authsdk.StatusRequiresOtpChallenge))
		c.bearer = o.Token
		c.transitionLocked(domain.StateOtpChallengeRequired)
		return OTPChallengePath(realm, o.Token), nil

	case domain.Failed:
		c.Metrics.ObserveOutcome(string(authsdk.StatusFailed))
		msg := o.Message
		if msg == "" {
			msg = defaultFailureMessage
		}
		err := &AuthenticationError{Message: msg}
		c.bearer = ""
		c.lastErr = err
		c.transitionLocked(domain.StateFailed)
		return "", err

	default:
		return "", fmt.Errorf("%w: unexpected outcome %T", ErrMalformedResponse, outcome)
	}
}

// LoginWithPassword runs the whole flow without a browser: it opens a
// transaction through the gateway's cookie jar, submits the credentials and,
// on Success, exchanges the code. Any other outcome is returned as the
// navigation target to continue with.
func (c *FlowController) LoginWithPassword(ctx context.Context, realm string, creds authsdk.Credentials) (string, error) {
	if _, err := c.Gateway.BeginAuthorization(ctx, c.AuthorizeURL(realm)); err != nil {
		c.recordError(err)
		return "", fmt.Errorf("failed to begin authorization: %w", err)
	}

	res, err := c.submit(ctx, realm, creds)
	if err != nil {
		return "", err
	}

	success, ok := res.outcome.(domain.Success)
	if !ok {
		return res.navigate, nil
	}

	u, err := url.Parse(success.URL)
	if err != nil {
		c.fail(err)
		return "", fmt.Errorf("%w: success url: %v", ErrMalformedResponse, err)
	}
	return c.HandleCallback(ctx, realm, u.Query())
}

// ============================================================================
// Required actions
// ============================================================================

// BeginRequiredAction prepares the sub-flow for execution. bearer defaults
// to the token kept from the last outcome.
func (c *FlowController) BeginRequiredAction(ctx context.Context, realm, execution, bearer string) (RequiredActionView, error) {
	view, err := c.Resolver.Begin(ctx, realm, execution, c.bearerOr(bearer))
	if err != nil {
		c.recordError(err)
	}
	return view, err
}

// SubmitOTPEnrollment verifies the enrolment and resumes authentication.
// Concurrent submissions for one bearer share a single verify and resume.
func (c *FlowController) SubmitOTPEnrollment(ctx context.Context, realm, bearer string, in OTPSubmission) (string, error) {
	bearer = c.bearerOr(bearer)
	return c.resolve(ctx, realm, bearer, in, func(ctx context.Context) (domain.AuthenticationOutcome, error) {
		return c.Resolver.SubmitOTP(ctx, realm, bearer, in)
	})
}

func (c *FlowController) SubmitPasswordChange(ctx context.Context, realm, bearer string, in PasswordChange) (string, error) {
	bearer = c.bearerOr(bearer)
	return c.resolve(ctx, realm, bearer, in, func(ctx context.Context) (domain.AuthenticationOutcome, error) {
		return c.Resolver.SubmitPassword(ctx, realm, bearer, in)
	})
}

func (c *FlowController) resolve(
	ctx context.Context,
	realm, bearer string,
	input any,
	submit func(context.Context) (domain.AuthenticationOutcome, error),
) (string, error) {
	key := strings.Join([]string{"resolve", realm, bearer}, "\x00")
	res, err := c.coalesce(ctx, key, input, func(ctx context.Context) (submission, error) {
		outcome, err := submit(ctx)
		if err != nil {
			c.recordError(err)
			return submission{}, err
		}
		nav, err := c.Dispatch(realm, outcome)
		return submission{navigate: nav, outcome: outcome}, err
	})
	return res.navigate, err
}

// ============================================================================
// OTP challenge
// ============================================================================

// OTPChallengeView is shown while waiting for a login-time OTP code. The
// claims come from an unverified token and are for display only.
type OTPChallengeView struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

func (c *FlowController) OTPChallenge(token string) (OTPChallengeView, error) {
	token = c.bearerOr(token)
	if token == "" {
		return OTPChallengeView{}, ErrMissingToken
	}

	claims, err := jwtx.Decode(token)
	if err != nil {
		c.Logger.Debug("otp challenge token is not decodable", "error", err)
		return OTPChallengeView{}, nil
	}
	return OTPChallengeView{Email: claims.Email(), Username: claims.PreferredUsername()}, nil
}

func (c *FlowController) SubmitOTPChallenge(ctx context.Context, realm, token, code string) (string, error) {
	if err := validateOTPCode(code); err != nil {
		return "", err
	}
	token = c.bearerOr(token)
	if token == "" {
		return "", ErrMissingToken
	}

	resp, err := c.Gateway.ChallengeOTP(ctx, realm, token, c.Cookies.ReadSessionCode(ctx), code)
	if err != nil {
		c.recordError(err)
		return "", fmt.Errorf("failed to answer OTP challenge: %w", err)
	}
	if resp.URL == "" {
		err := fmt.Errorf("%w: challenge answer without url", ErrMalformedResponse)
		c.recordError(err)
		return "", err
	}

	c.mu.Lock()
	c.bearer = ""
	c.transitionLocked(domain.StateAwaitingCallback)
	c.mu.Unlock()

	return resp.URL, nil
}

// CancelOTPChallenge discards the in-flight token and returns the login route.
func (c *FlowController) CancelOTPChallenge(realm string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bearer = ""
	c.authState = ""
	c.transitionLocked(domain.StateLoggedOut)
	return LoginPath(realm)
}

// ============================================================================
// Callback and credentials
// ============================================================================

// HandleCallback exchanges the authorization code once, installs the tokens
// and returns the realm overview route.
func (c *FlowController) HandleCallback(ctx context.Context, realm string, query url.Values) (string, error) {
	if errCode := query.Get("error"); errCode != "" {
		err := authsdk.NewOAuth2Error(http.StatusUnauthorized, errCode, query.Get("error_description"))
		c.failUnlessAuthenticated(err)
		return "", err
	}

	code := query.Get("code")
	if code == "" {
		c.failUnlessAuthenticated(ErrMissingCode)
		return "", ErrMissingCode
	}

	res, err := c.coalesce(ctx, "callback\x00"+code, query.Get("state"), func(ctx context.Context) (submission, error) {
		nav, err := c.exchange(ctx, realm, code, query.Get("state"))
		return submission{navigate: nav}, err
	})
	return res.navigate, err
}

func (c *FlowController) exchange(ctx context.Context, realm, code, state string) (string, error) {
	c.mu.Lock()
	if code == c.lastCode && c.state == domain.StateAuthenticated {
		c.mu.Unlock()
		return OverviewPath(realm), nil
	}
	expected := c.authState
	c.mu.Unlock()

	if expected != "" && state != expected {
		c.failUnlessAuthenticated(ErrStateMismatch)
		return "", ErrStateMismatch
	}

	tokens, err := c.Gateway.ExchangeAuthorizationCode(ctx, realm, c.Config.ClientID, code, c.redirectURI(realm))
	if err != nil {
		c.failUnlessAuthenticated(err)
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if tokens.AccessToken == "" {
		err := fmt.Errorf("%w: token response without access_token", ErrMalformedResponse)
		c.failUnlessAuthenticated(err)
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastCode = code
	c.authState = ""
	c.installLocked(ctx, realm, tokens.AccessToken, tokens.RefreshToken)
	return OverviewPath(realm), nil
}

// InstallCredentials stores a token pair, re-arms the refresh timer and
// marks the flow authenticated.
func (c *FlowController) InstallCredentials(ctx context.Context, access, refresh string) error {
	if access == "" {
		return &ValidationError{Field: "access_token", Message: "access token is required"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.installLocked(ctx, c.realm(), access, refresh)
	return nil
}

// InstallAccessToken installs an access token without a refresh token. The
// session ends when the token is due for refresh.
func (c *FlowController) InstallAccessToken(ctx context.Context, access string) error {
	return c.InstallCredentials(ctx, access, "")
}

func (c *FlowController) installLocked(ctx context.Context, realm, access, refresh string) {
	c.storeLocked(ctx, realm, access, refresh)
	c.bearer = ""
	c.lastErr = nil
	c.transitionLocked(domain.StateAuthenticated)
}

// storeLocked replaces the pair and re-arms in one critical section.
func (c *FlowController) storeLocked(ctx context.Context, realm, access, refresh string) {
	pair, err := c.Session.SetCredentialsForRealm(ctx, realm, access, refresh)
	if err != nil {
		c.Logger.Error("failed to persist credentials", "error", err)
	}
	c.sessionRealm.Store(realm)
	c.Scheduler.Arm(pair, c.onRefreshed, c.onRefreshFailed)

	c.Logger.Info("credentials installed",
		"realm", realm,
		"token_fp", cryptox.ShortFingerprint(access),
		"expires_at", pair.ExpiresAt,
	)
}

func (c *FlowController) refresh(ctx context.Context, refreshToken string) (*authsdk.TokenResponse, error) {
	return c.Gateway.RefreshGrant(ctx, c.realm(), c.Config.ClientID, refreshToken)
}

func (c *FlowController) onRefreshed(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.Session.Authenticated() {
		c.Logger.Debug("dropping refreshed tokens for a closed session")
		return
	}
	if refresh == "" {
		refresh = c.Session.RefreshToken()
	}
	c.storeLocked(context.Background(), c.realm(), access, refresh)
}

func (c *FlowController) onRefreshFailed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Metrics.IncrementSessionsExhausted()
	c.logoutLocked(context.Background(), err)
}

// ============================================================================
// Session lifecycle
// ============================================================================

// Restore loads the persisted pair on startup. A usable pair is armed
// (an expired one is refreshed right away); an unusable one is removed.
func (c *FlowController) Restore(ctx context.Context) (bool, error) {
	pair, usable, err := c.Session.Load(ctx)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !usable {
		if !pair.IsZero() {
			if err := c.Session.Clear(ctx); err != nil {
				c.Logger.Warn("failed to remove unusable session", "error", err)
			}
		}
		c.transitionLocked(domain.StateLoggedOut)
		return false, nil
	}

	if pair.Realm != "" {
		c.sessionRealm.Store(pair.Realm)
	}
	c.Scheduler.Arm(pair, c.onRefreshed, c.onRefreshFailed)
	c.transitionLocked(domain.StateAuthenticated)
	c.Metrics.SetAuthenticated(true)
	c.Logger.Info("session restored", "token_fp", cryptox.ShortFingerprint(pair.AccessToken), "expires_at", pair.ExpiresAt)
	return true, nil
}

// Logout clears the session and returns the login route.
func (c *FlowController) Logout(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logoutLocked(ctx, nil)
	return LoginPath(c.realm())
}

func (c *FlowController) logoutLocked(ctx context.Context, cause error) {
	c.Scheduler.Disarm()
	if err := c.Session.Clear(ctx); err != nil {
		c.Logger.Warn("failed to clear session", "error", err)
	}
	c.bearer = ""
	c.authState = ""
	c.lastCode = ""
	c.lastErr = cause
	c.transitionLocked(domain.StateLoggedOut)

	if cause != nil {
		c.Logger.Warn("session ended", "cause", cause)
	} else {
		c.Logger.Info("logged out")
	}
}

// SyncFromStore reconciles memory with the persisted entry after another
// process changed it: a removed entry logs out, a different pair is adopted
// and armed, an identical pair is ignored.
func (c *FlowController) SyncFromStore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pair, found, err := c.Session.Peek(ctx)
	if err != nil {
		return err
	}

	switch {
	case !found && c.Session.Authenticated():
		c.Metrics.IncrementStorageChanges()
		c.logoutLocked(ctx, fmt.Errorf("%w: persisted session removed", ErrNotAuthenticated))
	case found && !pair.Equal(c.Session.Credentials()):
		c.Metrics.IncrementStorageChanges()
		c.Session.Adopt(pair)
		if pair.Realm != "" {
			c.sessionRealm.Store(pair.Realm)
		}
		c.Scheduler.Arm(pair, c.onRefreshed, c.onRefreshFailed)
		c.transitionLocked(domain.StateAuthenticated)
		c.Logger.Info("adopted session written by another process", "token_fp", cryptox.ShortFingerprint(pair.AccessToken))
	}
	return nil
}

// Close disarms the refresh timer.
func (c *FlowController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Scheduler.Disarm()
}

// Snapshot describes the controller for status endpoints.
type Snapshot struct {
	State         domain.FlowState `json:"state"`
	Realm         string           `json:"realm"`
	Authenticated bool             `json:"authenticated"`
	Expired       bool             `json:"expired"`
	RefreshArmed  bool             `json:"refresh_armed"`
	NextRefreshAt *time.Time       `json:"next_refresh_at,omitempty"`
	ExpiresAt     *time.Time       `json:"expires_at,omitempty"`
	PendingBearer bool             `json:"pending_bearer"`
	Subject       string           `json:"subject,omitempty"`
	Username      string           `json:"username,omitempty"`
	Email         string           `json:"email,omitempty"`
	LastError     string           `json:"last_error,omitempty"`
}

func (c *FlowController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	pair := c.Session.Credentials()
	snap := Snapshot{
		State:         c.state,
		Realm:         c.realm(),
		Authenticated: c.Session.Authenticated(),
		Expired:       c.Session.IsExpired(c.Config.ExpirySkew),
		RefreshArmed:  c.Scheduler.Armed(),
		NextRefreshAt: c.Scheduler.NextRefreshAt(),
		ExpiresAt:     pair.ExpiresAt,
		PendingBearer: c.bearer != "",
	}
	if claims, err := jwtx.Decode(pair.AccessToken); err == nil {
		snap.Subject = claims.Subject()
		snap.Username = claims.PreferredUsername()
		snap.Email = claims.Email()
	}
	if c.lastErr != nil {
		snap.LastError = c.lastErr.Error()
	}
	return snap
}

func (c *FlowController) State() domain.FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ============================================================================
// Helpers
// ============================================================================

func (c *FlowController) realm() string {
	realm, _ := c.sessionRealm.Load().(string)
	return realm
}

func (c *FlowController) bearerOr(token string) string {
	if token != "" {
		return token
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearer
}

func (c *FlowController) recordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
}

func (c *FlowController) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	c.transitionLocked(domain.StateFailed)
}

// failUnlessAuthenticated records err but leaves an authenticated session
// in place: a stray callback must not knock the flow out of Authenticated.
func (c *FlowController) failUnlessAuthenticated(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	if c.state != domain.StateAuthenticated {
		c.transitionLocked(domain.StateFailed)
	}
}

func (c *FlowController) transitionLocked(to domain.FlowState) {
	if c.state != to {
		c.Logger.Debug("flow transition", "from", c.state.String(), "to", to.String())
	}
	c.state = to
	c.Metrics.ObserveTransition(to.String())
}
