package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/consoleauth/internal/console/store/drivers/memory"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/cryptox"
)

// ============================================================================
// Fake clock
// ============================================================================

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	tm := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, tm)
	return tm
}

func (tm *fakeTimer) Stop() bool {
	tm.clock.mu.Lock()
	defer tm.clock.mu.Unlock()

	if tm.stopped || tm.fired {
		return false
	}
	tm.stopped = true
	return true
}

// Advance moves time forward and runs every timer that became due, in
// deadline order, on the calling goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, tm := range c.timers {
			if tm.stopped || tm.fired || tm.at.After(now) {
				continue
			}
			if next == nil || tm.at.Before(next.at) {
				next = tm
			}
		}
		if next == nil {
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

// Pending counts timers that have neither fired nor been stopped.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, tm := range c.timers {
		if !tm.stopped && !tm.fired {
			n++
		}
	}
	return n
}

// ============================================================================
// Fake identity provider
// ============================================================================

type capturedRequest struct {
	Realm  string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// fakeIdP answers the FerrisKey endpoints under /realms/{realm}/. Handlers
// are registered per "METHOD /suffix", e.g. "POST /login-actions/authenticate".
type fakeIdP struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
	last     map[string]capturedRequest
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	idp := &fakeIdP{
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
		last:     make(map[string]capturedRequest),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/realms/{realm}/{rest...}", func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " /" + r.PathValue("rest")
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		idp.mu.Lock()
		idp.calls[key]++
		idp.last[key] = capturedRequest{Realm: r.PathValue("realm"), Query: r.URL.Query(), Header: r.Header.Clone(), Body: body}
		h := idp.handlers[key]
		idp.mu.Unlock()

		if h == nil {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	})

	idp.Server = httptest.NewServer(mux)
	t.Cleanup(idp.Close)
	return idp
}

func (f *fakeIdP) handle(key string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key] = h
}

func (f *fakeIdP) respond(key string, status int, body any) {
	f.handle(key, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	})
}

func (f *fakeIdP) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeIdP) lastRequest(key string) capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last[key]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

const (
	keyAuthenticate   = "POST /login-actions/authenticate"
	keyToken          = "POST /protocol/openid-connect/token"
	keyAuthorize      = "GET /protocol/openid-connect/auth"
	keySetupOTP       = "GET /login-actions/setup-otp"
	keyVerifyOTP      = "POST /login-actions/verify-otp"
	keyChallengeOTP   = "POST /login-actions/challenge-otp"
	keyUpdatePassword = "POST /login-actions/update-password"
)

// ============================================================================
// Harness
// ============================================================================

var testNow = time.Unix(1_700_000_000, 0)

type harness struct {
	idp     *fakeIdP
	client  *authsdk.SDKClient
	clock   *fakeClock
	store   *memory.Store
	sealer  *cryptox.Sealer
	session *SessionStore
	ctrl    *FlowController
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	idp := newFakeIdP(t)
	client := authsdk.NewSDKClient(idp.URL)
	clock := newFakeClock(testNow)
	st := memory.NewStore()

	sealer, err := cryptox.NewSealer([]byte("test-master-key"))
	require.NoError(t, err)

	logger := discardLogger()
	session := NewSessionStore(st, sealer, clock, logger)
	ctrl := NewFlowController(
		FlowConfig{PublicURL: "http://localhost:5555"},
		client, client.Cookies, session, clock, logger,
		NewMetrics(prometheus.NewRegistry()),
	)
	t.Cleanup(ctrl.Close)

	return &harness{
		idp:     idp,
		client:  client,
		clock:   clock,
		store:   st,
		sealer:  sealer,
		session: session,
		ctrl:    ctrl,
	}
}

// withSessionCookie is what the browser's Cookie header looks like after the
// provider served the authorization redirect.
func withSessionCookie(code string) context.Context {
	return authsdk.WithCookieHeader(context.Background(), "theme=dark; "+authsdk.SessionCookieName+"="+code)
}

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("provider-secret"))
	require.NoError(t, err)
	return tok
}

// accessToken expires ttl after the fake clock's start.
func accessToken(t *testing.T, ttl time.Duration) string {
	return mintToken(t, jwt.MapClaims{
		"sub":                "user-1",
		"preferred_username": "admin",
		"email":              "admin@example.com",
		"exp":                testNow.Add(ttl).Unix(),
	})
}
