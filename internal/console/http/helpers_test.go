package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/consoleauth/internal/console/service"
	"github.com/aussiebroadwan/consoleauth/internal/console/store/drivers/memory"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/cryptox"
)

const publicURL = "http://localhost:5555"

// provider is a stand-in identity provider. Tests register the routes they
// need on mux with full paths, e.g. "POST /realms/master/login-actions/authenticate".
type provider struct {
	*httptest.Server
	mux *http.ServeMux

	mu    sync.Mutex
	calls map[string]int
}

func (p *provider) handle(pattern string, h http.HandlerFunc) {
	p.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.calls[pattern]++
		p.mu.Unlock()
		h(w, r)
	})
}

func (p *provider) count(pattern string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[pattern]
}

type testEnv struct {
	provider *provider
	store    *memory.Store
	ctrl     *service.FlowController
	router   *Router
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	p := &provider{mux: http.NewServeMux(), calls: make(map[string]int)}
	p.Server = httptest.NewServer(p.mux)
	t.Cleanup(p.Close)

	sealer, err := cryptox.NewSealer([]byte("router-test-key"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	metrics := service.NewMetrics(reg)

	client := authsdk.NewSDKClient(p.URL)
	st := memory.NewStore()
	session := service.NewSessionStore(st, sealer, service.SystemClock, logger)
	ctrl := service.NewFlowController(
		service.FlowConfig{PublicURL: publicURL},
		service.InstrumentGateway(client, metrics), client.Cookies, session,
		service.SystemClock, logger, metrics,
	)
	t.Cleanup(ctrl.Close)

	router := NewRouter(ctrl, st, client, "test", logger)
	router.Gatherer = reg
	router.ApplyRoutes()

	return &testEnv{provider: p, store: st, ctrl: ctrl, router: router, registry: reg}
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func formRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func accessToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":                "user-1",
		"preferred_username": "admin",
		"email":              "admin@example.com",
		"exp":                time.Now().Add(ttl).Unix(),
	}).SignedString([]byte("provider-secret"))
	require.NoError(t, err)
	return tok
}
