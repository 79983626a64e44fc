package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/consoleauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/realms/master/authentication/login", nil)
	req.RemoteAddr = addr
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestIPKeyExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.168.1.1"},
		{"forwarded for wins", map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1", "X-Real-IP": "203.0.113.9"}, "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.2"}, "203.0.113.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestFrom("192.168.1.1:12345")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestFormFieldKeyExtractor(t *testing.T) {
	t.Parallel()

	form := url.Values{"username": {"bob"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, "bob", httpx.FormFieldKeyExtractor("username")(req))

	jsonReq := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"bob"}`))
	jsonReq.Header.Set("Content-Type", "application/json")
	require.Empty(t, httpx.FormFieldKeyExtractor("username")(jsonReq))
}

func TestCompositeKeyExtractor(t *testing.T) {
	t.Parallel()

	extractor := httpx.CompositeKeyExtractor(":", httpx.SubjectKeyExtractor, httpx.IPKeyExtractor)

	anonymous := requestFrom("192.168.1.1:12345")
	require.Equal(t, "192.168.1.1", extractor(anonymous))

	withSubject := anonymous.WithContext(httpx.WithSubject(anonymous.Context(), "user-1"))
	require.Equal(t, "user-1:192.168.1.1", extractor(withSubject))
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("blocks requests over limit", func(t *testing.T) {
		t.Parallel()
		h := httpx.RateLimitByIP(httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3})(okHandler)

		for i := range 3 {
			require.Equal(t, http.StatusOK, serve(h, requestFrom("192.168.1.1:1")).Code, "request %d", i+1)
		}

		rec := serve(h, requestFrom("192.168.1.1:1"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		body := decode[httpx.ErrorBody](t, rec)
		require.Equal(t, "rate_limit_exceeded", body.Error)

		require.Equal(t, http.StatusOK, serve(h, requestFrom("192.168.1.2:1")).Code, "other keys are unaffected")
	})

	t.Run("empty key is allowed", func(t *testing.T) {
		t.Parallel()
		empty := func(*http.Request) string { return "" }
		h := httpx.RateLimitMiddleware(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}, empty)(okHandler)

		for range 3 {
			require.Equal(t, http.StatusOK, serve(h, requestFrom("192.168.1.1:1")).Code)
		}
	})

	t.Run("by ip and form field", func(t *testing.T) {
		t.Parallel()
		h := httpx.RateLimitByIPAndFormField(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}, "username")(okHandler)

		post := func(user string) int {
			form := url.Values{"username": {user}}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.RemoteAddr = "192.168.1.1:1"
			return serve(h, req).Code
		}

		require.Equal(t, http.StatusOK, post("alice"))
		require.Equal(t, http.StatusTooManyRequests, post("alice"))
		require.Equal(t, http.StatusOK, post("bob"))
	})
}

func TestRateLimitMiddlewareInvalidConfig(t *testing.T) {
	t.Parallel()

	h := httpx.RateLimitByIP(httpx.RateLimitConfig{})(okHandler)
	for range 10 {
		require.Equal(t, http.StatusOK, serve(h, requestFrom("192.168.1.1:1")).Code)
	}
}

func TestDefaultRateLimits(t *testing.T) {
	t.Parallel()

	p := httpx.DefaultRateLimits()
	for _, cfg := range []httpx.RateLimitConfig{p.Strict, p.Moderate, p.Lenient, p.Public} {
		require.Positive(t, cfg.RequestsPerWindow)
		require.Greater(t, cfg.Window, time.Duration(0))
		require.Positive(t, cfg.Burst)
	}
	require.Less(t, p.Strict.RequestsPerWindow, p.Moderate.RequestsPerWindow)
	require.Less(t, p.Lenient.RequestsPerWindow, p.Public.RequestsPerWindow)
}

func TestRateLimitConfigOverride(t *testing.T) {
	t.Parallel()

	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	require.Equal(t, def, def.Override(0, 0, 0))

	got := def.Override(50, 2*time.Minute, -1)
	require.Equal(t, 50, got.RequestsPerWindow)
	require.Equal(t, 2*time.Minute, got.Window)
	require.Equal(t, 10, got.Burst, "unset values keep the default")
}
