package slogx_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/consoleauth/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "console", Level: "debug", Output: &buf})

	logger.Info("credentials installed",
		"access_token", "eyJhbGciOi...",
		"Refresh_Token", "r-1",
		"password", "",
		"realm", "master",
	)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, slogx.Redacted, lines[0]["access_token"])
	require.Equal(t, slogx.Redacted, lines[0]["Refresh_Token"])
	require.Equal(t, "", lines[0]["password"], "empty values stay empty")
	require.Equal(t, "master", lines[0]["realm"])
	require.Equal(t, "console", lines[0]["service"])
}

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestHTTPMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var fromCtx *slog.Logger
	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = slogx.FromContext(r.Context())
		w.WriteHeader(http.StatusUnauthorized)
	}))

	req := httptest.NewRequest(http.MethodGet, "/realms/master/authentication/otp?token=secret-jwt", nil)
	req.Header.Set(slogx.RequestIDHeader, "trace-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "trace-1", rec.Header().Get(slogx.RequestIDHeader))
	require.NotNil(t, fromCtx)
	require.NotSame(t, slog.Default(), fromCtx)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, "WARN", lines[0]["level"])
	require.Equal(t, "trace-1", lines[0]["req_id"])
	require.Equal(t, "/realms/master/authentication/otp", lines[0]["path"])
	require.EqualValues(t, http.StatusUnauthorized, lines[0]["status"])
	require.NotContains(t, buf.String(), "secret-jwt")
}

func TestWith(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := slogx.WithContext(t.Context(), slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx = slogx.With(ctx, "realm", "master")

	slogx.FromContext(ctx).Info("hello")
	require.Contains(t, buf.String(), `"realm":"master"`)
}
