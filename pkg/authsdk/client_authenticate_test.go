package authsdk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("sends credentials, session code and cookie", func(t *testing.T) {
		var gotBody map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/realms/master/login-actions/authenticate", r.URL.Path)
			require.Equal(t, "security-admin-console", r.URL.Query().Get("client_id"))
			require.Equal(t, "sess-1", r.URL.Query().Get("session_code"))
			require.Empty(t, r.Header.Get("Authorization"))

			c, err := r.Cookie(SessionCookieName)
			require.NoError(t, err)
			require.Equal(t, "sess-1", c.Value)

			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			writeJSON(w, http.StatusOK, AuthenticateResponse{Status: StatusSuccess, URL: "https://console/cb?code=c1"})
		}))
		defer srv.Close()

		resp, err := NewSDKClient(srv.URL).Authenticate(context.Background(), "master", AuthenticateParams{
			ClientID:    "security-admin-console",
			SessionCode: "sess-1",
			Credentials: &Credentials{Username: "alice", Password: "pw"},
		})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, resp.Status)
		require.Equal(t, "https://console/cb?code=c1", resp.URL)
		require.Equal(t, map[string]string{"username": "alice", "password": "pw"}, gotBody)
	})

	t.Run("resumes with bearer and empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer temp-token", r.Header.Get("Authorization"))
			body, _ := io.ReadAll(r.Body)
			require.JSONEq(t, `{}`, string(body))
			writeJSON(w, http.StatusOK, AuthenticateResponse{
				Status:          StatusRequiresActions,
				RequiredActions: []string{"update_password"},
				Token:           "next-token",
			})
		}))
		defer srv.Close()

		resp, err := NewSDKClient(srv.URL).Authenticate(context.Background(), "master", AuthenticateParams{
			ClientID:    "c",
			SessionCode: "s",
			BearerToken: "temp-token",
		})
		require.NoError(t, err)
		require.Equal(t, StatusRequiresActions, resp.Status)
		require.Equal(t, []string{"update_password"}, resp.RequiredActions)
		require.Equal(t, "next-token", resp.Token)
	})

	t.Run("provider rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, APIErrorResponse{Code: "E_UNAUTHORIZED", Status: 401, Message: "Invalid password"})
		}))
		defer srv.Close()

		_, err := NewSDKClient(srv.URL).Authenticate(context.Background(), "master", AuthenticateParams{ClientID: "c"})
		require.True(t, IsRejection(err))
		require.False(t, IsTransport(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewSDKClient(url).Authenticate(context.Background(), "master", AuthenticateParams{ClientID: "c"})
		require.True(t, IsTransport(err))
		require.False(t, IsRejection(err))
	})

	t.Run("timeout is a transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		client := NewSDKClient(srv.URL)
		client.HTTPClient.Timeout = 20 * time.Millisecond

		_, err := client.Authenticate(context.Background(), "master", AuthenticateParams{ClientID: "c"})
		require.True(t, IsTransport(err))
	})

	t.Run("malformed success body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("<html>"))
		}))
		defer srv.Close()

		_, err := NewSDKClient(srv.URL).Authenticate(context.Background(), "master", AuthenticateParams{ClientID: "c"})
		require.ErrorIs(t, err, ErrUnexpectedResponse)
	})
}
