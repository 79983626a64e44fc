package authsdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestToken(t *testing.T) {
	t.Parallel()

	t.Run("refresh grant", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/realms/master/protocol/openid-connect/token", r.URL.Path)
			require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			require.NoError(t, r.ParseForm())
			require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			require.Equal(t, "rt-1", r.PostForm.Get("refresh_token"))
			require.Equal(t, "security-admin-console", r.PostForm.Get("client_id"))

			writeJSON(w, http.StatusOK, TokenResponse{
				AccessToken:  "at-2",
				RefreshToken: "rt-2",
				TokenType:    "Bearer",
				ExpiresIn:    300,
			})
		}))
		defer srv.Close()

		tokens, err := NewSDKClient(srv.URL).RefreshGrant(context.Background(), "master", "security-admin-console", "rt-1")
		require.NoError(t, err)
		require.Equal(t, "at-2", tokens.AccessToken)
		require.Equal(t, "rt-2", tokens.RefreshToken)
		require.Equal(t, 300, tokens.ExpiresIn)
	})

	t.Run("authorization code grant", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
			require.Equal(t, "code-1", r.PostForm.Get("code"))
			require.Equal(t, "https://console/cb", r.PostForm.Get("redirect_uri"))
			writeJSON(w, http.StatusOK, TokenResponse{AccessToken: "at", RefreshToken: "rt"})
		}))
		defer srv.Close()

		tokens, err := NewSDKClient(srv.URL).ExchangeAuthorizationCode(context.Background(), "master", "c", "code-1", "https://console/cb")
		require.NoError(t, err)
		require.Equal(t, "at", tokens.AccessToken)
	})

	t.Run("redirect uri omitted when empty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			_, ok := r.PostForm["redirect_uri"]
			require.False(t, ok)
			writeJSON(w, http.StatusOK, TokenResponse{AccessToken: "at"})
		}))
		defer srv.Close()

		_, err := NewSDKClient(srv.URL).ExchangeAuthorizationCode(context.Background(), "master", "c", "code-1", "")
		require.NoError(t, err)
	})

	t.Run("invalid grant is a rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorCodeInvalidGrant, ErrorDescription: "refresh token revoked"})
		}))
		defer srv.Close()

		_, err := NewSDKClient(srv.URL).RefreshGrant(context.Background(), "master", "c", "rt")
		var oe *OAuth2Error
		require.ErrorAs(t, err, &oe)
		require.Equal(t, ErrorCodeInvalidGrant, oe.Code)
		require.Equal(t, "refresh token revoked", oe.Description)
	})
}
