package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rallypoint/rallypoint/internal/config"
	"github.com/rallypoint/rallypoint/internal/rest"
	"github.com/rallypoint/rallypoint/internal/test_utils"
	"github.com/rallypoint/rallypoint/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func setupCookies() *Cookies {
	return NewCookies(config.Auth{
		AccessTokenTTL:  "1h",
		RefreshTokenTTL: "30d",
		SecureCookies:   true,
	}, func() time.Time { return fixedNow })
}

// echoUser answers with the email of the user the guard placed in the context.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	u, err := user.CurrentUser(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, _ = w.Write([]byte(u.Email))
})

func setupGuard(t *testing.T) (http.Handler, *ClientStub) {
	t.Helper()
	service, client, _ := setupService(t)
	return NewGuard(service, setupCookies()).Middleware(echoUser), client
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestGuard_Redirects(t *testing.T) {
	testCases := []struct {
		name         string
		path         string
		signedIn     bool
		wantStatus   int
		wantLocation string
	}{
		{"root without session", "/", false, http.StatusTemporaryRedirect, LoginPath},
		{"root with session", "/", true, http.StatusTemporaryRedirect, DashboardPath},
		{"dashboard without session", "/dashboard/calendar", false, http.StatusTemporaryRedirect, LoginPath},
		{"dashboard with session", "/dashboard/calendar", true, http.StatusOK, ""},
		{"login page without session", "/dashboard/login/v1", false, http.StatusNoContent, ""},
		{"login page with session", "/dashboard/login/v1", true, http.StatusTemporaryRedirect, DashboardPath},
		{"register page with session", "/dashboard/register/v1", true, http.StatusTemporaryRedirect, DashboardPath},
		{"public asset", "/favicon.ico", false, http.StatusNoContent, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			handler, client := setupGuard(t)
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.signedIn {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: client.IssueToken(test_utils.TestUser.Email)})
			}
			rr := httptest.NewRecorder()

			// when
			handler.ServeHTTP(rr, req)

			// then
			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantLocation, rr.Header().Get("Location"))
		})
	}
}

func TestGuard_Api(t *testing.T) {
	t.Run("rejects api call without session", func(t *testing.T) {
		// given
		handler, _ := setupGuard(t)
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/state", nil)
		rr := httptest.NewRecorder()

		// when
		handler.ServeHTTP(rr, req)

		// then
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		var body rest.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "Not authenticated", body.Error)
	})

	t.Run("lets auth endpoints through without session", func(t *testing.T) {
		handler, _ := setupGuard(t)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("accepts bearer token", func(t *testing.T) {
		handler, client := setupGuard(t)
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/state", nil)
		req.Header.Set("Authorization", "Bearer "+client.IssueToken(test_utils.TestUser.Email))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, test_utils.TestUser.Email, rr.Body.String())
	})

	t.Run("refreshes expired access token", func(t *testing.T) {
		// given
		handler, client := setupGuard(t)
		service := NewService(client, nil)
		session, _, err := service.SignIn(t.Context(), test_utils.TestUser.Email, testPassword)
		require.NoError(t, err)
		client.Expire(session.AccessToken)
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/state", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: session.AccessToken})
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: session.RefreshToken})
		rr := httptest.NewRecorder()

		// when
		handler.ServeHTTP(rr, req)

		// then
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, test_utils.TestUser.Email, rr.Body.String())
		access := cookieNamed(rr, AccessTokenCookie)
		require.NotNil(t, access)
		assert.NotEqual(t, session.AccessToken, access.Value)
		assert.True(t, access.HttpOnly)
		assert.True(t, access.Secure)
		assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
		refresh := cookieNamed(rr, RefreshTokenCookie)
		require.NotNil(t, refresh)
		assert.NotEqual(t, session.RefreshToken, refresh.Value)
	})

	t.Run("rejects revoked refresh token", func(t *testing.T) {
		handler, _ := setupGuard(t)
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/state", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "refresh-404"})
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestCookies(t *testing.T) {
	t.Run("set uses configured lifetimes", func(t *testing.T) {
		rr := httptest.NewRecorder()

		setupCookies().Set(rr, Session{AccessToken: "a", RefreshToken: "r"})

		access := cookieNamed(rr, AccessTokenCookie)
		require.NotNil(t, access)
		assert.Equal(t, "a", access.Value)
		assert.Equal(t, "/", access.Path)
		assert.True(t, access.Expires.Equal(fixedNow.Add(time.Hour)))
		refresh := cookieNamed(rr, RefreshTokenCookie)
		require.NotNil(t, refresh)
		assert.True(t, refresh.Expires.Equal(fixedNow.Add(30*24*time.Hour)))
	})

	t.Run("invalid lifetime falls back to default", func(t *testing.T) {
		cookies := NewCookies(config.Auth{AccessTokenTTL: "soon"}, func() time.Time { return fixedNow })
		rr := httptest.NewRecorder()

		cookies.Set(rr, Session{AccessToken: "a", RefreshToken: "r"})

		assert.True(t, cookieNamed(rr, AccessTokenCookie).Expires.Equal(fixedNow.Add(time.Hour)))
	})

	t.Run("clear expires both cookies", func(t *testing.T) {
		rr := httptest.NewRecorder()

		setupCookies().Clear(rr)

		for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
			c := cookieNamed(rr, name)
			require.NotNil(t, c)
			assert.Equal(t, "", c.Value)
			assert.Equal(t, -1, c.MaxAge)
		}
	})

	t.Run("bearer header wins over cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})

		assert.Equal(t, "header-token", AccessToken(req))
	})
}
