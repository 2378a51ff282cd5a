package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rallypoint/rallypoint/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*mux.Router, *Dependencies) {
	t.Helper()
	deps := BuildDependencies(nil, config.Defaults())
	r := mux.NewRouter()
	RegisterRoutes(r, deps)
	return r, deps
}

func TestRegisterRoutes(t *testing.T) {
	testCases := []struct {
		method       string
		path         string
		wantTemplate string
	}{
		{"POST", "/api/auth/login", "/api/auth/login"},
		{"GET", "/api/calendar/events.ics", "/api/calendar/events.ics"},
		{"PUT", "/api/calendar/events/42", "/api/calendar/events/{id}"},
		{"GET", "/api/calendar/ws", "/api/calendar/ws"},
		{"GET", "/api/events/42", "/api/events/{id}"},
		{"GET", "/api/events/42/participants/me", "/api/events/{id}/participants/me"},
		{"PUT", "/api/events/42/participants/6f1c2a9e-3b8d-4d52-9a3e-0c7d1f2b4a11", "/api/events/{id}/participants/{userId}"},
		{"GET", "/api/profiles/current", "/api/profiles/current"},
		{"GET", "/api/profiles/6f1c2a9e-3b8d-4d52-9a3e-0c7d1f2b4a11", "/api/profiles/{id}"},
	}

	r, _ := setupRouter(t)
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var match mux.RouteMatch
			req := httptest.NewRequest(tc.method, tc.path, nil)

			require.True(t, r.Match(req, &match))
			template, err := match.Route.GetPathTemplate()
			require.NoError(t, err)
			assert.Equal(t, tc.wantTemplate, template)
		})
	}
}

func TestSetupMiddleware(t *testing.T) {
	t.Run("api requires a session", func(t *testing.T) {
		// given
		r, deps := setupRouter(t)
		handler := SetupMiddleware(deps).Then(r)
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/state", nil)
		rr := httptest.NewRecorder()

		// when
		handler.ServeHTTP(rr, req)

		// then
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	})

	t.Run("root redirects to login", func(t *testing.T) {
		r, deps := setupRouter(t)
		handler := SetupMiddleware(deps).Then(r)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
		assert.Equal(t, "/dashboard/login/v1", rr.Header().Get("Location"))
	})
}
