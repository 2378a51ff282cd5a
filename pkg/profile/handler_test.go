package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rallypoint/rallypoint/internal/rest"
	"github.com/rallypoint/rallypoint/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest(t *testing.T) http.Handler {
	_, service, _ := setupService(t)
	handler := NewHandler(service)
	r := mux.NewRouter()
	r.HandleFunc("/api/profiles", handler.ListProfiles).Methods("GET")
	r.HandleFunc("/api/profiles/current", handler.CurrentProfile).Methods("GET")
	r.HandleFunc("/api/profiles/current", handler.UpdateCurrentProfile).Methods("PUT")
	r.HandleFunc("/api/profiles/{id}", handler.GetProfile).Methods("GET")
	return test_utils.WithUserMiddleware(test_utils.TestUser, r)
}

func TestHandler_GetProfile(t *testing.T) {
	handler := setupHandlerTest(t)

	t.Run("should return 400 for malformed id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profiles/not-a-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Invalid profile id", body.Error)
	})

	t.Run("should return 404 for unknown profile", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profiles/00000000-0000-0000-0000-000000000001", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should return current profile", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profiles/current", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var p Profile
		require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
		assert.Equal(t, test_utils.TestUser.Id, p.Id)
	})
}

func TestHandler_UpdateCurrentProfile(t *testing.T) {
	// given
	handler := setupHandlerTest(t)
	body, _ := json.Marshal(map[string]string{"full_name": "Renamed"})
	req := httptest.NewRequest(http.MethodPut, "/api/profiles/current", bytes.NewReader(body))
	w := httptest.NewRecorder()

	// when
	handler.ServeHTTP(w, req)

	// then
	require.Equal(t, http.StatusOK, w.Code)
	var p Profile
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, "Renamed", p.FullName)
}

func TestHandler_ListProfiles_Unauthenticated(t *testing.T) {
	// given
	_, service, _ := setupService(t)
	handler := NewHandler(service)
	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil).WithContext(context.Background())
	w := httptest.NewRecorder()

	// when
	handler.ListProfiles(w, req)

	// then
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
