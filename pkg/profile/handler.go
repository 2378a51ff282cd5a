package profile

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rallypoint/rallypoint/internal/rest"
	"github.com/rallypoint/rallypoint/pkg/backend"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListProfiles godoc
// @Summary List profiles
// @Description Get all profiles ordered by full name
// @Tags Profiles
// @Produce json
// @Success 200 {array} Profile
// @Failure 401 {object} rest.ErrorResponse "Not authenticated"
// @Router /api/profiles [get]
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListProfiles(r.Context())
	if err != nil {
		log.Errorf("failed to list profiles: %v", err)
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	rest.WriteJSON(w, http.StatusOK, profiles)
}

// GetProfile godoc
// @Summary Get a profile
// @Tags Profiles
// @Produce json
// @Param id path string true "Profile id"
// @Success 200 {object} Profile
// @Failure 400 {object} rest.ErrorResponse "Invalid profile id"
// @Failure 404 {object} rest.ErrorResponse "Profile not found"
// @Router /api/profiles/{id} [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid profile id", "Profile id must be a UUID")
		return
	}
	p, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	rest.WriteJSON(w, http.StatusOK, p)
}

// CurrentProfile godoc
// @Summary Get the current user's profile
// @Tags Profiles
// @Produce json
// @Success 200 {object} Profile
// @Failure 401 {object} rest.ErrorResponse "Not authenticated"
// @Router /api/profiles/current [get]
func (h *Handler) CurrentProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetCurrentProfile(r.Context())
	if err != nil {
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	rest.WriteJSON(w, http.StatusOK, p)
}

// UpdateCurrentProfile godoc
// @Summary Update the current user's profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Param profile body Update true "Profile fields to change"
// @Success 200 {object} Profile
// @Failure 400 {object} rest.ErrorResponse "Invalid request body"
// @Router /api/profiles/current [put]
func (h *Handler) UpdateCurrentProfile(w http.ResponseWriter, r *http.Request) {
	var patch Update
	if !rest.DecodeJSON(w, r, &patch) {
		return
	}
	p, err := h.service.UpdateCurrentProfile(r.Context(), patch)
	if err != nil {
		log.Debugf("failed to update profile: %v", err)
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	rest.WriteJSON(w, http.StatusOK, p)
}
