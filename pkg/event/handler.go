package event

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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

// GetEvent godoc
// @Summary Get a single event
// @Description Retrieve an event together with its organizer profile
// @Tags Events
// @Produce json
// @Param id path int true "Event id"
// @Success 200 {object} Details
// @Failure 400 {object} rest.ErrorResponse "Invalid event id"
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Router /api/events/{id} [get]
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event id", "Event id must be an integer")
		return
	}

	details, err := h.service.GetEventDetails(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrEventNotFound) {
			log.Errorf("failed to get event %d: %v", id, err)
		}
		rest.WriteFailure(w, backend.Classify(err))
		return
	}

	if err := json.NewEncoder(w).Encode(details); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
