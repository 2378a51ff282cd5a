package participant

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rallypoint/rallypoint/internal/rest"
	"github.com/rallypoint/rallypoint/pkg/backend"
	log "github.com/sirupsen/logrus"
)

type joinRequest struct {
	Status string `json:"status"`
	Role   string `json:"role"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func eventIdFrom(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event id", "Event id must be an integer")
		return 0, false
	}
	return id, true
}

func userIdFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid user id", "User id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// ListParticipants godoc
// @Summary List event participants
// @Tags Participants
// @Produce json
// @Param id path int true "Event id"
// @Success 200 {array} Participant
// @Router /api/events/{id}/participants [get]
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventId, ok := eventIdFrom(w, r)
	if !ok {
		return
	}
	participants, err := h.service.ListParticipants(r.Context(), eventId)
	if err != nil {
		log.Errorf("failed to list participants of event %d: %v", eventId, err)
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	rest.WriteJSON(w, http.StatusOK, participants)
}

// CurrentParticipation godoc
// @Summary Get the current user's participation
// @Tags Participants
// @Produce json
// @Param id path int true "Event id"
// @Success 200 {object} Participant
// @Success 204 "Not participating"
// @Failure 401 {object} rest.ErrorResponse "Not authenticated"
// @Router /api/events/{id}/participants/me [get]
func (h *Handler) CurrentParticipation(w http.ResponseWriter, r *http.Request) {
	eventId, ok := eventIdFrom(w, r)
	if !ok {
		return
	}
	p, err := h.service.CurrentParticipation(r.Context(), eventId)
	if err != nil {
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	if p == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	rest.WriteJSON(w, http.StatusOK, p)
}

// Join godoc
// @Summary Join an event
// @Tags Participants
// @Accept json
// @Produce json
// @Param id path int true "Event id"
// @Success 201 {object} Participant
// @Failure 409 {object} rest.ErrorResponse "Already joined or event full"
// @Router /api/events/{id}/participants [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	eventId, ok := eventIdFrom(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if r.ContentLength != 0 && !rest.DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.service.Join(r.Context(), eventId, req.Status, req.Role)
	if err != nil {
		log.Debugf("failed to join event %d: %v", eventId, err)
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	rest.WriteJSON(w, http.StatusCreated, p)
}

// Leave godoc
// @Summary Leave an event
// @Tags Participants
// @Param id path int true "Event id"
// @Success 204
// @Router /api/events/{id}/participants [delete]
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	eventId, ok := eventIdFrom(w, r)
	if !ok {
		return
	}
	if err := h.service.Leave(r.Context(), eventId); err != nil {
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateParticipant godoc
// @Summary Update a participant's status or role
// @Tags Participants
// @Accept json
// @Produce json
// @Param id path int true "Event id"
// @Param userId path string true "User id"
// @Success 200 {object} Participant
// @Router /api/events/{id}/participants/{userId} [put]
func (h *Handler) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	eventId, ok := eventIdFrom(w, r)
	if !ok {
		return
	}
	userId, ok := userIdFrom(w, r)
	if !ok {
		return
	}
	var patch Update
	if !rest.DecodeJSON(w, r, &patch) {
		return
	}
	p, err := h.service.UpdateParticipant(r.Context(), eventId, userId, patch)
	if err != nil {
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	rest.WriteJSON(w, http.StatusOK, p)
}

// Remove godoc
// @Summary Remove a participant from an event
// @Tags Participants
// @Param id path int true "Event id"
// @Param userId path string true "User id"
// @Success 204
// @Router /api/events/{id}/participants/{userId} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	eventId, ok := eventIdFrom(w, r)
	if !ok {
		return
	}
	userId, ok := userIdFrom(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), eventId, userId); err != nil {
		rest.WriteFailure(w, backend.Classify(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
