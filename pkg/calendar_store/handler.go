package calendar_store

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rallypoint/rallypoint/internal/rest"
	"github.com/rallypoint/rallypoint/internal/utils"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/calendar"
	"github.com/rallypoint/rallypoint/pkg/event"
	"github.com/rallypoint/rallypoint/pkg/user"
	log "github.com/sirupsen/logrus"
)

type selectionRequest struct {
	// EventId is the calendar id of the event to select; null clears the selection.
	EventId *string `json:"eventId"`
}

type sheetRequest struct {
	Open bool `json:"open"`
}

type Handler struct {
	registry *Registry
	baseUrl  string
	clock    utils.Clock
}

func NewHandler(registry *Registry, baseUrl string, clock utils.Clock) *Handler {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Handler{registry: registry, baseUrl: baseUrl, clock: clock}
}

// storeFor resolves the calling user's store, answering 401 when there is no session.
func (h *Handler) storeFor(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	u, err := user.CurrentUser(r.Context())
	if err != nil {
		rest.WriteFailure(w, backend.Classify(err))
		return nil, false
	}
	return h.registry.For(u), true
}

func eventIdFrom(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event id", "Event id must be an integer")
		return 0, false
	}
	return id, true
}

// respond writes the store state, or the failure of the command that produced it.
func respond(w http.ResponseWriter, store *Store, failure *backend.Failure, status int) {
	if failure != nil {
		rest.WriteFailure(w, failure)
		return
	}
	rest.WriteJSON(w, status, store.State())
}

// GetState godoc
// @Summary Get the calendar state
// @Tags Calendar
// @Produce json
// @Success 200 {object} State
// @Router /api/calendar/state [get]
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	rest.WriteJSON(w, http.StatusOK, store.State())
}

// Fetch godoc
// @Summary Refetch all events
// @Tags Calendar
// @Produce json
// @Success 200 {object} State
// @Router /api/calendar/fetch [post]
func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	respond(w, store, store.FetchAll(r.Context()), http.StatusOK)
}

// CreateEvent godoc
// @Summary Create an event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param event body event.Insert true "Event"
// @Success 201 {object} State
// @Router /api/calendar/events [post]
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	var in event.Insert
	if !rest.DecodeJSON(w, r, &in) {
		return
	}
	respond(w, store, store.Create(r.Context(), in), http.StatusCreated)
}

// UpdateEvent godoc
// @Summary Update an event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param id path int true "Event id"
// @Param patch body event.Update true "Fields to change"
// @Success 200 {object} State
// @Router /api/calendar/events/{id} [put]
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	id, ok := eventIdFrom(w, r)
	if !ok {
		return
	}
	var patch event.Update
	if !rest.DecodeJSON(w, r, &patch) {
		return
	}
	respond(w, store, store.Update(r.Context(), id, patch), http.StatusOK)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Tags Calendar
// @Produce json
// @Param id path int true "Event id"
// @Success 200 {object} State
// @Router /api/calendar/events/{id} [delete]
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	id, ok := eventIdFrom(w, r)
	if !ok {
		return
	}
	respond(w, store, store.Delete(r.Context(), id), http.StatusOK)
}

// Select godoc
// @Summary Select an event, or clear the selection
// @Tags Calendar
// @Accept json
// @Produce json
// @Success 200 {object} State
// @Failure 404 {object} rest.ErrorResponse "Event not in calendar"
// @Router /api/calendar/selection [put]
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if !rest.DecodeJSON(w, r, &req) {
		return
	}
	if req.EventId == nil {
		store.Select(r.Context(), nil)
		rest.WriteJSON(w, http.StatusOK, store.State())
		return
	}
	for _, e := range store.State().Events {
		if e.Id == *req.EventId {
			store.Select(r.Context(), &e)
			rest.WriteJSON(w, http.StatusOK, store.State())
			return
		}
	}
	log.Debugf("selection of unknown event %s", *req.EventId)
	rest.WriteError(w, http.StatusNotFound, "Event not found", "Event is not in the calendar")
}

// SetSheet godoc
// @Summary Open or close the event sheet
// @Tags Calendar
// @Accept json
// @Produce json
// @Success 200 {object} State
// @Router /api/calendar/sheet [put]
func (h *Handler) SetSheet(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	var req sheetRequest
	if !rest.DecodeJSON(w, r, &req) {
		return
	}
	store.SetSheetOpen(r.Context(), req.Open)
	rest.WriteJSON(w, http.StatusOK, store.State())
}

// ClearError godoc
// @Summary Clear the last error
// @Tags Calendar
// @Produce json
// @Success 200 {object} State
// @Router /api/calendar/error [delete]
func (h *Handler) ClearError(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	store.ClearError(r.Context())
	rest.WriteJSON(w, http.StatusOK, store.State())
}

// ExportICS godoc
// @Summary Export the calendar as iCalendar
// @Tags Calendar
// @Produce text/calendar
// @Success 200 {string} string "iCalendar feed"
// @Router /api/calendar/events.ics [get]
func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	state := store.State()
	if state.Version == 0 {
		if failure := store.FetchAll(r.Context()); failure != nil {
			rest.WriteFailure(w, failure)
			return
		}
		state = store.State()
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="rallypoint.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(calendar.RenderICS(state.Events, h.baseUrl, h.clock.Now()))); err != nil {
		log.Errorf("failed to write calendar export: %v", err)
	}
}
