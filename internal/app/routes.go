package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Auth
	r.HandleFunc("/api/auth/login", deps.AuthHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/register", deps.AuthHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/forgot-password", deps.AuthHandler.ForgotPassword).Methods("POST")
	r.HandleFunc("/api/auth/logout", deps.AuthHandler.Logout).Methods("POST")
	r.HandleFunc("/api/auth/refresh", deps.AuthHandler.Refresh).Methods("POST")
	r.HandleFunc("/api/auth/user", deps.AuthHandler.CurrentUser).Methods("GET")

	// Calendar
	r.HandleFunc("/api/calendar/state", deps.CalendarHandler.GetState).Methods("GET")
	r.HandleFunc("/api/calendar/fetch", deps.CalendarHandler.Fetch).Methods("POST")
	r.HandleFunc("/api/calendar/events.ics", deps.CalendarHandler.ExportICS).Methods("GET")
	r.HandleFunc("/api/calendar/events", deps.CalendarHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/calendar/events/{id}", deps.CalendarHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/calendar/events/{id}", deps.CalendarHandler.DeleteEvent).Methods("DELETE")
	r.HandleFunc("/api/calendar/selection", deps.CalendarHandler.Select).Methods("PUT")
	r.HandleFunc("/api/calendar/sheet", deps.CalendarHandler.SetSheet).Methods("PUT")
	r.HandleFunc("/api/calendar/error", deps.CalendarHandler.ClearError).Methods("DELETE")
	r.HandleFunc("/api/calendar/ws", deps.CalendarHandler.Stream).Methods("GET")

	// Events
	r.HandleFunc("/api/events/{id}", deps.EventHandler.GetEvent).Methods("GET")

	// Participants
	r.HandleFunc("/api/events/{id}/participants", deps.ParticipantHandler.ListParticipants).Methods("GET")
	r.HandleFunc("/api/events/{id}/participants", deps.ParticipantHandler.Join).Methods("POST")
	r.HandleFunc("/api/events/{id}/participants", deps.ParticipantHandler.Leave).Methods("DELETE")
	r.HandleFunc("/api/events/{id}/participants/me", deps.ParticipantHandler.CurrentParticipation).Methods("GET")
	r.HandleFunc("/api/events/{id}/participants/{userId}", deps.ParticipantHandler.UpdateParticipant).Methods("PUT")
	r.HandleFunc("/api/events/{id}/participants/{userId}", deps.ParticipantHandler.Remove).Methods("DELETE")

	// Profiles
	r.HandleFunc("/api/profiles", deps.ProfileHandler.ListProfiles).Methods("GET")
	r.HandleFunc("/api/profiles/current", deps.ProfileHandler.CurrentProfile).Methods("GET")
	r.HandleFunc("/api/profiles/current", deps.ProfileHandler.UpdateCurrentProfile).Methods("PUT")
	r.HandleFunc("/api/profiles/{id}", deps.ProfileHandler.GetProfile).Methods("GET")
}
