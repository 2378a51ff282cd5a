package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rallypoint/rallypoint/internal/config"
	"github.com/rallypoint/rallypoint/internal/utils"
	"github.com/rallypoint/rallypoint/pkg/auth"
	"github.com/rallypoint/rallypoint/pkg/calendar_store"
	"github.com/rallypoint/rallypoint/pkg/event"
	"github.com/rallypoint/rallypoint/pkg/notify"
	"github.com/rallypoint/rallypoint/pkg/participant"
	"github.com/rallypoint/rallypoint/pkg/profile"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	Notifier notify.Notifier

	ProfileService *profile.ServiceImpl
	ProfileHandler *profile.Handler

	EventService *event.ServiceImpl
	EventHandler *event.Handler

	ParticipantService *participant.ServiceImpl
	ParticipantHandler *participant.Handler

	CalendarRegistry  *calendar_store.Registry
	CalendarRefresher *calendar_store.Refresher
	CalendarHandler   *calendar_store.Handler

	AuthClient  auth.Client
	AuthService *auth.ServiceImpl
	AuthCookies *auth.Cookies
	AuthGuard   *auth.Guard
	AuthHandler *auth.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.Notifier = notify.Multi{notify.LogNotifier{}, notify.SentryNotifier{}}

	deps.ProfileService = profile.NewService(profile.NewRepository(db))
	deps.ProfileHandler = profile.NewHandler(deps.ProfileService)

	deps.EventService = event.NewService(event.NewRepository(db), deps.ProfileService)
	deps.EventHandler = event.NewHandler(deps.EventService)

	deps.ParticipantService = participant.NewService(participant.NewRepository(db))
	deps.ParticipantHandler = participant.NewHandler(deps.ParticipantService)

	location := cfg.Calendar.Location()
	deps.CalendarRegistry = calendar_store.NewRegistry(event.NewGateway(deps.EventService), calendar_store.Options{
		Clock:           deps.Clock,
		SheetCloseDelay: config.Duration(cfg.Calendar.SheetCloseDelay),
		Location:        location,
		Notifier:        deps.Notifier,
		IdleTimeout:     config.Duration(cfg.Calendar.StoreIdleTimeout),
	})
	deps.CalendarRefresher = calendar_store.NewRefresher(deps.CalendarRegistry, cfg.Calendar.RefreshSchedule, location)
	deps.CalendarHandler = calendar_store.NewHandler(deps.CalendarRegistry, cfg.Host, deps.Clock)

	deps.AuthClient = auth.NewGoTrueClient(cfg.Supabase)
	deps.AuthService = auth.NewService(deps.AuthClient, deps.ProfileService)
	deps.AuthCookies = auth.NewCookies(cfg.Auth, deps.Clock.Now)
	deps.AuthGuard = auth.NewGuard(deps.AuthService, deps.AuthCookies)
	deps.AuthHandler = auth.NewHandler(deps.AuthService, deps.AuthCookies, deps.Notifier)

	return deps
}
