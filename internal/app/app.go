package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rallypoint/rallypoint/internal/config"
	"github.com/rallypoint/rallypoint/internal/database"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg  config.Application
	db   *pgxpool.Pool
	deps *Dependencies
	srv  *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	if err := initSentry(cfg.Sentry); err != nil {
		return nil, err
	}

	// DB + migrations
	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	// Build dependencies (services, handlers...)
	deps := BuildDependencies(db, cfg)

	// Routes
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      SetupMiddleware(deps).Then(r),
		Addr:         cfg.Server.Addr,
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		IdleTimeout:  config.Duration(cfg.Server.IdleTimeout),
	}

	return &Application{cfg: cfg, db: db, deps: deps, srv: srv}, nil
}

func initSentry(cfg config.Sentry) error {
	if cfg.Dsn == "" {
		log.Info("Sentry DSN not set, error reporting disabled")
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Dsn,
		Environment: cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return nil
}

// Run starts the HTTP server and the calendar refresher, and blocks until ctx is done
// or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.deps.CalendarRefresher.Start(); err != nil {
		return err
	}
	defer a.close()

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		serverErr <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	}
}

func (a *Application) close() {
	<-a.deps.CalendarRefresher.Stop().Done()
	a.db.Close()
	sentry.Flush(2 * time.Second)
}
