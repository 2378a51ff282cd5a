package app

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/justinas/alice"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware builds the chain every request passes through before reaching the router.
// Panics are reported to Sentry first, then the request is logged, then the session guard runs.
func SetupMiddleware(deps *Dependencies) alice.Chain {
	reporter := sentryhttp.New(sentryhttp.Options{Repanic: true})
	return alice.New(
		reporter.Handle,
		requestLogger,
		deps.AuthGuard.Middleware,
	)
}

// requestLogger logs method, path, status and duration of every request.
// httpsnoop keeps the optional interfaces of the writer, so websocket upgrades still hijack.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		entry := log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   m.Code,
			"duration": m.Duration,
		})
		if m.Code >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	})
}
