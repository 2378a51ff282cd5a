package notify

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rallypoint/rallypoint/internal/event_bus"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/user"
	log "github.com/sirupsen/logrus"
)

// Notifier is the side channel through which command outcomes reach the user.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, failure *backend.Failure)
}

type LogNotifier struct{}

func (LogNotifier) Success(ctx context.Context, message string) {
	logEntry(ctx).Info(message)
}

func (LogNotifier) Error(ctx context.Context, failure *backend.Failure) {
	logEntry(ctx).WithField("kind", failure.Kind).Warn(failure.Message)
}

func logEntry(ctx context.Context) *log.Entry {
	entry := log.WithField("component", "notify")
	if id, err := user.CurrentId(ctx); err == nil {
		entry = entry.WithField("user", id.String())
	}
	return entry
}

// SentryNotifier records successes as breadcrumbs and reports errors as messages.
// Validation and not-found failures are expected user outcomes, so they only leave a
// breadcrumb. It uses the hub attached to ctx when there is one.
type SentryNotifier struct{}

func hubFrom(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

func (SentryNotifier) Success(ctx context.Context, message string) {
	hubFrom(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Category: "calendar",
		Message:  message,
		Level:    sentry.LevelInfo,
	}, nil)
}

func (SentryNotifier) Error(ctx context.Context, failure *backend.Failure) {
	hub := hubFrom(ctx)
	if !reportable(failure.Kind) {
		hub.AddBreadcrumb(&sentry.Breadcrumb{
			Category: "calendar",
			Message:  failure.Message,
			Level:    sentry.LevelWarning,
			Data:     map[string]any{"kind": string(failure.Kind)},
		}, nil)
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelWarning)
		scope.SetTag("component", "calendar")
		if u, err := user.CurrentUser(ctx); err == nil {
			scope.SetUser(sentry.User{ID: u.Id.String(), Email: u.Email})
		}
		scope.SetTag("kind", string(failure.Kind))
		if failure.Code != "" {
			scope.SetTag("code", failure.Code)
		}
		hub.CaptureMessage(failure.Message)
	})
}

func reportable(kind backend.Kind) bool {
	switch kind {
	case backend.KindValidation, backend.KindNotFound:
		return false
	}
	return true
}

// BusNotifier publishes notifications on an event bus so live clients can show them.
type BusNotifier struct {
	bus *event_bus.EventBus
	now func() time.Time
}

func NewBusNotifier(bus *event_bus.EventBus, now func() time.Time) *BusNotifier {
	if now == nil {
		now = time.Now
	}
	return &BusNotifier{bus: bus, now: now}
}

func (n *BusNotifier) Success(ctx context.Context, message string) {
	n.publish(ctx, event_bus.NotificationSuccess, message)
}

func (n *BusNotifier) Error(ctx context.Context, failure *backend.Failure) {
	n.publish(ctx, event_bus.NotificationError, failure.Message)
}

func (n *BusNotifier) publish(ctx context.Context, level event_bus.NotificationLevel, message string) {
	notification := event_bus.Notification{Level: level, Message: message, At: n.now()}
	err := n.bus.Publish(event_bus.NewEvent(context.WithoutCancel(ctx), event_bus.NotificationPublished, notification))
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("failed to publish notification: %v", err)
	}
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Success(ctx context.Context, message string) {
	for _, n := range m {
		n.Success(ctx, message)
	}
}

func (m Multi) Error(ctx context.Context, failure *backend.Failure) {
	for _, n := range m {
		n.Error(ctx, failure)
	}
}
