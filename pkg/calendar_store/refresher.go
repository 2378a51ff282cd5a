package calendar_store

import (
	"context"
	"fmt"
	"time"

	"github.com/rallypoint/rallypoint/pkg/user"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Refresher periodically refetches every live store so long-lived views pick up
// changes made elsewhere.
type Refresher struct {
	registry *Registry
	schedule string
	cron     *cron.Cron
}

func NewRefresher(registry *Registry, schedule string, loc *time.Location) *Refresher {
	if loc == nil {
		loc = time.Local
	}
	logger := cron.PrintfLogger(log.StandardLogger())
	return &Refresher{
		registry: registry,
		schedule: schedule,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start schedules the refresh job. An empty schedule disables it.
func (r *Refresher) Start() error {
	if r.schedule == "" {
		log.Info("calendar refresh disabled")
		return nil
	}
	_, err := r.cron.AddFunc(r.schedule, func() {
		r.RefreshAll(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid calendar refresh schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	log.Infof("calendar refresh scheduled: %s", r.schedule)
	return nil
}

// Stop halts scheduling. The returned context is done once a running refresh completes.
func (r *Refresher) Stop() context.Context {
	return r.cron.Stop()
}

// RefreshAll drops idle stores, then fetches every remaining store on behalf of its owner.
func (r *Refresher) RefreshAll(ctx context.Context) {
	r.registry.EvictIdle()
	r.registry.Each(func(owner user.User, store *Store) {
		if failure := store.FetchAll(user.WithUser(ctx, owner)); failure != nil {
			log.Warnf("calendar refresh failed for user %s: %s", owner.Id, failure.Message)
		}
	})
}
