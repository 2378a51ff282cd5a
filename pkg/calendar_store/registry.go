package calendar_store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rallypoint/rallypoint/internal/utils"
	"github.com/rallypoint/rallypoint/pkg/user"
	log "github.com/sirupsen/logrus"
)

type entry struct {
	owner    user.User
	store    *Store
	lastUsed time.Time
}

// Registry hands out one store per user, created on first use. Stores nobody watches are
// dropped by EvictIdle once they have gone unused for Options.IdleTimeout.
type Registry struct {
	backend Backend
	options Options
	clock   utils.Clock

	mu     sync.Mutex
	stores map[uuid.UUID]*entry
}

func NewRegistry(b Backend, opts Options) *Registry {
	clock := opts.Clock
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Registry{
		backend: b,
		options: opts,
		clock:   clock,
		stores:  make(map[uuid.UUID]*entry),
	}
}

// For returns the store of u.
func (r *Registry) For(u user.User) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if e, ok := r.stores[u.Id]; ok {
		e.owner = u
		e.lastUsed = now
		return e.store
	}
	log.Debugf("creating calendar store for user %s", u.Id)
	e := &entry{owner: u, store: NewStore(r.backend, r.options), lastUsed: now}
	r.stores[u.Id] = e
	return e.store
}

// EvictIdle drops every store that has no state subscribers and was last handed out
// longer than the idle timeout ago. It returns how many stores were dropped.
func (r *Registry) EvictIdle() int {
	if r.options.IdleTimeout <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-r.options.IdleTimeout)
	evicted := 0
	for id, e := range r.stores {
		if e.lastUsed.After(cutoff) || e.store.Watched() {
			continue
		}
		delete(r.stores, id)
		evicted++
	}
	if evicted > 0 {
		log.Debugf("evicted %d idle calendar stores", evicted)
	}
	return evicted
}

// Each calls fn for every store, ordered by user id, outside the registry lock.
func (r *Registry) Each(fn func(owner user.User, store *Store)) {
	r.mu.Lock()
	entries := make([]entry, 0, len(r.stores))
	for _, e := range r.stores {
		entries = append(entries, *e)
	}
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].owner.Id.String() < entries[j].owner.Id.String()
	})
	for _, e := range entries {
		fn(e.owner, e.store)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
