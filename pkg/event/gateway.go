package event

import (
	"context"

	"github.com/rallypoint/rallypoint/pkg/backend"
)

// Gateway exposes the event service as a backend collaborator whose calls return
// tagged results instead of raw errors.
type Gateway struct {
	service Service
}

func NewGateway(service Service) *Gateway {
	return &Gateway{service: service}
}

func (g *Gateway) ListEvents(ctx context.Context) backend.Result[[]Event] {
	events, err := g.service.ListEvents(ctx)
	return backend.From(events, err)
}

func (g *Gateway) InsertEvent(ctx context.Context, in Insert) backend.Result[Event] {
	created, err := g.service.CreateEvent(ctx, in)
	return backend.From(created, err)
}

func (g *Gateway) UpdateEvent(ctx context.Context, id int, patch Update) backend.Result[Event] {
	updated, err := g.service.UpdateEvent(ctx, id, patch)
	return backend.From(updated, err)
}

func (g *Gateway) DeleteEvent(ctx context.Context, id int) backend.Result[struct{}] {
	err := g.service.DeleteEvent(ctx, id)
	return backend.From(struct{}{}, err)
}
