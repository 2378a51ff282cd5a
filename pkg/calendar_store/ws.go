package calendar_store

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rallypoint/rallypoint/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

const (
	MessageState        = "state"
	MessageNotification = "notification"

	streamBuffer = 32
	writeTimeout = 5 * time.Second
)

// StreamMessage is one frame pushed to a websocket client.
type StreamMessage struct {
	Type         string                  `json:"type"`
	State        *State                  `json:"state,omitempty"`
	Notification *event_bus.Notification `json:"notification,omitempty"`
}

// Stream godoc
// @Summary Stream calendar state and notifications
// @Description Sends the current state on connect, then every change and notification.
// @Tags Calendar
// @Router /api/calendar/ws [get]
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Errorf("websocket accept error: %v", err)
		return
	}
	defer conn.CloseNow()

	// Clients only listen; reading is left to the library so control frames are handled.
	ctx := conn.CloseRead(r.Context())

	messages := make(chan StreamMessage, streamBuffer)
	send := func(m StreamMessage) {
		select {
		case messages <- m:
		default:
			log.Warnf("calendar stream buffer full, dropping %s message", m.Type)
		}
	}

	unsubscribeState := store.Subscribe(func(s State) {
		send(StreamMessage{Type: MessageState, State: &s})
	})
	defer unsubscribeState()
	unsubscribeNotifications := store.SubscribeNotifications(func(n event_bus.Notification) {
		send(StreamMessage{Type: MessageNotification, Notification: &n})
	})
	defer unsubscribeNotifications()

	initial := store.State()
	if err := write(ctx, conn, StreamMessage{Type: MessageState, State: &initial}); err != nil {
		log.Debugf("calendar stream closed: %v", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case m := <-messages:
			if err := write(ctx, conn, m); err != nil {
				log.Debugf("calendar stream closed: %v", err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, m StreamMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, m)
}
