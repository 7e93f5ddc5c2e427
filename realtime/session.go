package realtime

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"aquaguard-backend/common"
	"aquaguard-backend/models"
)

const writeTimeout = 10 * time.Second

// Session is one connected real-time client. It carries no identity:
// any session may send alerts and every session receives broadcasts.
type Session struct {
	ID     string
	conn   *websocket.Conn
	events chan Event
	log    *zap.Logger
}

// Handler returns the fiber websocket handler for GET /ws. The handler
// goroutine owns the read side; a second goroutine drains the session's
// event channel onto the wire. Connect subscribes, disconnect
// unsubscribes, and the channel is closed only after Unsubscribe returns
// so no publisher can race the close.
func Handler(bus *Bus, buffer int) func(*websocket.Conn) {
	if buffer <= 0 {
		buffer = 16
	}
	return func(conn *websocket.Conn) {
		s := &Session{
			ID:     uuid.NewString(),
			conn:   conn,
			events: make(chan Event, buffer),
			log:    common.GetLogger("realtime"),
		}

		bus.Subscribe(s.ID, s.events)
		s.log.Info("session connected", zap.String("session", s.ID))

		done := make(chan struct{})
		go func() {
			defer close(done)
			s.writePump()
		}()

		s.readPump(bus)

		bus.Unsubscribe(s.ID)
		close(s.events)
		<-done

		s.log.Info("session disconnected", zap.String("session", s.ID))
	}
}

// readPump consumes inbound frames until the connection drops.
func (s *Session) readPump(bus *Bus) {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		routeInbound(bus, raw, s.log)
	}
}

// writePump serializes events onto the connection in channel order,
// giving each recipient per-sender FIFO delivery. After a write error the
// remaining events are drained and discarded so the publisher side never
// backs up on a dead connection.
func (s *Session) writePump() {
	var dead bool
	for ev := range s.events {
		if dead {
			continue
		}
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		env := models.Envelope{Event: ev.Name, Data: ev.Data}
		if err := s.conn.WriteJSON(env); err != nil {
			s.log.Warn("session write failed",
				zap.String("session", s.ID), zap.Error(err))
			dead = true
		}
	}
}

// routeInbound maps one inbound frame to bus publishes. A sendAlert is
// echoed to all sessions (sender included) as a lifeguardAlert plus an
// updateAlertLogs refresh. Anything else is logged and dropped; inbound
// traffic never errors the connection.
func routeInbound(bus *Bus, raw []byte, log *zap.Logger) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warn("malformed realtime frame", zap.Error(err))
		return
	}

	switch env.Event {
	case EventSendAlert:
		bus.PublishAlert(env.Data)
	default:
		log.Warn("unknown realtime event", zap.String("event", env.Event))
	}
}
