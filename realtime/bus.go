// Package realtime implements the in-memory alert bus and the WebSocket
// sessions it fans out to.
//
// Delivery is best-effort: events published to the bus are pushed onto
// every session's buffered channel without blocking. A session that has
// fallen behind (full channel) loses that event and its dropped counter
// is incremented. Nothing is queued or replayed for disconnected clients.
package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"aquaguard-backend/common"
)

// Event names on the outbound side of the real-time channel.
const (
	EventLifeguardAlert  = "lifeguardAlert"
	EventUpdateAlertLogs = "updateAlertLogs"
	EventDrowningAlert   = "drowningAlert"
)

// EventSendAlert is the inbound event any connected session may emit.
const EventSendAlert = "sendAlert"

// Event is one message on the bus: a named event plus an opaque payload.
type Event struct {
	Name string
	Data json.RawMessage
	At   time.Time
}

// Stats is a point-in-time snapshot of bus counters.
type Stats struct {
	TotalPublished uint64                  `json:"total_published"`
	TotalSent      uint64                  `json:"total_sent"`
	TotalDropped   uint64                  `json:"total_dropped"`
	Sessions       map[string]SessionStats `json:"sessions"`
}

// SessionStats tracks delivery counters for one subscriber.
type SessionStats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

type sessionCounters struct {
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Bus broadcasts events to every subscribed session. All methods are safe
// for concurrent use. Subscribe and Unsubscribe are idempotent; a publish
// never fails the publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan<- Event
	counters    map[string]*sessionCounters
	closed      bool

	totalPublished atomic.Uint64

	log *zap.Logger
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]chan<- Event),
		counters:    make(map[string]*sessionCounters),
		log:         common.GetLogger("realtime"),
	}
}

// Subscribe registers a session's channel. Re-subscribing an existing id
// is a no-op.
func (b *Bus) Subscribe(id string, ch chan<- Event) {
	if ch == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if _, exists := b.subscribers[id]; exists {
		return
	}

	b.subscribers[id] = ch
	b.counters[id] = &sessionCounters{}
}

// Unsubscribe removes a session. Removing an unknown id is a no-op.
// Once Unsubscribe returns, no further sends to the session's channel
// will happen, so the caller may safely close it.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, id)
	delete(b.counters, id)
}

// Publish fans ev out to the snapshot of sessions subscribed at call
// time, including the sender's own session. The send is non-blocking:
// a full channel drops the event for that recipient only. Events from a
// single publishing goroutine reach every recipient in publish order.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.totalPublished.Add(1)

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
			b.counters[id].sent.Add(1)
		default:
			b.counters[id].dropped.Add(1)
			b.log.Warn("session behind, event dropped",
				zap.String("session", id),
				zap.String("event", ev.Name))
		}
	}
}

// PublishAlert broadcasts a lifeguardAlert carrying the caller-supplied
// payload, followed by an updateAlertLogs refresh signal.
func (b *Bus) PublishAlert(data json.RawMessage) {
	b.Publish(Event{Name: EventLifeguardAlert, Data: data})
	b.PublishLogRefresh()
}

// PublishLogRefresh tells every session to re-fetch alert-log state.
func (b *Bus) PublishLogRefresh() {
	b.Publish(Event{Name: EventUpdateAlertLogs})
}

// PublishDrowning broadcasts a positive detection verdict for one video.
func (b *Bus) PublishDrowning(videoID int64) {
	data := json.RawMessage(fmt.Sprintf(`{"videoId":%d}`, videoID))
	b.Publish(Event{Name: EventDrowningAlert, Data: data})
}

// Stats returns a snapshot of the counters. Concurrent publishes may
// advance them after the call returns.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := Stats{
		TotalPublished: b.totalPublished.Load(),
		Sessions:       make(map[string]SessionStats, len(b.counters)),
	}
	for id, c := range b.counters {
		sent := c.sent.Load()
		dropped := c.dropped.Load()
		out.TotalSent += sent
		out.TotalDropped += dropped
		out.Sessions[id] = SessionStats{Sent: sent, Dropped: dropped}
	}
	return out
}

// Close stops the bus. Later publishes are discarded and later
// subscriptions rejected. Subscriber channels are not closed here; their
// owning sessions close them after unsubscribing.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
