// Package realtime pushes inspection changes to connected clients over
// websockets. Clients subscribe to a single inspection, to the list
// feed, or both; every mutation publishes a full document snapshot, so
// a client's latest message is always a complete replacement and no
// delta reassembly is needed after a dropped connection.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"yardcheck/internal/logger"
)

// ListTopic carries change notifications for the inspection list views
const ListTopic = "inspections"

// DocumentTopic is the topic for one inspection's snapshots
func DocumentTopic(inspectionID string) string {
	return "inspection/" + inspectionID
}

// Event is the wire envelope for every push
type Event struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data,omitempty"`
}

// Session is one connected client's subscription state and outbound
// queue. The websocket plumbing lives in client.go; the hub only ever
// touches the send channel.
type Session struct {
	hub    *Hub
	send   chan []byte
	topics map[string]struct{}
}

// Hub tracks sessions per topic and fans out published events
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Session]struct{}),
	}
}

// NewSession registers a fresh session with no subscriptions
func (h *Hub) NewSession() *Session {
	return &Session{
		hub:    h,
		send:   make(chan []byte, 64),
		topics: make(map[string]struct{}),
	}
}

// Subscribe adds the session to a topic. Subscribing twice is a no-op.
func (h *Hub) Subscribe(s *Session, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Session]struct{})
		h.topics[topic] = subs
	}
	subs[s] = struct{}{}
	s.topics[topic] = struct{}{}
}

// Unsubscribe removes the session from a topic
func (h *Hub) Unsubscribe(s *Session, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s, topic)
}

// Close drops all of the session's subscriptions and closes its queue
func (h *Hub) Close(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic := range s.topics {
		h.removeLocked(s, topic)
	}
	close(s.send)
}

func (h *Hub) removeLocked(s *Session, topic string) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(s.topics, topic)
}

// Publish sends an event to every session subscribed to the topic and
// returns the number of sessions it reached. Sessions with a full queue
// are skipped rather than blocking the publisher; their next snapshot
// supersedes the missed one anyway.
func (h *Hub) Publish(topic string, data interface{}) int {
	encoded, err := json.Marshal(Event{Topic: topic, Data: data})
	if err != nil {
		logger.Error("Failed to encode realtime event",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.topics[topic] {
		select {
		case s.send <- encoded:
			delivered++
		default:
			logger.Warn("Dropping realtime event for slow client",
				zap.String("topic", topic),
			)
		}
	}
	return delivered
}
