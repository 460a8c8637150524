package sse

import (
	"log/slog"
	"sync"

	"github.com/mcoot/guestdesk/internal/model"
)

// HubManager keeps one hub per watched event. A hub exists only while some
// operator watches it, so activity on unwatched events is never encoded.
type HubManager struct {
	mu     sync.Mutex
	hubs   map[model.EventID]*Hub
	logger *slog.Logger
}

func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.EventID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the event's hub, starting one if needed
func (m *HubManager) GetOrCreateHub(eventID model.EventID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[eventID]; ok {
		return hub
	}
	hub := NewHub(eventID, m.logger)
	hub.onIdle = m.reap
	m.hubs[eventID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the event's hub, or nil when nobody is watching
func (m *HubManager) GetHub(eventID model.EventID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hubs[eventID]
}

func (m *HubManager) RemoveHub(eventID model.EventID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hub, ok := m.hubs[eventID]; ok {
		hub.Close()
		delete(m.hubs, eventID)
	}
}

// reap closes a hub whose last watcher left. A watcher joining meanwhile
// sees Register fail and retries on a new hub.
func (m *HubManager) reap(hub *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hubs[hub.eventID] != hub || hub.ClientCount() > 0 {
		return
	}
	hub.Close()
	delete(m.hubs, hub.eventID)
	m.logger.Debug("idle event feed closed", slog.String("event_id", string(hub.eventID)))
}

// CloseAll disconnects every watcher of every event. Safe to call twice.
func (m *HubManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
