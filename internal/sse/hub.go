package sse

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/guestdesk/internal/model"
)

// Hub fans one event's activity out to the operators watching it.
//
// Activity must not be skipped silently, since a desk acting on a stale list may
// check a guest out twice. An operator whose buffer is full is disconnected
// instead, and its watch command reconnects to a fresh state.
type Hub struct {
	eventID  model.EventID
	logger   *slog.Logger
	mu       sync.RWMutex
	watchers map[*Client]struct{}

	// onIdle runs on the hub goroutine when the last watcher leaves
	onIdle func(*Hub)

	join    chan *Client
	leave   chan *Client
	publish chan []byte
	done    chan struct{}
	once    sync.Once
}

func NewHub(eventID model.EventID, logger *slog.Logger) *Hub {
	return &Hub{
		eventID:  eventID,
		logger:   logger.With(slog.String("event_id", string(eventID))),
		watchers: make(map[*Client]struct{}),
		join:     make(chan *Client),
		leave:    make(chan *Client),
		publish:  make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// Run serves joins, leaves and activity until Close
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.join:
			select {
			case <-h.done:
				// joined a hub that is already shutting down
				close(c.send)
				continue
			default:
			}
			h.mu.Lock()
			h.watchers[c] = struct{}{}
			n := len(h.watchers)
			h.mu.Unlock()
			h.logger.Info("operator watching event",
				slog.String("operator_id", string(c.operatorID)),
				slog.Int("watchers", n))

		case c := <-h.leave:
			if n, ok := h.drop(c); ok {
				h.logger.Info("operator stopped watching event",
					slog.String("operator_id", string(c.operatorID)),
					slog.Duration("watched_for", time.Since(c.connectedAt)),
					slog.Int("watchers", n))
				if n == 0 && h.onIdle != nil {
					h.onIdle(h)
				}
			}

		case msg := <-h.publish:
			h.deliver(msg)

		case <-h.done:
			h.mu.Lock()
			n := len(h.watchers)
			for c := range h.watchers {
				close(c.send)
				delete(h.watchers, c)
			}
			h.mu.Unlock()
			h.logger.Info("event feed closed", slog.Int("disconnected", n))
			return
		}
	}
}

// deliver hands msg to every watcher, disconnecting any that cannot keep up
func (h *Hub) deliver(msg []byte) {
	var lagging []*Client
	h.mu.RLock()
	for c := range h.watchers {
		select {
		case c.send <- msg:
		default:
			lagging = append(lagging, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range lagging {
		h.drop(c)
		h.logger.Warn("operator too slow for event feed, disconnecting",
			slog.String("operator_id", string(c.operatorID)))
	}
}

// drop removes c and closes its channel. It reports the remaining count and
// whether c was still registered.
func (h *Hub) drop(c *Client) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.watchers[c]; !ok {
		return len(h.watchers), false
	}
	delete(h.watchers, c)
	close(c.send)
	return len(h.watchers), true
}

// Register adds a watcher. It reports false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.join <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.leave <- c:
	case <-h.done:
	}
}

// BroadcastEvent publishes one named SSE message to every watcher
func (h *Hub) BroadcastEvent(name, data string) {
	select {
	case h.publish <- formatSSEMessage(name, data):
	default:
		h.logger.Warn("event feed backlog full, activity dropped", slog.String("activity", name))
	}
}

// Close disconnects every watcher; later calls do nothing
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}
