package sse

import (
	"net/http"
	"time"

	"github.com/mcoot/guestdesk/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256

	// Attempts to join a hub that is being reaped concurrently
	registerAttempts = 3
)

// Client represents a connected SSE client
type Client struct {
	operatorID  model.OperatorID
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient(operatorID model.OperatorID) *Client {
	return &Client{
		operatorID:  operatorID,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ServeSSE streams an event's activity to one operator until the request ends
// or the event's hub is closed
func ServeSSE(w http.ResponseWriter, r *http.Request, manager *HubManager, eventID model.EventID, operatorID model.OperatorID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := NewClient(operatorID)
	var hub *Hub
	for range registerAttempts {
		candidate := manager.GetOrCreateHub(eventID)
		if candidate.Register(client) {
			hub = candidate
			break
		}
	}
	if hub == nil {
		http.Error(w, "Event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// The server's write timeout would otherwise end the stream
	rc := http.NewResponseController(w)
	write := func(b []byte) error {
		_ = rc.SetWriteDeadline(time.Now().Add(writeWait))
		if _, err := w.Write(b); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := write(formatSSEMessage("connected", `{"status":"connected","event_id":"`+string(eventID)+`"}`)); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			if err := write(message); err != nil {
				return
			}

		case <-ticker.C:
			if err := write([]byte(": keepalive\n\n")); err != nil {
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}
