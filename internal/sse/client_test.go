package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/testutil"
)

// readEvent reads lines up to the blank line terminating one SSE message
func readEvent(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	var b strings.Builder
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if line == "\n" {
			return b.String()
		}
		b.WriteString(line)
	}
}

func TestServeSSE_StreamsHubMessages(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, manager, "EVENT001", model.OperatorID("op-1"))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if first := readEvent(t, reader); !strings.HasPrefix(first, "event: connected\n") {
		t.Fatalf("first event = %q", first)
	}

	hub := manager.GetHub("EVENT001")
	if hub == nil {
		t.Fatal("hub was not created")
	}
	waitForClients(t, hub, 1)
	hub.BroadcastEvent("attendance", `{"applied":1}`)

	if got := readEvent(t, reader); got != "event: attendance\ndata: {\"applied\":1}\n" {
		t.Errorf("event = %q", got)
	}

	// Closing the hub ends the stream
	manager.RemoveHub("EVENT001")
	if _, err := reader.ReadString('\n'); err == nil {
		t.Error("stream still open after hub closed")
	}
}
