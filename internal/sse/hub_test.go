package sse

import (
	"testing"
	"time"

	"github.com/mcoot/guestdesk/internal/testutil"
)

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub("EVENT001", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient("op-1")
	if !hub.Register(client) {
		t.Fatal("Register() = false on a running hub")
	}
	waitForClients(t, hub, 1)

	hub.BroadcastEvent("test-event", "test data")

	select {
	case msg := <-client.send:
		expected := "event: test-event\ndata: test data\n\n"
		if string(msg) != expected {
			t.Errorf("client received %q, want %q", string(msg), expected)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub("EVENT001", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient("op-1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Unregister(client)
	waitForClients(t, hub, 0)

	if _, ok := <-client.send; ok {
		t.Error("send channel still open after unregister")
	}
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := NewHub("EVENT001", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	clients := []*Client{NewClient("op-1"), NewClient("op-2"), NewClient("op-3")}
	for _, c := range clients {
		hub.Register(c)
	}
	waitForClients(t, hub, 3)

	hub.BroadcastEvent("update", "data")

	for i, client := range clients {
		select {
		case msg := <-client.send:
			expected := "event: update\ndata: data\n\n"
			if string(msg) != expected {
				t.Errorf("client %d received %q, want %q", i+1, string(msg), expected)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d did not receive message", i+1)
		}
	}
}

func TestHub_RegisterAfterClose(t *testing.T) {
	hub := NewHub("EVENT001", testutil.NopLogger())
	go hub.Run()
	hub.Close()
	hub.Close() // Second close is a no-op

	done := make(chan bool)
	go func() {
		done <- hub.Register(NewClient("op-1"))
	}()

	select {
	case ok := <-done:
		if ok {
			t.Error("Register() = true on a closed hub")
		}
	case <-time.After(time.Second):
		t.Fatal("Register() blocked on a closed hub")
	}

	// Must not block either
	hub.Unregister(NewClient("op-1"))
}

func TestHub_DisconnectsSlowOperator(t *testing.T) {
	hub := NewHub("EVENT001", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	slow, fast := NewClient("op-slow"), NewClient("op-fast")
	hub.Register(slow)
	hub.Register(fast)
	waitForClients(t, hub, 2)

	for i := 0; i < sendBufferSize; i++ {
		hub.BroadcastEvent("attendance", "data")
		// fast keeps up
		select {
		case <-fast.send:
		case <-time.After(time.Second):
			t.Fatalf("fast operator missed message %d", i)
		}
	}
	deadline := time.Now().Add(time.Second)
	for len(slow.send) != sendBufferSize {
		if time.Now().After(deadline) {
			t.Fatalf("slow operator buffered %d messages, want %d", len(slow.send), sendBufferSize)
		}
		time.Sleep(time.Millisecond)
	}

	hub.BroadcastEvent("attendance", "overflow")
	waitForClients(t, hub, 1)

	received := 0
	for range slow.send {
		received++
	}
	if received != sendBufferSize {
		t.Errorf("slow operator drained %d messages, want %d", received, sendBufferSize)
	}

	select {
	case msg := <-fast.send:
		if string(msg) != "event: attendance\ndata: overflow\n\n" {
			t.Errorf("fast operator received %q", string(msg))
		}
	case <-time.After(time.Second):
		t.Error("fast operator did not receive the message that overflowed the slow one")
	}
}
