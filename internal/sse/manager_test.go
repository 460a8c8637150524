package sse

import (
	"testing"
	"time"

	"github.com/mcoot/guestdesk/internal/testutil"
)

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	hub1 := manager.GetOrCreateHub("EVENT001")
	if hub1 == nil {
		t.Fatal("GetOrCreateHub returned nil")
	}

	if hub2 := manager.GetOrCreateHub("EVENT001"); hub1 != hub2 {
		t.Error("GetOrCreateHub returned different hub for same event")
	}

	if hub3 := manager.GetOrCreateHub("EVENT002"); hub3 == hub1 {
		t.Error("GetOrCreateHub returned same hub for different event")
	}

	manager.CloseAll()
	if manager.GetHub("EVENT001") != nil || manager.GetHub("EVENT002") != nil {
		t.Error("hubs still present after CloseAll")
	}
}

func TestHubManager_GetHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	if hub := manager.GetHub("NOTEXIST"); hub != nil {
		t.Error("GetHub returned non-nil for non-existent hub")
	}

	created := manager.GetOrCreateHub("EVENT001")
	if got := manager.GetHub("EVENT001"); got != created {
		t.Error("GetHub returned different hub than GetOrCreateHub")
	}

	manager.RemoveHub("EVENT001")
}

func TestHubManager_RemoveHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	manager.GetOrCreateHub("EVENT001")
	manager.RemoveHub("EVENT001")

	if manager.GetHub("EVENT001") != nil {
		t.Error("Hub still exists after RemoveHub")
	}

	// Removing non-existent hub should not panic
	manager.RemoveHub("NOTEXIST")
}

func TestHubManager_ReapsIdleHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	hub := manager.GetOrCreateHub("EVENT001")
	first, second := NewClient("op-1"), NewClient("op-2")
	hub.Register(first)
	hub.Register(second)
	waitForClients(t, hub, 2)

	hub.Unregister(first)
	waitForClients(t, hub, 1)
	if manager.GetHub("EVENT001") != hub {
		t.Fatal("hub reaped while an operator is still watching")
	}

	hub.Unregister(second)
	deadline := time.Now().Add(time.Second)
	for manager.GetHub("EVENT001") != nil {
		if time.Now().After(deadline) {
			t.Fatal("idle hub was not reaped")
		}
		time.Sleep(time.Millisecond)
	}

	if hub.Register(NewClient("op-3")) {
		t.Error("Register() = true on a reaped hub")
	}
	if next := manager.GetOrCreateHub("EVENT001"); next == hub {
		t.Error("GetOrCreateHub returned the reaped hub")
	}
}
