package server

import (
	"testing"
	"time"
)

func recvPayload(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.send:
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func assertNoPayload(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected payload: %s", payload)
	default:
	}
}

func TestHubBroadcastReachesRoomMembersOnly(t *testing.T) {
	hub := NewHub(NewWebSocketLogger())
	member := NewClient(nil, nil)
	other := NewClient(nil, nil)
	hub.Register(member)
	hub.Register(other)

	hub.Subscribe(member, "conversation:abc")
	hub.Broadcast("conversation:abc", []byte(`{"type":"new_message"}`))

	if got := recvPayload(t, member); string(got) != `{"type":"new_message"}` {
		t.Errorf("unexpected payload: %s", got)
	}
	assertNoPayload(t, other)
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(NewWebSocketLogger())
	c := NewClient(nil, nil)
	hub.Register(c)

	hub.Subscribe(c, "conversation:abc")
	hub.Unsubscribe(c, "conversation:abc")
	hub.Broadcast("conversation:abc", []byte("x"))

	assertNoPayload(t, c)
	if len(c.Rooms()) != 0 {
		t.Errorf("client still tracks rooms: %v", c.Rooms())
	}
}

func TestHubUnregisterUnwindsRooms(t *testing.T) {
	hub := NewHub(NewWebSocketLogger())
	c := NewClient(nil, nil)
	hub.Register(c)
	hub.Subscribe(c, "conversation:abc")
	hub.Subscribe(c, "user:u1")

	hub.Unregister(c)

	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.ClientCount())
	}
	if hub.RoomSize("conversation:abc") != 0 || hub.RoomSize("user:u1") != 0 {
		t.Error("rooms still hold the unregistered client")
	}

	// Sends after unregister are dropped, not panics.
	c.SendMessage([]byte("late"))
}

func TestHubBroadcastAfterCloseDoesNotPanic(t *testing.T) {
	hub := NewHub(NewWebSocketLogger())
	c := NewClient(nil, nil)
	hub.Register(c)
	hub.Subscribe(c, "conversation:abc")

	c.Close()
	c.Close() // idempotent
	hub.Broadcast("conversation:abc", []byte("x"))
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(NewWebSocketLogger())
	a := NewClient(nil, nil)
	b := NewClient(nil, nil)
	hub.Register(a)
	hub.Register(b)
	hub.Subscribe(a, "conversation:abc")

	hub.Shutdown()

	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.ClientCount())
	}
	a.SendMessage([]byte("late"))
	b.SendMessage([]byte("late"))
}

func TestClientRateLimiter(t *testing.T) {
	rl := NewClientRateLimiter()

	for i := 0; i < DefaultRateLimits.MaxAuthEvents; i++ {
		if !rl.Allow("authenticate") {
			t.Fatalf("auth attempt %d should be allowed", i+1)
		}
	}
	if rl.Allow("authenticate") {
		t.Error("auth attempts over the budget should be denied")
	}

	// Other classes keep their own budgets.
	if !rl.Allow("ping") {
		t.Error("ping budget should be untouched")
	}
	if !rl.Allow("join_conversation") {
		t.Error("query budget should be untouched")
	}
}
