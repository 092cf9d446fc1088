package live

import (
	"testing"

	"github.com/coder/websocket"
)

func TestHub_Register(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}
	readerID := "anon_0011"
	tabID := "tab-1"

	hub.Register(readerID, tabID, conn)

	active := hub.GetActive(readerID, tabID)
	if active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}
	readerID := "anon_0011"
	tabID := "tab-1"

	hub.Register(readerID, tabID, conn)
	hub.Unregister(readerID, tabID, conn)

	active := hub.GetActive(readerID, tabID)
	if active != nil {
		t.Errorf("Expected nil connection, got %v", active)
	}
}

func TestHub_UnregisterStale(t *testing.T) {
	hub := NewHub()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}
	readerID := "anon_0011"

	hub.Register(readerID, "tab-1", conn1)

	// Another tab should remain active when a stale unregister happens.
	hub.Register(readerID, "tab-2", conn2)

	hub.Unregister(readerID, "tab-1", conn1)

	active := hub.GetActive(readerID, "tab-2")
	if active != conn2 {
		t.Errorf("Expected connection %v, got %v", conn2, active)
	}
}

func TestHub_UnregisterWrongConnKeepsCurrent(t *testing.T) {
	hub := NewHub()
	current := &websocket.Conn{}
	stale := &websocket.Conn{}
	readerID := "anon_0011"
	tabID := "tab-1"

	hub.Register(readerID, tabID, current)

	// A stale unregister for a conn that was never stored must be a no-op.
	hub.Unregister(readerID, tabID, stale)

	active := hub.GetActive(readerID, tabID)
	if active != current {
		t.Errorf("Expected current connection to survive, got %v", active)
	}
}
