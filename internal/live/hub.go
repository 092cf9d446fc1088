// Package live provides WebSocket fan-out of reader state changes, keeping
// every open tab of the same reader in sync.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Event is a reader state change pushed to sibling tabs.
type Event struct {
	Type      string `json:"type"` // hint_toggled | section_done | doc_reset
	DocSlug   string `json:"doc_slug"`
	HintID    string `json:"hint_id,omitempty"`
	Expanded  bool   `json:"expanded,omitempty"`
	SectionID string `json:"section_id,omitempty"`
	HintHTML  string `json:"hint_html,omitempty"`
}

const broadcastTimeout = 5 * time.Second

// Hub tracks active WebSocket connections per reader and tab.
type Hub struct {
	mu   sync.RWMutex
	tabs map[string]map[string]*websocket.Conn
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{
		tabs: make(map[string]map[string]*websocket.Conn),
	}
}

// GetActive returns the active connection for a reader and tab.
func (h *Hub) GetActive(readerID, tabID string) *websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if tabs, ok := h.tabs[readerID]; ok {
		return tabs[tabID]
	}
	return nil
}

// Register adds a new WebSocket connection for a reader/tab.
func (h *Hub) Register(readerID, tabID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.tabs[readerID]; !exists {
		h.tabs[readerID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := h.tabs[readerID][tabID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "tab replaced")
	}

	h.tabs[readerID][tabID] = conn
	slog.Info("Feed connection registered", "reader_id", readerID, "tab_id", tabID)
}

// Unregister removes a WebSocket connection for a reader/tab.
func (h *Hub) Unregister(readerID, tabID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if tabs, ok := h.tabs[readerID]; ok {
		if current, exists := tabs[tabID]; exists && current == conn {
			delete(tabs, tabID)
			if len(tabs) == 0 {
				delete(h.tabs, readerID)
			}
			slog.Info("Feed connection unregistered", "reader_id", readerID, "tab_id", tabID)
		}
	}
}

// CloseReader forcefully terminates all feed connections for a reader.
func (h *Hub) CloseReader(readerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tabs, ok := h.tabs[readerID]
	if !ok {
		return
	}

	for tid, conn := range tabs {
		_ = conn.Close(websocket.StatusNormalClosure, "state purged")
		slog.Info("Feed connection closed", "reader_id", readerID, "tab_id", tid)
	}
	delete(h.tabs, readerID)
}

// Broadcast sends an event to every tab of a reader except the one that
// originated the change. Write failures are logged and skipped; the failing
// tab will drop off on its own read loop.
func (h *Hub) Broadcast(ctx context.Context, readerID, originTabID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal feed event", "error", err, "type", ev.Type)
		return
	}

	h.mu.RLock()
	conns := make(map[string]*websocket.Conn)
	for tid, conn := range h.tabs[readerID] {
		if tid != originTabID {
			conns[tid] = conn
		}
	}
	h.mu.RUnlock()

	for tid, conn := range conns {
		writeCtx, cancel := context.WithTimeout(ctx, broadcastTimeout)
		if err := conn.Write(writeCtx, websocket.MessageText, payload); err != nil {
			slog.Debug("Feed write failed", "error", err, "reader_id", readerID, "tab_id", tid)
		}
		cancel()
	}
}
