package live

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"stepwise/internal/identity"
)

// FeedHandler upgrades requests to the reader state feed.
type FeedHandler struct {
	hub           *Hub
	allowedOrigin string
	isDev         bool
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(hub *Hub, allowedOrigin string, isDev bool) *FeedHandler {
	return &FeedHandler{
		hub:           hub,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	readerID := identity.ReaderIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	slog.Info("Feed connection request", "reader_id", readerID, "tab_id", tabID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "reader_id", readerID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "reader_id", readerID)
		}
	}()

	h.hub.Register(readerID, tabID, ws)
	defer h.hub.Unregister(readerID, tabID, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The feed is server-to-client only. Drain incoming frames so pings and
	// close frames are processed, and exit when the client goes away.
	for {
		if _, _, err := ws.Read(ctx); err != nil {
			slog.Debug("Feed connection closed", "reader_id", readerID, "tab_id", tabID, "reason", err)
			return
		}
	}
}

func (h *FeedHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("Feed origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}
