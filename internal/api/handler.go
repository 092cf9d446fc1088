// Package api provides HTTP handlers for the stepwise API.
//
//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"net/http"

	"stepwise/internal/content"
	"stepwise/internal/live"
	"stepwise/internal/render"
	"stepwise/internal/store"
)

// Handler provides common handler dependencies.
type Handler struct {
	repo     store.Repository
	lib      *content.Library
	renderer *render.Renderer
	hub      *live.Hub
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, lib *content.Library, renderer *render.Renderer, hub *live.Hub) *Handler {
	return &Handler{
		repo:     repo,
		lib:      lib,
		renderer: renderer,
		hub:      hub,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
