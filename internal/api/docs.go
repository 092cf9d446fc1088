package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stepwise/internal/domain"
	"stepwise/internal/identity"
	"stepwise/internal/live"
	"stepwise/internal/shared"
)

// DocsHandler handles document and reader state endpoints.
type DocsHandler struct {
	*Handler
}

// NewDocsHandler creates a new docs handler.
func NewDocsHandler(base *Handler) *DocsHandler {
	return &DocsHandler{Handler: base}
}

// RegisterRoutes registers document routes.
func (h *DocsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Get("/docs", h.ListDocs)
		r.Get("/docs/{slug}", h.GetDoc)
		r.Post("/docs/{slug}/hints/{hintID}/toggle", h.ToggleHint)
		r.Post("/docs/{slug}/reset", h.ResetDoc)
		r.Post("/docs/{slug}/sections/{sectionID}/done", h.MarkSectionDone)
	})
	r.Get("/docs/{slug}", h.Page)
	r.Get("/", h.Index)
}

// Index renders the HTML document index.
func (h *DocsHandler) Index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.renderer.Index(&buf, h.lib.List()); err != nil {
		slog.Error("Failed to render index", "error", err)
		http.Error(w, "failed to render index", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("Failed to write index", "error", err)
	}
}

// ListDocs returns a summary of every loaded document.
func (h *DocsHandler) ListDocs(w http.ResponseWriter, r *http.Request) {
	docs := h.lib.List()
	out := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		out = append(out, map[string]interface{}{
			"slug":     doc.Slug,
			"title":    doc.Title,
			"sections": len(doc.Sections),
			"hints":    len(doc.HintIDs()),
		})
	}
	JSON(w, http.StatusOK, map[string]interface{}{"docs": out})
}

// GetDoc returns a document plus the caller's expanded hint IDs.
func (h *DocsHandler) GetDoc(w http.ResponseWriter, r *http.Request) {
	readerID := identity.ReaderIDFromContext(r.Context())
	slug := chi.URLParam(r, "slug")

	doc := h.lib.Get(slug)
	if doc == nil {
		Error(w, http.StatusNotFound, "document not found")
		return
	}

	expanded, err := h.repo.ExpandedHints(r.Context(), readerID, slug)
	if err != nil {
		slog.Error("Failed to load hint state", "error", err, "reader_id", readerID, "doc", slug)
		Error(w, http.StatusInternalServerError, "failed to load hint state")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"doc":      doc,
		"expanded": expanded,
	})
}

// Page renders the full HTML page for a document with the caller's hint state.
func (h *DocsHandler) Page(w http.ResponseWriter, r *http.Request) {
	readerID := identity.ReaderIDFromContext(r.Context())
	slug := chi.URLParam(r, "slug")

	doc := h.lib.Get(slug)
	if doc == nil {
		http.NotFound(w, r)
		return
	}

	expanded, err := h.repo.ExpandedHints(r.Context(), readerID, slug)
	if err != nil {
		slog.Error("Failed to load hint state", "error", err, "reader_id", readerID, "doc", slug)
		http.Error(w, "failed to load hint state", http.StatusInternalServerError)
		return
	}

	if err := h.repo.TouchReader(r.Context(), readerID, time.Now()); err != nil {
		slog.Warn("Failed to touch reader", "error", err, "reader_id", readerID)
	}

	// Render to a buffer first so a template problem never produces a
	// half-written page.
	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, doc, domain.NewHintState(expanded)); err != nil {
		slog.Error("Failed to render page", "error", err, "doc", slug)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("Failed to write page", "error", err, "doc", slug)
	}
}

// ToggleHint flips visibility of one hint box for the caller.
func (h *DocsHandler) ToggleHint(w http.ResponseWriter, r *http.Request) {
	readerID := identity.ReaderIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	slug := chi.URLParam(r, "slug")
	hintID := chi.URLParam(r, "hintID")

	doc := h.lib.Get(slug)
	if doc == nil {
		Error(w, http.StatusNotFound, "document not found")
		return
	}
	hint := doc.Hint(hintID)
	if hint == nil {
		Error(w, http.StatusNotFound, "hint not found")
		return
	}

	var expanded bool
	err := shared.RetrySQLite(r.Context(), 3, 50*time.Millisecond, func() error {
		var toggleErr error
		expanded, toggleErr = h.repo.ToggleHint(r.Context(), readerID, slug, hintID)
		return toggleErr
	})
	if err != nil {
		slog.Error("Failed to toggle hint", "error", err, "reader_id", readerID, "doc", slug, "hint", hintID)
		Error(w, http.StatusInternalServerError, "failed to toggle hint")
		return
	}

	if err := h.repo.TouchReader(r.Context(), readerID, time.Now()); err != nil {
		slog.Warn("Failed to touch reader", "error", err, "reader_id", readerID)
	}

	h.broadcastHint(r, readerID, tabID, slug, hint, expanded)

	JSON(w, http.StatusOK, map[string]interface{}{
		"hint_id":  hintID,
		"expanded": expanded,
	})
}

func (h *DocsHandler) broadcastHint(r *http.Request, readerID, tabID, slug string, hint *domain.HintBox, expanded bool) {
	var frag bytes.Buffer
	if err := h.renderer.Fragment(&frag, hint, expanded); err != nil {
		slog.Warn("Failed to render hint fragment", "error", err, "hint", hint.ID)
	}

	h.hub.Broadcast(r.Context(), readerID, tabID, live.Event{
		Type:     "hint_toggled",
		DocSlug:  slug,
		HintID:   hint.ID,
		Expanded: expanded,
		HintHTML: frag.String(),
	})
}

// ResetDoc collapses all hints and clears progress for one document.
func (h *DocsHandler) ResetDoc(w http.ResponseWriter, r *http.Request) {
	readerID := identity.ReaderIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	slug := chi.URLParam(r, "slug")

	if h.lib.Get(slug) == nil {
		Error(w, http.StatusNotFound, "document not found")
		return
	}

	err := shared.RetrySQLite(r.Context(), 3, 50*time.Millisecond, func() error {
		return h.repo.ResetDocState(r.Context(), readerID, slug)
	})
	if err != nil {
		slog.Error("Failed to reset document state", "error", err, "reader_id", readerID, "doc", slug)
		Error(w, http.StatusInternalServerError, "failed to reset document state")
		return
	}

	h.hub.Broadcast(r.Context(), readerID, tabID, live.Event{
		Type:    "doc_reset",
		DocSlug: slug,
	})

	slog.Info("Document state reset", "reader_id", readerID, "doc", slug)
	JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// MarkSectionDone records completion of a section for the caller.
func (h *DocsHandler) MarkSectionDone(w http.ResponseWriter, r *http.Request) {
	readerID := identity.ReaderIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	slug := chi.URLParam(r, "slug")
	sectionID := chi.URLParam(r, "sectionID")

	doc := h.lib.Get(slug)
	if doc == nil {
		Error(w, http.StatusNotFound, "document not found")
		return
	}
	if doc.Section(sectionID) == nil {
		Error(w, http.StatusNotFound, "section not found")
		return
	}

	if err := h.repo.MarkSectionDone(r.Context(), readerID, slug, sectionID, time.Now()); err != nil {
		slog.Error("Failed to mark section done", "error", err, "reader_id", readerID, "doc", slug, "section", sectionID)
		Error(w, http.StatusInternalServerError, "failed to record progress")
		return
	}

	h.hub.Broadcast(r.Context(), readerID, tabID, live.Event{
		Type:      "section_done",
		DocSlug:   slug,
		SectionID: sectionID,
	})

	JSON(w, http.StatusOK, map[string]string{"status": "done"})
}

// GetMe returns the caller's reader record and progress summary.
func (h *DocsHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	readerID := identity.ReaderIDFromContext(r.Context())
	if readerID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reader, err := h.repo.GetReader(r.Context(), readerID)
	if err != nil || reader == nil {
		Error(w, http.StatusUnauthorized, "reader not found")
		return
	}

	progress, err := h.repo.GetProgress(r.Context(), readerID)
	if err != nil {
		slog.Error("Failed to load progress", "error", err, "reader_id", readerID)
		Error(w, http.StatusInternalServerError, "failed to load progress")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"reader_id": reader.ReaderID,
		"nickname":  reader.Nickname,
		"progress":  progress,
	})
}
