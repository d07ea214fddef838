package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
	"github.com/dukerupert/larder/internal/websocket"
)

type CategoryHandler struct {
	notifier
	store  *store.CategoryStore
	logger *slog.Logger
}

func NewCategoryHandler(s *store.CategoryStore, hub Broadcaster, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{notifier: notifier{hub: hub}, store: s, logger: logger}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.List()
	if err != nil {
		writeError(w, h.logger, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get category", err)
		return
	}
	if c == nil {
		writeErrorMsg(w, http.StatusNotFound, "category not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.store.Create(req)
	if err != nil {
		writeError(w, h.logger, "create category", err)
		return
	}
	h.broadcast(websocket.EntityCategory, "created", c.ID)
	writeJSON(w, http.StatusCreated, c)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req model.CategoryUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.store.Update(id, req)
	if err != nil {
		writeError(w, h.logger, "update category", err)
		return
	}
	if c == nil {
		writeErrorMsg(w, http.StatusNotFound, "category not found")
		return
	}
	h.broadcast(websocket.EntityCategory, "updated", id)
	writeJSON(w, http.StatusOK, c)
}

// Deletable reports whether Delete would succeed, so the UI can disable
// the action up front.
func (h *CategoryHandler) Deletable(w http.ResponseWriter, r *http.Request) {
	ok, err := h.store.Deletable(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "check category", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deletable": ok})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.Delete(id); err != nil {
		writeError(w, h.logger, "delete category", err)
		return
	}
	h.broadcast(websocket.EntityCategory, "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReorder(w, r)
	if !ok {
		return
	}
	if err := h.store.Reorder(req.SourceID, req.DestinationID); err != nil {
		writeError(w, h.logger, "reorder categories", err)
		return
	}
	h.broadcast(websocket.EntityCategory, "reordered", req.SourceID)
	w.WriteHeader(http.StatusNoContent)
}
