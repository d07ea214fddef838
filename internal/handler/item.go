package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/grocery"
	"github.com/dukerupert/larder/internal/listview"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
	"github.com/dukerupert/larder/internal/websocket"
)

type ItemHandler struct {
	notifier
	items          *store.ItemStore
	categories     *store.CategoryStore
	prefs          *store.PreferenceStore
	workflow       *grocery.Workflow
	autoCategorize bool
	// base outlives any one request; a clear is cancelled when it is.
	base   context.Context
	logger *slog.Logger
}

type ItemOptions struct {
	AutoCategorize bool
	// Base bounds background clears. Defaults to context.Background().
	Base context.Context
}

func NewItemHandler(items *store.ItemStore, categories *store.CategoryStore, prefs *store.PreferenceStore, wf *grocery.Workflow, hub Broadcaster, logger *slog.Logger, opts ItemOptions) *ItemHandler {
	if opts.Base == nil {
		opts.Base = context.Background()
	}
	return &ItemHandler{
		notifier:       notifier{hub: hub},
		items:          items,
		categories:     categories,
		prefs:          prefs,
		workflow:       wf,
		autoCategorize: opts.AutoCategorize,
		base:           opts.Base,
		logger:         logger,
	}
}

// suggestCategory fills in a category for uncategorised items when
// auto-categorising is on. Failures leave the item uncategorised.
func (h *ItemHandler) suggestCategory(name string) string {
	if !h.autoCategorize {
		return ""
	}
	cats, err := h.categories.List()
	if err != nil {
		h.logger.Warn("list categories for suggestion", "error", err)
		return ""
	}
	id, _ := grocery.Suggest(name, cats)
	return id
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List()
	if err != nil {
		writeError(w, h.logger, "list items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.items.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get item", err)
		return
	}
	if item == nil {
		writeErrorMsg(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ItemInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Category == "" {
		req.Category = h.suggestCategory(req.Name)
	}

	item, err := h.items.Create(req)
	if err != nil {
		writeError(w, h.logger, "create item", err)
		return
	}
	h.broadcast(websocket.EntityItem, "created", item.ID)
	writeJSON(w, http.StatusCreated, item)
}

// Add puts a name on the list, bumping an existing item instead of
// duplicating it.
func (h *ItemHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	item, created, err := h.items.Add(req.Name)
	if err != nil {
		writeError(w, h.logger, "add item", err)
		return
	}
	if !created {
		h.broadcast(websocket.EntityItem, "updated", item.ID)
		writeJSON(w, http.StatusOK, item)
		return
	}

	if cat := h.suggestCategory(item.Name); cat != "" {
		if updated, err := h.items.Update(item.ID, model.ItemUpdate{Category: &cat}); err != nil {
			h.logger.Warn("apply suggested category", "item", item.ID, "error", err)
		} else if updated != nil {
			item = updated
		}
	}
	h.broadcast(websocket.EntityItem, "created", item.ID)
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req model.ItemUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.items.Update(id, req)
	if err != nil {
		writeError(w, h.logger, "update item", err)
		return
	}
	if item == nil {
		writeErrorMsg(w, http.StatusNotFound, "item not found")
		return
	}
	h.broadcast(websocket.EntityItem, "updated", id)
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, err := h.items.Decrement(id)
	if err != nil {
		writeError(w, h.logger, "decrement item", err)
		return
	}
	if item == nil {
		writeErrorMsg(w, http.StatusNotFound, "item not found")
		return
	}
	h.broadcast(websocket.EntityItem, "updated", id)
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.items.Delete(id); err != nil {
		writeError(w, h.logger, "delete item", err)
		return
	}
	h.broadcast(websocket.EntityItem, "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReorder(w, r)
	if !ok {
		return
	}
	if err := h.items.Reorder(req.SourceID, req.DestinationID); err != nil {
		writeError(w, h.logger, "reorder items", err)
		return
	}
	h.broadcast(websocket.EntityItem, "reordered", req.SourceID)
	w.WriteHeader(http.StatusNoContent)
}

// Toggle flips an item's checked flag and returns the item along with the
// momentary shopping view that shows both renderings of it. The flag is
// written first; the view is the pre-toggle list with the transition
// overlaid, and the next plain shopping view shows a single entry again.
func (h *ItemHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	before, err := h.items.List()
	if err != nil {
		writeError(w, h.logger, "toggle item", err)
		return
	}
	tr, err := h.workflow.Toggle(id)
	if err != nil {
		writeError(w, h.logger, "toggle item", err)
		return
	}
	if tr == nil {
		writeErrorMsg(w, http.StatusNotFound, "item not found")
		return
	}

	cats, err := h.categories.List()
	if err != nil {
		writeError(w, h.logger, "toggle item", err)
		return
	}
	show, err := h.prefs.ShowChecked()
	if err != nil {
		writeError(w, h.logger, "toggle item", err)
		return
	}
	transitional := listview.ShoppingList(tr.Overlay(before), cats, listview.ShoppingQuery{
		ShowChecked: show,
		Pending:     h.workflow.PendingSet(),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"item":       tr.To,
		"transition": tr,
		"view":       transitional,
	})
}

// ClearChecked starts the staged clear of every checked item. It responds
// as soon as the clear is scheduled; progress arrives over the websocket.
func (h *ItemHandler) ClearChecked(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List()
	if err != nil {
		writeError(w, h.logger, "clear items", err)
		return
	}
	cats, err := h.categories.List()
	if err != nil {
		writeError(w, h.logger, "clear items", err)
		return
	}
	checked := listview.CheckedItems(items, cats)

	done, err := h.workflow.ClearChecked(h.base, checked)
	if err != nil {
		writeError(w, h.logger, "clear items", err)
		return
	}
	go func() {
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Error("clear checked items", "error", err)
		}
	}()

	ids := make([]string, len(checked))
	for i, item := range checked {
		ids[i] = item.ID
	}
	status := http.StatusAccepted
	if len(ids) == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{"ids": ids})
}

func (h *ItemHandler) CancelClear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": h.workflow.Cancel()})
}

func (h *ItemHandler) ClearStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"clearing": h.workflow.Clearing(),
		"pending":  h.workflow.Pending(),
	})
}
