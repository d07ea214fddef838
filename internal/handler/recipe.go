package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/larder/internal/listview"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
	"github.com/dukerupert/larder/internal/websocket"
)

type RecipeHandler struct {
	notifier
	store  *store.RecipeStore
	logger *slog.Logger
}

func NewRecipeHandler(s *store.RecipeStore, hub Broadcaster, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{notifier: notifier{hub: hub}, store: s, logger: logger}
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.store.List()
	if err != nil {
		writeError(w, h.logger, "list recipes", err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// Get returns a recipe. With ?multiplier=, ingredient quantities are
// scaled and the next multiplier in the cycle is included.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.store.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get recipe", err)
		return
	}
	if recipe == nil {
		writeErrorMsg(w, http.StatusNotFound, "recipe not found")
		return
	}

	raw := r.URL.Query().Get("multiplier")
	if raw == "" {
		writeJSON(w, http.StatusOK, recipe)
		return
	}
	m, err := strconv.ParseFloat(raw, 64)
	if err != nil || m <= 0 {
		writeErrorMsg(w, http.StatusBadRequest, "invalid multiplier")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recipe":         recipe,
		"multiplier":     m,
		"nextMultiplier": listview.NextMultiplier(m),
		"ingredients":    listview.ScaleIngredients(*recipe, m),
	})
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.RecipeInput
	if !decodeJSON(w, r, &req) {
		return
	}
	recipe, err := h.store.Create(req)
	if err != nil {
		writeError(w, h.logger, "create recipe", err)
		return
	}
	h.broadcast(websocket.EntityRecipe, "created", recipe.ID)
	writeJSON(w, http.StatusCreated, recipe)
}

func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req model.RecipeUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	recipe, err := h.store.Update(id, req)
	if err != nil {
		writeError(w, h.logger, "update recipe", err)
		return
	}
	if recipe == nil {
		writeErrorMsg(w, http.StatusNotFound, "recipe not found")
		return
	}
	h.broadcast(websocket.EntityRecipe, "updated", id)
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.Delete(id); err != nil {
		writeError(w, h.logger, "delete recipe", err)
		return
	}
	h.broadcast(websocket.EntityRecipe, "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReorder(w, r)
	if !ok {
		return
	}
	if err := h.store.Reorder(req.SourceID, req.DestinationID); err != nil {
		writeError(w, h.logger, "reorder recipes", err)
		return
	}
	h.broadcast(websocket.EntityRecipe, "reordered", req.SourceID)
	w.WriteHeader(http.StatusNoContent)
}
