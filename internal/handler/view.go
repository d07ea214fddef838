package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/larder/internal/clock"
	"github.com/dukerupert/larder/internal/grocery"
	"github.com/dukerupert/larder/internal/listview"
	"github.com/dukerupert/larder/internal/store"
	"github.com/dukerupert/larder/internal/websocket"
)

// ViewHandler serves the projected lists the UI renders directly.
type ViewHandler struct {
	notifier
	items      *store.ItemStore
	categories *store.CategoryStore
	recipes    *store.RecipeStore
	plans      *store.MealPlanStore
	prefs      *store.PreferenceStore
	workflow   *grocery.Workflow
	clock      clock.Clock
	logger     *slog.Logger
}

type ViewStores struct {
	Items       *store.ItemStore
	Categories  *store.CategoryStore
	Recipes     *store.RecipeStore
	MealPlans   *store.MealPlanStore
	Preferences *store.PreferenceStore
}

func NewViewHandler(s ViewStores, wf *grocery.Workflow, clk clock.Clock, hub Broadcaster, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{
		notifier:   notifier{hub: hub},
		items:      s.Items,
		categories: s.Categories,
		recipes:    s.Recipes,
		plans:      s.MealPlans,
		prefs:      s.Preferences,
		workflow:   wf,
		clock:      clk,
		logger:     logger,
	}
}

func (h *ViewHandler) Shopping(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List()
	if err != nil {
		writeError(w, h.logger, "load shopping list", err)
		return
	}
	cats, err := h.categories.List()
	if err != nil {
		writeError(w, h.logger, "load shopping list", err)
		return
	}
	show, err := h.prefs.ShowChecked()
	if err != nil {
		writeError(w, h.logger, "load shopping list", err)
		return
	}

	writeJSON(w, http.StatusOK, listview.ShoppingList(items, cats, listview.ShoppingQuery{
		Search:      r.URL.Query().Get("q"),
		ShowChecked: show,
		Pending:     h.workflow.PendingSet(),
	}))
}

func (h *ViewHandler) Search(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List()
	if err != nil {
		writeError(w, h.logger, "search items", err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, listview.SearchItems(items, q.Get("q"), q.Get("recent")))
}

func (h *ViewHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List()
	if err != nil {
		writeError(w, h.logger, "browse categories", err)
		return
	}
	writeJSON(w, http.StatusOK, listview.CategoryBrowse(cats, r.URL.Query().Get("q")))
}

// CategoryItems lists one category's items; ?category= empty or absent
// selects the uncategorised bucket.
func (h *ViewHandler) CategoryItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List()
	if err != nil {
		writeError(w, h.logger, "browse category", err)
		return
	}
	cats, err := h.categories.List()
	if err != nil {
		writeError(w, h.logger, "browse category", err)
		return
	}
	writeJSON(w, http.StatusOK, listview.CategoryItems(items, cats, r.URL.Query().Get("category")))
}

func (h *ViewHandler) Recipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.List()
	if err != nil {
		writeError(w, h.logger, "list recipes", err)
		return
	}
	writeJSON(w, http.StatusOK, listview.Recipes(recipes, r.URL.Query().Get("q")))
}

func (h *ViewHandler) Week(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid offset")
			return
		}
		offset = n
	}

	plans, err := h.plans.List()
	if err != nil {
		writeError(w, h.logger, "load week", err)
		return
	}
	recipes, err := h.recipes.List()
	if err != nil {
		writeError(w, h.logger, "load week", err)
		return
	}
	writeJSON(w, http.StatusOK, listview.MealWeek(h.clock.Now(), offset, plans, recipes))
}

func (h *ViewHandler) GetShowChecked(w http.ResponseWriter, r *http.Request) {
	show, err := h.prefs.ShowChecked()
	if err != nil {
		writeError(w, h.logger, "get preference", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"showChecked": show})
}

func (h *ViewHandler) SetShowChecked(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShowChecked *bool `json:"showChecked"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ShowChecked == nil {
		writeErrorMsg(w, http.StatusBadRequest, "showChecked is required")
		return
	}
	if err := h.prefs.SetShowChecked(*req.ShowChecked); err != nil {
		writeError(w, h.logger, "set preference", err)
		return
	}
	h.broadcast(websocket.EntityPreference, "updated", "showChecked")
	writeJSON(w, http.StatusOK, map[string]bool{"showChecked": *req.ShowChecked})
}
