package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
	"github.com/dukerupert/larder/internal/websocket"
)

type MealPlanHandler struct {
	notifier
	store  *store.MealPlanStore
	logger *slog.Logger
}

func NewMealPlanHandler(s *store.MealPlanStore, hub Broadcaster, logger *slog.Logger) *MealPlanHandler {
	return &MealPlanHandler{notifier: notifier{hub: hub}, store: s, logger: logger}
}

func (h *MealPlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.store.List()
	if err != nil {
		writeError(w, h.logger, "list meal plans", err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *MealPlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	plan, err := h.store.GetByDate(r.PathValue("date"))
	if err != nil {
		writeError(w, h.logger, "get meal plan", err)
		return
	}
	if plan == nil {
		writeErrorMsg(w, http.StatusNotFound, "meal plan not found")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// Put plans a meal for the date in the path, replacing any existing plan.
func (h *MealPlanHandler) Put(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	var meal model.Meal
	if !decodeJSON(w, r, &meal) {
		return
	}
	plan, err := h.store.Create(model.MealPlan{Date: date, Meal: meal})
	if err != nil {
		writeError(w, h.logger, "save meal plan", err)
		return
	}
	h.broadcast(websocket.EntityMealPlan, "updated", date)
	writeJSON(w, http.StatusOK, plan)
}

func (h *MealPlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if err := h.store.Delete(date); err != nil {
		writeError(w, h.logger, "delete meal plan", err)
		return
	}
	h.broadcast(websocket.EntityMealPlan, "deleted", date)
	w.WriteHeader(http.StatusNoContent)
}
