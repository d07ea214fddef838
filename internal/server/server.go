package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/clock"
	"github.com/dukerupert/larder/internal/grocery"
	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/kv"
	"github.com/dukerupert/larder/internal/middleware"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

type Options struct {
	AutoCategorize bool
	Clear          grocery.Options
	// Clock defaults to the real clock.
	Clock clock.Clock
}

type Server struct {
	hub       *ws.Hub
	workflow  *grocery.Workflow
	itemH     *handler.ItemHandler
	categoryH *handler.CategoryHandler
	recipeH   *handler.RecipeHandler
	mealPlanH *handler.MealPlanHandler
	viewH     *handler.ViewHandler
	backupH   *handler.BackupHandler
	cancel    context.CancelFunc
	logger    *slog.Logger
}

// New wires every repository, the clear workflow and the handlers over one
// key-value store.
func New(kvs kv.Store, opts Options, logger *slog.Logger) *Server {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	hub := ws.NewHub(logger.With("component", "websocket"))

	storeLogger := logger.With("component", "store")
	items := store.NewItemStore(kvs, storeLogger)
	categories := store.NewCategoryStore(kvs, items, storeLogger)
	recipes := store.NewRecipeStore(kvs, storeLogger)
	plans := store.NewMealPlanStore(kvs, storeLogger)
	prefs := store.NewPreferenceStore(kvs, storeLogger)

	wf := grocery.NewWorkflow(items, clk, hub, logger.With("component", "grocery"), opts.Clear)
	backupMgr := backup.NewManager(backup.Stores{
		Items:      items,
		Categories: categories,
		Recipes:    recipes,
		MealPlans:  plans,
	}, clk, logger.With("component", "backup"))

	base, cancel := context.WithCancel(context.Background())

	return &Server{
		hub:      hub,
		workflow: wf,
		itemH: handler.NewItemHandler(items, categories, prefs, wf, hub, logger.With("component", "item"), handler.ItemOptions{
			AutoCategorize: opts.AutoCategorize,
			Base:           base,
		}),
		categoryH: handler.NewCategoryHandler(categories, hub, logger.With("component", "category")),
		recipeH:   handler.NewRecipeHandler(recipes, hub, logger.With("component", "recipe")),
		mealPlanH: handler.NewMealPlanHandler(plans, hub, logger.With("component", "meal_plan")),
		viewH: handler.NewViewHandler(handler.ViewStores{
			Items:       items,
			Categories:  categories,
			Recipes:     recipes,
			MealPlans:   plans,
			Preferences: prefs,
		}, wf, clk, hub, logger.With("component", "view")),
		backupH: handler.NewBackupHandler(backupMgr, hub, logger.With("component", "backup")),
		cancel:  cancel,
		logger:  logger,
	}
}

// Close cancels any clear still in flight. Its items stay on the list.
func (s *Server) Close() {
	s.cancel()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket")))

	// Items
	mux.HandleFunc("GET /api/items", s.itemH.List)
	mux.HandleFunc("POST /api/items", s.itemH.Create)
	mux.HandleFunc("POST /api/items/add", s.itemH.Add)
	mux.HandleFunc("POST /api/items/reorder", s.itemH.Reorder)
	mux.HandleFunc("GET /api/items/clear", s.itemH.ClearStatus)
	mux.HandleFunc("POST /api/items/clear", s.itemH.ClearChecked)
	mux.HandleFunc("DELETE /api/items/clear", s.itemH.CancelClear)
	mux.HandleFunc("GET /api/items/{id}", s.itemH.Get)
	mux.HandleFunc("PATCH /api/items/{id}", s.itemH.Update)
	mux.HandleFunc("DELETE /api/items/{id}", s.itemH.Delete)
	mux.HandleFunc("POST /api/items/{id}/toggle", s.itemH.Toggle)
	mux.HandleFunc("POST /api/items/{id}/decrement", s.itemH.Decrement)

	// Categories
	mux.HandleFunc("GET /api/categories", s.categoryH.List)
	mux.HandleFunc("POST /api/categories", s.categoryH.Create)
	mux.HandleFunc("POST /api/categories/reorder", s.categoryH.Reorder)
	mux.HandleFunc("GET /api/categories/{id}", s.categoryH.Get)
	mux.HandleFunc("PATCH /api/categories/{id}", s.categoryH.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", s.categoryH.Delete)
	mux.HandleFunc("GET /api/categories/{id}/deletable", s.categoryH.Deletable)

	// Recipes
	mux.HandleFunc("GET /api/recipes", s.recipeH.List)
	mux.HandleFunc("POST /api/recipes", s.recipeH.Create)
	mux.HandleFunc("POST /api/recipes/reorder", s.recipeH.Reorder)
	mux.HandleFunc("GET /api/recipes/{id}", s.recipeH.Get)
	mux.HandleFunc("PATCH /api/recipes/{id}", s.recipeH.Update)
	mux.HandleFunc("DELETE /api/recipes/{id}", s.recipeH.Delete)

	// Meal plans
	mux.HandleFunc("GET /api/meal-plans", s.mealPlanH.List)
	mux.HandleFunc("GET /api/meal-plans/{date}", s.mealPlanH.Get)
	mux.HandleFunc("PUT /api/meal-plans/{date}", s.mealPlanH.Put)
	mux.HandleFunc("DELETE /api/meal-plans/{date}", s.mealPlanH.Delete)

	// Views
	mux.HandleFunc("GET /api/views/shopping", s.viewH.Shopping)
	mux.HandleFunc("GET /api/views/search", s.viewH.Search)
	mux.HandleFunc("GET /api/views/categories", s.viewH.Categories)
	mux.HandleFunc("GET /api/views/category-items", s.viewH.CategoryItems)
	mux.HandleFunc("GET /api/views/recipes", s.viewH.Recipes)
	mux.HandleFunc("GET /api/views/week", s.viewH.Week)

	// Preferences
	mux.HandleFunc("GET /api/preferences/show-checked", s.viewH.GetShowChecked)
	mux.HandleFunc("PUT /api/preferences/show-checked", s.viewH.SetShowChecked)

	// Backup
	mux.HandleFunc("GET /api/backup", s.backupH.Status)
	mux.HandleFunc("POST /api/backup/export", s.backupH.Export)
	mux.HandleFunc("POST /api/backup/import", s.backupH.Import)

	httpLogger := s.logger.With("component", "http")
	return middleware.RequestLogger(httpLogger)(middleware.Recover(httpLogger)(mux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"clients":  s.hub.ClientCount(),
		"clearing": s.workflow.Clearing(),
	})
}
