package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tastebase/recipe-api/internal/api"
	apiMiddleware "github.com/tastebase/recipe-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	recipeHandler := api.NewRecipeHandler(app.queue, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/extract", recipeHandler.ExtractFromURL)
		r.Post("/extract/text", recipeHandler.ExtractFromText)
		r.Get("/queue", recipeHandler.ListQueue)
		r.Get("/jobs/{id}", recipeHandler.GetJob)
	})

	r.Get("/api-docs", api.ServeOpenAPI)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
