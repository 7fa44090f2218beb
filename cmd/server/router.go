package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spoilsapp/spoils-api/internal/api"
	apimiddleware "github.com/spoilsapp/spoils-api/internal/api/middleware"
)

// setupRouter configures all routes and middleware for the HTTP surface.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.NewTraceMiddleware(app.logger))

	jobsHandler := api.NewJobsHandler(app.queue, app.taskStore)
	productHandler := api.NewProductHandler(app.productStore, app.emitter)

	r.Route("/api", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/fetch-product", jobsHandler.FetchProduct)
			r.Post("/analyze-ingredients", jobsHandler.AnalyzeIngredients)
			r.Get("/status", jobsHandler.JobStatus)
			r.Get("/{id}", jobsHandler.GetJob)
			r.Get("/", jobsHandler.ListJobs)
		})

		r.Get("/products/{barcode}", productHandler.GetProduct)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
