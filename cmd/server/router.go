package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/mediamatch-api/internal/api"
	apiMiddleware "github.com/phrazzld/mediamatch-api/internal/api/middleware"
	"github.com/phrazzld/mediamatch-api/internal/retrieval"
)

const serviceName = "mediamatch-api"

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	defaults := api.SearchDefaults{
		MatchCount:     app.config.Search.DefaultMatchCount,
		MatchThreshold: app.config.Search.DefaultMatchThreshold,
	}

	searchHandler := api.NewSearchHandler(app.searchService, defaults, app.logger)
	healthHandler := api.NewHealthHandler(app.taskStore, app.taskTotals, app.storage, api.ServiceInfo{
		Name:          serviceName,
		Version:       version,
		RetrievalMode: string(app.reconciler.Mode()),
		Defaults:      defaults,
	}, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.credentials)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Get("/health", healthHandler.Health)
		r.Get("/info", healthHandler.Info)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/search", searchHandler.Submit)
			r.Get("/status/{"+api.TaskIDParam+"}", searchHandler.GetStatus)

			if app.reconciler.Mode() == retrieval.ModeDownload {
				downloadHandler := api.NewDownloadHandler(
					app.searchService,
					app.reconciler,
					retrieval.DefaultDownloadURLPrefix,
					app.logger,
				)
				r.Get("/downloads/{"+api.TaskIDParam+"}", downloadHandler.List)
				r.Get("/download/{"+api.TaskIDParam+"}/{"+api.FilenameParam+"}", downloadHandler.Serve)
			}
		})
	})

	return r
}
