package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskcal/internal/api"
	apiMiddleware "github.com/phrazzld/taskcal/internal/api/middleware"
	"github.com/phrazzld/taskcal/internal/feedcache"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(middleware.Recoverer)

	feedHandler := api.NewFeedHandler(app.feedService, app.location, app.logger)

	var stats func() feedcache.Stats
	if app.feedService != nil {
		stats = app.feedService.CacheStats
	}
	var pinger api.Pinger
	if app.db != nil {
		pinger = app.db
	}
	healthHandler := api.NewHealthHandler(pinger, stats)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.RateLimit(app.limiter))
		r.Get("/feed", feedHandler.GetFeed)
		r.Get("/feed.ics", feedHandler.GetCalendar)
	})

	r.Get("/health", healthHandler.Health)

	return r
}
