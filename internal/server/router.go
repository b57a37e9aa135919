package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.basicAuth)

		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)
		r.Patch("/config/theme", s.handlePatchTheme)

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", s.handleAddGroup)
			r.Patch("/{groupID}", s.handleUpdateGroup)
			r.Delete("/{groupID}", s.handleRemoveGroup)

			r.Post("/{groupID}/sites", s.handleAddSite)
			r.Patch("/{groupID}/sites/{siteID}", s.handleUpdateSite)
			r.Delete("/{groupID}/sites/{siteID}", s.handleRemoveSite)
		})

		r.Route("/engines", func(r chi.Router) {
			r.Post("/", s.handleAddEngine)
			r.Delete("/{engineID}", s.handleRemoveEngine)
			r.Put("/current", s.handleSetCurrentEngine)
		})

		r.Route("/widgets", func(r chi.Router) {
			r.Put("/{widgetID}/visible", s.handleSetWidgetVisible)
			r.Patch("/{widgetID}/config", s.handleUpdateWidgetConfig)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/profile", s.handleGetSyncProfile)
			r.Put("/profile", s.handlePutSyncProfile)
			r.Post("/test", s.handleSyncTest)
			r.Post("/now", s.handleSyncNow)
			r.Get("/status", s.handleSyncStatus)
		})
	})

	return r
}
