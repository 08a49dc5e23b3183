package api

import "github.com/go-chi/chi/v5"

func RegisterRoutes(mux chi.Router, h *Handlers) {
	mux.Get("/healthz", h.Health)
	mux.Get("/version", h.Version)

	mux.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", h.ListSessions)
		r.Get("/{id}/messages", h.GetMessages)
		r.Post("/{id}/messages", h.PostMessage)
		r.Post("/{id}/cancel", h.Cancel)
		r.Delete("/{id}", h.DeleteSession)
	})
}
