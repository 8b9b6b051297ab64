package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all coupling routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/coupling", func(r chi.Router) {
		r.Post("/matrices", h.HandleCompute)
		r.Post("/run", h.HandleRun)
		r.Get("/runs", h.HandleListRuns)
		r.Get("/runs/{id}", h.HandleGetRun)
		r.Delete("/runs/{id}", h.HandleDeleteRun)
	})
}
