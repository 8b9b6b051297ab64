package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all geometry routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/geometry", func(r chi.Router) {
		r.Post("/sample", h.HandleSample)
		r.Get("/to-cartesian", h.HandleToCartesian)
		r.Get("/to-polar", h.HandleToPolar)
	})
}
