package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all operator routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/operators", func(r chi.Router) {
		r.Post("/lowering", h.HandleLowering)
		r.Post("/two-atom", h.HandleTwoAtomLowering)
		r.Post("/coherence", h.HandleCoherence)
		r.Get("/spin-state", h.HandleSpinState)
		r.Get("/spherical-basis", h.HandleSphericalBasis)
	})
}
