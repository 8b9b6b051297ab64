// Package handlers provides HTTP handlers for geometry sampling.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kimkyngt/decay-dynamics/internal/modules/geometry"
	"github.com/kimkyngt/decay-dynamics/pkg/sphere"
	"github.com/rs/zerolog"
)

// Handler handles geometry HTTP requests
type Handler struct {
	service *geometry.Service
	log     zerolog.Logger
}

// NewHandler creates a new geometry handler
func NewHandler(service *geometry.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "geometry").Logger(),
	}
}

// SampleRequest represents a request to sample sphere points
type SampleRequest struct {
	Method      string  `json:"method"`
	Count       int     `json:"count"`
	Radius      float64 `json:"radius,omitempty"`
	Seed        *uint64 `json:"seed,omitempty"`
	NA          float64 `json:"na,omitempty"`
	ThetaTarget float64 `json:"theta_target,omitempty"`
	PhiTarget   float64 `json:"phi_target,omitempty"`
}

// HandleSample handles POST /api/geometry/sample
func (h *Handler) HandleSample(w http.ResponseWriter, r *http.Request) {
	var req SampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Sample(geometry.SampleRequest{
		Method:      req.Method,
		Count:       req.Count,
		Radius:      req.Radius,
		Seed:        req.Seed,
		NA:          req.NA,
		ThetaTarget: req.ThetaTarget,
		PhiTarget:   req.PhiTarget,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleToCartesian handles GET /api/geometry/to-cartesian?theta=...&phi=...&r=...
func (h *Handler) HandleToCartesian(w http.ResponseWriter, r *http.Request) {
	theta, err := strconv.ParseFloat(r.URL.Query().Get("theta"), 64)
	if err != nil {
		http.Error(w, "Invalid theta parameter", http.StatusBadRequest)
		return
	}
	phi, err := strconv.ParseFloat(r.URL.Query().Get("phi"), 64)
	if err != nil {
		http.Error(w, "Invalid phi parameter", http.StatusBadRequest)
		return
	}
	radius := 1.0
	if raw := r.URL.Query().Get("r"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "Invalid r parameter", http.StatusBadRequest)
			return
		}
	}

	point := h.service.PolarToCartesian(theta, phi, radius)

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"theta": theta,
			"phi":   phi,
			"r":     radius,
			"point": point,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleToPolar handles GET /api/geometry/to-polar?x=...&y=...&z=...
func (h *Handler) HandleToPolar(w http.ResponseWriter, r *http.Request) {
	parse := func(name string) (float64, bool) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return 0, true
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "Invalid "+name+" parameter", http.StatusBadRequest)
			return 0, false
		}
		return v, true
	}

	x, ok := parse("x")
	if !ok {
		return
	}
	y, ok := parse("y")
	if !ok {
		return
	}
	z, ok := parse("z")
	if !ok {
		return
	}

	theta, phi, radius := h.service.CartesianToPolar(geometry.Point{X: x, Y: y, Z: z})

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"x":     x,
			"y":     y,
			"z":     z,
			"theta": theta,
			"phi":   phi,
			"r":     radius,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeError maps sampling validation errors to 400 and everything else to 500
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, geometry.ErrInvalidMethod),
		errors.Is(err, geometry.ErrInvalidCount),
		errors.Is(err, sphere.ErrInvalidAperture):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Sampling failed")
	}
	http.Error(w, err.Error(), status)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
