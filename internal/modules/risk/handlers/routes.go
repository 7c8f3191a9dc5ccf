package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers airline universe and risk score routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/airlines", func(r chi.Router) {
		r.Get("/", h.HandleListAirlines)
		r.Get("/{code}", h.HandleGetAirline)
		r.Get("/{code}/risk", h.HandleGetRisk)
	})
}
