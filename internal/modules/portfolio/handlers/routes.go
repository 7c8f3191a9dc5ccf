package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", h.HandleListPortfolios)
		r.Post("/", h.HandleCreatePortfolio)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/exposures", h.HandleGetExposures)
			r.Post("/exposures", h.HandleUpsertExposure)
			r.Delete("/exposures/{code}", h.HandleDeleteExposure)

			r.Get("/risk", h.HandleGetRisk)
			r.Post("/scenario", h.HandleScenario)
		})
	})
}
