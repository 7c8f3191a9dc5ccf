// Package handlers provides HTTP handlers for portfolio management and
// portfolio risk.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/domain"
	"github.com/skylease/watchtower/internal/modules/portfolio"
	"github.com/skylease/watchtower/internal/modules/risk"
)

// Handler handles portfolio HTTP requests.
type Handler struct {
	exposureRepo *portfolio.ExposureRepository
	calculator   *portfolio.Calculator
	riskService  *risk.Service
	log          zerolog.Logger
}

// NewHandler creates a new portfolio handler.
func NewHandler(
	exposureRepo *portfolio.ExposureRepository,
	calculator *portfolio.Calculator,
	riskService *risk.Service,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		exposureRepo: exposureRepo,
		calculator:   calculator,
		riskService:  riskService,
		log:          log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleCreatePortfolio creates a new named portfolio.
func (h *Handler) HandleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "portfolio name is required")
		return
	}

	p, err := h.exposureRepo.CreatePortfolio(req.Name)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeData(w, http.StatusCreated, p)
}

// HandleListPortfolios returns all portfolios.
func (h *Handler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.exposureRepo.ListPortfolios()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeData(w, http.StatusOK, portfolios)
}

// HandleGetExposures returns a portfolio's exposures in insertion order.
func (h *Handler) HandleGetExposures(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	if ok := h.requirePortfolio(w, portfolioID); !ok {
		return
	}

	exposures, err := h.exposureRepo.GetExposures(portfolioID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeData(w, http.StatusOK, exposures)
}

// HandleUpsertExposure adds or replaces one airline's exposure in a portfolio.
func (h *Handler) HandleUpsertExposure(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	if ok := h.requirePortfolio(w, portfolioID); !ok {
		return
	}

	var exp domain.Exposure
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	exp.PortfolioID = portfolioID

	if exp.AirlineCode == "" {
		h.writeError(w, http.StatusBadRequest, "airline_code is required")
		return
	}

	if err := h.exposureRepo.UpsertExposure(exp); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeData(w, http.StatusOK, exp)
}

// HandleDeleteExposure removes one airline's exposure from a portfolio.
func (h *Handler) HandleDeleteExposure(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")
	airlineCode := chi.URLParam(r, "code")

	if err := h.exposureRepo.DeleteExposure(portfolioID, airlineCode); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleGetRisk returns the full per-currency portfolio risk aggregate.
func (h *Handler) HandleGetRisk(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	if ok := h.requirePortfolio(w, portfolioID); !ok {
		return
	}

	exposures, err := h.exposureRepo.GetExposures(portfolioID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lookup, err := h.riskService.ScoreLookup()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := h.calculator.Calculate(exposures, portfolio.ScoreLookup(lookup))
	h.writeData(w, http.StatusOK, result)
}

// scenarioRequest is the POST body for a scenario run.
type scenarioRequest struct {
	Currency string `json:"currency"`
	Override *struct {
		AirlineCode string  `json:"airline_code"`
		Amount      float64 `json:"amount"`
	} `json:"override,omitempty"`
}

// HandleScenario runs a hypothetical exposure override against one currency
// group. The stored portfolio is never modified.
func (h *Handler) HandleScenario(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	if ok := h.requirePortfolio(w, portfolioID); !ok {
		return
	}

	var req scenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Currency == "" {
		h.writeError(w, http.StatusBadRequest, "currency is required")
		return
	}

	exposures, err := h.exposureRepo.GetExposures(portfolioID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lookup, err := h.riskService.ScoreLookup()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var override *portfolio.Override
	if req.Override != nil {
		override = &portfolio.Override{
			AirlineCode: req.Override.AirlineCode,
			Amount:      req.Override.Amount,
		}
	}

	result := h.calculator.Scenario(exposures, req.Currency, override, portfolio.ScoreLookup(lookup))
	h.writeData(w, http.StatusOK, result)
}

// requirePortfolio writes a 404 and returns false when the portfolio does not exist.
func (h *Handler) requirePortfolio(w http.ResponseWriter, id string) bool {
	p, err := h.exposureRepo.GetPortfolio(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	if p == nil {
		h.writeError(w, http.StatusNotFound, "portfolio not found: "+id)
		return false
	}
	return true
}

// Helper methods

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
