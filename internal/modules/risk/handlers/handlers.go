// Package handlers provides HTTP handlers for the airline universe and
// per-airline risk scores.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/modules/airlines"
	"github.com/skylease/watchtower/internal/modules/risk"
	"github.com/skylease/watchtower/internal/modules/scoring"
)

// Handler handles airline and risk HTTP requests.
type Handler struct {
	airlineRepo *airlines.Repository
	riskService *risk.Service
	log         zerolog.Logger
}

// NewHandler creates a new risk handler.
func NewHandler(airlineRepo *airlines.Repository, riskService *risk.Service, log zerolog.Logger) *Handler {
	return &Handler{
		airlineRepo: airlineRepo,
		riskService: riskService,
		log:         log.With().Str("handler", "risk").Logger(),
	}
}

// HandleListAirlines returns the full airline universe.
func (h *Handler) HandleListAirlines(w http.ResponseWriter, r *http.Request) {
	list, err := h.airlineRepo.GetAll()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeData(w, http.StatusOK, list)
}

// HandleGetAirline returns one airline's universe record.
func (h *Handler) HandleGetAirline(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	airline, err := h.airlineRepo.GetByCode(code)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if airline == nil {
		h.writeError(w, http.StatusNotFound, "airline not found: "+code)
		return
	}

	h.writeData(w, http.StatusOK, airline)
}

// HandleGetRisk returns the airline's risk result. Served from the snapshot
// cache when fresh; pass ?refresh=true to force recomputation.
func (h *Handler) HandleGetRisk(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	refresh := r.URL.Query().Get("refresh") == "true"

	result, err := h.riskService.Score(code, refresh)
	if err != nil {
		var notFound *risk.ErrAirlineNotFound
		if errors.As(err, &notFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}

		var evalErr *scoring.EvaluatorFailure
		if errors.As(err, &evalErr) {
			h.log.Error().Err(err).Str("airline", code).Msg("Evaluator failure during scoring")
			h.writeError(w, http.StatusBadGateway, "risk evaluation failed: "+evalErr.Key)
			return
		}

		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeData(w, http.StatusOK, result)
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
