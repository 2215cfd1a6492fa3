package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matchpulse/matchpulse-api/internal/api/respond"
	"github.com/matchpulse/matchpulse-api/internal/cache"
	"github.com/matchpulse/matchpulse-api/internal/match"
)

// ListCompetitions returns competitions with their match counts,
// optionally filtered by sport.
// @Summary List competitions
// @Tags competitions
// @Produce json
// @Param sport query string false "football, basketball or ufc"
// @Success 200 {array} match.Competition
// @Router /api/competitions [get]
func (h *Handler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	sport := r.URL.Query().Get("sport")
	key := "competitions:" + sport
	if data, ok := h.cache.Get(r.Context(), key); ok {
		respond.WriteRaw(w, data, true)
		return
	}

	comps, err := match.ListCompetitions(r.Context(), h.pool, sport)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load competitions")
		return
	}
	data, err := json.Marshal(comps)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "Failed to encode competitions")
		return
	}
	h.cache.Set(r.Context(), key, data, cache.TTLCompetitions)
	respond.WriteRaw(w, data, false)
}

// GetCompetition returns one competition.
// @Summary Get competition
// @Tags competitions
// @Produce json
// @Param id path int true "Competition ID"
// @Success 200 {object} match.Competition
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/competitions/{id} [get]
func (h *Handler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid competition id")
		return
	}
	c, err := match.CompetitionByID(r.Context(), h.pool, id)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load competition")
		return
	}
	if c == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Competition not found")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, c)
}

// CompetitionMatches lists a competition's matches.
// @Summary List competition matches
// @Tags competitions
// @Produce json
// @Param id path int true "Competition ID"
// @Success 200 {array} match.Match
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/competitions/{id}/matches [get]
func (h *Handler) CompetitionMatches(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid competition id")
		return
	}
	c, err := match.CompetitionByID(r.Context(), h.pool, id)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load competition")
		return
	}
	if c == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Competition not found")
		return
	}
	matches, err := match.List(r.Context(), h.pool, match.Filter{CompetitionID: id})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load matches")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, matches)
}
