package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/matchpulse/matchpulse-api/internal/auth"
	"github.com/matchpulse/matchpulse-api/internal/api/respond"
	"github.com/matchpulse/matchpulse-api/internal/config"
	"github.com/matchpulse/matchpulse-api/internal/match"
	"github.com/matchpulse/matchpulse-api/internal/user"
	"github.com/matchpulse/matchpulse-api/internal/vote"
)

// assertVotingOpen loads nothing itself — it evaluates the gate against the
// match the caller just loaded, so admin window overrides apply to in-flight
// requests. Writes the 403 and returns false when the window is closed.
func (h *Handler) assertVotingOpen(w http.ResponseWriter, m *match.Match) bool {
	err := match.AssertOpen(m, time.Now(), h.cfg.VotingWindowHours)
	if err == nil {
		return true
	}
	if we, ok := match.AsWindowError(err); ok {
		respond.WriteWindowError(w, we)
	} else {
		respond.WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	}
	return false
}

// RateMatch records a like/dislike for a match.
// @Summary Rate match
// @Tags votes
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} vote.RatingSummary
// @Failure 403 {object} respond.ErrorResponse
// @Router /api/matches/{id}/rate [post]
func (h *Handler) RateMatch(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	if !h.assertVotingOpen(w, m) {
		return
	}

	var body struct {
		Like bool `json:"like"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	summary, err := vote.Rate(r.Context(), h.pool, m.ID, body.Like)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to record rating")
		return
	}

	if uid := auth.UserID(r.Context()); uid != "" {
		_ = user.AddScore(r.Context(), h.pool, uid, user.DeltaRate)
	}
	respond.WriteJSONObject(w, http.StatusOK, summary)
}

// GetRating returns a match's like/dislike summary.
// @Summary Get match rating
// @Tags votes
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} vote.RatingSummary
// @Router /api/matches/{id}/rating [get]
func (h *Handler) GetRating(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	summary, err := vote.Rating(r.Context(), h.pool, m.ID)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load rating")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, summary)
}

// VoteMatch casts a category vote for a player. When the request carries
// the device push token, the device vote is recorded so the dispatcher can
// suppress that device's reminder.
// @Summary Vote for standout player
// @Tags votes
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]map[string]float64
// @Failure 400 {object} respond.ErrorResponse
// @Failure 403 {object} respond.ErrorResponse
// @Router /api/matches/{id}/vote [post]
func (h *Handler) VoteMatch(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	if !h.assertVotingOpen(w, m) {
		return
	}

	var body struct {
		Category string `json:"category"`
		Player   string `json:"player"`
		Token    string `json:"token,omitempty"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Player == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "player is required")
		return
	}

	allowed := config.CategoriesForSport(m.Sport)
	if !slices.Contains(allowed, body.Category) {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Category '"+body.Category+"' not allowed for this sport")
		return
	}

	if err := vote.CastVote(r.Context(), h.pool, m.ID, body.Category, body.Player); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to record vote")
		return
	}
	if body.Token != "" {
		_ = vote.RecordDeviceVote(r.Context(), h.pool, m.ID, body.Token)
	}
	if uid := auth.UserID(r.Context()); uid != "" {
		_ = user.AddScore(r.Context(), h.pool, uid, user.DeltaVote)
	}

	out, err := vote.Percentages(r.Context(), h.pool, m.ID, allowed)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load votes")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, out)
}

// GetVotes returns per-category vote percentages for a match.
// @Summary Get vote percentages
// @Tags votes
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]map[string]float64
// @Router /api/matches/{id}/votes [get]
func (h *Handler) GetVotes(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	out, err := vote.Percentages(r.Context(), h.pool, m.ID, config.CategoriesForSport(m.Sport))
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load votes")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, out)
}

// SubmitPlayerRating records star ratings for a player and returns the
// per-axis averages.
// @Summary Submit player star ratings
// @Tags votes
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} vote.PlayerRatingAverages
// @Failure 400 {object} respond.ErrorResponse
// @Failure 403 {object} respond.ErrorResponse
// @Router /api/matches/{id}/player_ratings [post]
func (h *Handler) SubmitPlayerRating(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	if !h.assertVotingOpen(w, m) {
		return
	}

	var body struct {
		Token string `json:"token"`
		vote.PlayerRating
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Token == "" || body.Player == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "token and player are required")
		return
	}
	for _, stars := range []int{body.Attack, body.Defense, body.Passing, body.Dribbling} {
		if stars < 1 || stars > 10 {
			respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "ratings must be between 1 and 10")
			return
		}
	}

	avg, err := vote.SubmitPlayerRating(r.Context(), h.pool, m.ID, body.Token, &body.PlayerRating)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to record player rating")
		return
	}
	_ = vote.RecordDeviceVote(r.Context(), h.pool, m.ID, body.Token)
	if uid := auth.UserID(r.Context()); uid != "" {
		_ = user.AddScore(r.Context(), h.pool, uid, user.DeltaPlayerRating)
	}
	respond.WriteJSONObject(w, http.StatusOK, avg)
}

// GetPlayerRatings returns the current player rating averages.
// @Summary Get player rating averages
// @Tags votes
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} vote.PlayerRatingAverages
// @Router /api/matches/{id}/player_ratings [get]
func (h *Handler) GetPlayerRatings(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	avg, err := vote.PlayerRatingAveragesFor(r.Context(), h.pool, m.ID)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load player ratings")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, avg)
}
