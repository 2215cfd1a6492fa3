package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/matchpulse/matchpulse-api/internal/api/respond"
	"github.com/matchpulse/matchpulse-api/internal/cache"
	"github.com/matchpulse/matchpulse-api/internal/match"
)

// CreateMatch adds a manually entered match and schedules its notifications.
// @Summary Create match
// @Tags matches
// @Accept json
// @Produce json
// @Success 201 {object} match.Match
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/matches [post]
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var m match.Match
	if !decodeBody(w, r, &m) {
		return
	}
	if m.Sport == "" || m.HomeTeam.Name == "" || m.AwayTeam.Name == "" || m.StartTime.IsZero() {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"sport, homeTeam, awayTeam, and startTime are required")
		return
	}

	if m.SourceID == "" {
		m.Source = "manual"
		m.SourceID = "manual_" + uuid.NewString()
	}
	if m.Status == "" {
		m.Status = match.StatusScheduled
	}
	if m.Tournament != "" {
		compID, err := match.UpsertCompetition(r.Context(), h.pool, m.Sport, m.Tournament, "")
		if err == nil {
			m.CompetitionID = &compID
		}
	}

	id, err := match.Create(r.Context(), h.pool, &m)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to create match")
		return
	}
	m.ID = id

	if _, err := h.sched.ScheduleForMatch(r.Context(), id); err != nil {
		// The match exists; scheduling can be retried via the ops endpoint.
		respond.WriteJSONObject(w, http.StatusCreated, &m)
		return
	}

	created, err := match.ByID(r.Context(), h.pool, id)
	if err != nil || created == nil {
		respond.WriteJSONObject(w, http.StatusCreated, &m)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, created)
}

// ListMatches returns matches filtered by sport/status.
// @Summary List matches
// @Tags matches
// @Produce json
// @Param sport query string false "Sport filter"
// @Param status query string false "Status filter"
// @Success 200 {array} match.Match
// @Router /api/matches [get]
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	items, err := match.List(r.Context(), h.pool, match.Filter{
		Sport:  r.URL.Query().Get("sport"),
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to list matches")
		return
	}
	if items == nil {
		items = []*match.Match{}
	}
	respond.WriteJSONObject(w, http.StatusOK, items)
}

// groupedMatch is a match plus the channel list for the caller's country.
type groupedMatch struct {
	*match.Match
	ChannelsForCountry []string `json:"channelsForCountry"`
}

// GroupedMatches buckets the coming week's matches into today/tomorrow/week.
// @Summary Grouped upcoming matches
// @Tags matches
// @Produce json
// @Param country query string false "Country code for channel selection"
// @Success 200 {object} map[string][]groupedMatch
// @Router /api/matches/grouped [get]
func (h *Handler) GroupedMatches(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")

	cacheKey := "matches:grouped:" + country
	if data, ok := h.cache.Get(r.Context(), cacheKey); ok {
		respond.WriteRaw(w, data, true)
		return
	}

	now := time.Now().UTC()
	sod := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	todayEnd := sod.Add(24 * time.Hour)
	tomorrowEnd := sod.Add(48 * time.Hour)
	weekEnd := sod.Add(7 * 24 * time.Hour)

	items, err := match.List(r.Context(), h.pool, match.Filter{From: sod, To: weekEnd})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to list matches")
		return
	}

	grouped := map[string][]groupedMatch{"today": {}, "tomorrow": {}, "week": {}}
	for _, m := range items {
		var channels []string
		if country != "" {
			channels = m.Channels[country]
		}
		if channels == nil {
			channels = []string{}
		}

		bucket := "week"
		switch {
		case !m.StartTime.After(todayEnd):
			bucket = "today"
		case !m.StartTime.After(tomorrowEnd):
			bucket = "tomorrow"
		}
		grouped[bucket] = append(grouped[bucket], groupedMatch{Match: m, ChannelsForCountry: channels})
	}

	data, err := json.Marshal(grouped)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "Failed to encode response")
		return
	}
	h.cache.Set(r.Context(), cacheKey, data, cache.TTLGrouped)
	respond.WriteRaw(w, data, false)
}

// GetMatch returns one match. The optional tz query is echoed back as the
// viewer timezone label; all stored instants stay UTC.
// @Summary Get match
// @Tags matches
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} match.Match
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/matches/{id} [get]
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}

	if tz := r.URL.Query().Get("tz"); tz != "" {
		respond.WriteJSONObject(w, http.StatusOK, struct {
			*match.Match
			ViewerTimezone string `json:"viewerTimezone"`
		}{m, tz})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, m)
}

// SetVotingWindow applies an admin voting-window override.
// @Summary Override voting window
// @Tags matches
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} match.Match
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/matches/{id}/voting_window [put]
func (h *Handler) SetVotingWindow(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}

	var body struct {
		OpenAt  *time.Time `json:"openAt"`
		CloseAt *time.Time `json:"closeAt"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.OpenAt == nil && body.CloseAt == nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"At least one of openAt, closeAt must be provided")
		return
	}

	openAt, closeAt := m.VotingOpenAt, m.VotingCloseAt
	if body.OpenAt != nil {
		t := body.OpenAt.UTC()
		openAt = &t
	}
	if body.CloseAt != nil {
		t := body.CloseAt.UTC()
		closeAt = &t
	}
	if openAt != nil && closeAt != nil && openAt.After(*closeAt) {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"votingOpenAt must not be after votingCloseAt")
		return
	}

	if err := match.SetVotingWindow(r.Context(), h.pool, m.ID, body.OpenAt, body.CloseAt); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to update voting window")
		return
	}

	updated, err := match.ByID(r.Context(), h.pool, m.ID)
	if err != nil || updated == nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to reload match")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, updated)
}

// GetLineups returns a match's lineups.
// @Summary Get lineups
// @Tags matches
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} match.Lineups
// @Router /api/matches/{id}/lineups [get]
func (h *Handler) GetLineups(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	if m.Lineups == nil {
		respond.WriteJSONObject(w, http.StatusOK, &match.Lineups{})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, m.Lineups)
}

// PutLineups replaces a match's lineups.
// @Summary Set lineups
// @Tags matches
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} match.Lineups
// @Router /api/matches/{id}/lineups [put]
func (h *Handler) PutLineups(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	var l match.Lineups
	if !decodeBody(w, r, &l) {
		return
	}
	if err := match.SetLineups(r.Context(), h.pool, m.ID, &l); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to save lineups")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, &l)
}

// GetInjuries returns a match's injury report.
// @Summary Get injuries
// @Tags matches
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {array} match.Injury
// @Router /api/matches/{id}/injuries [get]
func (h *Handler) GetInjuries(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	if m.Injuries == nil {
		respond.WriteJSONObject(w, http.StatusOK, []match.Injury{})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, m.Injuries)
}

// PutInjuries replaces a match's injury report.
// @Summary Set injuries
// @Tags matches
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {array} match.Injury
// @Router /api/matches/{id}/injuries [put]
func (h *Handler) PutInjuries(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	var inj []match.Injury
	if !decodeBody(w, r, &inj) {
		return
	}
	for _, i := range inj {
		if i.Team != "home" && i.Team != "away" {
			respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
				fmt.Sprintf("invalid team %q: must be home or away", i.Team))
			return
		}
	}
	if err := match.SetInjuries(r.Context(), h.pool, m.ID, inj); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to save injuries")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, inj)
}

// loadMatch resolves {id} and loads the match, writing the appropriate
// error response when missing.
func (h *Handler) loadMatch(w http.ResponseWriter, r *http.Request) (*match.Match, bool) {
	id, ok := matchID(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid match id")
		return nil, false
	}
	m, err := match.ByID(r.Context(), h.pool, id)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load match")
		return nil, false
	}
	if m == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND",
			"Match "+strconv.FormatInt(id, 10)+" not found")
		return nil, false
	}
	return m, true
}
