package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/matchpulse/matchpulse-api/internal/api/respond"
	"github.com/matchpulse/matchpulse-api/internal/importer"
)

// ImportUpcoming pulls upcoming events from TheSportsDB for the next N
// days, upserts them, and schedules notifications for each imported match.
// @Summary Import upcoming matches from TheSportsDB
// @Tags imports
// @Produce json
// @Param days query int false "Days ahead to import" default(2)
// @Success 200 {object} importer.Result
// @Router /api/imports/thesportsdb [post]
func (h *Handler) ImportUpcoming(w http.ResponseWriter, r *http.Request) {
	days := h.cfg.SyncDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 14 {
			respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "days must be between 1 and 14")
			return
		}
		days = n
	}

	res, err := importer.Sync(r.Context(), h.pool, h.imp, h.sched, days, slog.Default())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "IMPORT_ERROR", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, res)
}
