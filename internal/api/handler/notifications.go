package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/matchpulse/matchpulse-api/internal/api/respond"
	"github.com/matchpulse/matchpulse-api/internal/match"
)

// ScheduleMatch (re)computes the match window and inserts the pending
// notification set for every registered device. Safe to call repeatedly.
// @Summary Schedule notifications for a match
// @Tags notifications
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]any
// @Router /api/notifications/schedule/{id} [post]
func (h *Handler) ScheduleMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid match id")
		return
	}
	n, err := h.sched.ScheduleForMatch(r.Context(), id)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "SCHEDULE_ERROR", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{"matchId": id, "scheduled": n})
}

// CancelMatch marks the match's pending notifications canceled.
// @Summary Cancel pending notifications for a match
// @Tags notifications
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]any
// @Router /api/notifications/cancel/{id} [post]
func (h *Handler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid match id")
		return
	}
	n, err := h.sched.CancelMatch(r.Context(), id)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "SCHEDULE_ERROR", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{"matchId": id, "canceled": n})
}

// RescheduleMatch cancels pending rows then schedules a fresh set against
// the current window.
// @Summary Reschedule notifications for a match
// @Tags notifications
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]any
// @Router /api/notifications/reschedule/{id} [post]
func (h *Handler) RescheduleMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid match id")
		return
	}
	n, err := h.sched.RescheduleMatch(r.Context(), id)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "SCHEDULE_ERROR", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{"matchId": id, "scheduled": n})
}

// ScheduleWindowAhead schedules every match starting within the next N
// hours (default 48).
// @Summary Schedule notifications for upcoming matches
// @Tags notifications
// @Produce json
// @Param hours query int false "Look-ahead window in hours" default(48)
// @Success 200 {object} map[string]any
// @Router /api/notifications/schedule_window [post]
func (h *Handler) ScheduleWindowAhead(w http.ResponseWriter, r *http.Request) {
	hours := 48
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "hours must be a positive integer")
			return
		}
		hours = n
	}
	n, err := h.sched.ScheduleWindow(r.Context(), time.Now(), hours)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "SCHEDULE_ERROR", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{"hours": hours, "scheduled": n})
}

// DispatchNow runs one dispatch pass synchronously, outside the worker's
// tick cadence.
// @Summary Run one dispatch pass now
// @Tags notifications
// @Produce json
// @Success 200 {object} notifications.Summary
// @Router /api/notifications/dispatch_now [post]
func (h *Handler) DispatchNow(w http.ResponseWriter, r *http.Request) {
	sum := h.engine.DispatchOnce(r.Context())
	respond.WriteJSONObject(w, http.StatusOK, sum)
}

// QueueCount returns the pending queue depth, optionally for one match.
// @Summary Pending notification count
// @Tags notifications
// @Produce json
// @Param matchId query int false "Restrict to one match"
// @Success 200 {object} map[string]any
// @Router /api/notifications/queue_count [get]
func (h *Handler) QueueCount(w http.ResponseWriter, r *http.Request) {
	var matchID int64
	if v := r.URL.Query().Get("matchId"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid matchId")
			return
		}
		matchID = n
	}
	count, err := h.nstore.PendingCount(r.Context(), matchID)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to count pending notifications")
		return
	}
	out := map[string]any{"pending": count}
	if matchID != 0 {
		out["matchId"] = matchID
	}
	respond.WriteJSONObject(w, http.StatusOK, out)
}

// NotificationStats returns queue depth, 24h outcome counters, and the
// last dispatch tick.
// @Summary Notification pipeline stats
// @Tags notifications
// @Produce json
// @Success 200 {object} notifications.Stats
// @Router /api/notifications/stats [get]
func (h *Handler) NotificationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.nstore.GetStats(r.Context(), time.Now())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load stats")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, stats)
}

// PendingPreview lists the next due pending notifications.
// @Summary Preview due-soon pending notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Max rows" default(50)
// @Success 200 {array} notifications.PendingPreviewRow
// @Router /api/notifications/pending [get]
func (h *Handler) PendingPreview(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 500)
	rows, err := h.nstore.PendingPreview(r.Context(), limit)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load pending notifications")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, rows)
}

// DispatchLogs returns recent dispatch tick logs, newest first. With
// ?format=csv the response is a CSV export instead of JSON.
// @Summary Recent dispatch logs
// @Tags notifications
// @Produce json
// @Param limit query int false "Max rows" default(100)
// @Param format query string false "json or csv"
// @Success 200 {array} notifications.DispatchLog
// @Router /api/notifications/logs [get]
func (h *Handler) DispatchLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 100, 1000)
	logs, err := h.nstore.RecentLogs(r.Context(), limit)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load dispatch logs")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="dispatch_logs.csv"`)
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"ts", "sent", "skipped", "errors", "duration_ms", "last_error"})
		for _, l := range logs {
			_ = cw.Write([]string{
				l.Ts.UTC().Format(time.RFC3339),
				strconv.Itoa(l.Sent),
				strconv.Itoa(l.Skipped),
				strconv.Itoa(l.Errors),
				strconv.FormatInt(l.DurationMs, 10),
				l.LastError,
			})
		}
		cw.Flush()
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, logs)
}

// SimulateFinishNow forces the match final to the current instant and
// reschedules, so the next dispatch tick delivers immediately. Testing aid
// for staging environments.
// @Summary Force a match to finish now
// @Tags notifications
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]any
// @Router /api/notifications/simulate_finish/{id} [post]
func (h *Handler) SimulateFinishNow(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMatch(w, r)
	if !ok {
		return
	}
	now := time.Now().UTC()
	if err := match.SetFinalAt(r.Context(), h.pool, m.ID, now); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to update match")
		return
	}
	n, err := h.sched.RescheduleMatch(r.Context(), m.ID)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "SCHEDULE_ERROR", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"matchId":   m.ID,
		"finalAt":   now,
		"scheduled": n,
	})
}

// queryLimit parses ?limit= with a default and a cap.
func queryLimit(r *http.Request, def, max int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
