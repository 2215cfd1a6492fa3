package handler

import (
	"net/http"

	"github.com/matchpulse/matchpulse-api/internal/api/respond"
)

// upsertPushTokenSQL must reference the push_tokens columns exactly as
// EnsureSchema spells them (snake_case, remind_12h).
const upsertPushTokenSQL = `
	INSERT INTO push_tokens (token, platform, country, remind_12h, updated_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (token) DO UPDATE
	SET platform = EXCLUDED.platform,
	    country = EXCLUDED.country,
	    remind_12h = EXCLUDED.remind_12h,
	    updated_at = now()`

// RegisterPush upserts a device push token. Re-registering the same token
// refreshes its platform, country and reminder opt-in.
// @Summary Register push token
// @Tags push
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/push/register [post]
func (h *Handler) RegisterPush(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token     string `json:"token"`
		Platform  string `json:"platform"`
		Country   string `json:"country"`
		Remind12h *bool  `json:"remind12h"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Token == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "token is required")
		return
	}
	remind := true
	if body.Remind12h != nil {
		remind = *body.Remind12h
	}

	_, err := h.pool.Exec(r.Context(), upsertPushTokenSQL,
		body.Token, body.Platform, body.Country, remind)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to register token")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"ok":        true,
		"remind12h": remind,
	})
}
