package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matchpulse/matchpulse-api/internal/auth"
	"github.com/matchpulse/matchpulse-api/internal/api/respond"
	"github.com/matchpulse/matchpulse-api/internal/cache"
	"github.com/matchpulse/matchpulse-api/internal/user"
)

type authResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// Register creates an account and returns a signed token.
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} handler.authResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if body.Email == "" || !strings.Contains(body.Email, "@") {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "A valid email is required")
		return
	}
	if len(body.Password) < 8 {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Password must be at least 8 characters")
		return
	}

	u, err := user.Register(r.Context(), h.pool, body.Email, body.Name, body.Password)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			respond.WriteError(w, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists")
			return
		}
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to create account")
		return
	}

	token, err := h.tokens.Issue(u.ID, time.Now())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token")
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, authResponse{Token: token, User: u})
}

// Login verifies credentials and returns a signed token.
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} handler.authResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	u, err := user.Authenticate(r.Context(), h.pool, strings.ToLower(strings.TrimSpace(body.Email)), body.Password)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) {
			respond.WriteError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid email or password")
			return
		}
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Login failed")
		return
	}

	token, err := h.tokens.Issue(u.ID, time.Now())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, authResponse{Token: token, User: u})
}

// Me returns the authenticated user's profile.
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} user.User
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := user.ByID(r.Context(), h.pool, auth.UserID(r.Context()))
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load user")
		return
	}
	if u == nil {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer exists")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, u)
}

// Leaderboard returns the top users by score.
// @Summary Leaderboard
// @Tags auth
// @Produce json
// @Param limit query int false "Max rows" default(50)
// @Success 200 {array} user.User
// @Router /api/leaderboard [get]
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 200)
	key := "leaderboard:" + strconv.Itoa(limit)
	if data, ok := h.cache.Get(r.Context(), key); ok {
		respond.WriteRaw(w, data, true)
		return
	}

	users, err := user.Leaderboard(r.Context(), h.pool, limit)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load leaderboard")
		return
	}
	data, err := json.Marshal(users)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "Failed to encode leaderboard")
		return
	}
	h.cache.Set(r.Context(), key, data, cache.TTLLeaderboard)
	respond.WriteRaw(w, data, false)
}
