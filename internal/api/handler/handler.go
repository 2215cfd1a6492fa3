// Package handler provides HTTP handlers for all API endpoints.
// Handlers are thin: decode, consult the stores and the scheduling core,
// encode. No service layer beyond the notifications package.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchpulse/matchpulse-api/internal/api/respond"
	"github.com/matchpulse/matchpulse-api/internal/auth"
	"github.com/matchpulse/matchpulse-api/internal/cache"
	"github.com/matchpulse/matchpulse-api/internal/config"
	"github.com/matchpulse/matchpulse-api/internal/importer"
	"github.com/matchpulse/matchpulse-api/internal/notifications"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool   *pgxpool.Pool
	cache  cache.Cache
	cfg    *config.Config
	tokens *auth.Tokens
	sched  *notifications.Scheduler
	engine *notifications.Engine
	nstore *notifications.PgStore
	imp    *importer.Client
}

// New creates a Handler with shared dependencies.
func New(pool *pgxpool.Pool, c cache.Cache, cfg *config.Config, tokens *auth.Tokens,
	sched *notifications.Scheduler, engine *notifications.Engine,
	nstore *notifications.PgStore, imp *importer.Client) *Handler {
	return &Handler{
		pool:   pool,
		cache:  c,
		cfg:    cfg,
		tokens: tokens,
		sched:  sched,
		engine: engine,
		nstore: nstore,
		imp:    imp,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Matchpulse API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateStatusCheck records a client ping.
// @Summary Record status check
// @Tags meta
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/status [post]
func (h *Handler) CreateStatusCheck(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientName string `json:"client_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ClientName == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "client_name is required")
		return
	}

	id := uuid.NewString()
	ts := time.Now().UTC()
	_, err := h.pool.Exec(r.Context(), `
		INSERT INTO status_checks (id, client_name, ts) VALUES ($1, $2, $3)`,
		id, body.ClientName, ts)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to record status check")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"id":          id,
		"client_name": body.ClientName,
		"timestamp":   ts.Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Shared helpers
// --------------------------------------------------------------------------

// matchID parses the {id} URL parameter.
func matchID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return false
	}
	return true
}
