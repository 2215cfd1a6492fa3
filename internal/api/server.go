package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/matchpulse/matchpulse-api/internal/api/handler"
	"github.com/matchpulse/matchpulse-api/internal/auth"
	"github.com/matchpulse/matchpulse-api/internal/cache"
	"github.com/matchpulse/matchpulse-api/internal/config"
	"github.com/matchpulse/matchpulse-api/internal/importer"
	"github.com/matchpulse/matchpulse-api/internal/notifications"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *pgxpool.Pool, appCache cache.Cache, cfg *config.Config,
	sched *notifications.Scheduler, engine *notifications.Engine,
	nstore *notifications.PgStore, imp *importer.Client) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "Link", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	tokens := auth.NewTokens(cfg.JWTSecret)
	h := handler.New(pool, appCache, cfg, tokens, sched, engine, nstore, imp)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.With(auth.RequireAuth(tokens)).Get("/auth/me", h.Me)

		r.Get("/leaderboard", h.Leaderboard)

		// Matches
		r.Post("/matches", h.CreateMatch)
		r.Get("/matches", h.ListMatches)
		r.Get("/matches/grouped", h.GroupedMatches)
		r.Route("/matches/{id}", func(r chi.Router) {
			r.Get("/", h.GetMatch)
			r.Put("/voting_window", h.SetVotingWindow)
			r.Get("/lineups", h.GetLineups)
			r.Put("/lineups", h.PutLineups)
			r.Get("/injuries", h.GetInjuries)
			r.Put("/injuries", h.PutInjuries)

			// Ratings and votes. Writes require an account; the device
			// token in the body is what drives reminder suppression.
			r.With(auth.RequireAuth(tokens)).Post("/rate", h.RateMatch)
			r.Get("/rating", h.GetRating)
			r.With(auth.RequireAuth(tokens)).Post("/vote", h.VoteMatch)
			r.Get("/votes", h.GetVotes)
			r.With(auth.RequireAuth(tokens)).Post("/player_ratings", h.SubmitPlayerRating)
			r.Get("/player_ratings", h.GetPlayerRatings)
		})

		// Competitions
		r.Get("/competitions", h.ListCompetitions)
		r.Get("/competitions/{id}", h.GetCompetition)
		r.Get("/competitions/{id}/matches", h.CompetitionMatches)

		// Push registration
		r.Post("/push/register", h.RegisterPush)

		// Notification operations
		r.Route("/notifications", func(r chi.Router) {
			r.Post("/schedule/{id}", h.ScheduleMatch)
			r.Post("/cancel/{id}", h.CancelMatch)
			r.Post("/reschedule/{id}", h.RescheduleMatch)
			r.Post("/schedule_window", h.ScheduleWindowAhead)
			r.Post("/dispatch_now", h.DispatchNow)
			r.Post("/simulate_finish/{id}", h.SimulateFinishNow)
			r.Get("/queue_count", h.QueueCount)
			r.Get("/stats", h.NotificationStats)
			r.Get("/pending", h.PendingPreview)
			r.Get("/logs", h.DispatchLogs)
		})

		// Provider import
		r.Post("/imports/thesportsdb", h.ImportUpcoming)

		// Status checks
		r.Post("/status", h.CreateStatusCheck)
	})

	return r
}
