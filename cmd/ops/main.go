// Command ops is the Matchpulse operations CLI.
//
// Usage:
//
//	matchpulse-ops import --days 2
//	matchpulse-ops schedule --match 42
//	matchpulse-ops schedule --hours 48
//	matchpulse-ops cancel --match 42
//	matchpulse-ops reschedule --match 42
//	matchpulse-ops dispatch
//	matchpulse-ops stats
//	matchpulse-ops logs --limit 50 --csv
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matchpulse/matchpulse-api/internal/config"
	"github.com/matchpulse/matchpulse-api/internal/db"
	"github.com/matchpulse/matchpulse-api/internal/importer"
	"github.com/matchpulse/matchpulse-api/internal/notifications"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "matchpulse-ops",
		Short: "Matchpulse operations CLI",
	}

	root.AddCommand(importCmd())
	root.AddCommand(scheduleCmd())
	root.AddCommand(cancelCmd())
	root.AddCommand(rescheduleCmd())
	root.AddCommand(dispatchCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(logsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// import command
// --------------------------------------------------------------------------

func importCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import upcoming matches from TheSportsDB and schedule notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				client := importer.NewClient(cfg.SportsDBKey, logger)
				sched := newScheduler(cfg, pool)
				start := time.Now()
				result, err := importer.Sync(ctx, pool.Pool, client, sched, days, logger)
				if err != nil {
					return err
				}
				logger.Info("Import finished",
					"duration", time.Since(start).Round(time.Second),
					"summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("import error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 2, "Days ahead to import")
	return cmd
}

// --------------------------------------------------------------------------
// schedule / cancel / reschedule commands
// --------------------------------------------------------------------------

func scheduleCmd() *cobra.Command {
	var matchID int64
	var hours int
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule notifications for one match or all matches starting soon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				sched := newScheduler(cfg, pool)
				if matchID != 0 {
					n, err := sched.ScheduleForMatch(ctx, matchID)
					if err != nil {
						return err
					}
					logger.Info("Match scheduled", "match_id", matchID, "scheduled", n)
					return nil
				}
				n, err := sched.ScheduleWindow(ctx, time.Now(), hours)
				if err != nil {
					return err
				}
				logger.Info("Window scheduled", "hours", hours, "scheduled", n)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&matchID, "match", 0, "Match ID; 0 = schedule the look-ahead window")
	cmd.Flags().IntVar(&hours, "hours", 48, "Look-ahead window in hours")
	return cmd
}

func cancelCmd() *cobra.Command {
	var matchID int64
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel pending notifications for a match",
		RunE: func(cmd *cobra.Command, args []string) error {
			if matchID == 0 {
				return fmt.Errorf("--match is required")
			}
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				n, err := newScheduler(cfg, pool).CancelMatch(ctx, matchID)
				if err != nil {
					return err
				}
				logger.Info("Match canceled", "match_id", matchID, "canceled", n)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&matchID, "match", 0, "Match ID")
	return cmd
}

func rescheduleCmd() *cobra.Command {
	var matchID int64
	cmd := &cobra.Command{
		Use:   "reschedule",
		Short: "Cancel and re-create pending notifications for a match",
		RunE: func(cmd *cobra.Command, args []string) error {
			if matchID == 0 {
				return fmt.Errorf("--match is required")
			}
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				n, err := newScheduler(cfg, pool).RescheduleMatch(ctx, matchID)
				if err != nil {
					return err
				}
				logger.Info("Match rescheduled", "match_id", matchID, "scheduled", n)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&matchID, "match", 0, "Match ID")
	return cmd
}

// --------------------------------------------------------------------------
// dispatch command
// --------------------------------------------------------------------------

func dispatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Run one dispatch pass against the push gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				store := notifications.NewPgStore(pool.Pool)
				sender := notifications.NewExpoSender(cfg.PushGatewayURL, cfg.PushTimeout, logger)
				engine := notifications.NewEngine(store, sender, cfg.DispatchInterval, logger)
				sum := engine.DispatchOnce(ctx)
				logger.Info("Dispatch finished",
					"sent", sum.Sent, "skipped", sum.Skipped, "errors", sum.Errors,
					"duration", sum.Duration.Round(time.Millisecond))
				if sum.LastError != "" {
					logger.Error("dispatch error", "error", sum.LastError)
				}
				return nil
			})
		},
	}
	return cmd
}

// --------------------------------------------------------------------------
// stats / logs commands
// --------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show notification pipeline stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				stats, err := notifications.NewPgStore(pool.Pool).GetStats(ctx, time.Now())
				if err != nil {
					return err
				}
				logger.Info("Pipeline stats",
					"pending", stats.Pending,
					"sent_24h", stats.Sent24h,
					"skipped_24h", stats.Skipped24h,
					"errors_24h", stats.Errors24h)
				if stats.LastTick != nil {
					logger.Info("Last tick",
						"ts", stats.LastTick.Ts.Format(time.RFC3339),
						"sent", stats.LastTick.Sent,
						"errors", stats.LastTick.Errors)
				}
				return nil
			})
		},
	}
	return cmd
}

func logsCmd() *cobra.Command {
	var limit int
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent dispatch logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				logs, err := notifications.NewPgStore(pool.Pool).RecentLogs(ctx, limit)
				if err != nil {
					return err
				}
				if asCSV {
					w := csv.NewWriter(os.Stdout)
					_ = w.Write([]string{"ts", "sent", "skipped", "errors", "duration_ms", "last_error"})
					for _, l := range logs {
						_ = w.Write([]string{
							l.Ts.UTC().Format(time.RFC3339),
							strconv.Itoa(l.Sent),
							strconv.Itoa(l.Skipped),
							strconv.Itoa(l.Errors),
							strconv.FormatInt(l.DurationMs, 10),
							l.LastError,
						})
					}
					w.Flush()
					return w.Error()
				}
				for _, l := range logs {
					logger.Info("tick",
						"ts", l.Ts.Format(time.RFC3339),
						"sent", l.Sent, "skipped", l.Skipped, "errors", l.Errors,
						"duration_ms", l.DurationMs)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Max rows")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV to stdout")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func newScheduler(cfg *config.Config, pool *db.Pool) *notifications.Scheduler {
	return notifications.NewScheduler(
		notifications.NewPgStore(pool.Pool),
		cfg.VotingWindowHours,
		time.Duration(cfg.ReminderOffsetHours)*time.Hour,
		logger,
	)
}

// run handles config loading, DB connection, and context cancellation.
func run(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	return fn(ctx, cfg, pool)
}
