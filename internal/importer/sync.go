package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchpulse/matchpulse-api/internal/match"
	"github.com/matchpulse/matchpulse-api/internal/notifications"
)

// Result tracks counts and errors from one sync run.
type Result struct {
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Scheduled int      `json:"scheduled"`
	Errors    []string `json:"errors,omitempty"`
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the sync.
func (r *Result) Summary() string {
	return fmt.Sprintf("created=%d updated=%d scheduled=%d errors=%d",
		r.Created, r.Updated, r.Scheduled, len(r.Errors))
}

// Sync imports events for today plus days-1 following days across all
// sports, upserting by external id and scheduling notifications for every
// touched match. A failed provider fetch skips that day+sport and
// continues; persistence errors abort so callers can retry the whole run.
func Sync(ctx context.Context, pool *pgxpool.Pool, client *Client, sched *notifications.Scheduler, days int, logger *slog.Logger) (*Result, error) {
	if days < 1 {
		days = 1
	}
	result := &Result{}
	today := time.Now().UTC().Truncate(24 * time.Hour)

	for offset := 0; offset < days; offset++ {
		day := today.Add(time.Duration(offset) * 24 * time.Hour)
		for sport := range sportNames {
			events, err := client.EventsForDay(ctx, day, sport)
			if err != nil {
				logger.Warn("provider fetch failed",
					"sport", sport, "day", day.Format("2006-01-02"), "error", err)
				result.AddErrorf("%s %s: %v", sport, day.Format("2006-01-02"), err)
				continue
			}

			for _, ev := range events {
				if ev.IDEvent == "" {
					continue
				}
				st, ok := ev.StartTime()
				if !ok {
					continue
				}

				m := eventToMatch(ev, sport, st)

				compID, err := match.UpsertCompetition(ctx, pool, sport, m.Tournament, "")
				if err != nil {
					return result, err
				}
				m.CompetitionID = &compID

				id, created, err := match.UpsertBySource(ctx, pool, m)
				if err != nil {
					return result, err
				}
				if created {
					result.Created++
				} else {
					result.Updated++
				}

				n, err := sched.ScheduleForMatch(ctx, id)
				if err != nil {
					return result, fmt.Errorf("schedule match %d: %w", id, err)
				}
				result.Scheduled += n
			}
		}
	}

	logger.Info("Provider sync finished", "summary", result.Summary())
	return result, nil
}

func eventToMatch(ev Event, sport string, startTime time.Time) *match.Match {
	tournament := ev.StrLeague
	if tournament == "" {
		tournament = ev.StrEvent
	}
	home, away := ev.StrHomeTeam, ev.StrAwayTeam
	if home == "" {
		home = "TBD"
	}
	if away == "" {
		away = "TBD"
	}

	return &match.Match{
		Sport:      sport,
		Tournament: tournament,
		Subgroup:   ev.StrSeason,
		HomeTeam:   match.Team{Type: match.TeamClub, Name: home},
		AwayTeam:   match.Team{Type: match.TeamClub, Name: away},
		StartTime:  startTime,
		Status:     match.StatusScheduled,
		Channels:   map[string][]string{"CH": channelsCH[sport]},
		Source:     "thesportsdb",
		SourceID:   ev.IDEvent,
	}
}
