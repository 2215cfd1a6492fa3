package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const matchCols = `id, sport, tournament, subgroup, competition_id, home_team, away_team,
	start_time, status, score, channels, source, source_id,
	final_at, voting_open_at, voting_close_at, lineups, injuries`

func scanMatch(row pgx.Row) (*Match, error) {
	var m Match
	err := row.Scan(
		&m.ID, &m.Sport, &m.Tournament, &m.Subgroup, &m.CompetitionID,
		&m.HomeTeam, &m.AwayTeam, &m.StartTime, &m.Status, &m.Score,
		&m.Channels, &m.Source, &m.SourceID,
		&m.FinalAt, &m.VotingOpenAt, &m.VotingCloseAt,
		&m.Lineups, &m.Injuries,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ByID returns a match, or (nil, nil) when the id is unknown. Callers that
// require the match to exist (HTTP lookups) translate nil to not-found;
// internal fan-out (the scheduler) treats it as nothing to do.
func ByID(ctx context.Context, pool *pgxpool.Pool, id int64) (*Match, error) {
	m, err := scanMatch(pool.QueryRow(ctx,
		`SELECT `+matchCols+` FROM matches WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("match by id %d: %w", id, err)
	}
	return m, nil
}

// Create inserts a new match and returns its id.
func Create(ctx context.Context, pool *pgxpool.Pool, m *Match) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO matches (
			sport, tournament, subgroup, competition_id, home_team, away_team,
			start_time, status, score, channels, source, source_id,
			final_at, voting_open_at, voting_close_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id`,
		m.Sport, m.Tournament, m.Subgroup, m.CompetitionID, m.HomeTeam, m.AwayTeam,
		m.StartTime.UTC(), m.Status, m.Score, m.Channels, m.Source, m.SourceID,
		m.FinalAt, m.VotingOpenAt, m.VotingCloseAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	return id, nil
}

// UpsertBySource inserts or refreshes a match keyed by its provider id.
// Window fields are left untouched on update so that admin overrides and
// already-scheduled notifications survive provider re-syncs.
func UpsertBySource(ctx context.Context, pool *pgxpool.Pool, m *Match) (id int64, created bool, err error) {
	err = pool.QueryRow(ctx, `
		INSERT INTO matches (
			sport, tournament, subgroup, competition_id, home_team, away_team,
			start_time, status, score, channels, source, source_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (source_id) DO UPDATE SET
			sport = EXCLUDED.sport,
			tournament = EXCLUDED.tournament,
			subgroup = EXCLUDED.subgroup,
			competition_id = EXCLUDED.competition_id,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			start_time = EXCLUDED.start_time,
			status = EXCLUDED.status,
			channels = EXCLUDED.channels
		RETURNING id, (xmax = 0)`,
		m.Sport, m.Tournament, m.Subgroup, m.CompetitionID, m.HomeTeam, m.AwayTeam,
		m.StartTime.UTC(), m.Status, m.Score, m.Channels, m.Source, m.SourceID,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("upsert match %q: %w", m.SourceID, err)
	}
	return id, created, nil
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Sport         string
	Status        string
	CompetitionID int64
	From          time.Time
	To            time.Time
}

// List returns matches ordered by start time ascending.
func List(ctx context.Context, pool *pgxpool.Pool, f Filter) ([]*Match, error) {
	q := `SELECT ` + matchCols + ` FROM matches WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Sport != "" {
		q += ` AND sport = ` + arg(f.Sport)
	}
	if f.Status != "" {
		q += ` AND status = ` + arg(f.Status)
	}
	if f.CompetitionID != 0 {
		q += ` AND competition_id = ` + arg(f.CompetitionID)
	}
	if !f.From.IsZero() {
		q += ` AND start_time >= ` + arg(f.From.UTC())
	}
	if !f.To.IsZero() {
		q += ` AND start_time <= ` + arg(f.To.UTC())
	}
	q += ` ORDER BY start_time ASC`

	rows, err := pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []*Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveWindow writes back whichever window fields were absent before the
// compute (write-through normalization). Fields already present are not
// overwritten.
func SaveWindow(ctx context.Context, pool *pgxpool.Pool, id int64, w Window, setFinal, setOpen, setClose bool) error {
	if !setFinal && !setOpen && !setClose {
		return nil
	}
	_, err := pool.Exec(ctx, `
		UPDATE matches SET
			final_at       = CASE WHEN $2 THEN $5 ELSE final_at END,
			voting_open_at = CASE WHEN $3 THEN $6 ELSE voting_open_at END,
			voting_close_at = CASE WHEN $4 THEN $7 ELSE voting_close_at END
		WHERE id = $1`,
		id, setFinal, setOpen, setClose, w.FinalAt, w.VotingOpenAt, w.VotingCloseAt)
	if err != nil {
		return fmt.Errorf("save window for match %d: %w", id, err)
	}
	return nil
}

// SetVotingWindow applies an admin override. At least one bound must be
// non-nil; validation happens at the call site.
func SetVotingWindow(ctx context.Context, pool *pgxpool.Pool, id int64, openAt, closeAt *time.Time) error {
	_, err := pool.Exec(ctx, `
		UPDATE matches SET
			voting_open_at  = COALESCE($2, voting_open_at),
			voting_close_at = COALESCE($3, voting_close_at)
		WHERE id = $1`, id, openAt, closeAt)
	if err != nil {
		return fmt.Errorf("set voting window for match %d: %w", id, err)
	}
	return nil
}

// SetFinalAt moves a match's finish instant (used by simulate-finish) and
// marks it finished.
func SetFinalAt(ctx context.Context, pool *pgxpool.Pool, id int64, at time.Time) error {
	_, err := pool.Exec(ctx, `
		UPDATE matches SET final_at = $2, status = $3 WHERE id = $1`,
		id, at.UTC(), StatusFinished)
	if err != nil {
		return fmt.Errorf("set final_at for match %d: %w", id, err)
	}
	return nil
}

// SetLineups replaces a match's lineups payload.
func SetLineups(ctx context.Context, pool *pgxpool.Pool, id int64, l *Lineups) error {
	_, err := pool.Exec(ctx, `UPDATE matches SET lineups = $2 WHERE id = $1`, id, l)
	if err != nil {
		return fmt.Errorf("set lineups for match %d: %w", id, err)
	}
	return nil
}

// SetInjuries replaces a match's injury report.
func SetInjuries(ctx context.Context, pool *pgxpool.Pool, id int64, inj []Injury) error {
	_, err := pool.Exec(ctx, `UPDATE matches SET injuries = $2 WHERE id = $1`, id, inj)
	if err != nil {
		return fmt.Errorf("set injuries for match %d: %w", id, err)
	}
	return nil
}
