package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Competition is a tournament grouping of matches (one row per sport+name).
type Competition struct {
	ID         int64  `json:"id"`
	Sport      string `json:"sport"`
	Name       string `json:"name"`
	Country    string `json:"country,omitempty"`
	MatchCount int    `json:"matchCount"`
}

// UpsertCompetition inserts a competition if absent and returns its id.
func UpsertCompetition(ctx context.Context, pool *pgxpool.Pool, sport, name, country string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO competitions (sport, name, country)
		VALUES ($1, $2, $3)
		ON CONFLICT (sport, name) DO UPDATE SET country = EXCLUDED.country
		RETURNING id`, sport, name, country).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert competition %q: %w", name, err)
	}
	return id, nil
}

// ListCompetitions returns all competitions with match counts, optionally
// narrowed by sport.
func ListCompetitions(ctx context.Context, pool *pgxpool.Pool, sport string) ([]Competition, error) {
	q := `
		SELECT c.id, c.sport, c.name, c.country, COUNT(m.id)
		FROM competitions c
		LEFT JOIN matches m ON m.competition_id = c.id
		WHERE ($1 = '' OR c.sport = $1)
		GROUP BY c.id
		ORDER BY c.sport, c.name`
	rows, err := pool.Query(ctx, q, sport)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	defer rows.Close()

	var out []Competition
	for rows.Next() {
		var c Competition
		if err := rows.Scan(&c.ID, &c.Sport, &c.Name, &c.Country, &c.MatchCount); err != nil {
			return nil, fmt.Errorf("scan competition: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CompetitionByID returns a competition, or (nil, nil) when unknown.
func CompetitionByID(ctx context.Context, pool *pgxpool.Pool, id int64) (*Competition, error) {
	var c Competition
	err := pool.QueryRow(ctx, `
		SELECT c.id, c.sport, c.name, c.country, COUNT(m.id)
		FROM competitions c
		LEFT JOIN matches m ON m.competition_id = c.id
		WHERE c.id = $1
		GROUP BY c.id`, id).Scan(&c.ID, &c.Sport, &c.Name, &c.Country, &c.MatchCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("competition by id %d: %w", id, err)
	}
	return &c, nil
}
