package vote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RatingSummary is the like/dislike tally for a match.
type RatingSummary struct {
	Likes    int     `json:"likes"`
	Dislikes int     `json:"dislikes"`
	LikePct  float64 `json:"likePct"`
}

// Rate increments the like or dislike counter for a match and returns the
// updated summary. The counter row is created on first rate.
func Rate(ctx context.Context, pool *pgxpool.Pool, matchID int64, like bool) (*RatingSummary, error) {
	likeInc, dislikeInc := 0, 1
	if like {
		likeInc, dislikeInc = 1, 0
	}

	var s RatingSummary
	err := pool.QueryRow(ctx, `
		INSERT INTO ratings (match_id, likes, dislikes)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_id) DO UPDATE SET
			likes = ratings.likes + $2,
			dislikes = ratings.dislikes + $3
		RETURNING likes, dislikes`,
		matchID, likeInc, dislikeInc).Scan(&s.Likes, &s.Dislikes)
	if err != nil {
		return nil, fmt.Errorf("rate match %d: %w", matchID, err)
	}
	s.LikePct = LikePct(s.Likes, s.Dislikes)
	return &s, nil
}

// Rating returns the current like/dislike summary (zeroes when nobody has
// rated yet).
func Rating(ctx context.Context, pool *pgxpool.Pool, matchID int64) (*RatingSummary, error) {
	var s RatingSummary
	err := pool.QueryRow(ctx, `
		SELECT likes, dislikes FROM ratings WHERE match_id = $1`, matchID).
		Scan(&s.Likes, &s.Dislikes)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rating for match %d: %w", matchID, err)
	}
	s.LikePct = LikePct(s.Likes, s.Dislikes)
	return &s, nil
}

// CastVote increments the counter for one (category, player) of a match.
func CastVote(ctx context.Context, pool *pgxpool.Pool, matchID int64, category, player string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO votes (match_id, category, player, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (match_id, category, player) DO UPDATE SET
			count = votes.count + 1`,
		matchID, category, player)
	if err != nil {
		return fmt.Errorf("cast vote for match %d: %w", matchID, err)
	}
	return nil
}

// Percentages returns, for each allowed category, the per-player vote
// percentages. Categories with no votes map to empty maps.
func Percentages(ctx context.Context, pool *pgxpool.Pool, matchID int64, categories []string) (map[string]map[string]float64, error) {
	rows, err := pool.Query(ctx, `
		SELECT category, player, count FROM votes WHERE match_id = $1`, matchID)
	if err != nil {
		return nil, fmt.Errorf("votes for match %d: %w", matchID, err)
	}
	defer rows.Close()

	counts := make(map[string]map[string]int)
	for rows.Next() {
		var category, player string
		var count int
		if err := rows.Scan(&category, &player, &count); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		if counts[category] == nil {
			counts[category] = make(map[string]int)
		}
		counts[category][player] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]float64, len(categories))
	for _, cat := range categories {
		out[cat] = ToPercentage(counts[cat])
	}
	return out, nil
}

// RecordDeviceVote marks that a device voted for a match. Idempotent; the
// dispatcher uses it to suppress reminder pushes to devices that already
// engaged.
func RecordDeviceVote(ctx context.Context, pool *pgxpool.Pool, matchID int64, token string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO device_votes (match_id, token)
		VALUES ($1, $2)
		ON CONFLICT (match_id, token) DO NOTHING`, matchID, token)
	if err != nil {
		return fmt.Errorf("record device vote: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Player star ratings
// --------------------------------------------------------------------------

// PlayerRating is one device's 1-10 star rating of a player across four
// axes. One submission per (match, device); re-submitting overwrites.
type PlayerRating struct {
	Player    string `json:"player"`
	Attack    int    `json:"attack"`
	Defense   int    `json:"defense"`
	Passing   int    `json:"passing"`
	Dribbling int    `json:"dribbling"`
}

// PlayerRatingAverages is the per-axis mean across all submissions.
type PlayerRatingAverages struct {
	Attack    float64 `json:"attack"`
	Defense   float64 `json:"defense"`
	Passing   float64 `json:"passing"`
	Dribbling float64 `json:"dribbling"`
	Count     int     `json:"count"`
}

// SubmitPlayerRating upserts a device's rating and returns fresh averages.
func SubmitPlayerRating(ctx context.Context, pool *pgxpool.Pool, matchID int64, token string, r *PlayerRating) (*PlayerRatingAverages, error) {
	_, err := pool.Exec(ctx, `
		INSERT INTO player_ratings (match_id, token, player, attack, defense, passing, dribbling)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (match_id, token) DO UPDATE SET
			player = EXCLUDED.player,
			attack = EXCLUDED.attack,
			defense = EXCLUDED.defense,
			passing = EXCLUDED.passing,
			dribbling = EXCLUDED.dribbling`,
		matchID, token, r.Player, r.Attack, r.Defense, r.Passing, r.Dribbling)
	if err != nil {
		return nil, fmt.Errorf("submit player rating: %w", err)
	}
	return PlayerRatingAveragesFor(ctx, pool, matchID)
}

// PlayerRatingAveragesFor returns the per-axis averages for a match.
func PlayerRatingAveragesFor(ctx context.Context, pool *pgxpool.Pool, matchID int64) (*PlayerRatingAverages, error) {
	var a PlayerRatingAverages
	err := pool.QueryRow(ctx, `
		SELECT
			COALESCE(ROUND(AVG(attack)::numeric, 1), 0),
			COALESCE(ROUND(AVG(defense)::numeric, 1), 0),
			COALESCE(ROUND(AVG(passing)::numeric, 1), 0),
			COALESCE(ROUND(AVG(dribbling)::numeric, 1), 0),
			COUNT(*)
		FROM player_ratings WHERE match_id = $1`, matchID).
		Scan(&a.Attack, &a.Defense, &a.Passing, &a.Dribbling, &a.Count)
	if err != nil {
		return nil, fmt.Errorf("player rating averages: %w", err)
	}
	return &a, nil
}
