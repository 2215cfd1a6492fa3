// Package user manages registered users, their reputation scores, and the
// leaderboard.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Score deltas applied per action.
const (
	DeltaRate         = 1
	DeltaVote         = 2
	DeltaPlayerRating = 2
)

// User is a registered identity with an integer reputation score.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrEmailTaken is returned when registering an already-used email.
var ErrEmailTaken = errors.New("email already registered")

// ErrBadCredentials is returned for unknown emails and wrong passwords
// alike, so login failures are indistinguishable to callers.
var ErrBadCredentials = errors.New("invalid email or password")

// Register creates a user with a bcrypt-hashed password.
func Register(ctx context.Context, pool *pgxpool.Pool, email, name, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:    uuid.NewString(),
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  name,
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
		RETURNING created_at`,
		u.ID, u.Email, u.Name, string(hash)).Scan(&u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate verifies a password and returns the user.
func Authenticate(ctx context.Context, pool *pgxpool.Pool, email, password string) (*User, error) {
	var u User
	var hash string
	err := pool.QueryRow(ctx, `
		SELECT id, email, name, score, password_hash, created_at
		FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.Email, &u.Name, &u.Score, &hash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return &u, nil
}

// ByID loads a user, or (nil, nil) when unknown.
func ByID(ctx context.Context, pool *pgxpool.Pool, id string) (*User, error) {
	var u User
	err := pool.QueryRow(ctx, `
		SELECT id, email, name, score, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Score, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return &u, nil
}

// AddScore applies a signed reputation delta.
func AddScore(ctx context.Context, pool *pgxpool.Pool, id string, delta int) error {
	_, err := pool.Exec(ctx, `
		UPDATE users SET score = score + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("add score: %w", err)
	}
	return nil
}

// Leaderboard returns the top users by score.
func Leaderboard(ctx context.Context, pool *pgxpool.Pool, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := pool.Query(ctx, `
		SELECT id, email, name, score, created_at
		FROM users ORDER BY score DESC, created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Score, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
