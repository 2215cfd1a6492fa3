package db

import (
	"context"
	"fmt"
)

// EnsureSchema creates all tables and indexes if absent. Idempotent — runs
// at every startup so fresh environments need no migration step.
//
// The partial unique index on notifications is the concurrency primitive of
// the scheduling subsystem: insert-if-absent on (match_id, token, type)
// ignores canceled rows so a reschedule can lay down a fresh pending set
// while keeping canceled history.
func EnsureSchema(ctx context.Context, p *Pool) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			id              BIGSERIAL PRIMARY KEY,
			sport           TEXT NOT NULL,
			tournament      TEXT NOT NULL,
			subgroup        TEXT NOT NULL DEFAULT '',
			competition_id  BIGINT,
			home_team       JSONB NOT NULL,
			away_team       JSONB NOT NULL,
			start_time      TIMESTAMPTZ NOT NULL,
			status          TEXT NOT NULL DEFAULT 'scheduled',
			score           JSONB,
			channels        JSONB NOT NULL DEFAULT '{}',
			source          TEXT NOT NULL DEFAULT '',
			source_id       TEXT NOT NULL,
			final_at        TIMESTAMPTZ,
			voting_open_at  TIMESTAMPTZ,
			voting_close_at TIMESTAMPTZ,
			lineups         JSONB,
			injuries        JSONB NOT NULL DEFAULT '[]',
			CONSTRAINT voting_window_ordered CHECK (
				voting_open_at IS NULL OR voting_close_at IS NULL
				OR voting_open_at <= voting_close_at)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS matches_source_id ON matches (source_id)`,
		`CREATE INDEX IF NOT EXISTS matches_start_time ON matches (start_time)`,

		`CREATE TABLE IF NOT EXISTS competitions (
			id      BIGSERIAL PRIMARY KEY,
			sport   TEXT NOT NULL,
			name    TEXT NOT NULL,
			country TEXT NOT NULL DEFAULT '',
			UNIQUE (sport, name)
		)`,

		`CREATE TABLE IF NOT EXISTS push_tokens (
			token      TEXT PRIMARY KEY,
			platform   TEXT NOT NULL,
			country    TEXT NOT NULL DEFAULT '',
			remind_12h BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id         BIGSERIAL PRIMARY KEY,
			match_id   BIGINT NOT NULL,
			token      TEXT NOT NULL,
			type       TEXT NOT NULL,
			deliver_at TIMESTAMPTZ NOT NULL,
			status     TEXT NOT NULL DEFAULT 'pending',
			sent_at    TIMESTAMPTZ,
			last_error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS notifications_identity
			ON notifications (match_id, token, type) WHERE status <> 'canceled'`,
		`CREATE INDEX IF NOT EXISTS notifications_due
			ON notifications (deliver_at) WHERE status = 'pending'`,
		`CREATE INDEX IF NOT EXISTS notifications_status ON notifications (status)`,

		`CREATE TABLE IF NOT EXISTS device_votes (
			match_id   BIGINT NOT NULL,
			token      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (match_id, token)
		)`,

		`CREATE TABLE IF NOT EXISTS dispatch_logs (
			id          BIGSERIAL PRIMARY KEY,
			ts          TIMESTAMPTZ NOT NULL,
			sent        INT NOT NULL DEFAULT 0,
			skipped     INT NOT NULL DEFAULT 0,
			errors      INT NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			last_error  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS dispatch_logs_ts ON dispatch_logs (ts DESC)`,

		`CREATE TABLE IF NOT EXISTS ratings (
			match_id BIGINT PRIMARY KEY,
			likes    INT NOT NULL DEFAULT 0,
			dislikes INT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS votes (
			match_id BIGINT NOT NULL,
			category TEXT NOT NULL,
			player   TEXT NOT NULL,
			count    INT NOT NULL DEFAULT 0,
			PRIMARY KEY (match_id, category, player)
		)`,

		`CREATE TABLE IF NOT EXISTS player_ratings (
			match_id  BIGINT NOT NULL,
			token     TEXT NOT NULL,
			player    TEXT NOT NULL,
			attack    INT NOT NULL,
			defense   INT NOT NULL,
			passing   INT NOT NULL,
			dribbling INT NOT NULL,
			PRIMARY KEY (match_id, token)
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL DEFAULT '',
			score         INT NOT NULL DEFAULT 0,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS status_checks (
			id          TEXT PRIMARY KEY,
			client_name TEXT NOT NULL,
			ts          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range ddl {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
