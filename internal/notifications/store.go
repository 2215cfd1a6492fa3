package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchpulse/matchpulse-api/internal/match"
)

// Store is the persistence surface the Scheduler and Engine need. The
// production implementation is PgStore; tests substitute an in-memory fake.
// Atomicity contract: InsertPending is insert-if-absent on
// (matchID, token, type), and the Mark* methods only touch rows still in
// their expected prior status. Those two primitives are the only mutual
// exclusion the subsystem relies on.
type Store interface {
	MatchByID(ctx context.Context, id int64) (*match.Match, error)
	SaveWindow(ctx context.Context, id int64, w match.Window, setFinal, setOpen, setClose bool) error
	MatchIDsStartingWithin(ctx context.Context, from, to time.Time) ([]int64, error)

	ListTokens(ctx context.Context) ([]PushToken, error)

	InsertPending(ctx context.Context, n *Notification) (bool, error)
	CancelPending(ctx context.Context, matchID int64) (int64, error)
	DueBefore(ctx context.Context, t time.Time) ([]Notification, error)
	MarkSent(ctx context.Context, ids []int64, at time.Time) error
	MarkError(ctx context.Context, ids []int64, msg string) error
	MarkSkipped(ctx context.Context, id int64) error

	HasDeviceVote(ctx context.Context, matchID int64, token string) (bool, error)

	AppendLog(ctx context.Context, l *DispatchLog) error
}

// PgStore implements Store on a pgxpool.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore wraps a connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) MatchByID(ctx context.Context, id int64) (*match.Match, error) {
	return match.ByID(ctx, s.pool, id)
}

func (s *PgStore) SaveWindow(ctx context.Context, id int64, w match.Window, setFinal, setOpen, setClose bool) error {
	return match.SaveWindow(ctx, s.pool, id, w, setFinal, setOpen, setClose)
}

// MatchIDsStartingWithin returns ids of matches with start_time in [from, to].
func (s *PgStore) MatchIDsStartingWithin(ctx context.Context, from, to time.Time) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM matches
		WHERE start_time >= $1 AND start_time <= $2
		ORDER BY start_time ASC`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("matches starting within: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListTokens returns every registered device.
func (s *PgStore) ListTokens(ctx context.Context) ([]PushToken, error) {
	rows, err := s.pool.Query(ctx, "all_push_tokens")
	if err != nil {
		return nil, fmt.Errorf("list push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []PushToken
	for rows.Next() {
		var t PushToken
		if err := rows.Scan(&t.Token, &t.Platform, &t.Country, &t.Remind12h); err != nil {
			return nil, fmt.Errorf("scan push token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// InsertPending inserts a pending notification if none exists for the same
// (match, token, type). Returns false when the row already existed.
func (s *PgStore) InsertPending(ctx context.Context, n *Notification) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (match_id, token, type, deliver_at, status)
		VALUES ($1, $2, $3, $4, 'pending')
		ON CONFLICT (match_id, token, type) WHERE status <> 'canceled' DO NOTHING`,
		n.MatchID, n.Token, n.Type, n.DeliverAt.UTC())
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CancelPending moves all of a match's pending notifications to canceled.
// Terminal rows are untouched, so audit history survives a reschedule.
func (s *PgStore) CancelPending(ctx context.Context, matchID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET status = 'canceled'
		WHERE match_id = $1 AND status = 'pending'`, matchID)
	if err != nil {
		return 0, fmt.Errorf("cancel pending for match %d: %w", matchID, err)
	}
	return tag.RowsAffected(), nil
}

// DueBefore returns all pending notifications due at or before t, oldest
// due first.
func (s *PgStore) DueBefore(ctx context.Context, t time.Time) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, "due_notifications", t.UTC())
	if err != nil {
		return nil, fmt.Errorf("due notifications: %w", err)
	}
	defer rows.Close()

	var due []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.MatchID, &n.Token, &n.Type, &n.DeliverAt, &n.Status); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		due = append(due, n)
	}
	return due, rows.Err()
}

func (s *PgStore) MarkSent(ctx context.Context, ids []int64, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications SET status = 'sent', sent_at = $2
		WHERE id = ANY($1) AND status = 'pending'`, ids, at.UTC())
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

func (s *PgStore) MarkError(ctx context.Context, ids []int64, msg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications SET status = 'error', last_error = $2
		WHERE id = ANY($1) AND status = 'pending'`, ids, msg)
	if err != nil {
		return fmt.Errorf("mark error: %w", err)
	}
	return nil
}

func (s *PgStore) MarkSkipped(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications SET status = 'skipped_voted'
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("mark skipped: %w", err)
	}
	return nil
}

// HasDeviceVote reports whether a device already voted for a match.
func (s *PgStore) HasDeviceVote(ctx context.Context, matchID int64, token string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, "device_vote_exists", matchID, token).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("device vote exists: %w", err)
	}
	return true, nil
}

// AppendLog records one dispatch tick.
func (s *PgStore) AppendLog(ctx context.Context, l *DispatchLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dispatch_logs (ts, sent, skipped, errors, duration_ms, last_error)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.Ts.UTC(), l.Sent, l.Skipped, l.Errors, l.DurationMs, l.LastError)
	if err != nil {
		return fmt.Errorf("append dispatch log: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Ops queries (PgStore only — not part of the Store interface)
// --------------------------------------------------------------------------

// PendingCount returns the number of pending notifications, optionally for
// one match (matchID 0 = all).
func (s *PgStore) PendingCount(ctx context.Context, matchID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE status = 'pending' AND ($1 = 0 OR match_id = $1)`, matchID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("pending count: %w", err)
	}
	return n, nil
}

// GetStats returns the operator health summary: current pending backlog,
// last-24h outcome counts, and the most recent tick.
func (s *PgStore) GetStats(ctx context.Context, now time.Time) (*Stats, error) {
	var st Stats
	since := now.UTC().Add(-24 * time.Hour)

	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'sent' AND sent_at >= $1),
			COUNT(*) FILTER (WHERE status = 'skipped_voted' AND created_at >= $1),
			COUNT(*) FILTER (WHERE status = 'error' AND created_at >= $1)
		FROM notifications`, since).
		Scan(&st.Pending, &st.Sent24h, &st.Skipped24h, &st.Errors24h)
	if err != nil {
		return nil, fmt.Errorf("notification stats: %w", err)
	}

	logs, err := s.RecentLogs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(logs) > 0 {
		st.LastTick = &logs[0]
	}
	return &st, nil
}

// PendingPreview returns the next due pending notifications.
func (s *PgStore) PendingPreview(ctx context.Context, limit int) ([]PendingPreviewRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT match_id, type, deliver_at FROM notifications
		WHERE status = 'pending'
		ORDER BY deliver_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending preview: %w", err)
	}
	defer rows.Close()

	var out []PendingPreviewRow
	for rows.Next() {
		var p PendingPreviewRow
		if err := rows.Scan(&p.MatchID, &p.Type, &p.DeliverAt); err != nil {
			return nil, fmt.Errorf("scan pending preview: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecentLogs returns the latest dispatch log rows, newest first.
func (s *PgStore) RecentLogs(ctx context.Context, limit int) ([]DispatchLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, ts, sent, skipped, errors, duration_ms, last_error
		FROM dispatch_logs
		ORDER BY ts DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent dispatch logs: %w", err)
	}
	defer rows.Close()

	var out []DispatchLog
	for rows.Next() {
		var l DispatchLog
		if err := rows.Scan(&l.ID, &l.Ts, &l.Sent, &l.Skipped, &l.Errors, &l.DurationMs, &l.LastError); err != nil {
			return nil, fmt.Errorf("scan dispatch log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
