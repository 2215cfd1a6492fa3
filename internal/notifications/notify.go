// Package notifications schedules and delivers match push notifications.
//
// Pipeline: a match is created or imported → the Scheduler fans out one
// "final" notification per registered device (plus a "reminder" for devices
// that opted in) → a background dispatch worker finds due pending rows,
// renders message bodies, batches them, and sends them to the Expo push
// gateway, recording per-row outcomes and one DispatchLog row per tick.
package notifications

import "time"

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// chunkSize is the push gateway's per-request fan-out limit.
	chunkSize = 90

	// defaultDispatchInterval is the tick period of the background worker.
	defaultDispatchInterval = 90 * time.Second
)

// Notification types.
const (
	TypeFinal    = "final"
	TypeReminder = "reminder"
)

// Notification statuses. A row leaves pending exactly once; terminal
// statuses are never re-selected by the dispatcher, which is what makes
// delivery at-least-once instead of duplicated.
const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusSkipped  = "skipped_voted"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// PushToken is a registered device.
type PushToken struct {
	Token     string `json:"token"`
	Platform  string `json:"platform"` // ios | android | web
	Country   string `json:"country,omitempty"`
	Remind12h bool   `json:"remind12h"`
}

// Notification is one scheduled push for one device and one match.
// Identity is (MatchID, Token, Type); the unique index on that triple is
// what makes re-scheduling idempotent.
type Notification struct {
	ID        int64      `json:"id"`
	MatchID   int64      `json:"matchId"`
	Token     string     `json:"token"`
	Type      string     `json:"type"`
	DeliverAt time.Time  `json:"deliverAt"`
	Status    string     `json:"status"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

// DispatchLog is the append-only record of one dispatch tick. Empty ticks
// are logged too so the worker's liveness is observable.
type DispatchLog struct {
	ID         int64     `json:"id"`
	Ts         time.Time `json:"ts"`
	Sent       int       `json:"sent"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
	DurationMs int64     `json:"durationMs"`
	LastError  string    `json:"lastError,omitempty"`
}

// Stats is the operator health summary.
type Stats struct {
	Pending    int          `json:"pending"`
	Sent24h    int          `json:"sent24h"`
	Skipped24h int          `json:"skipped24h"`
	Errors24h  int          `json:"errors24h"`
	LastTick   *DispatchLog `json:"lastTick,omitempty"`
}

// PendingPreviewRow is a due-soon pending notification for ops endpoints.
type PendingPreviewRow struct {
	MatchID   int64     `json:"matchId"`
	Type      string    `json:"type"`
	DeliverAt time.Time `json:"deliverAt"`
}
