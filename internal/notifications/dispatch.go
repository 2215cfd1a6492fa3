package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/matchpulse/matchpulse-api/internal/match"
)

// Pusher delivers one batch of messages to the push gateway. The gateway
// accepts up to chunkSize messages per request and reports success or
// failure for the request as a whole, not per message.
type Pusher interface {
	Send(ctx context.Context, msgs []Message) error
}

// Message is one element of a push gateway request.
type Message struct {
	To    string            `json:"to"`
	Sound string            `json:"sound"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Summary is the outcome of one dispatch tick.
type Summary struct {
	Sent      int
	Skipped   int
	Errors    int
	Duration  time.Duration
	LastError string
}

// Engine finds due pending notifications, renders and batches them, sends
// each chunk to the gateway, and records outcomes. One Engine runs per
// process; ticks never overlap because the loop only re-enters after the
// previous tick returns.
type Engine struct {
	store    Store
	sender   Pusher
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine wires a dispatch engine. interval <= 0 uses the default 90s.
func NewEngine(store Store, sender Pusher, interval time.Duration, logger *slog.Logger) *Engine {
	if interval <= 0 {
		interval = defaultDispatchInterval
	}
	return &Engine{
		store:    store,
		sender:   sender,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the dispatch loop until ctx is cancelled. A failing tick is
// logged and the next tick runs regardless. Intended to be called with `go`.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("Notification dispatch worker started", "interval", e.interval)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.tick(ctx)
		case <-ctx.Done():
			e.logger.Info("Notification dispatch worker stopped")
			return
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("dispatch tick panicked", "panic", r)
		}
	}()

	sum := e.DispatchOnce(ctx)
	if sum.Sent+sum.Skipped+sum.Errors > 0 {
		e.logger.Info("dispatch tick",
			"sent", sum.Sent, "skipped", sum.Skipped, "errors", sum.Errors,
			"duration", sum.Duration.Round(time.Millisecond))
	}
}

// DispatchOnce runs a single tick synchronously and returns its outcome.
// Delivery failures are absorbed into the summary, never returned: a failed
// chunk must not abort the tick, and ops callers get counts either way.
// Rows that stay pending after a crash are simply picked up again next
// tick — delivery is at-least-once.
func (e *Engine) DispatchOnce(ctx context.Context) Summary {
	start := e.now().UTC()
	var sum Summary

	due, err := e.store.DueBefore(ctx, start)
	if err != nil {
		e.logger.Error("dispatch: query due notifications failed", "error", err)
		sum.LastError = err.Error()
	}

	matches := make(map[int64]*match.Match)
	for i := 0; i < len(due); i += chunkSize {
		chunk := due[i:min(i+chunkSize, len(due))]
		e.dispatchChunk(ctx, chunk, matches, &sum)
	}

	sum.Duration = e.now().UTC().Sub(start)

	// Every tick is logged, including empty ones, so a stalled worker is
	// distinguishable from a quiet one.
	logRow := &DispatchLog{
		Ts:         start,
		Sent:       sum.Sent,
		Skipped:    sum.Skipped,
		Errors:     sum.Errors,
		DurationMs: sum.Duration.Milliseconds(),
		LastError:  sum.LastError,
	}
	if err := e.store.AppendLog(ctx, logRow); err != nil {
		e.logger.Error("dispatch: append log failed", "error", err)
	}
	return sum
}

// dispatchChunk renders and sends one chunk. The gateway call is
// all-or-nothing from the engine's point of view: every included row is
// marked sent on success or error on failure.
func (e *Engine) dispatchChunk(ctx context.Context, chunk []Notification, matches map[int64]*match.Match, sum *Summary) {
	var payload []Message
	var ids []int64

	for _, n := range chunk {
		if n.Type == TypeReminder {
			voted, err := e.store.HasDeviceVote(ctx, n.MatchID, n.Token)
			if err != nil {
				e.logger.Warn("dispatch: device vote lookup failed",
					"notification_id", n.ID, "error", err)
			} else if voted {
				if err := e.store.MarkSkipped(ctx, n.ID); err != nil {
					e.logger.Warn("dispatch: mark skipped failed",
						"notification_id", n.ID, "error", err)
				}
				sum.Skipped++
				continue
			}
		}

		m, err := e.matchFor(ctx, n.MatchID, matches)
		if err != nil || m == nil {
			msg := "match not found"
			if err != nil {
				msg = err.Error()
			}
			_ = e.store.MarkError(ctx, []int64{n.ID}, msg)
			sum.Errors++
			sum.LastError = msg
			continue
		}

		payload = append(payload, renderMessage(n, m))
		ids = append(ids, n.ID)
	}

	if len(payload) == 0 {
		return
	}

	if err := e.sender.Send(ctx, payload); err != nil {
		e.logger.Warn("dispatch: gateway send failed", "chunk_size", len(payload), "error", err)
		if markErr := e.store.MarkError(ctx, ids, err.Error()); markErr != nil {
			e.logger.Error("dispatch: mark error failed", "error", markErr)
		}
		sum.Errors += len(ids)
		sum.LastError = err.Error()
		return
	}

	if err := e.store.MarkSent(ctx, ids, e.now().UTC()); err != nil {
		// The rows stay pending and re-deliver next tick; the log must not
		// claim sends the store never recorded.
		e.logger.Error("dispatch: mark sent failed", "error", err)
		sum.LastError = err.Error()
		return
	}
	sum.Sent += len(ids)
}

func (e *Engine) matchFor(ctx context.Context, id int64, cache map[int64]*match.Match) (*match.Match, error) {
	if m, ok := cache[id]; ok {
		return m, nil
	}
	m, err := e.store.MatchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = m
	return m, nil
}

// renderMessage builds the per-type push message. Final messages carry the
// score when one is recorded; reminders never do.
func renderMessage(n Notification, m *match.Match) Message {
	msg := Message{
		To:    n.Token,
		Sound: "default",
		Data: map[string]string{
			"matchId": strconv.FormatInt(n.MatchID, 10),
			"type":    n.Type,
		},
	}

	switch n.Type {
	case TypeReminder:
		msg.Title = "Voting reminder"
		msg.Body = fmt.Sprintf("%s: voting closes soon. Cast your vote!", m.Label())
	default:
		msg.Title = "Match finished"
		if m.Score != nil && m.Score.Home != nil && m.Score.Away != nil {
			msg.Body = fmt.Sprintf("%s %d-%d %s. Rate the match and vote for your MVP!",
				m.HomeTeam.Name, *m.Score.Home, *m.Score.Away, m.AwayTeam.Name)
		} else {
			msg.Body = fmt.Sprintf("%s has finished. Rate the match and vote for your MVP!", m.Label())
		}
	}
	return msg
}
