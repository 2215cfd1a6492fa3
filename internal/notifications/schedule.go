package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matchpulse/matchpulse-api/internal/match"
)

// Scheduler computes and persists the set of notifications a match needs:
// one "final" per device at finalAt, plus one "reminder" at
// finalAt + reminderOffset for devices that opted in. Inserts are keyed on
// (match, token, type), so calling it again — import re-syncs do — is a
// no-op for rows that already exist.
type Scheduler struct {
	store          Store
	windowHours    int
	reminderOffset time.Duration
	logger         *slog.Logger
}

// NewScheduler wires a Scheduler. windowHours and reminderOffset come from
// config (24h voting window, 12h reminder offset by default).
func NewScheduler(store Store, windowHours int, reminderOffset time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:          store,
		windowHours:    windowHours,
		reminderOffset: reminderOffset,
		logger:         logger,
	}
}

// ScheduleForMatch creates the pending notification set for one match and
// returns the number of rows newly inserted. An unknown match id is a
// silent no-op: the scheduler is fan-out machinery and tolerates races with
// imports, unlike user-facing lookups which 404.
func (s *Scheduler) ScheduleForMatch(ctx context.Context, matchID int64) (int, error) {
	m, err := s.store.MatchByID(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("load match: %w", err)
	}
	if m == nil {
		return 0, nil
	}

	w, err := s.normalizeWindow(ctx, m)
	if err != nil {
		return 0, err
	}

	tokens, err := s.store.ListTokens(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tokens: %w", err)
	}

	inserted := 0
	for _, t := range tokens {
		created, err := s.store.InsertPending(ctx, &Notification{
			MatchID:   matchID,
			Token:     t.Token,
			Type:      TypeFinal,
			DeliverAt: w.FinalAt,
		})
		if err != nil {
			return inserted, err
		}
		if created {
			inserted++
		}

		if !t.Remind12h {
			continue
		}
		created, err = s.store.InsertPending(ctx, &Notification{
			MatchID:   matchID,
			Token:     t.Token,
			Type:      TypeReminder,
			DeliverAt: w.FinalAt.Add(s.reminderOffset),
		})
		if err != nil {
			return inserted, err
		}
		if created {
			inserted++
		}
	}

	if inserted > 0 {
		s.logger.Info("Notifications scheduled",
			"match_id", matchID, "inserted", inserted, "devices", len(tokens))
	}
	return inserted, nil
}

// CancelMatch transitions all pending notifications for a match to canceled
// and returns how many rows were affected.
func (s *Scheduler) CancelMatch(ctx context.Context, matchID int64) (int64, error) {
	n, err := s.store.CancelPending(ctx, matchID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Notifications canceled", "match_id", matchID, "count", n)
	}
	return n, nil
}

// RescheduleMatch cancels the pending set and schedules a fresh one.
// Canceled rows stay behind for audit; the uniqueness index ignores
// canceled rows, so a fresh pending row replaces each canceled one.
func (s *Scheduler) RescheduleMatch(ctx context.Context, matchID int64) (int, error) {
	if _, err := s.CancelMatch(ctx, matchID); err != nil {
		return 0, err
	}
	return s.ScheduleForMatch(ctx, matchID)
}

// ScheduleWindow bulk-schedules every match starting within the next
// hoursAhead hours. Returns total rows inserted.
func (s *Scheduler) ScheduleWindow(ctx context.Context, now time.Time, hoursAhead int) (int, error) {
	to := now.UTC().Add(time.Duration(hoursAhead) * time.Hour)
	ids, err := s.store.MatchIDsStartingWithin(ctx, now.UTC(), to)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, id := range ids {
		n, err := s.ScheduleForMatch(ctx, id)
		if err != nil {
			return total, fmt.Errorf("schedule match %d: %w", id, err)
		}
		total += n
	}
	s.logger.Info("Window scheduling complete",
		"hours_ahead", hoursAhead, "matches", len(ids), "inserted", total)
	return total, nil
}

// normalizeWindow computes the match window and writes back whichever
// fields were missing, so later reads (the voting gate included) agree with
// what was scheduled here.
func (s *Scheduler) normalizeWindow(ctx context.Context, m *match.Match) (match.Window, error) {
	needFinal, needOpen, needClose := m.Missing()
	w := match.ComputeWindow(m, s.windowHours)
	if needFinal || needOpen || needClose {
		if err := s.store.SaveWindow(ctx, m.ID, w, needFinal, needOpen, needClose); err != nil {
			return w, fmt.Errorf("persist window: %w", err)
		}
		m.ApplyWindow(w)
	}
	return w, nil
}
