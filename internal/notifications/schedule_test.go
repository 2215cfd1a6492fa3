package notifications

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/matchpulse/matchpulse-api/internal/config"
	"github.com/matchpulse/matchpulse-api/internal/match"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func footballMatch(id int64, start time.Time) *match.Match {
	return &match.Match{
		ID:        id,
		Sport:     config.SportFootball,
		HomeTeam:  match.Team{Name: "Arsenal"},
		AwayTeam:  match.Team{Name: "Chelsea"},
		StartTime: start,
	}
}

func TestScheduleForMatch_FanOut(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, start)
	store.tokens = []PushToken{
		{Token: "tok-a", Remind12h: true},
		{Token: "tok-b", Remind12h: false},
	}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	n, err := sched.ScheduleForMatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	// One final per device plus one reminder for the opted-in device.
	if n != 3 {
		t.Fatalf("inserted=%d want=3", n)
	}

	wantFinal := start.Add(120 * time.Minute)
	wantReminder := wantFinal.Add(12 * time.Hour)
	for _, r := range store.rows {
		switch r.Type {
		case TypeFinal:
			if !r.DeliverAt.Equal(wantFinal) {
				t.Fatalf("final deliverAt=%s want=%s", r.DeliverAt, wantFinal)
			}
		case TypeReminder:
			if r.Token != "tok-a" {
				t.Fatalf("reminder for %q, only tok-a opted in", r.Token)
			}
			if !r.DeliverAt.Equal(wantReminder) {
				t.Fatalf("reminder deliverAt=%s want=%s", r.DeliverAt, wantReminder)
			}
		}
	}
}

func TestScheduleForMatch_Idempotent(t *testing.T) {
	store := newFakeStore()
	store.matches[1] = footballMatch(1, time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC))
	store.tokens = []PushToken{{Token: "tok-a", Remind12h: true}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	for i := 0; i < 3; i++ {
		if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
			t.Fatalf("schedule #%d: %v", i, err)
		}
	}
	if len(store.rows) != 2 {
		t.Fatalf("rows=%d want=2 after repeated scheduling", len(store.rows))
	}
}

func TestScheduleForMatch_UnknownMatchIsNoOp(t *testing.T) {
	store := newFakeStore()
	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())

	n, err := sched.ScheduleForMatch(context.Background(), 99)
	if err != nil {
		t.Fatalf("unknown match must not error: %v", err)
	}
	if n != 0 || len(store.rows) != 0 {
		t.Fatalf("unknown match inserted rows: n=%d rows=%d", n, len(store.rows))
	}
}

func TestScheduleForMatch_PersistsWindow(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, start)

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	m := store.matches[1]
	wantFinal := start.Add(120 * time.Minute)
	if m.FinalAt == nil || !m.FinalAt.Equal(wantFinal) {
		t.Fatalf("finalAt not persisted: %v", m.FinalAt)
	}
	if m.VotingOpenAt == nil || !m.VotingOpenAt.Equal(wantFinal) {
		t.Fatalf("votingOpenAt not persisted: %v", m.VotingOpenAt)
	}
	if m.VotingCloseAt == nil || !m.VotingCloseAt.Equal(wantFinal.Add(24*time.Hour)) {
		t.Fatalf("votingCloseAt not persisted: %v", m.VotingCloseAt)
	}
}

func TestScheduleForMatch_KeepsExplicitWindow(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	m := footballMatch(1, start)
	finalAt := start.Add(97 * time.Minute)
	m.FinalAt = &finalAt
	store.matches[1] = m
	store.tokens = []PushToken{{Token: "tok-a"}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if !store.rows[0].DeliverAt.Equal(finalAt) {
		t.Fatalf("deliverAt=%s want explicit finalAt %s", store.rows[0].DeliverAt, finalAt)
	}
}

func TestRescheduleMatch_ReplacesPendingSet(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, start)
	store.tokens = []PushToken{{Token: "tok-a"}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	// Window moves; reschedule must retarget the pending set.
	newFinal := start.Add(4 * time.Hour)
	store.matches[1].FinalAt = &newFinal

	n, err := sched.RescheduleMatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if n != 1 {
		t.Fatalf("rescheduled=%d want=1", n)
	}

	canceled := store.byStatus(StatusCanceled)
	pending := store.byStatus(StatusPending)
	if len(canceled) != 1 || len(pending) != 1 {
		t.Fatalf("canceled=%d pending=%d want 1/1", len(canceled), len(pending))
	}
	if !pending[0].DeliverAt.Equal(newFinal) {
		t.Fatalf("pending deliverAt=%s want=%s", pending[0].DeliverAt, newFinal)
	}
}

func TestCancelMatch(t *testing.T) {
	store := newFakeStore()
	store.matches[1] = footballMatch(1, time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC))
	store.tokens = []PushToken{{Token: "tok-a"}, {Token: "tok-b"}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	n, err := sched.CancelMatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if n != 2 {
		t.Fatalf("canceled=%d want=2", n)
	}
	if got := len(store.byStatus(StatusPending)); got != 0 {
		t.Fatalf("pending=%d want=0 after cancel", got)
	}
}

func TestScheduleWindow(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, now.Add(6*time.Hour))
	store.matches[2] = footballMatch(2, now.Add(72*time.Hour)) // outside window
	store.tokens = []PushToken{{Token: "tok-a"}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	n, err := sched.ScheduleWindow(context.Background(), now, 48)
	if err != nil {
		t.Fatalf("schedule window: %v", err)
	}
	if n != 1 {
		t.Fatalf("inserted=%d want=1", n)
	}
	if store.rows[0].MatchID != 1 {
		t.Fatalf("scheduled match %d, want only match 1", store.rows[0].MatchID)
	}
}
