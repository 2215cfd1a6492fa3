package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/matchpulse/matchpulse-api/internal/match"
)

func newTestEngine(store *fakeStore, pusher Pusher, at time.Time) *Engine {
	e := NewEngine(store, pusher, time.Second, testLogger())
	e.now = func() time.Time { return at }
	return e
}

func TestDispatchOnce_SendsDueFinals(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	m := footballMatch(1, start)
	h, a := 2, 1
	m.Score = &match.Score{Home: &h, Away: &a}
	store.matches[1] = m
	store.tokens = []PushToken{{Token: "tok-a"}, {Token: "tok-b"}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	finalAt := start.Add(120 * time.Minute)
	pusher := &fakePusher{}
	sum := newTestEngine(store, pusher, finalAt).DispatchOnce(context.Background())

	if sum.Sent != 2 || sum.Errors != 0 {
		t.Fatalf("sent=%d errors=%d want 2/0", sum.Sent, sum.Errors)
	}
	if len(pusher.batches) != 1 || len(pusher.batches[0]) != 2 {
		t.Fatalf("batches=%v want one batch of 2", pusher.batches)
	}
	msg := pusher.batches[0][0]
	if msg.Title != "Match finished" {
		t.Fatalf("title=%q", msg.Title)
	}
	if msg.Body != "Arsenal 2-1 Chelsea. Rate the match and vote for your MVP!" {
		t.Fatalf("body=%q", msg.Body)
	}
	if got := len(store.byStatus(StatusSent)); got != 2 {
		t.Fatalf("sent rows=%d want=2", got)
	}
}

func TestDispatchOnce_NotYetDue(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, start)
	store.tokens = []PushToken{{Token: "tok-a", Remind12h: true}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	// At finalAt the final is due; the reminder (finalAt+12h) is not.
	finalAt := start.Add(120 * time.Minute)
	pusher := &fakePusher{}
	sum := newTestEngine(store, pusher, finalAt).DispatchOnce(context.Background())

	if sum.Sent != 1 {
		t.Fatalf("sent=%d want=1", sum.Sent)
	}
	pending := store.byStatus(StatusPending)
	if len(pending) != 1 || pending[0].Type != TypeReminder {
		t.Fatalf("pending=%v want the reminder still pending", pending)
	}
}

func TestDispatchOnce_ReminderSuppressedAfterVote(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, start)
	store.tokens = []PushToken{{Token: "tok-a", Remind12h: true}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	store.addVote(1, "tok-a")

	// Past the reminder time: the final sends, the reminder is skipped.
	at := start.Add(120*time.Minute + 13*time.Hour)
	pusher := &fakePusher{}
	sum := newTestEngine(store, pusher, at).DispatchOnce(context.Background())

	if sum.Sent != 1 || sum.Skipped != 1 {
		t.Fatalf("sent=%d skipped=%d want 1/1", sum.Sent, sum.Skipped)
	}
	skipped := store.byStatus(StatusSkipped)
	if len(skipped) != 1 || skipped[0].Type != TypeReminder {
		t.Fatalf("skipped=%v want the reminder row", skipped)
	}
}

func TestDispatchOnce_ReminderSendsWithoutVote(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, start)
	store.tokens = []PushToken{{Token: "tok-a", Remind12h: true}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	at := start.Add(120*time.Minute + 13*time.Hour)
	pusher := &fakePusher{}
	sum := newTestEngine(store, pusher, at).DispatchOnce(context.Background())

	if sum.Sent != 2 {
		t.Fatalf("sent=%d want=2", sum.Sent)
	}
	var reminder *Message
	for _, b := range pusher.batches {
		for i := range b {
			if b[i].Data["type"] == TypeReminder {
				reminder = &b[i]
			}
		}
	}
	if reminder == nil {
		t.Fatal("reminder message not sent")
	}
	if reminder.Body != "Arsenal vs Chelsea: voting closes soon. Cast your vote!" {
		t.Fatalf("body=%q", reminder.Body)
	}
}

func TestDispatchOnce_GatewayFailureMarksChunk(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, start)
	store.tokens = []PushToken{{Token: "tok-a"}, {Token: "tok-b"}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	finalAt := start.Add(120 * time.Minute)
	pusher := &fakePusher{err: fmt.Errorf("gateway status 503")}
	sum := newTestEngine(store, pusher, finalAt).DispatchOnce(context.Background())

	if sum.Errors != 2 || sum.Sent != 0 {
		t.Fatalf("errors=%d sent=%d want 2/0", sum.Errors, sum.Sent)
	}
	errored := store.byStatus(StatusError)
	if len(errored) != 2 {
		t.Fatalf("error rows=%d want=2", len(errored))
	}
	for _, r := range errored {
		if r.LastError != "gateway status 503" {
			t.Fatalf("lastError=%q", r.LastError)
		}
	}
	if sum.LastError != "gateway status 503" {
		t.Fatalf("summary lastError=%q", sum.LastError)
	}
}

func TestDispatchOnce_MarkSentFailureNotCounted(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, start)
	store.tokens = []PushToken{{Token: "tok-a"}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	store.failMarkSent = true

	finalAt := start.Add(120 * time.Minute)
	sum := newTestEngine(store, &fakePusher{}, finalAt).DispatchOnce(context.Background())

	// The gateway accepted the batch but the store did not record it; the
	// summary must agree with the store, and the rows stay pending for the
	// next tick.
	if sum.Sent != 0 {
		t.Fatalf("sent=%d want=0 when MarkSent fails", sum.Sent)
	}
	if sum.LastError == "" {
		t.Fatal("summary must surface the mark failure")
	}
	if got := len(store.byStatus(StatusPending)); got != 1 {
		t.Fatalf("pending=%d want=1 for redelivery", got)
	}
	if len(store.logs) != 1 || store.logs[0].Sent != 0 {
		t.Fatalf("log row=%+v want sent=0", store.logs)
	}
}

func TestDispatchOnce_MissingMatchMarksError(t *testing.T) {
	store := newFakeStore()
	store.matches[1] = footballMatch(1, time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC))
	store.tokens = []PushToken{{Token: "tok-a"}}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	delete(store.matches, 1)

	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	sum := newTestEngine(store, &fakePusher{}, at).DispatchOnce(context.Background())

	if sum.Errors != 1 {
		t.Fatalf("errors=%d want=1", sum.Errors)
	}
	errored := store.byStatus(StatusError)
	if len(errored) != 1 || errored[0].LastError != "match not found" {
		t.Fatalf("error rows=%v", errored)
	}
}

func TestDispatchOnce_EmptyTickStillLogs(t *testing.T) {
	store := newFakeStore()
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	sum := newTestEngine(store, &fakePusher{}, at).DispatchOnce(context.Background())

	if sum.Sent+sum.Skipped+sum.Errors != 0 {
		t.Fatalf("summary=%+v want all zero", sum)
	}
	if len(store.logs) != 1 {
		t.Fatalf("logs=%d want=1", len(store.logs))
	}
	l := store.logs[0]
	if l.Sent != 0 || l.Skipped != 0 || l.Errors != 0 {
		t.Fatalf("log row=%+v want zeros", l)
	}
	if !l.Ts.Equal(at) {
		t.Fatalf("log ts=%s want=%s", l.Ts, at)
	}
}

func TestDispatchOnce_Chunking(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, start)
	for i := 0; i < 200; i++ {
		store.tokens = append(store.tokens, PushToken{Token: fmt.Sprintf("tok-%03d", i)})
	}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	if _, err := sched.ScheduleForMatch(context.Background(), 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	finalAt := start.Add(120 * time.Minute)
	pusher := &fakePusher{}
	sum := newTestEngine(store, pusher, finalAt).DispatchOnce(context.Background())

	if sum.Sent != 200 {
		t.Fatalf("sent=%d want=200", sum.Sent)
	}
	if len(pusher.batches) != 3 {
		t.Fatalf("batches=%d want=3 (90+90+20)", len(pusher.batches))
	}
	if len(pusher.batches[0]) != 90 || len(pusher.batches[1]) != 90 || len(pusher.batches[2]) != 20 {
		t.Fatalf("batch sizes=%d,%d,%d want 90,90,20",
			len(pusher.batches[0]), len(pusher.batches[1]), len(pusher.batches[2]))
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	// Football match at 18:00 UTC, two devices, one opted into reminders.
	// Scheduling yields three rows; at finalAt (20:00) the two finals send
	// and the reminder stays pending for the 08:00 tick next day.
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	store.matches[1] = footballMatch(1, start)
	store.tokens = []PushToken{
		{Token: "tok-a", Remind12h: true},
		{Token: "tok-b", Remind12h: false},
	}

	sched := NewScheduler(store, 24, 12*time.Hour, testLogger())
	n, err := sched.ScheduleForMatch(context.Background(), 1)
	if err != nil || n != 3 {
		t.Fatalf("schedule: n=%d err=%v want 3/nil", n, err)
	}

	finalAt := time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)
	pusher := &fakePusher{}
	sum := newTestEngine(store, pusher, finalAt).DispatchOnce(context.Background())
	if sum.Sent != 2 {
		t.Fatalf("sent=%d want=2 at finalAt", sum.Sent)
	}
	if got := len(store.byStatus(StatusPending)); got != 1 {
		t.Fatalf("pending=%d want the reminder left", got)
	}

	// Device votes before the reminder fires; the 08:00 tick skips it.
	store.addVote(1, "tok-a")
	reminderAt := finalAt.Add(12 * time.Hour)
	sum = newTestEngine(store, pusher, reminderAt).DispatchOnce(context.Background())
	if sum.Skipped != 1 || sum.Sent != 0 {
		t.Fatalf("skipped=%d sent=%d want 1/0", sum.Skipped, sum.Sent)
	}
	if got := len(store.byStatus(StatusPending)); got != 0 {
		t.Fatalf("pending=%d want=0 after both ticks", got)
	}
	if len(store.logs) != 2 {
		t.Fatalf("logs=%d want one row per tick", len(store.logs))
	}
}

func TestRenderMessage_FinalWithoutScore(t *testing.T) {
	m := footballMatch(1, time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC))
	msg := renderMessage(Notification{MatchID: 1, Token: "tok-a", Type: TypeFinal}, m)

	if msg.To != "tok-a" {
		t.Fatalf("to=%q", msg.To)
	}
	if msg.Body != "Arsenal vs Chelsea has finished. Rate the match and vote for your MVP!" {
		t.Fatalf("body=%q", msg.Body)
	}
	if msg.Data["matchId"] != "1" || msg.Data["type"] != TypeFinal {
		t.Fatalf("data=%v", msg.Data)
	}
}
