package match

import (
	"testing"
	"time"

	"github.com/matchpulse/matchpulse-api/internal/config"
)

func gateMatch() *Match {
	open := time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)
	closeAt := open.Add(24 * time.Hour)
	return &Match{
		Sport:         config.SportFootball,
		StartTime:     open.Add(-2 * time.Hour),
		VotingOpenAt:  &open,
		VotingCloseAt: &closeAt,
	}
}

func TestAssertOpen_BeforeOpen(t *testing.T) {
	m := gateMatch()
	now := m.VotingOpenAt.Add(-time.Second)

	err := AssertOpen(m, now, 24)
	we, ok := AsWindowError(err)
	if !ok {
		t.Fatalf("want WindowError, got %v", err)
	}
	if we.Reason != ReasonNotOpen {
		t.Fatalf("reason=%s want=%s", we.Reason, ReasonNotOpen)
	}
	if we.RemainingSeconds != 1 {
		t.Fatalf("remaining=%d want=1", we.RemainingSeconds)
	}
	if !we.OpensAt.Equal(*m.VotingOpenAt) {
		t.Fatalf("OpensAt=%s want=%s", we.OpensAt, m.VotingOpenAt)
	}
}

func TestAssertOpen_AtOpenBoundary(t *testing.T) {
	m := gateMatch()
	if err := AssertOpen(m, *m.VotingOpenAt, 24); err != nil {
		t.Fatalf("open boundary should be inside the window: %v", err)
	}
}

func TestAssertOpen_JustBeforeClose(t *testing.T) {
	m := gateMatch()
	now := m.VotingCloseAt.Add(-time.Second)
	if err := AssertOpen(m, now, 24); err != nil {
		t.Fatalf("close-1s should be inside the window: %v", err)
	}
}

func TestAssertOpen_AtCloseBoundary(t *testing.T) {
	m := gateMatch()

	err := AssertOpen(m, *m.VotingCloseAt, 24)
	we, ok := AsWindowError(err)
	if !ok {
		t.Fatalf("want WindowError, got %v", err)
	}
	if we.Reason != ReasonClosed {
		t.Fatalf("reason=%s want=%s", we.Reason, ReasonClosed)
	}
	if !we.ClosedAt.Equal(*m.VotingCloseAt) {
		t.Fatalf("ClosedAt=%s want=%s", we.ClosedAt, m.VotingCloseAt)
	}
}

func TestAssertOpen_DerivesWindowWhenUnset(t *testing.T) {
	// No persisted window: the gate evaluates against the computed one.
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	m := &Match{Sport: config.SportFootball, StartTime: start}

	if err := AssertOpen(m, start.Add(121*time.Minute), 24); err != nil {
		t.Fatalf("window should be open shortly after derived finalAt: %v", err)
	}
	err := AssertOpen(m, start, 24)
	if we, ok := AsWindowError(err); !ok || we.Reason != ReasonNotOpen {
		t.Fatalf("want voting_not_open at kickoff, got %v", err)
	}
}

func TestAssertOpen_NonUTCNow(t *testing.T) {
	m := gateMatch()
	loc := time.FixedZone("CET", 3600)
	now := m.VotingOpenAt.Add(time.Hour).In(loc)
	if err := AssertOpen(m, now, 24); err != nil {
		t.Fatalf("zone of `now` must not affect the verdict: %v", err)
	}
}
