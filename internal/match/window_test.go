package match

import (
	"testing"
	"time"

	"github.com/matchpulse/matchpulse-api/internal/config"
)

func TestComputeWindow_FootballDefaults(t *testing.T) {
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	m := &Match{Sport: config.SportFootball, StartTime: start}

	w := ComputeWindow(m, 24)

	wantFinal := start.Add(120 * time.Minute)
	if !w.FinalAt.Equal(wantFinal) {
		t.Fatalf("FinalAt=%s want=%s", w.FinalAt, wantFinal)
	}
	if !w.VotingOpenAt.Equal(wantFinal) {
		t.Fatalf("VotingOpenAt=%s want=%s", w.VotingOpenAt, wantFinal)
	}
	if !w.VotingCloseAt.Equal(wantFinal.Add(24 * time.Hour)) {
		t.Fatalf("VotingCloseAt=%s want=%s", w.VotingCloseAt, wantFinal.Add(24*time.Hour))
	}
}

func TestComputeWindow_UFCDuration(t *testing.T) {
	start := time.Date(2025, 6, 14, 22, 0, 0, 0, time.UTC)
	m := &Match{Sport: config.SportUFC, StartTime: start}

	w := ComputeWindow(m, 24)

	if !w.FinalAt.Equal(start.Add(180 * time.Minute)) {
		t.Fatalf("FinalAt=%s want start+180m", w.FinalAt)
	}
}

func TestComputeWindow_UnknownSportFallsBack(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	m := &Match{Sport: "handball", StartTime: start}

	w := ComputeWindow(m, 24)

	if !w.FinalAt.Equal(start.Add(config.DefaultDuration)) {
		t.Fatalf("FinalAt=%s want start+default duration", w.FinalAt)
	}
}

func TestComputeWindow_ExplicitValuesWin(t *testing.T) {
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	finalAt := start.Add(95 * time.Minute)
	openAt := finalAt.Add(5 * time.Minute)
	closeAt := openAt.Add(6 * time.Hour)
	m := &Match{
		Sport:         config.SportFootball,
		StartTime:     start,
		FinalAt:       &finalAt,
		VotingOpenAt:  &openAt,
		VotingCloseAt: &closeAt,
	}

	w := ComputeWindow(m, 24)

	if !w.FinalAt.Equal(finalAt) || !w.VotingOpenAt.Equal(openAt) || !w.VotingCloseAt.Equal(closeAt) {
		t.Fatalf("explicit window not preserved: %+v", w)
	}
}

func TestComputeWindow_PartialOverride(t *testing.T) {
	// Only close is pinned; final and open still derive from start time.
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	closeAt := start.Add(6 * time.Hour)
	m := &Match{Sport: config.SportBasketball, StartTime: start, VotingCloseAt: &closeAt}

	w := ComputeWindow(m, 24)

	wantFinal := start.Add(120 * time.Minute)
	if !w.FinalAt.Equal(wantFinal) {
		t.Fatalf("FinalAt=%s want=%s", w.FinalAt, wantFinal)
	}
	if !w.VotingOpenAt.Equal(wantFinal) {
		t.Fatalf("VotingOpenAt=%s want=%s", w.VotingOpenAt, wantFinal)
	}
	if !w.VotingCloseAt.Equal(closeAt) {
		t.Fatalf("VotingCloseAt=%s want=%s", w.VotingCloseAt, closeAt)
	}
}

func TestComputeWindow_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	start := time.Date(2025, 1, 1, 19, 0, 0, 0, loc) // 18:00 UTC
	m := &Match{Sport: config.SportFootball, StartTime: start}

	w := ComputeWindow(m, 24)

	if w.FinalAt.Location() != time.UTC {
		t.Fatalf("FinalAt location=%v want UTC", w.FinalAt.Location())
	}
	want := time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)
	if !w.FinalAt.Equal(want) {
		t.Fatalf("FinalAt=%s want=%s", w.FinalAt, want)
	}
}

func TestMissing(t *testing.T) {
	now := time.Now()
	m := &Match{FinalAt: &now}
	f, o, c := m.Missing()
	if f || !o || !c {
		t.Fatalf("Missing()=(%v,%v,%v) want (false,true,true)", f, o, c)
	}
}

func TestApplyWindow(t *testing.T) {
	m := &Match{}
	w := Window{
		FinalAt:       time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC),
		VotingOpenAt:  time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC),
		VotingCloseAt: time.Date(2025, 1, 2, 20, 0, 0, 0, time.UTC),
	}
	m.ApplyWindow(w)
	if m.FinalAt == nil || !m.FinalAt.Equal(w.FinalAt) {
		t.Fatalf("FinalAt not applied: %v", m.FinalAt)
	}
	if m.VotingCloseAt == nil || !m.VotingCloseAt.Equal(w.VotingCloseAt) {
		t.Fatalf("VotingCloseAt not applied: %v", m.VotingCloseAt)
	}
}
