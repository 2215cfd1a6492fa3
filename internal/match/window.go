package match

import (
	"time"

	"github.com/matchpulse/matchpulse-api/internal/config"
)

// Window is the set of derived temporal fields for one match: the instant
// its content is considered final and the half-open voting interval
// [VotingOpenAt, VotingCloseAt).
type Window struct {
	FinalAt       time.Time
	VotingOpenAt  time.Time
	VotingCloseAt time.Time
}

// ComputeWindow derives a match's window from its start time and sport.
// Explicit values already present on the match always win and are returned
// unchanged apart from UTC normalization. Defaults:
//
//	finalAt       = startTime + duration(sport)
//	votingOpenAt  = finalAt
//	votingCloseAt = votingOpenAt + windowHours
//
// Pure and total — unknown sports use the default duration, never an error.
func ComputeWindow(m *Match, windowHours int) Window {
	var w Window

	if m.FinalAt != nil {
		w.FinalAt = m.FinalAt.UTC()
	} else {
		dur, ok := config.SportDurations[m.Sport]
		if !ok {
			dur = config.DefaultDuration
		}
		w.FinalAt = m.StartTime.UTC().Add(dur)
	}

	if m.VotingOpenAt != nil {
		w.VotingOpenAt = m.VotingOpenAt.UTC()
	} else {
		w.VotingOpenAt = w.FinalAt
	}

	if m.VotingCloseAt != nil {
		w.VotingCloseAt = m.VotingCloseAt.UTC()
	} else {
		w.VotingCloseAt = w.VotingOpenAt.Add(time.Duration(windowHours) * time.Hour)
	}

	return w
}

// Missing reports which of the three window fields are absent on the match
// and therefore need to be written back after a ComputeWindow call.
func (m *Match) Missing() (finalAt, openAt, closeAt bool) {
	return m.FinalAt == nil, m.VotingOpenAt == nil, m.VotingCloseAt == nil
}

// ApplyWindow sets the computed window on the match in memory.
func (m *Match) ApplyWindow(w Window) {
	f, o, c := w.FinalAt, w.VotingOpenAt, w.VotingCloseAt
	m.FinalAt, m.VotingOpenAt, m.VotingCloseAt = &f, &o, &c
}
