package match

import (
	"errors"
	"fmt"
	"time"
)

// Voting-window violation reasons.
const (
	ReasonNotOpen = "voting_not_open"
	ReasonClosed  = "voting_closed"
)

// WindowError is a structured voting-window violation. It carries a
// machine-readable reason plus the boundary, the evaluation time, and a
// remaining-time hint so clients can show a countdown.
type WindowError struct {
	Reason           string    `json:"reason"`
	OpensAt          time.Time `json:"opensAt,omitempty"`
	ClosedAt         time.Time `json:"closedAt,omitempty"`
	Now              time.Time `json:"now"`
	RemainingSeconds int64     `json:"remainingSeconds"`
}

func (e *WindowError) Error() string {
	if e.Reason == ReasonNotOpen {
		return fmt.Sprintf("voting not open: opens at %s (%ds remaining)",
			e.OpensAt.Format(time.RFC3339), e.RemainingSeconds)
	}
	return fmt.Sprintf("voting closed: closed at %s", e.ClosedAt.Format(time.RFC3339))
}

// AsWindowError unwraps a WindowError from err, if present.
func AsWindowError(err error) (*WindowError, bool) {
	var we *WindowError
	ok := errors.As(err, &we)
	return we, ok
}

// AssertOpen checks that `now` falls inside the match's voting window
// [votingOpenAt, votingCloseAt). Callers must pass the freshly loaded match
// so admin window overrides take effect for in-flight requests.
func AssertOpen(m *Match, now time.Time, windowHours int) error {
	w := ComputeWindow(m, windowHours)
	now = now.UTC()

	if now.Before(w.VotingOpenAt) {
		return &WindowError{
			Reason:           ReasonNotOpen,
			OpensAt:          w.VotingOpenAt,
			Now:              now,
			RemainingSeconds: int64(w.VotingOpenAt.Sub(now) / time.Second),
		}
	}
	if !now.Before(w.VotingCloseAt) {
		return &WindowError{
			Reason:           ReasonClosed,
			ClosedAt:         w.VotingCloseAt,
			Now:              now,
			RemainingSeconds: 0,
		}
	}
	return nil
}
