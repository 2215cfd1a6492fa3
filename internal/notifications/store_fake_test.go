package notifications

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/matchpulse/matchpulse-api/internal/match"
)

// fakeStore is an in-memory Store with the same atomicity contract as
// PgStore: insert-if-absent on (match, token, type) ignoring canceled rows,
// and Mark* transitions that only touch pending rows.
type fakeStore struct {
	matches map[int64]*match.Match
	tokens  []PushToken
	rows    []*Notification
	votes   map[string]bool // "matchID/token"
	logs    []DispatchLog
	nextID  int64

	failInsert   bool
	failMarkSent bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		matches: make(map[int64]*match.Match),
		votes:   make(map[string]bool),
	}
}

func (f *fakeStore) MatchByID(_ context.Context, id int64) (*match.Match, error) {
	return f.matches[id], nil
}

func (f *fakeStore) SaveWindow(_ context.Context, id int64, w match.Window, setFinal, setOpen, setClose bool) error {
	m, ok := f.matches[id]
	if !ok {
		return nil
	}
	if setFinal {
		v := w.FinalAt
		m.FinalAt = &v
	}
	if setOpen {
		v := w.VotingOpenAt
		m.VotingOpenAt = &v
	}
	if setClose {
		v := w.VotingCloseAt
		m.VotingCloseAt = &v
	}
	return nil
}

func (f *fakeStore) MatchIDsStartingWithin(_ context.Context, from, to time.Time) ([]int64, error) {
	var ids []int64
	for id, m := range f.matches {
		if !m.StartTime.Before(from) && !m.StartTime.After(to) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeStore) ListTokens(_ context.Context) ([]PushToken, error) {
	return f.tokens, nil
}

func (f *fakeStore) InsertPending(_ context.Context, n *Notification) (bool, error) {
	if f.failInsert {
		return false, fmt.Errorf("insert failed")
	}
	for _, r := range f.rows {
		if r.MatchID == n.MatchID && r.Token == n.Token && r.Type == n.Type && r.Status != StatusCanceled {
			return false, nil
		}
	}
	f.nextID++
	row := *n
	row.ID = f.nextID
	row.Status = StatusPending
	f.rows = append(f.rows, &row)
	return true, nil
}

func (f *fakeStore) CancelPending(_ context.Context, matchID int64) (int64, error) {
	var n int64
	for _, r := range f.rows {
		if r.MatchID == matchID && r.Status == StatusPending {
			r.Status = StatusCanceled
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DueBefore(_ context.Context, t time.Time) ([]Notification, error) {
	var due []Notification
	for _, r := range f.rows {
		if r.Status == StatusPending && !r.DeliverAt.After(t) {
			due = append(due, *r)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].DeliverAt.Before(due[j].DeliverAt) })
	return due, nil
}

func (f *fakeStore) MarkSent(_ context.Context, ids []int64, at time.Time) error {
	if f.failMarkSent {
		return fmt.Errorf("mark sent failed")
	}
	for _, r := range f.rows {
		if r.Status == StatusPending && contains(ids, r.ID) {
			r.Status = StatusSent
			v := at
			r.SentAt = &v
		}
	}
	return nil
}

func (f *fakeStore) MarkError(_ context.Context, ids []int64, msg string) error {
	for _, r := range f.rows {
		if r.Status == StatusPending && contains(ids, r.ID) {
			r.Status = StatusError
			r.LastError = msg
		}
	}
	return nil
}

func (f *fakeStore) MarkSkipped(_ context.Context, id int64) error {
	for _, r := range f.rows {
		if r.ID == id && r.Status == StatusPending {
			r.Status = StatusSkipped
		}
	}
	return nil
}

func (f *fakeStore) HasDeviceVote(_ context.Context, matchID int64, token string) (bool, error) {
	return f.votes[fmt.Sprintf("%d/%s", matchID, token)], nil
}

func (f *fakeStore) AppendLog(_ context.Context, l *DispatchLog) error {
	f.logs = append(f.logs, *l)
	return nil
}

func (f *fakeStore) addVote(matchID int64, token string) {
	f.votes[fmt.Sprintf("%d/%s", matchID, token)] = true
}

func (f *fakeStore) byStatus(status string) []*Notification {
	var out []*Notification
	for _, r := range f.rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// fakePusher records sent batches and can be told to fail.
type fakePusher struct {
	batches [][]Message
	err     error
}

func (p *fakePusher) Send(_ context.Context, msgs []Message) error {
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, msgs)
	return nil
}
