// Package match holds the match domain model, the voting-window calculator,
// and the voting-window gate shared by the scheduler and the write endpoints.
package match

import (
	"time"
)

// Match lifecycle statuses.
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusFinished  = "finished"
)

// Team types.
const (
	TeamClub     = "club"
	TeamNational = "national"
)

// Team is one side of a match.
type Team struct {
	Type        string `json:"type"` // club | national
	Name        string `json:"name"`
	CountryCode string `json:"countryCode,omitempty"` // ISO alpha-2 for national teams
}

// Score is the (possibly partial) final score of a match.
type Score struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Lineup is one team's announced lineup.
type Lineup struct {
	Formation string   `json:"formation,omitempty"`
	Starting  []string `json:"starting,omitempty"`
	Bench     []string `json:"bench,omitempty"`
}

// Lineups holds both sides' lineups. Either side may be absent.
type Lineups struct {
	Home *Lineup `json:"home,omitempty"`
	Away *Lineup `json:"away,omitempty"`
}

// Injury is a single entry of a match's injury report.
type Injury struct {
	Team   string `json:"team"` // "home" | "away"
	Player string `json:"player"`
	Status string `json:"status"` // out, doubtful, questionable
	Note   string `json:"note,omitempty"`
}

// Match is a tracked sports event.
type Match struct {
	ID            int64               `json:"id"`
	Sport         string              `json:"sport"`
	Tournament    string              `json:"tournament"`
	Subgroup      string              `json:"subgroup,omitempty"`
	CompetitionID *int64              `json:"competitionId,omitempty"`
	HomeTeam      Team                `json:"homeTeam"`
	AwayTeam      Team                `json:"awayTeam"`
	StartTime     time.Time           `json:"startTime"`
	Status        string              `json:"status"`
	Score         *Score              `json:"score,omitempty"`
	Channels      map[string][]string `json:"channels,omitempty"` // countryCode -> channel names
	Source        string              `json:"source,omitempty"`
	SourceID      string              `json:"sourceId,omitempty"`

	// Derived temporal fields, persisted once computed so every reader
	// agrees on the voting window. Nil until normalized.
	FinalAt       *time.Time `json:"finalAt,omitempty"`
	VotingOpenAt  *time.Time `json:"votingOpenAt,omitempty"`
	VotingCloseAt *time.Time `json:"votingCloseAt,omitempty"`

	Lineups  *Lineups `json:"lineups,omitempty"`
	Injuries []Injury `json:"injuries,omitempty"`
}

// Label returns "Home vs Away" for display and push messages.
func (m *Match) Label() string {
	return m.HomeTeam.Name + " vs " + m.AwayTeam.Name
}
