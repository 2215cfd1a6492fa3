// Package importer syncs upcoming matches from TheSportsDB and feeds them
// into the notification scheduler.
//
// The provider exposes a day-by-day events endpoint; the sync walks N days
// per sport, upserts each event keyed by its external id, and schedules
// notifications for the resulting matches. The whole loop is idempotent —
// re-running it refreshes provider fields and creates no duplicates.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://www.thesportsdb.com/api/v1/json"

// sportNames maps internal sport keys to TheSportsDB sport names.
var sportNames = map[string]string{
	"football":   "Soccer",
	"basketball": "Basketball",
	"ufc":        "Fighting",
}

// channelsCH is the manual Swiss broadcast channel mapping by sport.
var channelsCH = map[string][]string{
	"football":   {"blue Sport", "SRF zwei"},
	"basketball": {"SRF zwei"},
	"ufc":        {"blue Sport", "UFC Fight Pass"},
}

// Client fetches events from TheSportsDB.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a TheSportsDB client. The free tier uses key "3".
func NewClient(apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Event is one raw provider event.
type Event struct {
	IDEvent      string `json:"idEvent"`
	StrEvent     string `json:"strEvent"`
	StrLeague    string `json:"strLeague"`
	StrSeason    string `json:"strSeason"`
	StrHomeTeam  string `json:"strHomeTeam"`
	StrAwayTeam  string `json:"strAwayTeam"`
	StrTimestamp string `json:"strTimestamp"`
	DateEvent    string `json:"dateEvent"`
	StrTime      string `json:"strTime"`
}

type eventsResponse struct {
	Events []Event `json:"events"`
}

// EventsForDay fetches the provider's events for one date and sport.
func (c *Client) EventsForDay(ctx context.Context, day time.Time, sport string) ([]Event, error) {
	name, ok := sportNames[sport]
	if !ok {
		return nil, fmt.Errorf("unknown sport %q", sport)
	}

	u := fmt.Sprintf("%s/%s/eventsday.php?d=%s&s=%s",
		c.baseURL, c.apiKey, day.UTC().Format("2006-01-02"), name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thesportsdb returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var out eventsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return out.Events, nil
}

// StartTime parses an event's kickoff instant. Provider timestamps are UTC
// wall-clock strings; events with no usable time are skipped by the caller.
func (e *Event) StartTime() (time.Time, bool) {
	if e.StrTimestamp != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", e.StrTimestamp, time.UTC); err == nil {
			return t, true
		}
	}
	if e.DateEvent != "" {
		clock := e.StrTime
		if clock == "" {
			clock = "00:00:00"
		}
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", e.DateEvent+" "+clock, time.UTC); err == nil {
			return t, true
		}
		if t, err := time.ParseInLocation("2006-01-02", e.DateEvent, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
