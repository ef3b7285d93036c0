/* models.go
 * Wire types for the API-Football v3 endpoints consumed by this bot.
 * Field layout mirrors the upstream JSON; helpers interpret status codes
 * and nullable score fields.
 */

package footballapi

import "time"

// QuotaState is the normalized rate-limit signal derived from an upstream
// response. It is returned alongside data instead of an error because the
// caller must distinguish "no data this cycle" from "stop polling".
type QuotaState int

const (
	QuotaOK QuotaState = iota
	QuotaExhausted
)

// Exhausted reports whether the request budget is spent.
func (q QuotaState) Exhausted() bool {
	return q == QuotaExhausted
}

// Fixture is one scheduled match with its current live state.
type Fixture struct {
	Fixture FixtureInfo `json:"fixture"`
	League  League      `json:"league"`
	Teams   Teams       `json:"teams"`
	Goals   Goals       `json:"goals"`
}

type FixtureInfo struct {
	ID     int64         `json:"id"`
	Date   string        `json:"date"`
	Status FixtureStatus `json:"status"`
}

type FixtureStatus struct {
	Short   string `json:"short"`
	Elapsed int    `json:"elapsed"`
}

type League struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Season  int    `json:"season"`
}

type Teams struct {
	Home Team `json:"home"`
	Away Team `json:"away"`
}

type Team struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Winner *bool  `json:"winner"`
}

// Goals holds the running score. The upstream sends null before kickoff.
type Goals struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Event is one match action (goal, card, substitution, ...).
type Event struct {
	Time   EventTime   `json:"time"`
	Team   Team        `json:"team"`
	Player EventPlayer `json:"player"`
	Assist EventPlayer `json:"assist"`
	Type   string      `json:"type"`
	Detail string      `json:"detail"`
}

type EventTime struct {
	Elapsed int  `json:"elapsed"`
	Extra   *int `json:"extra"`
}

type EventPlayer struct {
	ID   *int   `json:"id"`
	Name string `json:"name"`
}

// TeamStatistics is one team's entry from fixtures/statistics.
type TeamStatistics struct {
	Team       Team             `json:"team"`
	Statistics []StatisticValue `json:"statistics"`
}

// StatisticValue carries a single named statistic. Value is left untyped
// because the upstream mixes ints, percentage strings and nulls.
type StatisticValue struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Standing is one row of a league table.
type Standing struct {
	Rank   int    `json:"rank"`
	Team   Team   `json:"team"`
	Points int    `json:"points"`
	Form   string `json:"form"`
	All    struct {
		Played int `json:"played"`
	} `json:"all"`
}

// liveStatuses are the codes the upstream uses for in-play fixtures.
var liveStatuses = map[string]bool{
	"1H": true, "HT": true, "2H": true, "ET": true, "BT": true, "P": true, "LIVE": true,
}

// terminalStatuses are the codes after which a fixture can produce no
// further events.
var terminalStatuses = map[string]bool{
	"FT": true, "AET": true, "PEN": true, "CANC": true, "ABD": true, "AWD": true, "WO": true,
}

// IsLive reports whether the fixture is currently in play.
func (f Fixture) IsLive() bool {
	return liveStatuses[f.Fixture.Status.Short]
}

// IsFinished reports whether the fixture has reached a terminal status.
func (f Fixture) IsFinished() bool {
	return terminalStatuses[f.Fixture.Status.Short]
}

// Kickoff parses the fixture's kickoff timestamp. Fixtures with a missing
// or malformed timestamp cannot be scheduled and return an error.
func (f Fixture) Kickoff() (time.Time, error) {
	return time.Parse(time.RFC3339, f.Fixture.Date)
}

// HomeGoals returns the home score, treating a null score as zero.
func (f Fixture) HomeGoals() int {
	if f.Goals.Home == nil {
		return 0
	}
	return *f.Goals.Home
}

// AwayGoals returns the away score, treating a null score as zero.
func (f Fixture) AwayGoals() int {
	if f.Goals.Away == nil {
		return 0
	}
	return *f.Goals.Away
}

// TotalGoals returns the combined score at the time the fixture was fetched.
func (f Fixture) TotalGoals() int {
	return f.HomeGoals() + f.AwayGoals()
}

// Minute returns the elapsed minute the event occurred at.
func (e Event) Minute() int {
	return e.Time.Elapsed
}
