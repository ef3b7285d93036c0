/* client.go
 * Contains the quota-aware HTTP client for API-Football. Rate-limit
 * exhaustion is normalized into a QuotaState signal; every other upstream
 * failure degrades to an empty result so the dispatch loop can retry on
 * the next cycle instead of crashing.
 */

package footballapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://v3.football.api-sports.io"

// quotaWarnThreshold is the remaining-request count under which the client
// starts warning. Telemetry only; it never affects control flow.
const quotaWarnThreshold = 10

// Client talks to API-Football with static key auth and request pacing.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	// leagues optionally restricts live results to a set of league ids.
	// Empty means every league is kept.
	leagues map[int]bool
}

// NewClient creates an API-Football client. requestsPerMinute bounds the
// outbound call rate so a burst of live matches cannot burn the day's quota.
func NewClient(apiKey string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
		logger:     logger,
	}
}

// SetBaseURL overrides the upstream base URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// SetLeagueFilter restricts FetchLiveMatches to the given league ids.
func (c *Client) SetLeagueFilter(leagueIDs []int) {
	if len(leagueIDs) == 0 {
		c.leagues = nil
		return
	}
	c.leagues = make(map[int]bool, len(leagueIDs))
	for _, id := range leagueIDs {
		c.leagues[id] = true
	}
}

// envelope is the common API-Football response wrapper. The errors field is
// an empty array on success and an object keyed by error kind on failure,
// so it has to be decoded lazily.
type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

// get performs one rate-limited request and normalizes the outcome.
// A nil payload with QuotaOK means "no data this cycle".
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, QuotaState) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, QuotaOK
	}

	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.logger.Error("failed to create request", "endpoint", endpoint, "error", err)
		return nil, QuotaOK
	}
	req.Header.Set("x-apisports-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed", "endpoint", endpoint, "error", err)
		return nil, QuotaOK
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Error("request quota exhausted", "endpoint", endpoint)
		return nil, QuotaExhausted
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("unexpected upstream status", "endpoint", endpoint, "status", resp.StatusCode)
		return nil, QuotaOK
	}

	c.logRemainingQuota(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("failed to read response body", "endpoint", endpoint, "error", err)
		return nil, QuotaOK
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Warn("malformed upstream body", "endpoint", endpoint, "error", err)
		return nil, QuotaOK
	}

	if quotaError(env.Errors) {
		c.logger.Error("request quota exhausted", "endpoint", endpoint)
		return nil, QuotaExhausted
	}

	return env.Response, QuotaOK
}

// quotaError reports whether the in-body errors field indicates request
// limit exhaustion. The upstream reports errors as {"requests": "..."} or
// {"rateLimit": "..."}; anything else is treated as a transient failure.
func quotaError(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var errs map[string]string
	if err := json.Unmarshal(raw, &errs); err != nil {
		// An empty array decodes as a slice, not a map; no errors present.
		return false
	}
	_, requests := errs["requests"]
	_, rateLimited := errs["rateLimit"]
	return requests || rateLimited
}

func (c *Client) logRemainingQuota(resp *http.Response) {
	remaining := resp.Header.Get("x-ratelimit-requests-remaining")
	if remaining == "" {
		return
	}
	c.logger.Info("upstream quota", "remaining", remaining)
	if n, err := strconv.Atoi(remaining); err == nil && n < quotaWarnThreshold {
		c.logger.Warn("upstream quota nearly exhausted", "remaining", n)
	}
}

// FetchLiveMatches returns every fixture currently in play, optionally
// filtered to the configured leagues.
func (c *Client) FetchLiveMatches(ctx context.Context) ([]Fixture, QuotaState) {
	params := url.Values{}
	params.Set("live", "all")

	raw, quota := c.get(ctx, "fixtures", params)
	if quota.Exhausted() || raw == nil {
		return nil, quota
	}

	var fixtures []Fixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		c.logger.Warn("malformed fixtures payload", "error", err)
		return nil, QuotaOK
	}

	if c.leagues != nil {
		kept := fixtures[:0]
		for _, f := range fixtures {
			if c.leagues[f.League.ID] {
				kept = append(kept, f)
			}
		}
		fixtures = kept
	}

	c.logger.Info("fetched live matches", "count", len(fixtures))
	return fixtures, QuotaOK
}

// FetchFixturesByDate returns the full fixture list for one calendar day.
// date uses the YYYY-MM-DD form the upstream expects.
func (c *Client) FetchFixturesByDate(ctx context.Context, date string) ([]Fixture, QuotaState) {
	params := url.Values{}
	params.Set("date", date)

	raw, quota := c.get(ctx, "fixtures", params)
	if quota.Exhausted() || raw == nil {
		return nil, quota
	}

	var fixtures []Fixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		c.logger.Warn("malformed fixtures payload", "error", err)
		return nil, QuotaOK
	}

	if c.leagues != nil {
		kept := fixtures[:0]
		for _, f := range fixtures {
			if c.leagues[f.League.ID] {
				kept = append(kept, f)
			}
		}
		fixtures = kept
	}

	return fixtures, QuotaOK
}

// FetchEvents returns the event list for one fixture.
func (c *Client) FetchEvents(ctx context.Context, fixtureID int64) ([]Event, QuotaState) {
	params := url.Values{}
	params.Set("fixture", strconv.FormatInt(fixtureID, 10))

	raw, quota := c.get(ctx, "fixtures/events", params)
	if quota.Exhausted() || raw == nil {
		return nil, quota
	}

	var events []Event
	if err := json.Unmarshal(raw, &events); err != nil {
		c.logger.Warn("malformed events payload", "fixture", fixtureID, "error", err)
		return nil, QuotaOK
	}
	return events, QuotaOK
}

// FetchStatistics returns the per-team statistics for one fixture.
func (c *Client) FetchStatistics(ctx context.Context, fixtureID int64) ([]TeamStatistics, QuotaState) {
	params := url.Values{}
	params.Set("fixture", strconv.FormatInt(fixtureID, 10))

	raw, quota := c.get(ctx, "fixtures/statistics", params)
	if quota.Exhausted() || raw == nil {
		return nil, quota
	}

	var stats []TeamStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.logger.Warn("malformed statistics payload", "fixture", fixtureID, "error", err)
		return nil, QuotaOK
	}
	return stats, QuotaOK
}

// standingsEnvelope unwraps the doubly nested standings response:
// response[0].league.standings[0] is the table.
type standingsEnvelope struct {
	League struct {
		Standings [][]Standing `json:"standings"`
	} `json:"league"`
}

// FetchStandings returns the league table for a league and season.
func (c *Client) FetchStandings(ctx context.Context, leagueID, season int) ([]Standing, QuotaState) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("season", strconv.Itoa(season))

	raw, quota := c.get(ctx, "standings", params)
	if quota.Exhausted() || raw == nil {
		return nil, quota
	}

	var envs []standingsEnvelope
	if err := json.Unmarshal(raw, &envs); err != nil {
		c.logger.Warn("malformed standings payload", "league", leagueID, "error", err)
		return nil, QuotaOK
	}
	if len(envs) == 0 || len(envs[0].League.Standings) == 0 {
		return nil, QuotaOK
	}
	return envs[0].League.Standings[0], QuotaOK
}

// FetchHeadToHead returns the most recent meetings between two teams.
func (c *Client) FetchHeadToHead(ctx context.Context, homeID, awayID, last int) ([]Fixture, QuotaState) {
	params := url.Values{}
	params.Set("h2h", fmt.Sprintf("%d-%d", homeID, awayID))
	params.Set("last", strconv.Itoa(last))

	raw, quota := c.get(ctx, "fixtures/headtohead", params)
	if quota.Exhausted() || raw == nil {
		return nil, quota
	}

	var fixtures []Fixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		c.logger.Warn("malformed head-to-head payload", "error", err)
		return nil, QuotaOK
	}
	return fixtures, QuotaOK
}
