/* analytics.go
 * Contains the match analysis engine. When a late first goal fires it
 * pulls statistics, standings and head-to-head history for the fixture
 * and scores the trailing side's comeback chances plus the expected goals
 * for the remaining minutes. Standings and head-to-head responses are
 * cached because they change slowly and the request budget does not.
 */

package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"goalwatch-bot/api/footballapi"
)

// analysisMinute is the match minute the analysis is anchored to.
const analysisMinute = 70

// StatsSource supplies the auxiliary endpoints the analysis consumes.
type StatsSource interface {
	FetchStatistics(ctx context.Context, fixtureID int64) ([]footballapi.TeamStatistics, footballapi.QuotaState)
	FetchStandings(ctx context.Context, leagueID, season int) ([]footballapi.Standing, footballapi.QuotaState)
	FetchHeadToHead(ctx context.Context, homeID, awayID, last int) ([]footballapi.Fixture, footballapi.QuotaState)
}

// Analytics computes comeback reports for in-play fixtures.
type Analytics struct {
	api    StatsSource
	logger *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	standingsDay map[string][]footballapi.Standing
	headToHead   map[string][]footballapi.Fixture
}

// NewAnalytics creates an analysis engine backed by the given source.
func NewAnalytics(api StatsSource, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		api:          api,
		logger:       logger,
		now:          time.Now,
		standingsDay: make(map[string][]footballapi.Standing),
		headToHead:   make(map[string][]footballapi.Fixture),
	}
}

// teamStats is one side's statistics in normalized form.
type teamStats struct {
	Shots       int
	ShotsOnGoal int
	Possession  int
	Corners     int
}

// Report is the outcome of one match analysis.
type Report struct {
	LosingTeam          string
	WinningTeam         string
	ScoreDiff           int
	Importance          Importance
	ComebackProbability int
	Confidence          string
	Factors             []Factor
	GoalsForecast       GoalsForecast
}

// Importance grades how much the fixture matters in the table.
type Importance struct {
	Score    int
	Category string
	Reason   string
}

// Factor is one named contribution to the comeback probability.
type Factor struct {
	Name  string
	Value string
}

// GoalsForecast is the expected-goals projection for the rest of the match.
type GoalsForecast struct {
	Home        float64
	Away        float64
	Total       float64
	OverOneHalf int
}

// AnalyzeMatch scores the trailing team's comeback chances. Returns false
// for level scores and for fixtures that cannot be analyzed; the caller
// should send the plain notification in that case.
func (a *Analytics) AnalyzeMatch(ctx context.Context, fixture footballapi.Fixture) (*Report, bool) {
	homeGoals := fixture.HomeGoals()
	awayGoals := fixture.AwayGoals()
	if homeGoals == awayGoals {
		return nil, false
	}

	losing, winning := fixture.Teams.Away, fixture.Teams.Home
	losingIsHome := false
	if homeGoals < awayGoals {
		losing, winning = fixture.Teams.Home, fixture.Teams.Away
		losingIsHome = true
	}
	scoreDiff := homeGoals - awayGoals
	if scoreDiff < 0 {
		scoreDiff = -scoreDiff
	}

	stats := a.fetchStats(ctx, fixture.Fixture.ID)
	standings := a.fetchStandings(ctx, fixture.League.ID, fixture.League.Season)
	h2h := a.fetchHeadToHead(ctx, fixture.Teams.Home.ID, fixture.Teams.Away.ID)

	importance := matchImportance(standings, fixture)
	prob, confidence, factors := comebackProbability(fixture, stats, standings, h2h, losing, losingIsHome, scoreDiff, importance)
	forecast := predictRemainingGoals(fixture, stats, analysisMinute)

	return &Report{
		LosingTeam:          losing.Name,
		WinningTeam:         winning.Name,
		ScoreDiff:           scoreDiff,
		Importance:          importance,
		ComebackProbability: prob,
		Confidence:          confidence,
		Factors:             factors,
		GoalsForecast:       forecast,
	}, true
}

// Summary renders a report for the fixture, or reports false when no
// analysis applies. Satisfies the dispatcher's analyzer contract.
func (a *Analytics) Summary(ctx context.Context, fixture footballapi.Fixture) (string, bool) {
	report, ok := a.AnalyzeMatch(ctx, fixture)
	if !ok {
		return "", false
	}
	return report.Summary(), true
}

func (a *Analytics) fetchStats(ctx context.Context, fixtureID int64) map[string]teamStats {
	raw, quota := a.api.FetchStatistics(ctx, fixtureID)
	if quota.Exhausted() || len(raw) == 0 {
		return nil
	}
	// The upstream lists the home side first.
	stats := make(map[string]teamStats, 2)
	for i, entry := range raw {
		key := "away"
		if i == 0 {
			key = "home"
		}
		stats[key] = normalizeStats(entry.Statistics)
	}
	return stats
}

func (a *Analytics) fetchStandings(ctx context.Context, leagueID, season int) []footballapi.Standing {
	key := fmt.Sprintf("%d_%d_%s", leagueID, season, a.now().Format("2006-01-02"))

	a.mu.Lock()
	if cached, ok := a.standingsDay[key]; ok {
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	standings, quota := a.api.FetchStandings(ctx, leagueID, season)
	if quota.Exhausted() {
		return nil
	}
	if len(standings) > 0 {
		a.mu.Lock()
		a.standingsDay[key] = standings
		a.mu.Unlock()
	}
	return standings
}

func (a *Analytics) fetchHeadToHead(ctx context.Context, homeID, awayID int) []footballapi.Fixture {
	lo, hi := homeID, awayID
	if lo > hi {
		lo, hi = hi, lo
	}
	key := fmt.Sprintf("%d_%d", lo, hi)

	a.mu.Lock()
	if cached, ok := a.headToHead[key]; ok {
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	h2h, quota := a.api.FetchHeadToHead(ctx, homeID, awayID, 10)
	if quota.Exhausted() {
		return nil
	}
	if len(h2h) > 0 {
		a.mu.Lock()
		a.headToHead[key] = h2h
		a.mu.Unlock()
	}
	return h2h
}

// normalizeStats flattens the upstream's mixed-type statistic list. Nulls
// become zero and percentage strings lose their suffix.
func normalizeStats(values []footballapi.StatisticValue) teamStats {
	var out teamStats
	out.Possession = 50
	for _, v := range values {
		n := statValue(v.Value)
		switch v.Type {
		case "Total Shots":
			out.Shots = n
		case "Shots on Goal":
			out.ShotsOnGoal = n
		case "Ball Possession":
			out.Possession = n
		case "Corner Kicks":
			out.Corners = n
		}
	}
	return out
}

func statValue(v any) int {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return int(val)
	case int:
		return val
	case string:
		n, err := strconv.Atoi(strings.TrimSuffix(val, "%"))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// derbyCities mark fixtures between clubs of the same city as derbies.
var derbyCities = []string{
	"manchester", "liverpool", "london", "madrid", "barcelona",
	"milan", "rome", "munich", "paris", "istanbul",
}

// matchImportance grades a fixture from the league table: title races and
// relegation battles score highest, mid-table matches lowest.
func matchImportance(standings []footballapi.Standing, fixture footballapi.Fixture) Importance {
	if len(standings) == 0 {
		return Importance{Score: 50, Category: "Routine", Reason: "no standings data"}
	}

	home := findStanding(standings, fixture.Teams.Home.ID)
	away := findStanding(standings, fixture.Teams.Away.ID)
	if home == nil || away == nil {
		return Importance{Score: 50, Category: "Routine", Reason: "teams not in table"}
	}

	totalTeams := len(standings)
	score := 0
	category := "Routine"
	reason := ""

	switch {
	case home.Rank <= 3 && away.Rank <= 3:
		score, category, reason = 96, "Critical", "title race"
	case home.Rank >= 4 && home.Rank <= 7 && away.Rank >= 4 && away.Rank <= 7:
		if abs(home.Points-away.Points) <= 3 {
			score, category, reason = 88, "Very important", "direct fight for European spots"
		} else {
			score, category, reason = 72, "Important", "European qualification implications"
		}
	case home.Rank >= totalTeams-4 || away.Rank >= totalTeams-4:
		if home.Rank >= totalTeams-2 || away.Rank >= totalTeams-2 {
			score, category, reason = 95, "Critical", "immediate relegation danger"
		} else {
			score, category, reason = 82, "Very important", "relegation battle"
		}
	}

	homeName := strings.ToLower(fixture.Teams.Home.Name)
	awayName := strings.ToLower(fixture.Teams.Away.Name)
	for _, city := range derbyCities {
		if strings.Contains(homeName, city) && strings.Contains(awayName, city) {
			score = min(98, score+20)
			if category == "Routine" {
				category = "Very important"
			}
			if reason == "" {
				reason = "local derby"
			} else {
				reason += " + derby"
			}
			break
		}
	}

	if abs(home.Rank-away.Rank) <= 2 && abs(home.Points-away.Points) <= 6 {
		if score < 75 {
			score = 75
		}
		if category == "Routine" {
			category = "Important"
			reason = "direct fight for position"
		}
	}

	// Matches in the last rounds of the season carry extra weight.
	const seasonMatches = 38
	if seasonMatches-home.All.Played <= 5 && score >= 70 {
		score = min(100, score+10)
		if score >= 90 {
			category = "Critical"
		}
		reason += " (decisive stage)"
	}

	if score == 0 {
		score, category, reason = 45, "Routine", "mid-table match"
	}

	return Importance{Score: clamp(score, 0, 100), Category: category, Reason: reason}
}

// comebackProbability weighs shot volume, accuracy, possession, form,
// home advantage, head-to-head record and table motivation into a single
// percentage for the trailing side.
func comebackProbability(fixture footballapi.Fixture, stats map[string]teamStats,
	standings []footballapi.Standing, h2h []footballapi.Fixture,
	losing footballapi.Team, losingIsHome bool, scoreDiff int, importance Importance) (int, string, []Factor) {

	var probability float64
	switch scoreDiff {
	case 1:
		probability = 0.35
	case 2:
		probability = 0.15
	case 3:
		probability = 0.05
	default:
		probability = 0.02
	}

	var factors []Factor
	addFactor := func(name string, percent int) {
		factors = append(factors, Factor{Name: name, Value: fmt.Sprintf("%d%%", percent)})
	}

	if stats != nil {
		losingKey, winningKey := "away", "home"
		if losingIsHome {
			losingKey, winningKey = "home", "away"
		}
		ls, ws := stats[losingKey], stats[winningKey]

		shotsScore := ratioScore(ls.Shots, ws.Shots, 100, 70, 50, 30)
		probability += float64(shotsScore) / 100 * 0.15
		addFactor("Attacking output", shotsScore)

		sotScore := ratioScore(ls.ShotsOnGoal, ws.ShotsOnGoal, 100, 75, 55, 35)
		probability += float64(sotScore) / 100 * 0.15
		addFactor("Shot accuracy", sotScore)

		possScore := 35
		switch {
		case ls.Possession >= 60:
			possScore = 85
		case ls.Possession >= 55:
			possScore = 70
		case ls.Possession >= 50:
			possScore = 55
		}
		probability += float64(possScore) / 100 * 0.10
		addFactor("Ball control", possScore)
	} else {
		probability += 0.20
		addFactor("Attacking output", 50)
		addFactor("Shot accuracy", 50)
		addFactor("Ball control", 50)
	}

	if len(standings) > 0 {
		form := teamForm(standings, losing.ID)
		probability += float64(form) / 100 * 0.20
		addFactor("Recent form", form)
	} else {
		probability += 0.10
		addFactor("Recent form", 50)
	}

	if losingIsHome {
		probability += 0.15 * 0.68
		addFactor("Home advantage", 68)
	} else {
		addFactor("Home advantage", 0)
	}

	if len(h2h) > 0 {
		score := headToHeadScore(h2h, losing.ID)
		probability += score * 0.10
		addFactor("Head-to-head record", int(score*100))
	} else {
		probability += 0.05
		addFactor("Head-to-head record", 50)
	}

	if len(standings) > 0 {
		probability += float64(importance.Score) / 100 * 0.15
		addFactor("Motivation", importance.Score)
	} else {
		probability += 0.075
		addFactor("Motivation", 50)
	}

	final := clamp(int(probability*100), 5, 95)

	confidence := "Low"
	switch {
	case final >= 70:
		confidence = "High"
	case final >= 50:
		confidence = "Medium"
	}

	return final, confidence, factors
}

// ratioScore buckets the losing side's stat relative to the winning
// side's.
func ratioScore(losing, winning, high, even, close, low int) int {
	ratio := float64(losing) / float64(max(1, winning))
	switch {
	case ratio >= 1.5:
		return high
	case ratio >= 1.0:
		return even
	case ratio >= 0.7:
		return close
	default:
		return low
	}
}

// predictRemainingGoals projects expected goals from shot rate, with a
// boost for the trailing side and the usual late-game urgency.
func predictRemainingGoals(fixture footballapi.Fixture, stats map[string]teamStats, currentMinute int) GoalsForecast {
	fallback := GoalsForecast{Home: 0.3, Away: 0.3, Total: 0.6, OverOneHalf: 35}
	if stats == nil || currentMinute == 0 {
		return fallback
	}

	timeRemaining := float64(90 + 5 - currentMinute)
	homeShots := stats["home"].Shots
	awayShots := stats["away"].Shots
	totalShots := homeShots + awayShots

	shotsPerMinute := float64(totalShots) / float64(currentMinute)
	expectedShots := shotsPerMinute * timeRemaining

	// Roughly one in nine shots goes in, and trailing teams push harder
	// in the closing stages.
	const conversionRate = 0.11
	const lateGameMultiplier = 1.3

	homeRatio := float64(homeShots) / float64(max(1, totalShots))
	awayRatio := 1 - homeRatio

	if fixture.HomeGoals() < fixture.AwayGoals() {
		homeRatio = math.Min(0.75, homeRatio*1.4)
		awayRatio = 1 - homeRatio
	} else if fixture.AwayGoals() < fixture.HomeGoals() {
		awayRatio = math.Min(0.75, awayRatio*1.4)
		homeRatio = 1 - awayRatio
	}

	homeExpected := expectedShots * homeRatio * conversionRate * lateGameMultiplier
	awayExpected := expectedShots * awayRatio * conversionRate * lateGameMultiplier
	totalExpected := homeExpected + awayExpected

	// P(X >= 2) under Poisson with mean totalExpected.
	p0 := math.Exp(-totalExpected)
	p1 := totalExpected * math.Exp(-totalExpected)
	overProb := clamp(int((1-p0-p1)*100), 5, 95)

	return GoalsForecast{
		Home:        round1(homeExpected),
		Away:        round1(awayExpected),
		Total:       round1(totalExpected),
		OverOneHalf: overProb,
	}
}

// teamForm converts a standings form string (e.g. "WWDLW") into a
// percentage over the last five results.
func teamForm(standings []footballapi.Standing, teamID int) int {
	team := findStanding(standings, teamID)
	if team == nil || team.Form == "" {
		return 50
	}

	form := team.Form
	if len(form) > 5 {
		form = form[len(form)-5:]
	}
	points := 0
	for _, r := range form {
		switch r {
		case 'W':
			points += 3
		case 'D':
			points++
		}
	}
	return points * 100 / 15
}

// headToHeadScore returns the team's success rate over the last five
// meetings, counting a draw as half a win.
func headToHeadScore(h2h []footballapi.Fixture, teamID int) float64 {
	recent := h2h
	if len(recent) > 5 {
		recent = recent[:5]
	}

	var wins, draws, total float64
	for _, match := range recent {
		total++
		switch {
		case match.Teams.Home.Winner == nil && match.Teams.Away.Winner == nil:
			draws++
		case match.Teams.Home.ID == teamID && match.Teams.Home.Winner != nil && *match.Teams.Home.Winner:
			wins++
		case match.Teams.Away.ID == teamID && match.Teams.Away.Winner != nil && *match.Teams.Away.Winner:
			wins++
		}
	}
	if total == 0 {
		return 0.5
	}
	return (wins + draws*0.5) / total
}

// Summary renders the report as a Discord message block.
func (r *Report) Summary() string {
	emoji := "⚠️"
	switch {
	case r.ComebackProbability >= 70:
		emoji = "🔥"
	case r.ComebackProbability >= 50:
		emoji = "✅"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Match analysis**\n")
	fmt.Fprintf(&b, "Importance: %s (%d/100) — %s\n", r.Importance.Category, r.Importance.Score, r.Importance.Reason)
	fmt.Fprintf(&b, "%s Comeback chance for **%s**: %d%% (%s confidence)\n",
		emoji, r.LosingTeam, r.ComebackProbability, r.Confidence)

	names := make([]string, 0, len(r.Factors))
	for _, f := range r.Factors {
		names = append(names, fmt.Sprintf("%s %s", f.Name, f.Value))
	}
	fmt.Fprintf(&b, "Factors: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Expected goals rest of match: %.1f (over 1.5: %d%%)", r.GoalsForecast.Total, r.GoalsForecast.OverOneHalf)
	return b.String()
}

func findStanding(standings []footballapi.Standing, teamID int) *footballapi.Standing {
	for i := range standings {
		if standings[i].Team.ID == teamID {
			return &standings[i]
		}
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
