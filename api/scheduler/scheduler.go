/* scheduler.go
 * Contains the match window scheduler. From the day's fixture list it
 * derives merged time windows during which polling the upstream API is
 * worthwhile, so the dispatch loop can sleep for hours between matches
 * without spending quota.
 */

package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"goalwatch-bot/api/footballapi"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	// leadTime is how long before kickoff polling starts.
	leadTime = 5 * time.Minute
	// matchDuration bounds a match at 120 minutes regardless of match type.
	// Knockout extra time is covered by the bound plus grace; tightening
	// this would change observable polling behavior.
	matchDuration = 120 * time.Minute
	// graceTime keeps polling after the nominal end to catch late
	// stoppage-time events that arrive after the status flips.
	graceTime = 15 * time.Minute

	// refreshRetryDelay is how long the daily refresh task waits before
	// retrying after a failed update.
	refreshRetryDelay = time.Hour
)

// FixtureSource supplies the day's fixture list.
type FixtureSource interface {
	FetchFixturesByDate(ctx context.Context, date string) ([]footballapi.Fixture, footballapi.QuotaState)
}

// window is one merged polling interval.
type window struct {
	start time.Time
	end   time.Time
}

// MatchScheduler owns the current day's fixture list and answers
// "should I poll now" and "how long should I sleep".
type MatchScheduler struct {
	api    FixtureSource
	loc    *time.Location
	logger *slog.Logger

	mu             sync.RWMutex
	fixtures       []footballapi.Fixture
	lastUpdateDate string

	now func() time.Time
}

// NewMatchScheduler creates a scheduler operating in the given timezone.
func NewMatchScheduler(api FixtureSource, loc *time.Location, logger *slog.Logger) *MatchScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchScheduler{
		api:    api,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// CurrentDate returns today's date in the scheduler's timezone.
func (s *MatchScheduler) CurrentDate() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

// UpdateDailySchedule replaces the fixture list with the current day's
// fixtures. Returns whether any fixtures were found. The whole list is
// swapped at once; individual fixtures are never mutated in place.
func (s *MatchScheduler) UpdateDailySchedule(ctx context.Context) bool {
	date := s.CurrentDate()
	s.logger.Info("updating daily schedule", "date", date)

	fixtures, quota := s.api.FetchFixturesByDate(ctx, date)
	if quota.Exhausted() {
		s.logger.Warn("daily schedule update hit quota limit", "date", date)
		return false
	}

	s.mu.Lock()
	s.fixtures = fixtures
	s.lastUpdateDate = date
	s.mu.Unlock()

	if len(fixtures) == 0 {
		s.logger.Warn("no fixtures found for date", "date", date)
		return false
	}

	s.logger.Info("daily schedule loaded", "date", date, "fixtures", len(fixtures))
	s.logSchedule(fixtures)
	return true
}

// SetFixtures replaces the fixture list directly. Used by tests.
func (s *MatchScheduler) SetFixtures(fixtures []footballapi.Fixture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures = fixtures
}

// Fixtures returns a copy of the current fixture list.
func (s *MatchScheduler) Fixtures() []footballapi.Fixture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]footballapi.Fixture, len(s.fixtures))
	copy(out, s.fixtures)
	return out
}

// windows builds the minimal set of disjoint polling intervals covering
// the day's remaining activity. Fixtures with an unparsable kickoff are
// excluded; fixtures in a terminal status are still windowed up to their
// computed end instant.
func (s *MatchScheduler) windows() []window {
	s.mu.RLock()
	fixtures := s.fixtures
	s.mu.RUnlock()

	now := s.now()

	var candidates []window
	for _, f := range fixtures {
		kickoff, err := f.Kickoff()
		if err != nil {
			continue
		}
		end := kickoff.Add(matchDuration + graceTime)
		if !now.Before(end) {
			continue
		}
		candidates = append(candidates, window{start: kickoff.Add(-leadTime), end: end})
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].start.Before(candidates[j].start)
	})

	merged := []window{candidates[0]}
	for _, w := range candidates[1:] {
		last := &merged[len(merged)-1]
		if !w.start.After(last.end) {
			if w.end.After(last.end) {
				last.end = w.end
			}
		} else {
			merged = append(merged, w)
		}
	}
	return merged
}

// nextWindow returns the first window that has not yet expired.
func (s *MatchScheduler) nextWindow() (window, bool) {
	now := s.now()
	for _, w := range s.windows() {
		if now.Before(w.end) {
			return w, true
		}
	}
	return window{}, false
}

// ShouldPollNow reports whether the current instant falls inside a
// polling window.
func (s *MatchScheduler) ShouldPollNow() bool {
	w, ok := s.nextWindow()
	if !ok {
		return false
	}
	now := s.now()
	return !now.Before(w.start) && !now.After(w.end)
}

// TimeUntilNextPoll returns zero when inside a window, the gap to the next
// window's start otherwise, and the gap to the next local-day boundary when
// no windows remain (the fixture list is re-fetched at that boundary).
func (s *MatchScheduler) TimeUntilNextPoll() time.Duration {
	now := s.now()

	w, ok := s.nextWindow()
	if !ok {
		return s.untilNextMidnight(now)
	}
	if now.Before(w.start) {
		return w.start.Sub(now)
	}
	return 0
}

func (s *MatchScheduler) untilNextMidnight(now time.Time) time.Duration {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)
	return next.Sub(local)
}

// ActiveMatchCount returns how many fixtures are currently in play.
func (s *MatchScheduler) ActiveMatchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, f := range s.fixtures {
		if f.IsLive() {
			count++
		}
	}
	return count
}

// FindFixtureByTeam resolves a user-typed team name against today's
// fixtures using fuzzy matching. An exact (case-insensitive) match wins
// over the best ranked fuzzy match.
func (s *MatchScheduler) FindFixtureByTeam(name string) (footballapi.Fixture, bool) {
	s.mu.RLock()
	fixtures := s.fixtures
	s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return footballapi.Fixture{}, false
	}

	lookup := make(map[string]footballapi.Fixture)
	var names []string
	for _, f := range fixtures {
		for _, team := range []string{f.Teams.Home.Name, f.Teams.Away.Name} {
			lower := strings.ToLower(team)
			if lower == "" {
				continue
			}
			lookup[lower] = f
			names = append(names, lower)
		}
	}

	results := fuzzy.RankFind(query, names)
	if len(results) == 0 {
		return footballapi.Fixture{}, false
	}
	sort.Sort(results)

	// Prefer an exact match when several candidates rank; otherwise take
	// the best ranked one.
	best := results[0].Target
	for _, r := range results {
		if r.Target == query {
			best = r.Target
			break
		}
	}
	return lookup[best], true
}

// RunDailyRefresh re-fetches the fixture list at every local-midnight
// boundary. Runs until the context is cancelled; a failed update is
// retried after refreshRetryDelay.
func (s *MatchScheduler) RunDailyRefresh(ctx context.Context) {
	for {
		sleep := s.untilNextMidnight(s.now())
		s.logger.Info("next schedule refresh", "in", sleep.Round(time.Minute))

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if !s.UpdateDailySchedule(ctx) {
			timer := time.NewTimer(refreshRetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			s.UpdateDailySchedule(ctx)
		}
	}
}

// logSchedule writes a condensed kickoff-time summary of the day's
// fixtures to the log.
func (s *MatchScheduler) logSchedule(fixtures []footballapi.Fixture) {
	byTime := make(map[string]int)
	for _, f := range fixtures {
		kickoff, err := f.Kickoff()
		if err != nil {
			continue
		}
		byTime[kickoff.In(s.loc).Format("15:04")]++
	}

	times := make([]string, 0, len(byTime))
	for t := range byTime {
		times = append(times, t)
	}
	sort.Strings(times)

	for _, t := range times {
		s.logger.Info("schedule", "kickoff", t, "matches", byTime[t])
	}
}
