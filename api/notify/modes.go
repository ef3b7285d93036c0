/* modes.go
 * Contains the delivery modes: the closed set of rules that decide whether
 * a goal event should trigger a notification. Modes are evaluated in a
 * fixed priority order and the first match wins.
 */

package notify

import (
	"fmt"
	"strings"

	"goalwatch-bot/api/footballapi"
)

// DeliveryMode classifies a goal event against a fixture snapshot.
type DeliveryMode interface {
	Name() string
	Matches(event footballapi.Event, fixture footballapi.Fixture) bool
}

// FirstGoalLate fires for the very first goal of a match when it arrives
// in the 69th or 70th minute.
type FirstGoalLate struct {
	MinMinute int
	MaxMinute int
}

func (m FirstGoalLate) Name() string {
	return fmt.Sprintf("First goal late (%d-%d')", m.MinMinute, m.MaxMinute)
}

// Matches requires the event minute to fall in range and the fixture's
// total goal count at evaluation time to be exactly one: the score after
// the goal must be 1-0 or 0-1.
func (m FirstGoalLate) Matches(event footballapi.Event, fixture footballapi.Fixture) bool {
	minute := event.Minute()
	if minute < m.MinMinute || minute > m.MaxMinute {
		return false
	}
	return fixture.TotalGoals() == 1
}

// EarlyPenalty fires for a converted penalty in the opening minutes.
type EarlyPenalty struct {
	MinMinute int
	MaxMinute int
}

func (m EarlyPenalty) Name() string {
	return fmt.Sprintf("Early penalty (%d-%d')", m.MinMinute, m.MaxMinute)
}

func (m EarlyPenalty) Matches(event footballapi.Event, fixture footballapi.Fixture) bool {
	minute := event.Minute()
	if minute < m.MinMinute || minute > m.MaxMinute {
		return false
	}
	return strings.Contains(strings.ToLower(event.Detail), "penalty")
}

// forcedMode is the admin test mode: it matches any goal event. It is never
// part of the steady-state mode list; the engine injects it for one event
// after ForceNext.
type forcedMode struct{}

func (forcedMode) Name() string { return "Test mode" }

func (forcedMode) Matches(footballapi.Event, footballapi.Fixture) bool { return true }

// DefaultModes returns the delivery modes in their documented priority
// order: first-goal-late, then early-penalty.
func DefaultModes() []DeliveryMode {
	return []DeliveryMode{
		FirstGoalLate{MinMinute: 69, MaxMinute: 70},
		EarlyPenalty{MinMinute: 2, MaxMinute: 10},
	}
}

// goal event shapes the upstream uses; anything else (cards, subs, VAR)
// is filtered out before classification.
var goalTypes = map[string]bool{
	"goal":        true,
	"normal goal": true,
}

var goalDetails = map[string]bool{
	"normal goal": true,
	"penalty":     true,
	"own goal":    true,
}

// IsGoalEvent reports whether an event represents a scored goal.
func IsGoalEvent(event footballapi.Event) bool {
	return goalTypes[strings.ToLower(event.Type)] || goalDetails[strings.ToLower(event.Detail)]
}
