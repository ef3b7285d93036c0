/* modes_test.go
 * Contains unit tests for the delivery mode rules
 */

package notify

import (
	"testing"

	"goalwatch-bot/api/footballapi"

	"github.com/stretchr/testify/assert"
)

func goalEvent(minute int, detail string) footballapi.Event {
	return footballapi.Event{
		Time:   footballapi.EventTime{Elapsed: minute},
		Team:   footballapi.Team{ID: 1, Name: "Arsenal"},
		Player: footballapi.EventPlayer{Name: "Saka"},
		Type:   "Goal",
		Detail: detail,
	}
}

func fixtureWithScore(home, away int) footballapi.Fixture {
	return footballapi.Fixture{
		Fixture: footballapi.FixtureInfo{ID: 100},
		Teams: footballapi.Teams{
			Home: footballapi.Team{ID: 1, Name: "Arsenal"},
			Away: footballapi.Team{ID: 2, Name: "Chelsea"},
		},
		Goals: footballapi.Goals{Home: &home, Away: &away},
	}
}

// region first goal late tests

func TestFirstGoalLate_QualifiesAt69WithSingleGoal(t *testing.T) {
	mode := FirstGoalLate{MinMinute: 69, MaxMinute: 70}
	assert.True(t, mode.Matches(goalEvent(69, "Normal Goal"), fixtureWithScore(1, 0)))
}

func TestFirstGoalLate_QualifiesAt70AwayLeading(t *testing.T) {
	mode := FirstGoalLate{MinMinute: 69, MaxMinute: 70}
	assert.True(t, mode.Matches(goalEvent(70, "Normal Goal"), fixtureWithScore(0, 1)))
}

func TestFirstGoalLate_RejectsSecondGoal(t *testing.T) {
	mode := FirstGoalLate{MinMinute: 69, MaxMinute: 70}
	// 2:1 means three goals total, not a first goal
	assert.False(t, mode.Matches(goalEvent(70, "Normal Goal"), fixtureWithScore(2, 1)))
}

func TestFirstGoalLate_RejectsMinuteOutsideRange(t *testing.T) {
	mode := FirstGoalLate{MinMinute: 69, MaxMinute: 70}
	assert.False(t, mode.Matches(goalEvent(68, "Normal Goal"), fixtureWithScore(1, 0)))
	assert.False(t, mode.Matches(goalEvent(71, "Normal Goal"), fixtureWithScore(1, 0)))
}

func TestFirstGoalLate_NilScoreTreatedAsZero(t *testing.T) {
	mode := FirstGoalLate{MinMinute: 69, MaxMinute: 70}
	fixture := footballapi.Fixture{}
	assert.False(t, mode.Matches(goalEvent(69, "Normal Goal"), fixture))
}

// endregion

// region early penalty tests

func TestEarlyPenalty_QualifiesInOpeningMinutes(t *testing.T) {
	mode := EarlyPenalty{MinMinute: 2, MaxMinute: 10}
	assert.True(t, mode.Matches(goalEvent(5, "Penalty"), fixtureWithScore(1, 0)))
	assert.True(t, mode.Matches(goalEvent(2, "Penalty"), fixtureWithScore(1, 0)))
	assert.True(t, mode.Matches(goalEvent(10, "Penalty"), fixtureWithScore(1, 0)))
}

func TestEarlyPenalty_RejectsNonPenaltyGoal(t *testing.T) {
	mode := EarlyPenalty{MinMinute: 2, MaxMinute: 10}
	assert.False(t, mode.Matches(goalEvent(5, "Normal Goal"), fixtureWithScore(1, 0)))
}

func TestEarlyPenalty_RejectsPenaltyOutsideRange(t *testing.T) {
	mode := EarlyPenalty{MinMinute: 2, MaxMinute: 10}
	assert.False(t, mode.Matches(goalEvent(1, "Penalty"), fixtureWithScore(1, 0)))
	assert.False(t, mode.Matches(goalEvent(15, "Penalty"), fixtureWithScore(1, 0)))
}

// endregion

// region goal event filter tests

func TestIsGoalEvent_AcceptsGoalShapes(t *testing.T) {
	assert.True(t, IsGoalEvent(footballapi.Event{Type: "Goal", Detail: "Normal Goal"}))
	assert.True(t, IsGoalEvent(footballapi.Event{Type: "Goal", Detail: "Penalty"}))
	assert.True(t, IsGoalEvent(footballapi.Event{Type: "Goal", Detail: "Own Goal"}))
}

func TestIsGoalEvent_RejectsNonGoalEvents(t *testing.T) {
	assert.False(t, IsGoalEvent(footballapi.Event{Type: "Card", Detail: "Yellow Card"}))
	assert.False(t, IsGoalEvent(footballapi.Event{Type: "subst", Detail: "Substitution 1"}))
	assert.False(t, IsGoalEvent(footballapi.Event{Type: "Var", Detail: "Goal cancelled"}))
}

// endregion

func TestDefaultModes_PriorityOrder(t *testing.T) {
	modes := DefaultModes()

	assert.Len(t, modes, 2)
	assert.IsType(t, FirstGoalLate{}, modes[0])
	assert.IsType(t, EarlyPenalty{}, modes[1])
}
