/* format_test.go
 * Contains unit tests for notification text rendering
 */

package notify

import (
	"strings"
	"testing"

	"goalwatch-bot/api/footballapi"

	"github.com/stretchr/testify/assert"
)

func TestGoalMessage_ContainsScoreAndScorer(t *testing.T) {
	fixture := fixtureWithScore(1, 0)
	fixture.League = footballapi.League{Name: "Premier League", Country: "England"}

	msg := GoalMessage(fixture, goalEvent(69, "Normal Goal"), "First goal late (69-70')")

	assert.True(t, strings.HasPrefix(msg, "First goal late (69-70')"))
	assert.Contains(t, msg, "England — Premier League")
	assert.Contains(t, msg, "Arsenal **1:0** Chelsea")
	assert.Contains(t, msg, "⚽ **Saka** (Arsenal)")
	assert.Contains(t, msg, "69'")
}

func TestGoalMessage_PenaltyMarker(t *testing.T) {
	msg := GoalMessage(fixtureWithScore(1, 0), goalEvent(5, "Penalty"), "Early penalty (2-10')")

	assert.Contains(t, msg, "⚽ (pen)")
}

func TestGoalMessage_OwnGoalMarker(t *testing.T) {
	msg := GoalMessage(fixtureWithScore(1, 0), goalEvent(69, "Own Goal"), "First goal late (69-70')")

	assert.Contains(t, msg, "⚽ (og)")
}

func TestGoalMessage_StoppageTimeMinute(t *testing.T) {
	extra := 3
	event := goalEvent(90, "Normal Goal")
	event.Time.Extra = &extra

	msg := GoalMessage(fixtureWithScore(1, 0), event, "Test mode")

	assert.Contains(t, msg, "90+3'")
}

func TestGoalMessage_MissingPlayerName(t *testing.T) {
	event := goalEvent(69, "Normal Goal")
	event.Player.Name = ""

	msg := GoalMessage(fixtureWithScore(1, 0), event, "Test mode")

	assert.Contains(t, msg, "Unknown player")
}

func TestGoalMessage_LeagueWithoutCountry(t *testing.T) {
	fixture := fixtureWithScore(0, 1)
	fixture.League = footballapi.League{Name: "Club World Cup"}

	msg := GoalMessage(fixture, goalEvent(70, "Normal Goal"), "First goal late (69-70')")

	assert.Contains(t, msg, "🏆 **Club World Cup**")
}
