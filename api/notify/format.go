/* format.go
 * Builds the notification text sent to subscribers. Discord markdown,
 * same shape the original alerts used: mode banner, league, score line,
 * scorer and minute.
 */

package notify

import (
	"fmt"
	"strings"

	"goalwatch-bot/api/footballapi"
)

// GoalMessage renders one goal notification.
func GoalMessage(fixture footballapi.Fixture, event footballapi.Event, modeName string) string {
	league := fixture.League.Name
	if fixture.League.Country != "" {
		league = fmt.Sprintf("%s — %s", fixture.League.Country, fixture.League.Name)
	}

	player := event.Player.Name
	if player == "" {
		player = "Unknown player"
	}

	detail := strings.ToLower(event.Detail)
	marker := "⚽"
	switch {
	case strings.Contains(detail, "penalty"):
		marker = "⚽ (pen)"
	case strings.Contains(detail, "own"):
		marker = "⚽ (og)"
	}

	minute := fmt.Sprintf("%d'", event.Minute())
	if event.Time.Extra != nil && *event.Time.Extra > 0 {
		minute = fmt.Sprintf("%d+%d'", event.Minute(), *event.Time.Extra)
	}

	var b strings.Builder
	b.WriteString(modeName + "\n\n")
	b.WriteString(fmt.Sprintf("🏆 **%s**\n", league))
	b.WriteString(fmt.Sprintf("%s **%d:%d** %s\n\n",
		fixture.Teams.Home.Name, fixture.HomeGoals(), fixture.AwayGoals(), fixture.Teams.Away.Name))
	b.WriteString(fmt.Sprintf("%s **%s** (%s)\n", marker, player, event.Team.Name))
	b.WriteString(fmt.Sprintf("🕐 %s\n", minute))
	return b.String()
}

// QuotaMessage is the broadcast sent to every active subscriber when the
// request budget runs out.
const QuotaMessage = "⚠️ The football API request quota is exhausted. " +
	"Notifications are stopped for everyone; use $start once the quota resets."
