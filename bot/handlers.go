/* handlers.go
 * Contains testable handler methods that accept the DiscordSession
 * interface. The runtime adapter in bot_runtime.go feeds these from the
 * live gateway.
 */

package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/go-andiamo/splitter"
)

// gamesListLimit caps how many of today's fixtures $games shows.
const gamesListLimit = 5

// helpMessageHandler handles the $help command
func (b *Bot) helpMessageHandler(session DiscordSession, message *discordgo.MessageCreate) {
	var res strings.Builder
	res.WriteString("GoalWatch Bot\n")
	res.WriteString("`$start`: subscribe to goal notifications. You get a DM when a match sees its first goal in the 69th-70th minute, or a penalty inside the opening 10 minutes\n")
	res.WriteString("`$stop`: unsubscribe from notifications\n")
	res.WriteString("`$games`: show today's tracked fixtures and kickoff times\n")
	res.WriteString("`$status`: show your subscription and the poller state\n")
	res.WriteString("`$analyze team`: run the comeback analysis for a live match. Names with spaces need quotes (e.g. \"Real Madrid\")\n")
	res.WriteString("`$help`: show this message\n")
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// startHandler handles the $start command: it opts the user in and wakes
// the dispatch loop if it is not already running.
func (b *Bot) startHandler(session DiscordSession, message *discordgo.MessageCreate) {
	already := b.Registry.Activate(b.runCtx, message.Author.ID, message.Author.Username)
	if already {
		session.ChannelMessageSend(message.ChannelID,
			fmt.Sprintf("%s, you are already subscribed to goal notifications", message.Author.Username))
		return
	}

	b.Dispatcher.Start(b.runCtx)
	session.ChannelMessageSend(message.ChannelID,
		fmt.Sprintf("%s subscribed to goal notifications. Use $stop to opt out", message.Author.Username))
}

// stopHandler handles the $stop command
func (b *Bot) stopHandler(session DiscordSession, message *discordgo.MessageCreate) {
	wasRunning := b.Registry.Deactivate(b.runCtx, message.Author.ID)
	if !wasRunning {
		session.ChannelMessageSend(message.ChannelID,
			fmt.Sprintf("%s, you were not subscribed", message.Author.Username))
		return
	}
	session.ChannelMessageSend(message.ChannelID,
		fmt.Sprintf("%s unsubscribed from goal notifications", message.Author.Username))
}

// gamesHandler handles the $games command: today's schedule, first few
// fixtures with kickoff times as Discord timestamps.
func (b *Bot) gamesHandler(session DiscordSession, message *discordgo.MessageCreate) {
	fixtures := b.Sched.Fixtures()
	if len(fixtures) == 0 {
		session.ChannelMessageSend(message.ChannelID, "No tracked fixtures today")
		return
	}

	var res strings.Builder
	res.WriteString(fmt.Sprintf("Today's fixtures (%d tracked):\n", len(fixtures)))
	shown := 0
	for _, fixture := range fixtures {
		if shown == gamesListLimit {
			res.WriteString(fmt.Sprintf("... and %d more\n", len(fixtures)-shown))
			break
		}
		kickoff, err := fixture.Kickoff()
		if err != nil {
			continue
		}
		res.WriteString(fmt.Sprintf("- %s vs %s (%s) <t:%d>\n",
			fixture.Teams.Home.Name, fixture.Teams.Away.Name, fixture.League.Name, kickoff.Unix()))
		shown++
	}
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// statusHandler handles the $status command
func (b *Bot) statusHandler(session DiscordSession, message *discordgo.MessageCreate) {
	status := b.Dispatcher.Status()

	subscribed := "not subscribed"
	if b.Registry.IsRunning(message.Author.ID) {
		subscribed = "subscribed"
	}

	var res strings.Builder
	res.WriteString(fmt.Sprintf("%s: %s\n", message.Author.Username, subscribed))
	res.WriteString(fmt.Sprintf("Poller: %s (cycles: %d)\n", status.State, status.Iterations))
	res.WriteString(fmt.Sprintf("Subscribers: %d, live matches: %d\n", status.Subscribers, status.ActiveMatches))
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// analyzeHandler handles the $analyze command. The team name is matched
// fuzzily against today's fixtures; quoted names keep their spaces.
func (b *Bot) analyzeHandler(session DiscordSession, message *discordgo.MessageCreate) {
	spaceSplitter, _ := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	args, _ := spaceSplitter.Split(message.Content)
	if len(args) < 2 {
		session.ChannelMessageSend(message.ChannelID, "Usage: $analyze team (e.g. $analyze \"Real Madrid\")")
		return
	}
	name := strings.Trim(strings.Join(args[1:], " "), "\"")

	fixture, found := b.Sched.FindFixtureByTeam(name)
	if !found {
		session.ChannelMessageSend(message.ChannelID,
			fmt.Sprintf("No tracked fixture today for '%s'", name))
		return
	}

	summary, ok := b.Analytics.Summary(b.runCtx, fixture)
	if !ok {
		session.ChannelMessageSend(message.ChannelID,
			fmt.Sprintf("%s vs %s is level or has no data to analyze yet",
				fixture.Teams.Home.Name, fixture.Teams.Away.Name))
		return
	}

	header := fmt.Sprintf("**%s %d:%d %s**\n",
		fixture.Teams.Home.Name, fixture.HomeGoals(), fixture.AwayGoals(), fixture.Teams.Away.Name)
	session.ChannelMessageSend(message.ChannelID, header+summary)
}

// forceHandler handles the admin-only $force command: the next goal event
// observed by the poller is delivered regardless of minute or score.
func (b *Bot) forceHandler(session DiscordSession, message *discordgo.MessageCreate) {
	if b.AdminID == "" || message.Author.ID != b.AdminID {
		session.ChannelMessageSend(message.ChannelID, "This command is restricted to the bot admin")
		return
	}
	b.Engine.ForceNext()
	b.Logger.Info("test mode armed", "admin", message.Author.ID)
	session.ChannelMessageSend(message.ChannelID, "Test mode armed: the next goal event will be delivered")
}

// newMessageHandler routes messages to appropriate handlers
// botUserID is the bot's user ID to prevent self-responses
func (b *Bot) newMessageHandler(session DiscordSession, message *discordgo.MessageCreate, botUserID string) {
	// Prevent bot from responding to its own messages
	if message.Author.ID == botUserID {
		return
	}

	// Route to appropriate handler
	switch {
	case startsWith(message.Content, "$help"):
		b.helpMessageHandler(session, message)

	case startsWith(message.Content, "$start"):
		b.startHandler(session, message)

	case startsWith(message.Content, "$stop"):
		b.stopHandler(session, message)

	case startsWith(message.Content, "$games"):
		b.gamesHandler(session, message)

	case startsWith(message.Content, "$status"):
		b.statusHandler(session, message)

	case startsWith(message.Content, "$analyze"):
		b.analyzeHandler(session, message)

	case startsWith(message.Content, "$force"):
		b.forceHandler(session, message)
	}
}
