/* handlers_test.go
 * Contains unit tests for the command handlers using MockDiscordSession
 */

package bot

import (
	"context"
	"testing"
	"time"

	"goalwatch-bot/api/dispatch"
	"goalwatch-bot/api/footballapi"
	"goalwatch-bot/api/notify"
	"goalwatch-bot/api/registry"
	"goalwatch-bot/api/scheduler"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

type nullMatchSource struct{}

func (nullMatchSource) FetchLiveMatches(ctx context.Context) ([]footballapi.Fixture, footballapi.QuotaState) {
	return nil, footballapi.QuotaOK
}

func (nullMatchSource) FetchEvents(ctx context.Context, fixtureID int64) ([]footballapi.Event, footballapi.QuotaState) {
	return nil, footballapi.QuotaOK
}

func (nullMatchSource) FetchFixturesByDate(ctx context.Context, date string) ([]footballapi.Fixture, footballapi.QuotaState) {
	return nil, footballapi.QuotaOK
}

type fakeAnalyzer struct {
	summary string
	ok      bool
}

func (f fakeAnalyzer) Summary(ctx context.Context, fixture footballapi.Fixture) (string, bool) {
	return f.summary, f.ok
}

func newTestBot(t *testing.T) *Bot {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	source := nullMatchSource{}
	reg := registry.NewRegistry(nil, nil)
	sched := scheduler.NewMatchScheduler(source, time.UTC, nil)
	engine := notify.NewEngine(notify.DefaultModes()...)
	sink := NewDiscordSink()
	disp := dispatch.NewDispatcher(dispatch.Config{
		API:      source,
		Sched:    sched,
		Registry: reg,
		Sink:     sink,
		Engine:   engine,
		Cache:    footballapi.NewEventCache(footballapi.DefaultEventTTL),
	})

	b, err := NewBot(ctx, "test-token", reg, disp, sched, fakeAnalyzer{}, engine, sink, "admin-id", nil)
	assert.NoError(t, err)
	return b
}

func newMessage(userID, username, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ChannelID: "channel-1",
			Content:   content,
			Author:    &discordgo.User{ID: userID, Username: username},
		},
	}
}

func todayFixture(id int64, home, away string, kickoff time.Time) footballapi.Fixture {
	return footballapi.Fixture{
		Fixture: footballapi.FixtureInfo{ID: id, Date: kickoff.Format(time.RFC3339)},
		League:  footballapi.League{ID: 39, Name: "Premier League"},
		Teams: footballapi.Teams{
			Home: footballapi.Team{ID: 1, Name: home},
			Away: footballapi.Team{ID: 2, Name: away},
		},
	}
}

// region subscription command tests

func TestStartHandler_SubscribesUser(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "$start"), "bot-id")

	assert.True(t, b.Registry.IsRunning("user1"))
	assert.Contains(t, session.GetLastMessage().Content, "subscribed")
}

func TestStartHandler_AlreadySubscribed(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "$start"), "bot-id")
	b.newMessageHandler(session, newMessage("user1", "alice", "$start"), "bot-id")

	assert.Contains(t, session.GetLastMessage().Content, "already subscribed")
}

func TestStopHandler_Unsubscribes(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "$start"), "bot-id")
	b.newMessageHandler(session, newMessage("user1", "alice", "$stop"), "bot-id")

	assert.False(t, b.Registry.IsRunning("user1"))
	assert.Contains(t, session.GetLastMessage().Content, "unsubscribed")
}

func TestStopHandler_NotSubscribed(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "$stop"), "bot-id")

	assert.Contains(t, session.GetLastMessage().Content, "not subscribed")
}

// endregion

// region games command tests

func TestGamesHandler_EmptySchedule(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "$games"), "bot-id")

	assert.Contains(t, session.GetLastMessage().Content, "No tracked fixtures")
}

func TestGamesHandler_ListsFixturesWithDiscordTimestamps(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()
	kickoff := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	b.Sched.SetFixtures([]footballapi.Fixture{
		todayFixture(1, "Arsenal", "Chelsea", kickoff),
	})

	b.newMessageHandler(session, newMessage("user1", "alice", "$games"), "bot-id")

	content := session.GetLastMessage().Content
	assert.Contains(t, content, "Arsenal vs Chelsea")
	assert.Contains(t, content, "<t:")
}

func TestGamesHandler_TruncatesLongSchedule(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()
	kickoff := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	var fixtures []footballapi.Fixture
	for i := int64(1); i <= 8; i++ {
		fixtures = append(fixtures, todayFixture(i, "Home", "Away", kickoff))
	}
	b.Sched.SetFixtures(fixtures)

	b.newMessageHandler(session, newMessage("user1", "alice", "$games"), "bot-id")

	assert.Contains(t, session.GetLastMessage().Content, "and 3 more")
}

// endregion

// region status command tests

func TestStatusHandler_ReportsSubscription(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "$status"), "bot-id")
	assert.Contains(t, session.GetLastMessage().Content, "not subscribed")

	b.newMessageHandler(session, newMessage("user1", "alice", "$start"), "bot-id")
	b.newMessageHandler(session, newMessage("user1", "alice", "$status"), "bot-id")
	assert.Contains(t, session.GetLastMessage().Content, "alice: subscribed")
}

// endregion

// region analyze command tests

func TestAnalyzeHandler_UsageWithoutTeamName(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "$analyze"), "bot-id")

	assert.Contains(t, session.GetLastMessage().Content, "Usage")
}

func TestAnalyzeHandler_UnknownTeam(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "$analyze Bayern"), "bot-id")

	assert.Contains(t, session.GetLastMessage().Content, "No tracked fixture")
}

func TestAnalyzeHandler_RendersSummaryForQuotedName(t *testing.T) {
	b := newTestBot(t)
	b.Analytics = fakeAnalyzer{summary: "comeback unlikely", ok: true}
	session := NewMockDiscordSession()
	kickoff := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	b.Sched.SetFixtures([]footballapi.Fixture{
		todayFixture(1, "Real Madrid", "Barcelona", kickoff),
	})

	b.newMessageHandler(session, newMessage("user1", "alice", `$analyze "Real Madrid"`), "bot-id")

	content := session.GetLastMessage().Content
	assert.Contains(t, content, "Real Madrid")
	assert.Contains(t, content, "comeback unlikely")
}

func TestAnalyzeHandler_NoAnalysisAvailable(t *testing.T) {
	b := newTestBot(t)
	b.Analytics = fakeAnalyzer{ok: false}
	session := NewMockDiscordSession()
	kickoff := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	b.Sched.SetFixtures([]footballapi.Fixture{
		todayFixture(1, "Arsenal", "Chelsea", kickoff),
	})

	b.newMessageHandler(session, newMessage("user1", "alice", "$analyze Arsenal"), "bot-id")

	assert.Contains(t, session.GetLastMessage().Content, "level or has no data")
}

// endregion

// region force command tests

func TestForceHandler_RejectsNonAdmin(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "$force"), "bot-id")

	assert.Contains(t, session.GetLastMessage().Content, "restricted")
}

func TestForceHandler_AdminArmsTestMode(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("admin-id", "admin", "$force"), "bot-id")

	assert.Contains(t, session.GetLastMessage().Content, "Test mode armed")

	// an otherwise unqualified goal now classifies
	homeGoals, awayGoals := 2, 2
	fixture := footballapi.Fixture{Goals: footballapi.Goals{Home: &homeGoals, Away: &awayGoals}}
	event := footballapi.Event{Time: footballapi.EventTime{Elapsed: 30}, Type: "Goal", Detail: "Normal Goal"}
	mode, ok := b.Engine.Classify(event, fixture)
	assert.True(t, ok)
	assert.Equal(t, "Test mode", mode.Name())
}

// endregion

// region routing tests

func TestNewMessageHandler_IgnoresOwnMessages(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("bot-id", "goalwatch", "$help"), "bot-id")

	assert.Empty(t, session.SentMessages)
}

func TestNewMessageHandler_IgnoresUnknownCommands(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "hello there"), "bot-id")

	assert.Empty(t, session.SentMessages)
}

func TestHelpHandler_ListsCommands(t *testing.T) {
	b := newTestBot(t)
	session := NewMockDiscordSession()

	b.newMessageHandler(session, newMessage("user1", "alice", "$help"), "bot-id")

	content := session.GetLastMessage().Content
	assert.Contains(t, content, "$start")
	assert.Contains(t, content, "$stop")
	assert.Contains(t, content, "$games")
	assert.Contains(t, content, "$analyze")
}

// endregion
