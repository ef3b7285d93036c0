/* bot.go
 * Contains the bot struct and construction. The Discord-facing runtime
 * lives in bot_runtime.go; the command handlers themselves take the
 * DiscordSession interface so they stay testable.
 */

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"goalwatch-bot/api/dispatch"
	"goalwatch-bot/api/footballapi"
	"goalwatch-bot/api/notify"
	"goalwatch-bot/api/registry"
	"goalwatch-bot/api/scheduler"
)

// MatchAnalyzer renders a comeback analysis for a fixture, if one applies.
type MatchAnalyzer interface {
	Summary(ctx context.Context, fixture footballapi.Fixture) (string, bool)
}

type Bot struct {
	BotToken   string
	Registry   *registry.Registry
	Dispatcher *dispatch.Dispatcher
	Sched      *scheduler.MatchScheduler
	Analytics  MatchAnalyzer
	Engine     *notify.Engine
	Sink       *DiscordSink
	AdminID    string
	Logger     *slog.Logger

	// runCtx governs the dispatch loop started from $start.
	runCtx context.Context
}

func NewBot(ctx context.Context, botToken string, reg *registry.Registry, disp *dispatch.Dispatcher,
	sched *scheduler.MatchScheduler, analytics MatchAnalyzer, engine *notify.Engine,
	sink *DiscordSink, adminID string, logger *slog.Logger) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("botToken is required but none was provided")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Bot{
		BotToken:   botToken,
		Registry:   reg,
		Dispatcher: disp,
		Sched:      sched,
		Analytics:  analytics,
		Engine:     engine,
		Sink:       sink,
		AdminID:    adminID,
		Logger:     logger,
		runCtx:     ctx,
	}, nil
}

// Helper function to check if a string starts with a given substring
// Preconditions: Recieves an input string and a substring
// Postconditions: Returns true if the substring is at the start of the string, else returns false
func startsWith(inputString string, substring string) bool {
	if !strings.Contains(inputString, substring) {
		return false
	}
	strLength := len(substring)
	if len(inputString) < strLength {
		return false
	}
	for i := 0; i < strLength; i++ {
		if inputString[i] != substring[i] {
			return false
		}
	}
	return true
}
