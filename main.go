/* main.go
 * The "main" method for running the bot. For details about the bot see `readme.md`
 * Usage: go run main.go -test="false" -timezone="Europe/London" -addr=":8080"
 */

package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"goalwatch-bot/api/analytics"
	"goalwatch-bot/api/dispatch"
	"goalwatch-bot/api/footballapi"
	"goalwatch-bot/api/notify"
	"goalwatch-bot/api/registry"
	"goalwatch-bot/api/scheduler"
	"goalwatch-bot/api/store"
	"goalwatch-bot/bot"
	"goalwatch-bot/web"

	"github.com/joho/godotenv"
)

const (
	defaultRequestsPerMinute = 10
	defaultActiveInterval    = 30 * time.Second
)

func main() {
	err := godotenv.Load()

	//Flags
	testPtr := flag.String("test", "false", "Use main or test bot: takes true or false as argument")
	timezonePtr := flag.String("timezone", "Europe/London", "IANA timezone the daily schedule is anchored to")
	addrPtr := flag.String("addr", ":8080", "Listen address for the status HTTP server")

	flag.Parse()

	if err != nil {
		log.Println("No .env file loaded, relying on process environment")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	useTestBot, err := convertStrToBool(*testPtr)
	if err != nil {
		log.Fatal("Invalid \"test\" flag. Should be true or false")
	}
	var discordToken string
	if useTestBot {
		discordToken = os.Getenv("DISCORD_BETA_TOKEN")
	} else {
		discordToken = os.Getenv("DISCORD_PROD_TOKEN")
	}

	apiKey := os.Getenv("FOOTBALL_API_KEY")
	if apiKey == "" {
		log.Fatal("FOOTBALL_API_KEY is required but was not set")
	}

	loc, err := time.LoadLocation(*timezonePtr)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", *timezonePtr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Upstream API client, league filter from env
	client := footballapi.NewClient(apiKey, requestsPerMinute(), logger)
	leagues, err := parseLeagueIDs(os.Getenv("LEAGUES_TO_TRACK"))
	if err != nil {
		log.Fatalf("invalid LEAGUES_TO_TRACK: %v", err)
	}
	client.SetLeagueFilter(leagues)

	// Subscriber persistence is optional: without a Mongo URI the
	// registry is memory-only and subscriptions do not survive restarts
	var persister registry.Persister
	mongoURI := os.Getenv("MONGO_PROD_URI")
	if mongoURI != "" {
		st, err := store.NewStore("goalwatch", mongoURI)
		if err != nil {
			log.Fatalf("failed to initialize store: %v", err)
		}
		defer func() {
			if err := st.Client.Disconnect(context.TODO()); err != nil {
				logger.Error("failed to disconnect store", "error", err)
			}
		}()
		persister = st
	} else {
		logger.Warn("MONGO_PROD_URI not set, subscriptions will not survive restarts")
	}

	reg := registry.NewRegistry(persister, logger)
	if err := reg.Load(ctx); err != nil {
		logger.Error("failed to load persisted subscribers", "error", err)
	}

	sched := scheduler.NewMatchScheduler(client, loc, logger)
	engine := notify.NewEngine(notify.DefaultModes()...)
	cache := footballapi.NewEventCache(eventCacheTTL())
	analyzer := analytics.NewAnalytics(client, logger)
	sink := bot.NewDiscordSink()

	disp := dispatch.NewDispatcher(dispatch.Config{
		API:            client,
		Sched:          sched,
		Registry:       reg,
		Sink:           sink,
		Engine:         engine,
		Cache:          cache,
		Analyzer:       analyzer,
		Logger:         logger,
		ActiveInterval: activeInterval(),
	})

	// Status endpoint for external monitoring
	go func() {
		if err := web.Start(web.Config{Addr: *addrPtr, Dispatcher: disp}); err != nil {
			logger.Error("status server stopped", "error", err)
		}
	}()

	b, err := bot.NewBot(ctx, discordToken, reg, disp, sched, analyzer, engine, sink, os.Getenv("ADMIN_ID"), logger)
	if err != nil {
		log.Fatalf("failed to initialize bot: %v", err)
	}
	if err := b.Run(); err != nil {
		log.Fatalf("bot exited: %v", err)
	}
}

// requestsPerMinute reads the rate limit from the environment, keeping the
// free-plan default when unset or malformed.
func requestsPerMinute() int {
	n, err := strconv.Atoi(os.Getenv("REQUESTS_PER_MINUTE"))
	if err != nil || n <= 0 {
		return defaultRequestsPerMinute
	}
	return n
}

// activeInterval reads the in-window poll cadence from the environment.
func activeInterval() time.Duration {
	raw := os.Getenv("CHECK_INTERVAL_ACTIVE")
	if raw == "" {
		return defaultActiveInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("invalid CHECK_INTERVAL_ACTIVE %q, using default", raw)
		return defaultActiveInterval
	}
	return d
}

// eventCacheTTL reads the per-fixture event cache lifetime from the
// environment.
func eventCacheTTL() time.Duration {
	raw := os.Getenv("EVENT_CACHE_TTL")
	if raw == "" {
		return footballapi.DefaultEventTTL
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("invalid EVENT_CACHE_TTL %q, using default", raw)
		return footballapi.DefaultEventTTL
	}
	return d
}
