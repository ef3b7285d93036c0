/* dispatcher.go
 * Contains the core scheduling loop. One dispatcher instance drives the
 * whole process: it sleeps between match windows, polls live matches
 * inside them, fetches each match's events exactly once per cycle no
 * matter how many subscribers exist, and fans qualifying events out
 * through the dedup engine to the notification sink.
 */

package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"goalwatch-bot/api/footballapi"
	"goalwatch-bot/api/notify"
	"goalwatch-bot/api/shared"
)

// State is the dispatch loop's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateSleeping
	StatePolling
	StateQuotaHalted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSleeping:
		return "sleeping"
	case StatePolling:
		return "polling"
	case StateQuotaHalted:
		return "quota-halted"
	default:
		return "unknown"
	}
}

// MatchSource supplies live matches and per-fixture events.
type MatchSource interface {
	FetchLiveMatches(ctx context.Context) ([]footballapi.Fixture, footballapi.QuotaState)
	FetchEvents(ctx context.Context, fixtureID int64) ([]footballapi.Event, footballapi.QuotaState)
}

// Schedule answers when polling is worthwhile.
type Schedule interface {
	UpdateDailySchedule(ctx context.Context) bool
	RunDailyRefresh(ctx context.Context)
	ShouldPollNow() bool
	TimeUntilNextPoll() time.Duration
	ActiveMatchCount() int
}

// Registry supplies the active subscriber set at the start of each cycle.
type Registry interface {
	ActiveUsers() []shared.User
	Deactivate(ctx context.Context, userID string) bool
}

// Sink delivers one notification. Failures are per-subscriber and must
// not abort the cycle.
type Sink interface {
	Send(userID, text string) error
}

// Analyzer optionally enriches first-goal-late notifications with a
// comeback analysis of the fixture.
type Analyzer interface {
	Summary(ctx context.Context, fixture footballapi.Fixture) (string, bool)
}

// Config wires a Dispatcher.
type Config struct {
	API      MatchSource
	Sched    Schedule
	Registry Registry
	Sink     Sink
	Engine   *notify.Engine
	Cache    *footballapi.EventCache
	Analyzer Analyzer // optional
	Logger   *slog.Logger

	// ActiveInterval is the cadence between polls inside a window.
	ActiveInterval time.Duration
	// FallbackSleep is used when the scheduler cannot produce a sleep
	// duration.
	FallbackSleep time.Duration
}

// Dispatcher owns all mutable polling state; construct one per process.
type Dispatcher struct {
	api      MatchSource
	sched    Schedule
	registry Registry
	sink     Sink
	engine   *notify.Engine
	cache    *footballapi.EventCache
	analyzer Analyzer
	logger   *slog.Logger

	activeInterval time.Duration
	fallbackSleep  time.Duration

	running    atomic.Bool
	state      atomic.Int32
	iterations atomic.Int64
	wg         sync.WaitGroup

	// finished tracks fixtures observed in a terminal status. Their
	// delivery-log entries are reclaimed once they also drop out of the
	// live list, so a fixture lingering after full time can never be
	// re-notified. Loop-goroutine only.
	finished map[int64]bool

	refreshOnce sync.Once
}

// NewDispatcher creates a dispatcher from the given collaborators.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ActiveInterval <= 0 {
		cfg.ActiveInterval = 30 * time.Second
	}
	if cfg.FallbackSleep <= 0 {
		cfg.FallbackSleep = 5 * time.Minute
	}
	return &Dispatcher{
		api:            cfg.API,
		sched:          cfg.Sched,
		registry:       cfg.Registry,
		sink:           cfg.Sink,
		engine:         cfg.Engine,
		cache:          cfg.Cache,
		analyzer:       cfg.Analyzer,
		logger:         cfg.Logger,
		activeInterval: cfg.ActiveInterval,
		fallbackSleep:  cfg.FallbackSleep,
		finished:       make(map[int64]bool),
	}
}

// Status is a point-in-time snapshot for the status endpoint and $status.
type Status struct {
	State         string `json:"state"`
	Running       bool   `json:"running"`
	Iterations    int64  `json:"iterations"`
	ActiveMatches int    `json:"active_matches"`
	CachedEvents  int    `json:"cached_fixtures"`
	Subscribers   int    `json:"subscribers"`
	Deliveries    int    `json:"deliveries"`
}

// Status returns the current loop snapshot.
func (d *Dispatcher) Status() Status {
	return Status{
		State:         State(d.state.Load()).String(),
		Running:       d.running.Load(),
		Iterations:    d.iterations.Load(),
		ActiveMatches: d.sched.ActiveMatchCount(),
		CachedEvents:  d.cache.Len(),
		Subscribers:   len(d.registry.ActiveUsers()),
		Deliveries:    d.engine.Log().Len(),
	}
}

// Running reports whether the loop is active.
func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

// Start launches the dispatch loop. Starting while a loop is already
// active is a no-op and returns false.
func (d *Dispatcher) Start(ctx context.Context) bool {
	if !d.running.CompareAndSwap(false, true) {
		d.logger.Info("dispatch loop already running")
		return false
	}

	d.logger.Info("starting dispatch loop")
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx)
	}()
	return true
}

// Wait blocks until the loop goroutine exits.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.running.Store(false)

	// Load today's schedule up front and keep it fresh across midnight.
	d.sched.UpdateDailySchedule(ctx)
	d.refreshOnce.Do(func() {
		go d.sched.RunDailyRefresh(ctx)
	})

	for {
		if ctx.Err() != nil {
			d.state.Store(int32(StateIdle))
			return
		}

		users := d.registry.ActiveUsers()
		if len(users) == 0 {
			d.logger.Info("no active subscribers, stopping dispatch loop")
			d.state.Store(int32(StateIdle))
			return
		}

		if !d.sched.ShouldPollNow() {
			sleep := d.sched.TimeUntilNextPoll()
			if sleep <= 0 {
				sleep = d.fallbackSleep
			}
			d.state.Store(int32(StateSleeping))
			d.logger.Info("no matches to poll, sleeping", "duration", sleep.Round(time.Second))
			if !d.sleep(ctx, sleep) {
				d.state.Store(int32(StateIdle))
				return
			}
			// Subscriber and quota checks happen on wake, at the top of
			// the loop.
			continue
		}

		d.state.Store(int32(StatePolling))
		if halted := d.pollCycle(ctx, users); halted {
			return
		}

		if !d.sleep(ctx, d.activeInterval) {
			d.state.Store(int32(StateIdle))
			return
		}
	}
}

// sleep waits for the duration or until the context is cancelled.
// Returns false on cancellation.
func (d *Dispatcher) sleep(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// pollCycle runs one fetch-classify-dispatch pass over all live matches.
// Returns true when the loop must halt (quota exhausted).
func (d *Dispatcher) pollCycle(ctx context.Context, users []shared.User) bool {
	iteration := d.iterations.Add(1)
	d.logger.Info("poll cycle",
		"iteration", iteration,
		"subscribers", len(users),
		"active_matches", d.sched.ActiveMatchCount())

	fixtures, quota := d.api.FetchLiveMatches(ctx)
	if quota.Exhausted() {
		d.quotaHalt(ctx, users)
		return true
	}

	activeIDs := make([]int64, 0, len(fixtures))
	for _, f := range fixtures {
		if f.Fixture.ID != 0 {
			activeIDs = append(activeIDs, f.Fixture.ID)
		}
	}
	d.cache.Evict(activeIDs)
	d.reclaimDeparted(activeIDs)

	for _, fixture := range fixtures {
		// A fixture without an id cannot be keyed; skip it and keep the
		// rest of the batch.
		if fixture.Fixture.ID == 0 {
			continue
		}
		if halted := d.processMatch(ctx, fixture, users); halted {
			return true
		}
	}
	return false
}

// processMatch fetches one fixture's events (at most one upstream call per
// cycle, shared across all subscribers) and dispatches qualifying goals.
func (d *Dispatcher) processMatch(ctx context.Context, fixture footballapi.Fixture, users []shared.User) bool {
	fixtureID := fixture.Fixture.ID

	events, ok := d.cache.Get(fixtureID)
	if !ok {
		var quota footballapi.QuotaState
		events, quota = d.api.FetchEvents(ctx, fixtureID)
		if quota.Exhausted() {
			d.quotaHalt(ctx, users)
			return true
		}
		d.cache.Put(fixtureID, events)
	}

	for _, event := range events {
		mode, qualifies := d.engine.Classify(event, fixture)
		if !qualifies {
			continue
		}

		key := notify.KeyFor(fixtureID, event)
		text := notify.GoalMessage(fixture, event, mode.Name())
		if _, isLate := mode.(notify.FirstGoalLate); isLate && d.analyzer != nil {
			if summary, ok := d.analyzer.Summary(ctx, fixture); ok {
				text += "\n" + summary
			}
		}

		for _, user := range users {
			if !d.engine.ShouldNotify(user.UserID, key) {
				continue
			}
			if err := d.sink.Send(user.UserID, text); err != nil {
				// Left unmarked so the send is retried next cycle.
				d.logger.Error("failed to send notification",
					"user", user.UserID, "fixture", fixtureID, "error", err)
				continue
			}
			d.engine.MarkNotified(user.UserID, key)
			d.logger.Info("notification sent",
				"user", user.UserID,
				"fixture", fixtureID,
				"minute", event.Minute(),
				"mode", mode.Name())
		}
	}

	if fixture.IsFinished() {
		d.finished[fixtureID] = true
	}
	return false
}

// reclaimDeparted frees delivery-log entries for fixtures that finished
// and have since left the live list. Purely an optimization; correctness
// never depends on it.
func (d *Dispatcher) reclaimDeparted(activeIDs []int64) {
	if len(d.finished) == 0 {
		return
	}
	active := make(map[int64]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}
	for id := range d.finished {
		if !active[id] {
			d.engine.Log().ReclaimFixture(id)
			delete(d.finished, id)
		}
	}
}

// quotaHalt broadcasts the quota message to every active subscriber
// exactly once, deactivates them, and terminates the loop.
func (d *Dispatcher) quotaHalt(ctx context.Context, users []shared.User) {
	d.logger.Warn("quota exhausted, halting all polling", "subscribers", len(users))
	d.state.Store(int32(StateQuotaHalted))

	for _, user := range users {
		if err := d.sink.Send(user.UserID, notify.QuotaMessage); err != nil {
			d.logger.Error("failed to deliver quota notice", "user", user.UserID, "error", err)
		}
		d.registry.Deactivate(ctx, user.UserID)
	}
}
