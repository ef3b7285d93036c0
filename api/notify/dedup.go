/* dedup.go
 * Contains the notification dedup engine. The same goal event is
 * re-observed on every poll until the match ends, so dedup identity is the
 * event's field tuple, never its position in the list. The delivery log is
 * the sole mechanism preventing duplicate sends and is mutex-guarded.
 */

package notify

import (
	"sync"

	"goalwatch-bot/api/footballapi"
)

// EventKey is the identity tuple that makes a goal event distinguishable
// across polls.
type EventKey struct {
	FixtureID int64
	Minute    int
	Player    string
	Team      string
	Type      string
	Detail    string
}

// KeyFor builds the identity tuple for an event within a fixture.
func KeyFor(fixtureID int64, event footballapi.Event) EventKey {
	return EventKey{
		FixtureID: fixtureID,
		Minute:    event.Minute(),
		Player:    event.Player.Name,
		Team:      event.Team.Name,
		Type:      event.Type,
		Detail:    event.Detail,
	}
}

type deliveryKey struct {
	UserID string
	Event  EventKey
}

// DeliveryLog records which (subscriber, event-identity) pairs have
// already been notified. Entries are permanent for the life of the
// process except for explicit per-fixture reclamation.
type DeliveryLog struct {
	mu   sync.Mutex
	sent map[deliveryKey]struct{}
}

// NewDeliveryLog creates an empty delivery log.
func NewDeliveryLog() *DeliveryLog {
	return &DeliveryLog{sent: make(map[deliveryKey]struct{})}
}

// AlreadySent reports whether this subscriber was already notified about
// this event.
func (l *DeliveryLog) AlreadySent(userID string, key EventKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.sent[deliveryKey{UserID: userID, Event: key}]
	return ok
}

// MarkSent records a successful delivery. Must only be called after the
// send has actually succeeded, so a failed send stays retryable.
func (l *DeliveryLog) MarkSent(userID string, key EventKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent[deliveryKey{UserID: userID, Event: key}] = struct{}{}
}

// ReclaimFixture drops every entry belonging to a fixture. Only safe once
// the fixture can no longer appear in the live match list.
func (l *DeliveryLog) ReclaimFixture(fixtureID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k := range l.sent {
		if k.Event.FixtureID == fixtureID {
			delete(l.sent, k)
		}
	}
}

// Len returns the number of recorded deliveries.
func (l *DeliveryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}

// Engine combines the delivery modes with the delivery log.
type Engine struct {
	modes []DeliveryMode
	log   *DeliveryLog

	mu        sync.Mutex
	forceNext bool
}

// NewEngine creates an engine evaluating the given modes in order.
func NewEngine(modes ...DeliveryMode) *Engine {
	return &Engine{
		modes: modes,
		log:   NewDeliveryLog(),
	}
}

// Log exposes the delivery log for reclamation and status reporting.
func (e *Engine) Log() *DeliveryLog {
	return e.log
}

// ForceNext arms the admin test mode: the next goal event classifies
// unconditionally. Consumed by the first classification that sees it.
func (e *Engine) ForceNext() {
	e.mu.Lock()
	e.forceNext = true
	e.mu.Unlock()
}

// Classify decides which delivery mode, if any, an event qualifies under.
// Modes run in their fixed priority order; the first match wins. Called
// once per event per cycle, not per subscriber.
func (e *Engine) Classify(event footballapi.Event, fixture footballapi.Fixture) (DeliveryMode, bool) {
	if !IsGoalEvent(event) {
		return nil, false
	}

	e.mu.Lock()
	if e.forceNext {
		e.forceNext = false
		e.mu.Unlock()
		return forcedMode{}, true
	}
	e.mu.Unlock()

	for _, m := range e.modes {
		if m.Matches(event, fixture) {
			return m, true
		}
	}
	return nil, false
}

// ShouldNotify reports whether this subscriber still needs this event.
func (e *Engine) ShouldNotify(userID string, key EventKey) bool {
	return !e.log.AlreadySent(userID, key)
}

// MarkNotified records a confirmed delivery for a subscriber.
func (e *Engine) MarkNotified(userID string, key EventKey) {
	e.log.MarkSent(userID, key)
}
