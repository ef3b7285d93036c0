/* registry.go
 * Contains the in-memory subscriber registry. The registry is the single
 * owner of the user map; persistence is delegated to an optional Persister
 * so the bot keeps working when no database is configured.
 */

package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"goalwatch-bot/api/shared"
)

// Persister snapshots subscriber state to durable storage. Implemented by
// the mongo store; a nil Persister means memory-only operation.
type Persister interface {
	SaveSubscriber(ctx context.Context, user shared.User) error
	DeactivateSubscriber(ctx context.Context, userID string) error
	ActiveSubscribers(ctx context.Context) ([]shared.User, error)
}

// Registry tracks which users currently receive notifications.
type Registry struct {
	store  Persister
	logger *slog.Logger

	mu    sync.RWMutex
	users map[string]shared.User
}

// NewRegistry creates a registry. store may be nil.
func NewRegistry(store Persister, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:  store,
		logger: logger,
		users:  make(map[string]shared.User),
	}
}

// Load seeds the registry from the persisted snapshot so notifications
// resume after a restart. A nil store is a no-op.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	users, err := r.store.ActiveSubscribers(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	for _, u := range users {
		u.Running = true
		r.users[u.UserID] = u
	}
	r.mu.Unlock()

	r.logger.Info("loaded active subscribers", "count", len(users))
	return nil
}

// Activate opts a user in. Returns whether the user was already running.
func (r *Registry) Activate(ctx context.Context, userID, username string) bool {
	r.mu.Lock()
	existing, ok := r.users[userID]
	already := ok && existing.Running
	user := shared.User{UserID: userID, Username: username, Running: true}
	r.users[userID] = user
	r.mu.Unlock()

	if already {
		return true
	}
	r.persistSave(ctx, user)
	r.logger.Info("subscriber activated", "user", userID, "username", username)
	return false
}

// Deactivate opts a user out. The entry is kept with Running=false; users
// are never hard-deleted. Returns whether the user was running.
func (r *Registry) Deactivate(ctx context.Context, userID string) bool {
	r.mu.Lock()
	user, ok := r.users[userID]
	wasRunning := ok && user.Running
	if ok {
		user.Running = false
		r.users[userID] = user
	}
	r.mu.Unlock()

	if !wasRunning {
		return false
	}
	if r.store != nil {
		if err := r.store.DeactivateSubscriber(ctx, userID); err != nil {
			r.logger.Error("failed to persist deactivation", "user", userID, "error", err)
		}
	}
	r.logger.Info("subscriber deactivated", "user", userID)
	return true
}

// ActiveUsers returns the running subscribers, ordered by user id so
// fan-out is deterministic in tests.
func (r *Registry) ActiveUsers() []shared.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []shared.User
	for _, u := range r.users {
		if u.Running {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// IsRunning reports whether a user is currently opted in.
func (r *Registry) IsRunning(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	return ok && u.Running
}

// Count returns the number of running subscribers.
func (r *Registry) Count() int {
	return len(r.ActiveUsers())
}

func (r *Registry) persistSave(ctx context.Context, user shared.User) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveSubscriber(ctx, user); err != nil {
		r.logger.Error("failed to persist subscriber", "user", user.UserID, "error", err)
	}
}
