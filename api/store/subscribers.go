/* subscribers.go
 * Contains the methods for interacting with the subscribers collection.
 * Subscribers are only ever deactivated, never deleted, so opt-in history
 * survives restarts and quota halts.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goalwatch-bot/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// subscriberDoc is the persisted form of a subscriber.
type subscriberDoc struct {
	UserID    string    `bson:"userid"`
	Username  string    `bson:"username"`
	Running   bool      `bson:"running"`
	UpdatedAt time.Time `bson:"updatedat"`
}

// SaveSubscriber stores or updates a subscriber snapshot.
// Preconditions: Receives a shared.User with the current running state
// Postconditions: Creates or updates the subscriber document, or returns an error
func (s *Store) SaveSubscriber(ctx context.Context, user shared.User) error {
	doc := subscriberDoc{
		UserID:    user.UserID,
		Username:  user.Username,
		Running:   user.Running,
		UpdatedAt: time.Now().UTC(),
	}

	// Attempt to find an existing document
	var existing subscriberDoc
	err := s.Collections.Subscribers.FindOne(ctx, bson.M{"userid": user.UserID}).Decode(&existing)
	notFound := errors.Is(err, mongo.ErrNoDocuments)

	if err != nil && !notFound {
		return fmt.Errorf("lookup for existing subscriber failed: %w", err)
	}

	// The user has no stored snapshot yet so we create a new document
	if notFound {
		_, err := s.Collections.Subscribers.InsertOne(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to insert new subscriber: %w", err)
		}
		return nil
	}

	// Else update the existing snapshot
	_, err = s.Collections.Subscribers.UpdateOne(ctx, bson.M{"userid": user.UserID}, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("failed to update existing subscriber: %w", err)
	}
	return nil
}

// DeactivateSubscriber clears a subscriber's running flag without removing
// the document.
func (s *Store) DeactivateSubscriber(ctx context.Context, userID string) error {
	_, err := s.Collections.Subscribers.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{"$set": bson.M{"running": false, "updatedat": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to deactivate subscriber: %w", err)
	}
	return nil
}

// ActiveSubscribers returns every subscriber whose running flag is set.
func (s *Store) ActiveSubscribers(ctx context.Context) ([]shared.User, error) {
	cursor, err := s.Collections.Subscribers.Find(ctx, bson.M{"running": true})
	if err != nil {
		return nil, fmt.Errorf("error fetching subscribers from db: %w", err)
	}

	var docs []subscriberDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into subscriber slice: %w", err)
	}

	users := make([]shared.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, shared.User{UserID: d.UserID, Username: d.Username, Running: d.Running})
	}
	return users, nil
}

// GetSubscriber returns one subscriber's snapshot.
func (s *Store) GetSubscriber(ctx context.Context, userID string) (shared.User, error) {
	var doc subscriberDoc
	err := s.Collections.Subscribers.FindOne(ctx, bson.M{"userid": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return shared.User{}, err
		}
		return shared.User{}, fmt.Errorf("error fetching subscriber from db: %w", err)
	}
	return shared.User{UserID: doc.UserID, Username: doc.Username, Running: doc.Running}, nil
}
