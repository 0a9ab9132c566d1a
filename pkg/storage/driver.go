// Package storage
package storage

import (
	"context"
)

// Driver defines the interface for persisting and retrieving conversation
// messages in a storage backend. The API service appends messages as
// exchanges complete and reads them back for the history endpoint.
type Driver interface {
	// Append stores a message at the end of the user's conversation log.
	// The driver assigns Message.ID and stamps CreatedAt when unset.
	Append(ctx context.Context, msg *Message) error

	// Messages returns the user's conversation in chronological order.
	// A positive limit returns only the most recent limit messages; an
	// unknown user yields an empty slice, not an error.
	Messages(ctx context.Context, userID string, limit int) ([]*Message, error)

	// Users returns the IDs of users with at least one stored message.
	Users(ctx context.Context) ([]string, error)

	// Close closes the store and releases any resources.
	Close() error
}
