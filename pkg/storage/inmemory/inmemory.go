package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/finpersona/finchat/pkg/storage"
)

// Driver implements storage.Driver with per-user in-memory conversation
// logs. State lives for the process lifetime only.
type Driver struct {
	// mu is a read write sync mutex for locking the conversation map
	mu sync.RWMutex

	// nextID is the last assigned message ID, monotonic across all users
	nextID uint64

	// conversations maps a user ID to that user's ordered message log
	conversations map[string][]*storage.Message
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		conversations: make(map[string][]*storage.Message),
	}
}

// Append stores a copy of msg at the end of the user's log, assigning its ID
// and stamping CreatedAt when unset. The caller's msg is updated with the
// assigned ID.
func (s *Driver) Append(_ context.Context, msg *storage.Message) error {
	if msg == nil {
		return errors.New("cannot store nil message")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg.ID = s.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	stored := *msg
	s.conversations[msg.UserID] = append(s.conversations[msg.UserID], &stored)
	return nil
}

// Messages returns the user's conversation in chronological order. A positive
// limit keeps only the most recent limit messages. An unknown user yields an
// empty slice.
func (s *Driver) Messages(_ context.Context, userID string, limit int) ([]*storage.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.conversations[userID]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}

	messages := make([]*storage.Message, 0, len(log))
	for _, msg := range log {
		copied := *msg
		messages = append(messages, &copied)
	}

	return messages, nil
}

// Users returns the IDs of users with at least one stored message, sorted
// for deterministic output.
func (s *Driver) Users(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.conversations))
	for userID := range s.conversations {
		users = append(users, userID)
	}
	sort.Strings(users)

	return users, nil
}

// Count returns the number of stored messages across all users.
func (s *Driver) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, log := range s.conversations {
		count += len(log)
	}
	return count
}

// Close is a no-op for the in-memory driver.
func (s *Driver) Close() error {
	return nil
}
