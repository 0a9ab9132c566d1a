// Package chat maintains the conversation transcript: an append-only sequence
// of messages where only the single in-progress assistant entry mutates. The
// stream session controller drives those mutations; the presentation layer
// consumes read-only snapshots.
package chat

import "time"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one transcript entry. IDs are unique and monotonically assigned
// at creation time. Text grows monotonically while InProgress is true.
type Message struct {
	ID         uint64
	Sender     Sender
	Text       string
	InProgress bool
	CreatedAt  time.Time
}
