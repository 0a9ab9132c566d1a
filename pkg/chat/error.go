package chat

import (
	"errors"
	"fmt"
)

// ErrUnknownMessage is returned when a mutation targets a message ID that was
// never appended to the transcript.
type ErrUnknownMessage struct {
	ID uint64
}

func (e ErrUnknownMessage) Error() string {
	if e.ID == 0 {
		return "unknown message"
	}

	return fmt.Sprintf("unknown message: %d", e.ID)
}

// ErrStreamActive is returned by AppendPending while another assistant
// message is still in progress. At most one in-progress assistant entry may
// exist at any time.
var ErrStreamActive = errors.New("an assistant message is already in progress")
