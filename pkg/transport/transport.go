// Package transport defines the abstraction the streaming pipeline programs
// against: an ordered, finite sequence of response chunks for one exchange.
//
// A transport is single-use. It starts CONNECTING, moves to OPEN on a
// successful Open, and ends CLOSED on completion, failure, or Close. CLOSED
// is terminal; a fresh exchange requires a fresh transport.
package transport

import (
	"context"
	"errors"
)

// State is the lifecycle state of a transport.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by Open and Next once a transport has reached the
// CLOSED state, including when Close raced an in-flight chunk delivery.
var ErrClosed = errors.New("transport closed")

// Chunk is one fragment of the response text. The terminal chunk carries
// Done=true and no text; it is emitted exactly once per exchange.
type Chunk struct {
	Text string
	Done bool
}

// Transport produces the ordered chunk sequence for one exchange.
//
// Implementations guarantee that no chunk is delivered after Close returns:
// a delivery already scheduled (e.g. waiting on a pacing timer) is dropped,
// and its timer released, rather than delivered late.
type Transport interface {
	// Open establishes the stream, blocking until the transport is OPEN or
	// the attempt fails. Failure transitions straight to CLOSED. The context
	// bounds only the connection attempt.
	Open(ctx context.Context) error

	// Next blocks until the next chunk is available and returns it. Chunks
	// arrive strictly in emission order; the final one has Done=true. After
	// the done chunk, or once the transport is CLOSED, Next returns ErrClosed.
	Next() (*Chunk, error)

	// Close transitions the transport to CLOSED and releases its resources.
	// It is idempotent and safe to call from a goroutine other than the one
	// blocked in Next.
	Close() error

	// State reports the current lifecycle state.
	State() State
}
