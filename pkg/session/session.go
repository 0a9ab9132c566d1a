// Package session coordinates streamed advisor exchanges: each session dials
// the remote transport, falls back to the simulated transport when the remote
// is unavailable, and forwards cumulative response text to the transcript as
// chunks arrive.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/finpersona/finchat/pkg/advisor"
	"github.com/finpersona/finchat/pkg/transport"
)

// Apology replaces any partial response when a stream fails mid-flight. The
// user never sees a truncated answer presented as final.
const Apology = "I'm sorry, I encountered an issue while processing your request. Could you please try again?"

// ErrSessionActive rejects Start while an exchange is still in flight.
var ErrSessionActive = errors.New("session already active")

// Exchange is the terminal outcome of one streamed exchange.
type Exchange struct {
	SessionID uuid.UUID
	MessageID uint64
	UserText  string
	FinalText string
	Insights  []advisor.Insight

	// FellBack reports that the remote transport failed before the first
	// chunk and the simulated transport served the response instead.
	FellBack bool

	// Canceled reports that CloseActive (or context cancellation) ended
	// the stream; FinalText holds whatever had been applied.
	Canceled bool

	// Err is the terminal stream error, nil on success or cancellation.
	Err error
}

// Session is one in-flight exchange. It is created by Controller.Start and
// becomes terminal exactly once.
type Session struct {
	ID        uuid.UUID
	MessageID uint64
	UserText  string

	mu       sync.Mutex
	tr       transport.Transport
	closed   bool
	fellBack bool

	done     chan struct{}
	exchange *Exchange
}

// Wait blocks until the session is terminal and returns the outcome.
func (s *Session) Wait() *Exchange {
	<-s.done
	return s.exchange
}

// Done is closed when the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// TransportState reports the lifecycle state of the transport currently
// serving the session.
func (s *Session) TransportState() transport.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tr == nil {
		return transport.StateClosed
	}
	return s.tr.State()
}

// FellBack reports whether the session switched to the fallback transport.
func (s *Session) FellBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fellBack
}

func (s *Session) transport() transport.Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr
}

func (s *Session) setTransport(tr transport.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tr = tr
}

// replaceTransport swaps in the fallback. A session closed during the swap
// closes the new transport immediately so no chunk is served after cancel.
func (s *Session) replaceTransport(tr transport.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fellBack = true
	s.tr = tr
	if s.closed {
		tr.Close()
	}
}

// close cancels the session: the transport is closed so any in-flight Next
// unblocks, and the consuming goroutine finalizes with the applied text.
func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	tr := s.tr
	s.mu.Unlock()
	if tr != nil {
		tr.Close()
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) finish(ex *Exchange) {
	s.exchange = ex
	close(s.done)
}
