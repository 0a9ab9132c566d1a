// Package simulated implements a local transport that replays a fully
// generated response as a paced chunk stream, standing in for the remote
// service when it is unreachable.
package simulated

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/finpersona/finchat/pkg/transport"
)

const (
	// maxChunkWords is the deterministic chunk size: every data chunk
	// carries min(maxChunkWords, remaining) words.
	maxChunkWords = 3

	defaultConnectDelay = 300 * time.Millisecond
	defaultChunkDelay   = 200 * time.Millisecond
)

// SplitChunks splits body on single spaces and groups the words maxWords per
// chunk (the final chunk may carry fewer), each chunk joined by single
// spaces. Joining the chunks back with single spaces reproduces body exactly;
// whitespace embedded in a word, such as a newline before a list item, rides
// along with that word. The split is deterministic: the same body always
// yields the same chunk sequence.
func SplitChunks(body string, maxWords int) []string {
	if maxWords < 1 {
		maxWords = 1
	}
	if strings.TrimSpace(body) == "" {
		return nil
	}

	words := strings.Split(body, " ")
	chunks := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := min(start+maxWords, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks
}

// Config tunes the pacing of a simulated transport. Zero values select the
// defaults.
type Config struct {
	// ConnectDelay is how long Open waits before reporting OPEN.
	ConnectDelay time.Duration

	// ChunkDelay is the pause before each data chunk is delivered.
	ChunkDelay time.Duration
}

// Transport replays a response body as a deterministic chunk sequence with
// realistic pacing. It is single-use: one body, one stream.
type Transport struct {
	mu          sync.Mutex
	state       transport.State
	chunks      []string
	next        int
	doneEmitted bool

	connectDelay time.Duration
	chunkDelay   time.Duration

	// closed is shared with timer waits so Close can cancel a delivery
	// that is already scheduled.
	closed chan struct{}
}

// New returns a simulated transport that will stream body.
func New(body string, cfg Config) *Transport {
	if cfg.ConnectDelay == 0 {
		cfg.ConnectDelay = defaultConnectDelay
	}
	if cfg.ChunkDelay == 0 {
		cfg.ChunkDelay = defaultChunkDelay
	}

	return &Transport{
		state:        transport.StateConnecting,
		chunks:       SplitChunks(body, maxChunkWords),
		connectDelay: cfg.ConnectDelay,
		chunkDelay:   cfg.ChunkDelay,
		closed:       make(chan struct{}),
	}
}

// Open waits the fixed connect delay, then transitions to OPEN.
func (t *Transport) Open(ctx context.Context) error {
	t.mu.Lock()
	switch t.state {
	case transport.StateOpen:
		t.mu.Unlock()
		return errors.New("transport already open")
	case transport.StateClosed:
		t.mu.Unlock()
		return transport.ErrClosed
	}
	t.mu.Unlock()

	timer := time.NewTimer(t.connectDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		t.Close()
		return ctx.Err()
	case <-t.closed:
		return transport.ErrClosed
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == transport.StateClosed {
		return transport.ErrClosed
	}
	t.state = transport.StateOpen
	return nil
}

// Next delivers the next data chunk after the configured pacing delay, or
// the single done chunk once all words have been emitted.
func (t *Transport) Next() (*transport.Chunk, error) {
	t.mu.Lock()
	if t.state != transport.StateOpen {
		t.mu.Unlock()
		return nil, transport.ErrClosed
	}

	if t.next >= len(t.chunks) {
		if t.doneEmitted {
			t.mu.Unlock()
			return nil, transport.ErrClosed
		}
		t.doneEmitted = true
		t.mu.Unlock()
		return &transport.Chunk{Done: true}, nil
	}

	payload := t.chunks[t.next]
	t.next++
	delay := t.chunkDelay
	t.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-t.closed:
		// Close raced the pacing timer: the scheduled chunk is dropped,
		// never delivered late.
		return nil, transport.ErrClosed
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != transport.StateOpen {
		return nil, transport.ErrClosed
	}
	return &transport.Chunk{Text: payload}, nil
}

// Close transitions to CLOSED and cancels any scheduled delivery.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == transport.StateClosed {
		return nil
	}
	t.state = transport.StateClosed
	close(t.closed)
	return nil
}

// State reports the current lifecycle state.
func (t *Transport) State() transport.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
