package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/finpersona/finchat/pkg/sse"
	"github.com/finpersona/finchat/pkg/transport"
)

// doneMarker terminates the advisor service's chunk stream.
const doneMarker = "[DONE]"

// StreamTransport consumes the advisor service's SSE streaming endpoint,
// yielding one data chunk per event until the stream's done marker.
type StreamTransport struct {
	cfg Config

	mu          sync.Mutex
	state       transport.State
	resp        *http.Response
	reader      *sse.Reader
	doneEmitted bool
}

// NewStream returns a streaming remote transport.
func NewStream(cfg Config) *StreamTransport {
	return &StreamTransport{
		cfg:   cfg,
		state: transport.StateConnecting,
	}
}

// Open connects to the streaming endpoint and leaves the response body open
// for Next to read events from.
func (t *StreamTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	switch t.state {
	case transport.StateOpen:
		t.mu.Unlock()
		return fmt.Errorf("transport already open")
	case transport.StateClosed:
		t.mu.Unlock()
		return transport.ErrClosed
	}
	t.mu.Unlock()

	endpoint := fmt.Sprintf("%s/chat/%s/message/stream?message=%s",
		t.cfg.baseURL(), url.PathEscape(t.cfg.UserID), url.QueryEscape(t.cfg.Message))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		t.Close()
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.cfg.client().Do(req)
	if err != nil {
		t.Close()
		return fmt.Errorf("sending request to advisor service: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Close()
		return fmt.Errorf("advisor service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == transport.StateClosed {
		resp.Body.Close()
		return transport.ErrClosed
	}
	t.resp = resp
	t.reader = sse.NewReader(resp.Body)
	t.state = transport.StateOpen
	return nil
}

// Next blocks on the event stream. Close from another goroutine interrupts
// a pending read by closing the response body.
func (t *StreamTransport) Next() (*transport.Chunk, error) {
	t.mu.Lock()
	if t.state != transport.StateOpen || t.doneEmitted {
		t.mu.Unlock()
		return nil, transport.ErrClosed
	}
	reader := t.reader
	t.mu.Unlock()

	for {
		ev, err := reader.Next()

		t.mu.Lock()
		if t.state == transport.StateClosed {
			t.mu.Unlock()
			return nil, transport.ErrClosed
		}
		if err != nil {
			t.closeBodyLocked()
			t.mu.Unlock()
			return nil, fmt.Errorf("reading event stream: %w", err)
		}
		if ev == nil {
			t.closeBodyLocked()
			t.mu.Unlock()
			return nil, fmt.Errorf("event stream ended without done marker")
		}
		if ev.Data == doneMarker {
			t.doneEmitted = true
			t.closeBodyLocked()
			t.mu.Unlock()
			return &transport.Chunk{Done: true}, nil
		}
		if ev.Data == "" {
			// Heartbeat event, keep reading.
			t.mu.Unlock()
			continue
		}
		t.mu.Unlock()
		return &transport.Chunk{Text: ev.Data}, nil
	}
}

// Close transitions to CLOSED and unblocks any pending read.
func (t *StreamTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = transport.StateClosed
	t.closeBodyLocked()
	return nil
}

// State reports the current lifecycle state.
func (t *StreamTransport) State() transport.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *StreamTransport) closeBodyLocked() {
	if t.resp != nil {
		t.resp.Body.Close()
		t.resp = nil
	}
}
