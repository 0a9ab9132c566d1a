// Package remote implements transports backed by a running advisor service.
//
// Transport issues one request/response exchange and replays the body as a
// single chunk. StreamTransport consumes the service's SSE endpoint and
// yields one chunk per event.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/finpersona/finchat/pkg/transport"
)

// Config configures a remote transport for one exchange.
type Config struct {
	// Target is the advisor service base URL (e.g. "http://localhost:8080").
	Target string

	// UserID scopes the exchange to a user's conversation.
	UserID string

	// Message is the user query text.
	Message string

	// Client is the HTTP client used for the exchange. http.DefaultClient
	// when nil; callers set a timeout via the client or the Open context.
	Client *http.Client
}

func (c Config) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c Config) baseURL() string {
	return strings.TrimRight(c.Target, "/")
}

// Transport is the single-shot remote transport: Open performs the whole
// request/response exchange, and the returned body is replayed as one data
// chunk followed by done.
type Transport struct {
	cfg Config

	mu          sync.Mutex
	state       transport.State
	body        string
	emitted     bool
	doneEmitted bool
}

// New returns a single-shot remote transport.
func New(cfg Config) *Transport {
	return &Transport{
		cfg:   cfg,
		state: transport.StateConnecting,
	}
}

// Open posts the message to the advisor service and stores the response
// body. Any network or protocol failure closes the transport; retry policy
// belongs to the caller.
func (t *Transport) Open(ctx context.Context) error {
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

	payload, err := json.Marshal(map[string]string{"message": t.cfg.Message})
	if err != nil {
		t.Close()
		return fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/chat/%s/message", t.cfg.baseURL(), url.PathEscape(t.cfg.UserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		t.Close()
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.cfg.client().Do(req)
	if err != nil {
		t.Close()
		return fmt.Errorf("sending request to advisor service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		t.Close()
		return fmt.Errorf("advisor service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Close()
		return fmt.Errorf("decoding response: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == transport.StateClosed {
		return transport.ErrClosed
	}
	t.body = decoded.Text
	t.state = transport.StateOpen
	return nil
}

// Next returns the whole response body as one data chunk on the first call
// and the done chunk on the second.
func (t *Transport) Next() (*transport.Chunk, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != transport.StateOpen {
		return nil, transport.ErrClosed
	}

	if !t.emitted {
		t.emitted = true
		return &transport.Chunk{Text: t.body}, nil
	}
	if !t.doneEmitted {
		t.doneEmitted = true
		return &transport.Chunk{Done: true}, nil
	}
	return nil, transport.ErrClosed
}

// Close transitions to CLOSED.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = transport.StateClosed
	return nil
}

// State reports the current lifecycle state.
func (t *Transport) State() transport.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
