package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finpersona/finchat/pkg/advisor"
	"github.com/finpersona/finchat/pkg/chat"
	"github.com/finpersona/finchat/pkg/logger"
	"github.com/finpersona/finchat/pkg/transport"
)

const defaultConnectTimeout = 10 * time.Second

// Config wires a Controller's transports and outputs.
type Config struct {
	// Primary builds the transport dialed first for each exchange.
	Primary func(userText string) transport.Transport

	// Fallback builds the transport used when the primary fails before the
	// first chunk lands, seeded with the locally generated response body.
	// Nil disables fallback.
	Fallback func(body string) transport.Transport

	// ConnectTimeout bounds each transport Open. Defaults to 10s.
	ConnectTimeout time.Duration

	// OnInsights receives the exchange's insight tags after a completed
	// stream. Called from the consuming goroutine.
	OnInsights func([]advisor.Insight)

	// Logger defaults to a no-op.
	Logger *slog.Logger
}

// Controller runs at most one streamed exchange at a time against a
// transcript it mutates on behalf of the stream.
type Controller struct {
	cfg        Config
	transcript *chat.Transcript
	logger     *slog.Logger

	mu     sync.Mutex
	active *Session
}

// NewController returns a Controller over the given transcript.
func NewController(transcript *chat.Transcript, cfg Config) (*Controller, error) {
	if transcript == nil {
		return nil, fmt.Errorf("transcript is required")
	}
	if cfg.Primary == nil {
		return nil, fmt.Errorf("primary transport factory is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Controller{
		cfg:        cfg,
		transcript: transcript,
		logger:     log,
	}, nil
}

// Start appends the user message and an in-progress assistant message, then
// consumes the stream in a background goroutine. It returns ErrSessionActive
// while a prior exchange is still in flight.
func (c *Controller) Start(ctx context.Context, userText string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, ErrSessionActive
	}
	if _, exists := c.transcript.InProgressID(); exists {
		return nil, ErrSessionActive
	}

	c.transcript.AppendUser(userText)
	pending, err := c.transcript.AppendPending()
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.New(),
		MessageID: pending.ID,
		UserText:  userText,
		done:      make(chan struct{}),
	}
	s.setTransport(c.cfg.Primary(userText))

	c.active = s
	go c.run(ctx, s)
	return s, nil
}

// Active returns the in-flight session, nil when idle.
func (c *Controller) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// CloseActive cancels the in-flight exchange, if any. The in-progress message
// is finalized with whatever text had been applied; no further chunk lands.
func (c *Controller) CloseActive() bool {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()

	if s == nil {
		return false
	}
	s.close()
	return true
}

// probe dials the transport and pulls the first chunk. Fallback is decided
// on its error alone.
func (c *Controller) probe(ctx context.Context, tr transport.Transport) (*transport.Chunk, error) {
	openCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	if err := tr.Open(openCtx); err != nil {
		return nil, err
	}
	return tr.Next()
}

func (c *Controller) run(ctx context.Context, s *Session) {
	defer func() {
		c.mu.Lock()
		if c.active == s {
			c.active = nil
		}
		c.mu.Unlock()
	}()

	// Derived locally so every exchange carries at least one insight tag
	// and the fallback transport has a body to stream.
	local := advisor.Generate(s.UserText)

	tr := s.transport()
	chunk, err := c.probe(ctx, tr)
	if err != nil && c.cfg.Fallback != nil && !s.isClosed() && ctx.Err() == nil {
		tr.Close()
		c.logger.Warn("remote transport unavailable, serving local response",
			"session_id", s.ID, "error", err)

		tr = c.cfg.Fallback(local.Body)
		s.replaceTransport(tr)
		chunk, err = c.probe(ctx, tr)
	}

	accumulated := ""
	for err == nil && !chunk.Done {
		if chunk.Text != "" {
			if accumulated == "" {
				accumulated = chunk.Text
			} else {
				accumulated += " " + chunk.Text
			}
			if applyErr := c.transcript.Apply(s.MessageID, accumulated); applyErr != nil {
				c.logger.Warn("transcript apply failed",
					"session_id", s.ID, "message_id", s.MessageID, "error", applyErr)
			}
		}
		chunk, err = tr.Next()
	}

	tr.Close()

	ex := &Exchange{
		SessionID: s.ID,
		MessageID: s.MessageID,
		UserText:  s.UserText,
		FellBack:  s.FellBack(),
	}

	switch {
	case err == nil:
		c.transcript.Finalize(s.MessageID)
		ex.FinalText = accumulated
		ex.Insights = local.Insights
		if c.cfg.OnInsights != nil {
			c.cfg.OnInsights(local.Insights)
		}
	case s.isClosed() || ctx.Err() != nil:
		// Canceled: the applied text stands, nothing replaces it.
		c.transcript.Finalize(s.MessageID)
		ex.FinalText = accumulated
		ex.Canceled = true
	default:
		c.transcript.Fail(s.MessageID, Apology)
		ex.FinalText = Apology
		ex.Err = err
		c.logger.Error("stream failed", "session_id", s.ID, "error", err)
	}

	s.finish(ex)
}
