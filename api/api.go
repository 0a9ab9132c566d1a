package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/finpersona/finchat/api/worker"
	"github.com/finpersona/finchat/pkg/eventstream"
	"github.com/finpersona/finchat/pkg/storage"
)

const defaultChunkDelay = 200 * time.Millisecond

// Server is the HTTP server for the advisor chat service. It answers message
// posts from the generator, streams responses chunk by chunk, and serves
// conversation history.
type Server struct {
	config     Config
	storer     storage.Driver
	workerPool *worker.Pool
	logger     *zap.Logger
	app        *fiber.App
}

// NewServer creates a new API server.
// The storer is injected to allow sharing with other components; the
// publisher receives an event for every persisted exchange.
func NewServer(config Config, storer storage.Driver, publisher eventstream.Publisher, logger *zap.Logger) (*Server, error) {
	if config.ChunkDelay <= 0 {
		config.ChunkDelay = defaultChunkDelay
	}

	wp, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Source: eventstream.EventSource{
			Service: "finchat",
			Listen:  config.ListenAddr,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:     config,
		storer:     storer,
		workerPool: wp,
		logger:     logger,
		app:        app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/chat/:userID/message", s.handleMessage)
	app.Get("/chat/:userID/message/stream", s.handleMessageStream)
	app.Get("/chat/:userID/messages", s.handleHistory)
	app.Get("/chat/users", s.handleListUsers)

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server and waits for the worker
// pool to drain.
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	s.workerPool.Close()
	return err
}
