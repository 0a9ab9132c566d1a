package api

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/finpersona/finchat/api/worker"
	"github.com/finpersona/finchat/pkg/advisor"
	"github.com/finpersona/finchat/pkg/chat"
	"github.com/finpersona/finchat/pkg/storage"
	"github.com/finpersona/finchat/pkg/transport/simulated"
	"github.com/finpersona/finchat/pkg/utils"
)

const (
	// streamChunkWords is the number of words per streamed chunk.
	streamChunkWords = 2

	// defaultHistoryLimit caps history responses when no limit is given.
	defaultHistoryLimit = 50

	// doneMarker terminates the chunk stream.
	doneMarker = "[DONE]"
)

// ErrorResponse is the JSON error payload for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageRequest is the inbound payload for posting a chat message.
type MessageRequest struct {
	Message string `json:"message"`
}

// HistoryResponse contains the stored conversation for a user.
type HistoryResponse struct {
	UserID string `json:"user_id"`
	// Messages in chronological order (oldest first)
	Messages []*storage.Message `json:"messages"`
	Count    int                `json:"count"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleMessage answers a posted message in one shot: the generated response
// is persisted together with the user message and returned whole.
func (s *Server) handleMessage(c *fiber.Ctx) error {
	startTime := time.Now().UTC()
	userID := c.Params("userID")

	var req MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Message cannot be empty"})
	}

	s.logger.Debug("message received",
		zap.String("user_id", userID),
		zap.String("preview", utils.Truncate(req.Message, 60)),
	)

	response := advisor.Generate(req.Message)

	userMsg, assistantMsg, err := s.persistExchange(c.Context(), userID, req.Message, response)
	if err != nil {
		s.logger.Error("failed to store exchange",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to store exchange"})
	}

	// Non-blocking enqueue for async event publishing
	s.workerPool.Enqueue(worker.Job{
		UserID:      userID,
		User:        *userMsg,
		Assistant:   *assistantMsg,
		Path:        c.Path(),
		StartedAt:   startTime,
		CompletedAt: time.Now().UTC(),
		Streaming:   false,
		HTTPStatus:  fiber.StatusOK,
	})

	return c.JSON(assistantMsg)
}

// handleMessageStream answers a message as a chunked event stream: the
// response body is split into two-word chunks and emitted at the configured
// delay, terminated by the done marker. The exchange is persisted once the
// stream completes.
func (s *Server) handleMessageStream(c *fiber.Ctx) error {
	startTime := time.Now().UTC()
	userID := c.Params("userID")
	message := c.Query("message")

	if strings.TrimSpace(message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Message cannot be empty"})
	}

	s.logger.Debug("stream requested",
		zap.String("user_id", userID),
		zap.String("preview", utils.Truncate(message, 60)),
	)

	response := advisor.Generate(message)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// Use io.Pipe + SetBodyStream so each chunk is flushed to the client as
	// it is written: pw.Write blocks until fasthttp's chunked writer consumes
	// the data, giving direct backpressure and true per-chunk streaming.
	// The path is captured here because fasthttp recycles its RequestCtx
	// after the handler returns while the goroutine is still streaming.
	pr, pw := io.Pipe()
	go s.streamExchange(pw, userID, c.Path(), message, response, startTime)

	// Unknown size (-1) triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// streamExchange writes the response body as paced SSE events and persists
// the exchange after the stream completes. A client disconnect aborts the
// stream without persisting.
func (s *Server) streamExchange(pw *io.PipeWriter, userID, path, message string, response advisor.Response, startTime time.Time) {
	defer pw.Close()

	for _, chunk := range simulated.SplitChunks(response.Body, streamChunkWords) {
		if err := writeEvent(pw, chunk); err != nil {
			s.logger.Debug("stream client disconnected",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return
		}
		time.Sleep(s.config.ChunkDelay)
	}

	if err := writeEvent(pw, doneMarker); err != nil {
		return
	}

	// The handler's fasthttp context is recycled by now; persistence runs on
	// its own context.
	ctx := context.Background()
	userMsg, assistantMsg, err := s.persistExchange(ctx, userID, message, response)
	if err != nil {
		s.logger.Error("failed to store streamed exchange",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return
	}

	s.workerPool.Enqueue(worker.Job{
		UserID:      userID,
		User:        *userMsg,
		Assistant:   *assistantMsg,
		Path:        path,
		StartedAt:   startTime,
		CompletedAt: time.Now().UTC(),
		Streaming:   true,
		HTTPStatus:  fiber.StatusOK,
	})
}

// writeEvent frames one chunk as an SSE event. A chunk with embedded
// newlines becomes multiple data lines in the same event; readers join them
// back with newlines, reproducing the chunk exactly.
func writeEvent(w io.Writer, chunk string) error {
	for _, line := range strings.Split(chunk, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

// persistExchange appends the user message and the generated assistant
// response to the store, in that order.
func (s *Server) persistExchange(ctx context.Context, userID, message string, response advisor.Response) (*storage.Message, *storage.Message, error) {
	userMsg := &storage.Message{
		UserID: userID,
		Sender: chat.SenderUser,
		Text:   message,
	}
	if err := s.storer.Append(ctx, userMsg); err != nil {
		return nil, nil, fmt.Errorf("storing user message: %w", err)
	}

	assistantMsg := &storage.Message{
		UserID:   userID,
		Sender:   chat.SenderAssistant,
		Text:     response.Body,
		Insights: response.Insights,
	}
	if err := s.storer.Append(ctx, assistantMsg); err != nil {
		return nil, nil, fmt.Errorf("storing assistant message: %w", err)
	}

	return userMsg, assistantMsg, nil
}

// handleHistory returns the user's stored conversation, most recent last.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	userID := c.Params("userID")
	limit := c.QueryInt("limit", defaultHistoryLimit)

	messages, err := s.storer.Messages(c.Context(), userID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load history"})
	}

	return c.JSON(HistoryResponse{
		UserID:   userID,
		Messages: messages,
		Count:    len(messages),
	})
}

// handleListUsers returns the IDs of users with stored conversations.
func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.storer.Users(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list users"})
	}

	return c.JSON(map[string]any{
		"count": len(users),
		"users": users,
	})
}
