// Package api provides the HTTP service for the advisor chat: message
// exchange, streamed responses, and conversation history.
package api

import "time"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// ChunkDelay paces the streaming endpoint's chunks (defaults to 200ms).
	ChunkDelay time.Duration
}
