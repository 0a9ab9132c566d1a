package eventstream

import (
	"time"

	"github.com/finpersona/finchat/pkg/storage"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangePersisted is emitted after a user/assistant exchange
	// is persisted.
	EventTypeExchangePersisted = "finchat.exchange.persisted"
)

// ExchangePersistedEvent is a transport-neutral event payload for a persisted
// exchange.
type ExchangePersistedEvent struct {
	SchemaVersion int                 `json:"schema_version"`
	EventType     string              `json:"event_type"`
	EventID       string              `json:"event_id"`
	EmittedAt     time.Time           `json:"emitted_at"`
	Source        EventSource         `json:"source"`
	RequestMeta   ExchangeRequestMeta `json:"request_meta"`
	Exchange      Exchange            `json:"exchange"`
}

// EventSource identifies the service instance that handled the exchange.
type EventSource struct {
	Service string `json:"service"`
	Listen  string `json:"listen,omitempty"`
}

// ExchangeRequestMeta captures request lifecycle metadata for the event.
type ExchangeRequestMeta struct {
	Path        string    `json:"path,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Streaming   bool      `json:"streaming"`
	HTTPStatus  int       `json:"http_status"`
}

// Exchange pairs the persisted user message with its assistant response.
// Insight tags travel on the assistant message.
type Exchange struct {
	UserID    string          `json:"user_id"`
	User      storage.Message `json:"user"`
	Assistant storage.Message `json:"assistant"`
}
