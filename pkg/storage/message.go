package storage

import (
	"time"

	"github.com/finpersona/finchat/pkg/advisor"
	"github.com/finpersona/finchat/pkg/chat"
)

// Message is one stored conversation entry. Assistant messages carry the
// insight tags derived for their exchange; user messages have none.
type Message struct {
	ID        uint64            `json:"id"`
	UserID    string            `json:"user_id"`
	Sender    chat.Sender       `json:"sender"`
	Text      string            `json:"text"`
	Insights  []advisor.Insight `json:"insights,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
