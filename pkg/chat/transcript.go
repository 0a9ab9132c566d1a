package chat

import (
	"sync"
	"time"
)

// NotifyFunc receives a read-only snapshot of the transcript after every
// mutation.
type NotifyFunc func(messages []Message)

// Transcript is the ordered message store for one conversation. All methods
// are safe for concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	nextID   uint64
	messages []Message
	byID     map[uint64]int
	notify   NotifyFunc
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		byID: make(map[uint64]int),
	}
}

// SetNotify registers fn to be called with a snapshot after each mutation.
// Pass nil to disable notifications.
func (t *Transcript) SetNotify(fn NotifyFunc) {
	t.mu.Lock()
	t.notify = fn
	t.mu.Unlock()
}

// AppendUser appends a finalized user message and returns it.
func (t *Transcript) AppendUser(text string) Message {
	return t.append(SenderUser, text, false)
}

// AppendAssistant appends a finalized assistant message, e.g. when seeding
// the transcript from persisted history.
func (t *Transcript) AppendAssistant(text string) Message {
	return t.append(SenderAssistant, text, false)
}

// AppendPending appends an empty in-progress assistant message, the entry a
// stream session will grow chunk by chunk. It fails if another assistant
// message is still in progress.
func (t *Transcript) AppendPending() (Message, error) {
	t.mu.Lock()

	for i := range t.messages {
		if t.messages[i].InProgress {
			t.mu.Unlock()
			return Message{}, ErrStreamActive
		}
	}

	t.nextID++
	msg := Message{
		ID:         t.nextID,
		Sender:     SenderAssistant,
		InProgress: true,
		CreatedAt:  time.Now(),
	}
	t.byID[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)

	notify, snapshot := t.snapshotLocked()
	t.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
	return msg, nil
}

// Apply replaces the text of the in-progress message id with the cumulative
// text so far. The caller always supplies the full accumulated string, never
// a delta, which makes reapplication harmless.
//
// Applying to a finalized message is a silent no-op: residual scheduled
// updates arriving after finalization or cancellation must not disturb the
// transcript. Applying to an unknown id is an error.
func (t *Transcript) Apply(id uint64, fullText string) error {
	t.mu.Lock()

	idx, ok := t.byID[id]
	if !ok {
		t.mu.Unlock()
		return ErrUnknownMessage{ID: id}
	}

	if !t.messages[idx].InProgress {
		t.mu.Unlock()
		return nil
	}

	t.messages[idx].Text = fullText

	notify, snapshot := t.snapshotLocked()
	t.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
	return nil
}

// Finalize marks the message id as no longer in progress, leaving its text
// as last applied.
func (t *Transcript) Finalize(id uint64) error {
	return t.close(id, nil)
}

// Fail finalizes the message id with errorText replacing any partial text,
// so a truncated answer is never presented as final.
func (t *Transcript) Fail(id uint64, errorText string) error {
	return t.close(id, &errorText)
}

// Message returns a copy of the message with the given id.
func (t *Transcript) Message(id uint64) (Message, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, ok := t.byID[id]
	if !ok {
		return Message{}, ErrUnknownMessage{ID: id}
	}
	return t.messages[idx], nil
}

// Snapshot returns a copy of all messages in append order.
func (t *Transcript) Snapshot() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// InProgressID returns the id of the current in-progress assistant message,
// or false when the transcript is quiescent.
func (t *Transcript) InProgressID() (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.messages {
		if t.messages[i].InProgress {
			return t.messages[i].ID, true
		}
	}
	return 0, false
}

// Len returns the number of messages in the transcript.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

func (t *Transcript) append(sender Sender, text string, inProgress bool) Message {
	t.mu.Lock()

	t.nextID++
	msg := Message{
		ID:         t.nextID,
		Sender:     sender,
		Text:       text,
		InProgress: inProgress,
		CreatedAt:  time.Now(),
	}
	t.byID[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)

	notify, snapshot := t.snapshotLocked()
	t.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
	return msg
}

func (t *Transcript) close(id uint64, replaceText *string) error {
	t.mu.Lock()

	idx, ok := t.byID[id]
	if !ok {
		t.mu.Unlock()
		return ErrUnknownMessage{ID: id}
	}

	if replaceText != nil {
		t.messages[idx].Text = *replaceText
	}
	t.messages[idx].InProgress = false

	notify, snapshot := t.snapshotLocked()
	t.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
	return nil
}

// snapshotLocked builds the notification payload while the caller holds the
// lock. The notify callback itself runs after unlock so it can safely call
// back into the transcript.
func (t *Transcript) snapshotLocked() (NotifyFunc, []Message) {
	if t.notify == nil {
		return nil, nil
	}

	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return t.notify, out
}
