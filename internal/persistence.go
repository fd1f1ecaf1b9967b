package internal

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultMaxMessages caps how many messages are kept in durable storage
	DefaultMaxMessages = 50
	// DefaultMaxAttachmentMessages caps how many stored messages keep their image payload
	DefaultMaxAttachmentMessages = 10

	timestampLayout = time.RFC3339Nano
)

// KeyValueStore is the durable storage PersistenceSync mirrors into
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Limits bounds what gets written to durable storage
type Limits struct {
	MaxMessages           int
	MaxAttachmentMessages int
}

func (l Limits) withDefaults() Limits {
	if l.MaxMessages <= 0 {
		l.MaxMessages = DefaultMaxMessages
	}
	if l.MaxAttachmentMessages <= 0 {
		l.MaxAttachmentMessages = DefaultMaxAttachmentMessages
	}
	return l
}

// storedMessage is the on-disk shell of a message
type storedMessage struct {
	ID             string `json:"id"`
	Role           Role   `json:"role"`
	Text           string `json:"text"`
	Timestamp      string `json:"timestamp,omitempty"`
	IsError        bool   `json:"isError,omitempty"`
	Retryable      bool   `json:"retryable,omitempty"`
	OriginalText   string `json:"originalText,omitempty"`
	ImageData      string `json:"imageData,omitempty"`
	ImageMimeType  string `json:"imageMimeType,omitempty"`
	ImageDropped   bool   `json:"imageDropped,omitempty"`
	AttachmentName string `json:"attachmentName,omitempty"`
}

// PersistenceSync mirrors a session into durable storage on every mutation.
// Writes are best-effort: failures are logged and never reach the caller.
type PersistenceSync struct {
	store   KeyValueStore
	variant Variant
	codec   *Codec
	limits  Limits

	mu      sync.Mutex
	lastErr error
}

// NewPersistenceSync creates a sync for the given variant's key namespace
func NewPersistenceSync(store KeyValueStore, v Variant, codec *Codec, limits Limits) *PersistenceSync {
	if codec == nil {
		codec = NewCodec(nil, 0)
	}
	return &PersistenceSync{
		store:   store,
		variant: v,
		codec:   codec,
		limits:  limits.withDefaults(),
	}
}

// Attach subscribes the sync to s so every mutation is written through
func (p *PersistenceSync) Attach(s *Session) {
	s.Subscribe(p.Sync)
}

// Hydrate builds a session from durable storage and attaches to it. Missing
// or unreadable data yields an empty session.
func (p *PersistenceSync) Hydrate() *Session {
	s := NewSession(p.variant, p.codec.Handles())

	messages, err := p.loadMessages()
	if err != nil {
		LogWarn("Discarding stored history: %v", err)
		messages = nil
	}

	sessionID, _, err := p.store.Get(p.variant.SessionIDKey())
	if err != nil {
		LogWarn("Failed to read session id: %v", err)
		sessionID = ""
	}

	s.restore(messages, sessionID)
	LogDebug("Hydrated %d message(s) for %s (session id bound: %t)", len(messages), p.variant.Name, sessionID != "")

	p.Attach(s)
	return s
}

// Sync writes the capped view of state. It never returns an error.
func (p *PersistenceSync) Sync(state State) {
	err := p.write(state)
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
	if err != nil {
		LogWarn("Failed to persist chat history (continuing in memory): %v", err)
	}
}

// LastWriteError returns the error of the most recent write, or nil
func (p *PersistenceSync) LastWriteError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Clear empties the session and removes both durable keys
func (p *PersistenceSync) Clear(s *Session) error {
	s.Clear()
	if err := p.store.Remove(p.variant.HistoryKey()); err != nil {
		return fmt.Errorf("failed to remove chat history: %w", err)
	}
	if err := p.store.Remove(p.variant.SessionIDKey()); err != nil {
		return fmt.Errorf("failed to remove session id: %w", err)
	}
	LogInfo("Chat history and session cleared")
	return nil
}

func (p *PersistenceSync) write(state State) error {
	var historyErr error
	if len(state.Messages) == 0 {
		historyErr = p.store.Remove(p.variant.HistoryKey())
	} else {
		data, err := json.Marshal(p.cappedView(state.Messages))
		if err != nil {
			historyErr = fmt.Errorf("failed to marshal chat history: %w", err)
		} else {
			historyErr = p.store.Set(p.variant.HistoryKey(), string(data))
		}
	}

	var sessionErr error
	if state.SessionID != "" {
		sessionErr = p.store.Set(p.variant.SessionIDKey(), state.SessionID)
	} else {
		sessionErr = p.store.Remove(p.variant.SessionIDKey())
	}

	if historyErr != nil {
		return historyErr
	}
	return sessionErr
}

// cappedView keeps the most recent MaxMessages and, among those, the image
// payload of only the most recent MaxAttachmentMessages.
func (p *PersistenceSync) cappedView(messages []*Message) []storedMessage {
	if len(messages) > p.limits.MaxMessages {
		messages = messages[len(messages)-p.limits.MaxMessages:]
	}

	out := make([]storedMessage, len(messages))
	kept := 0
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		sm := storedMessage{
			ID:             m.ID,
			Role:           m.Role,
			Text:           m.Text,
			IsError:        m.IsError,
			Retryable:      m.Retryable,
			OriginalText:   m.OriginalText,
			AttachmentName: m.AttachmentName,
		}
		if !m.Timestamp.IsZero() {
			sm.Timestamp = m.Timestamp.Format(timestampLayout)
		}
		if m.Attachment.HasPayload() {
			if kept < p.limits.MaxAttachmentMessages {
				sm.ImageData = m.Attachment.Data
				sm.ImageMimeType = m.Attachment.MimeType
				kept++
			} else {
				sm.ImageDropped = true
			}
		} else if m.Attachment != nil {
			sm.ImageDropped = true
		}
		out[i] = sm
	}
	return out
}

func (p *PersistenceSync) loadMessages() ([]*Message, error) {
	key := p.variant.HistoryKey()
	raw, ok, err := p.store.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, &ParseError{Source: "chat-history", Key: key, Err: err}
	}

	messages := make([]*Message, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		var sm storedMessage
		if err := json.Unmarshal(entry, &sm); err != nil {
			LogWarn("Skipping stored message %d: %v", i, &ParseError{Source: "chat-history", Key: key, Err: err})
			continue
		}
		if !sm.Role.Valid() {
			LogWarn("Skipping stored message %d: invalid role %q", i, sm.Role)
			continue
		}
		if sm.ID != "" && seen[sm.ID] {
			LogWarn("Skipping stored message %d: duplicate id %s", i, sm.ID)
			continue
		}
		m := p.fromStored(sm)
		if err := m.Validate(); err != nil {
			LogWarn("Skipping stored message %d: %v", i, err)
			continue
		}
		seen[sm.ID] = true
		messages = append(messages, m)
	}
	return messages, nil
}

// fromStored rebuilds a message, regenerating its display handle. A corrupt
// payload keeps its stored text but gets an empty handle.
func (p *PersistenceSync) fromStored(sm storedMessage) *Message {
	m := &Message{
		ID:             sm.ID,
		Role:           sm.Role,
		Text:           sm.Text,
		Timestamp:      parseTimestamp(sm.Timestamp),
		IsError:        sm.IsError,
		Retryable:      sm.Retryable,
		OriginalText:   sm.OriginalText,
		AttachmentName: sm.AttachmentName,
	}
	if sm.ImageData != "" {
		handle, err := p.codec.DecodeToHandle(sm.ImageData, sm.ImageMimeType)
		if err != nil {
			LogWarn("Failed to restore image for message %s: %v", sm.ID, err)
		}
		m.Attachment = &Attachment{Data: sm.ImageData, MimeType: sm.ImageMimeType, Handle: handle}
	} else if sm.ImageDropped {
		m.Attachment = &Attachment{}
	}
	return m
}

// parseTimestamp parses a stored timestamp, returning the zero time when absent or malformed
func parseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
