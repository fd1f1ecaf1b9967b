package internal

import (
	"sync"
)

// State is a snapshot of the durable part of a session
type State struct {
	Messages  []*Message
	SessionID string
}

// Observer is called synchronously after every committed mutation
type Observer func(State)

// Session is one local conversation, optionally bound to a remote session id.
// It is created once per process, usually by hydrating from storage, and is
// only emptied by Clear.
type Session struct {
	mu        sync.Mutex
	variant   Variant
	history   *History
	handles   *HandleRegistry
	sessionID string
	// remoteContext is fixed when the session id is first bound: the backend
	// then holds prior turns and APIHistory sends none.
	remoteContext bool
	loading       bool
	lastError     error
	observers     []Observer
}

// NewSession creates an empty session for the given variant. handles may be
// nil when no display handles need releasing on clear.
func NewSession(v Variant, handles *HandleRegistry) *Session {
	return &Session{
		variant: v,
		history: NewHistory(),
		handles: handles,
	}
}

// Variant returns the backend variant this session talks to
func (s *Session) Variant() Variant {
	return s.variant
}

// Subscribe registers an observer for state mutations
func (s *Session) Subscribe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// AppendMessage validates m and appends a copy of it to the history. The
// assigned ID and Timestamp are written back to m.
func (s *Session) AppendMessage(m *Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	stored := m.Clone()
	s.mu.Lock()
	s.history.Append(stored)
	s.mu.Unlock()
	m.ID, m.Timestamp = stored.ID, stored.Timestamp
	s.notify()
	return nil
}

// Messages returns a copy of the message log
func (s *Session) Messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Messages()
}

// Len returns the number of messages
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// Find looks up a message by id
func (s *Session) Find(id string) (*Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Find(id)
}

// SessionID returns the bound remote session id, or ""
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// BindSessionID binds id if no session id is bound yet. It reports whether
// the binding changed.
func (s *Session) BindSessionID(id string) bool {
	s.mu.Lock()
	if id == "" || s.sessionID != "" {
		s.mu.Unlock()
		return false
	}
	s.sessionID = id
	s.remoteContext = s.variant.StatefulSession
	s.mu.Unlock()
	s.notify()
	return true
}

// APIHistory returns the prior turns to send with the next request
func (s *Session) APIHistory() []APITurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remoteContext && s.sessionID != "" {
		return []APITurn{}
	}
	return s.history.ToAPIHistory(s.variant)
}

// IsLoading reports whether an exchange is in flight
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the failure of the most recent exchange, if any
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// State returns a snapshot of messages and session id
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Clear drops all messages, unbinds the session id and releases display handles
func (s *Session) Clear() {
	s.mu.Lock()
	if s.handles != nil {
		for _, a := range s.history.attachments() {
			s.handles.Revoke(a.Handle)
		}
	}
	s.history.Reset()
	s.sessionID = ""
	s.remoteContext = false
	s.lastError = nil
	s.mu.Unlock()
	s.notify()
}

// beginSend flips the loading flag; false means a cycle is already in flight
func (s *Session) beginSend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return false
	}
	s.loading = true
	s.lastError = nil
	return true
}

func (s *Session) endSend() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Session) setLastError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()
}

// restore installs hydrated state without notifying observers
func (s *Session) restore(messages []*Message, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Reset()
	for _, m := range messages {
		s.history.Append(m)
	}
	s.sessionID = sessionID
	s.remoteContext = sessionID != "" && s.variant.StatefulSession
}

func (s *Session) stateLocked() State {
	return State{
		Messages:  s.history.Messages(),
		SessionID: s.sessionID,
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	state := s.stateLocked()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o(state)
	}
}
