package internal

import (
	"time"
)

// History is the ordered message log of a conversation. Insertion order is
// chronological order; entries are never reordered or deduplicated.
type History struct {
	messages []*Message
	now      func() time.Time
}

// NewHistory creates an empty history
func NewHistory() *History {
	return &History{now: time.Now}
}

// Append adds m to the end of the log, assigning ID and Timestamp when absent
func (h *History) Append(m *Message) {
	if m.ID == "" {
		m.ID = newMessageID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = h.now().UTC()
	}
	h.messages = append(h.messages, m)
}

// Len returns the number of messages
func (h *History) Len() int {
	return len(h.messages)
}

// Messages returns a copy of the log
func (h *History) Messages() []*Message {
	out := make([]*Message, len(h.messages))
	for i, m := range h.messages {
		out[i] = m.Clone()
	}
	return out
}

// Find returns the message with the given id
func (h *History) Find(id string) (*Message, bool) {
	for _, m := range h.messages {
		if m.ID == id {
			return m.Clone(), true
		}
	}
	return nil, false
}

// Reset drops every message
func (h *History) Reset() {
	h.messages = nil
}

// ToAPIHistory maps the non-error messages into the variant's vocabulary and
// drops the last one, which travels as the request's primary message field.
func (h *History) ToAPIHistory(v Variant) []APITurn {
	turns := make([]APITurn, 0, len(h.messages))
	for _, m := range h.messages {
		if m.IsError {
			continue
		}
		turns = append(turns, v.MapMessage(m))
	}
	if len(turns) == 0 {
		return turns
	}
	return turns[:len(turns)-1]
}

// attachments returns the live attachments, used to release display handles
func (h *History) attachments() []*Attachment {
	var out []*Attachment
	for _, m := range h.messages {
		if m.Attachment != nil {
			out = append(out, m.Attachment)
		}
	}
	return out
}
