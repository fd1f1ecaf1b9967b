package internal

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleBot
}

// Attachment is an image carried by a message. Data is the base64 text
// encoding that survives a reload; Handle is only valid for this process.
type Attachment struct {
	Data     string        `json:"data,omitempty"`
	MimeType string        `json:"mimeType,omitempty"`
	Handle   DisplayHandle `json:"-"`
}

// HasPayload reports whether the text-encoded image bytes are present
func (a *Attachment) HasPayload() bool {
	return a != nil && a.Data != ""
}

// Message is a single turn in the conversation
type Message struct {
	ID             string      `json:"id"`
	Role           Role        `json:"role"`
	Text           string      `json:"text"`
	Timestamp      time.Time   `json:"timestamp"`
	IsError        bool        `json:"isError,omitempty"`
	Retryable      bool        `json:"retryable,omitempty"`
	OriginalText   string      `json:"originalText,omitempty"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	AttachmentName string      `json:"attachmentName,omitempty"`
}

// MessageOption configures optional fields of a new message
type MessageOption func(*Message)

// WithAttachment attaches an encoded image
func WithAttachment(a *Attachment) MessageOption {
	return func(m *Message) {
		m.Attachment = a
	}
}

// WithAttachmentName records the name of a non-image file sent alongside the message
func WithAttachmentName(name string) MessageOption {
	return func(m *Message) {
		m.AttachmentName = name
	}
}

// WithOriginalText keeps the raw input that produced the message
func WithOriginalText(text string) MessageOption {
	return func(m *Message) {
		m.OriginalText = text
	}
}

// WithError marks the message as a failed exchange. When retryable is set the
// original input is kept so it can be resubmitted.
func WithError(originalText string, retryable bool) MessageOption {
	return func(m *Message) {
		m.IsError = true
		m.Retryable = retryable
		m.OriginalText = originalText
	}
}

// NewMessage builds a message. ID and Timestamp are left empty and assigned on append.
func NewMessage(role Role, text string, opts ...MessageOption) *Message {
	m := &Message{
		Role: role,
		Text: text,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var (
	errInvalidRole  = errors.New("invalid role")
	errErrorNotBot  = errors.New("error message must have bot role")
	errRetryNoInput = errors.New("retryable message has no original text")
	errEmptyMessage = errors.New("message has neither text nor attachment")
)

// Validate checks the message invariants
func (m *Message) Validate() error {
	if !m.Role.Valid() {
		return fmt.Errorf("%w: %q", errInvalidRole, m.Role)
	}
	if m.IsError && m.Role != RoleBot {
		return errErrorNotBot
	}
	if m.Retryable && m.OriginalText == "" {
		return errRetryNoInput
	}
	if m.Text == "" && m.Attachment == nil {
		return errEmptyMessage
	}
	return nil
}

// Clone returns a copy that does not share the attachment pointer
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	if m.Attachment != nil {
		a := *m.Attachment
		c.Attachment = &a
	}
	return &c
}

// newMessageID returns a time-ordered unique identifier
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
