package internal

import (
	"encoding/base64"
	"strings"
	"time"
)

// Transcript is an export-friendly snapshot of a session. Image payloads are
// summarized rather than embedded.
type Transcript struct {
	Variant    string            `json:"variant" yaml:"variant"`
	SessionID  string            `json:"sessionId,omitempty" yaml:"session_id,omitempty"`
	ExportedAt time.Time         `json:"exportedAt" yaml:"exported_at"`
	Messages   []TranscriptEntry `json:"messages" yaml:"messages"`
}

// TranscriptEntry is one message in a transcript
type TranscriptEntry struct {
	ID             string           `json:"id" yaml:"id"`
	Role           Role             `json:"role" yaml:"role"`
	Text           string           `json:"text" yaml:"text"`
	Timestamp      time.Time        `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	IsError        bool             `json:"isError,omitempty" yaml:"is_error,omitempty"`
	Retryable      bool             `json:"retryable,omitempty" yaml:"retryable,omitempty"`
	Image          *TranscriptImage `json:"image,omitempty" yaml:"image,omitempty"`
	AttachmentName string           `json:"attachmentName,omitempty" yaml:"attachment_name,omitempty"`
}

// TranscriptImage describes an image without its bytes. Dropped is set when
// the payload was stripped from storage.
type TranscriptImage struct {
	MimeType string `json:"mimeType,omitempty" yaml:"mime_type,omitempty"`
	Bytes    int    `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Dropped  bool   `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

// NewTranscript snapshots s
func NewTranscript(s *Session) *Transcript {
	state := s.State()
	return NewTranscriptFromMessages(s.Variant().Name, state.SessionID, state.Messages)
}

// NewTranscriptFromMessages builds a transcript from a message list
func NewTranscriptFromMessages(variant, sessionID string, messages []*Message) *Transcript {
	t := &Transcript{
		Variant:    variant,
		SessionID:  sessionID,
		ExportedAt: time.Now().UTC(),
		Messages:   make([]TranscriptEntry, 0, len(messages)),
	}
	for _, m := range messages {
		entry := TranscriptEntry{
			ID:             m.ID,
			Role:           m.Role,
			Text:           m.Text,
			Timestamp:      m.Timestamp,
			IsError:        m.IsError,
			Retryable:      m.Retryable,
			AttachmentName: m.AttachmentName,
		}
		if m.Attachment != nil {
			if m.Attachment.HasPayload() {
				entry.Image = &TranscriptImage{
					MimeType: m.Attachment.MimeType,
					Bytes:    payloadSize(m.Attachment.Data),
				}
			} else {
				entry.Image = &TranscriptImage{Dropped: true}
			}
		}
		t.Messages = append(t.Messages, entry)
	}
	return t
}

// payloadSize returns the decoded length of a padded base64 payload
func payloadSize(data string) int {
	padding := len(data) - len(strings.TrimRight(data, "="))
	return base64.StdEncoding.DecodedLen(len(data)) - padding
}
