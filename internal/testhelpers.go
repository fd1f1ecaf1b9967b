package internal

import (
	"encoding/base64"
	"time"
)

// TestPNG is a 1x1 transparent PNG
var TestPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// CreateTestImage returns an image file backed by TestPNG
func CreateTestImage(name string) File {
	return File{Name: name, MimeType: "image/png", Data: TestPNG}
}

// CreateTestTranscript creates a transcript with a short exchange
func CreateTestTranscript(sessionID string) *Transcript {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	return &Transcript{
		Variant:    "gemini",
		SessionID:  sessionID,
		ExportedAt: ts,
		Messages: []TranscriptEntry{
			{ID: "m1", Role: RoleUser, Text: "Hello, how are you?", Timestamp: ts},
			{ID: "m2", Role: RoleBot, Text: "I'm doing well, thank you!", Timestamp: ts.Add(time.Second)},
		},
	}
}

// CreateTestTranscriptWithEntries creates a transcript with custom entries
func CreateTestTranscriptWithEntries(sessionID string, entries []TranscriptEntry) *Transcript {
	return &Transcript{
		Variant:    "gemini",
		SessionID:  sessionID,
		ExportedAt: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		Messages:   entries,
	}
}

// CreateTestImageMessage creates a user message carrying TestPNG
func CreateTestImageMessage(text string) *Message {
	return NewMessage(RoleUser, text, WithAttachment(&Attachment{
		Data:     base64.StdEncoding.EncodeToString(TestPNG),
		MimeType: "image/png",
	}))
}
