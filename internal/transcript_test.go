package internal

import (
	"testing"
	"time"
)

func TestNewTranscript(t *testing.T) {
	codec := NewCodec(nil, 0)
	s := NewSession(testVariant(t, "gemini"), codec.Handles())

	att, err := codec.EncodeForStorage(CreateTestImage("a.png"))
	if err != nil {
		t.Fatal(err)
	}
	stamp := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	messages := []*Message{
		{Role: RoleUser, Text: "look", Timestamp: stamp, Attachment: att},
		{Role: RoleUser, Text: "old picture", Attachment: &Attachment{}},
		{Role: RoleUser, Text: "read this", AttachmentName: "notes.txt"},
		NewMessage(RoleBot, "Sorry", WithError("read this", true)),
	}
	for _, m := range messages {
		if err := s.AppendMessage(m); err != nil {
			t.Fatal(err)
		}
	}
	s.BindSessionID("sid")

	tr := NewTranscript(s)
	if tr.Variant != "gemini" || tr.SessionID != "sid" {
		t.Errorf("transcript header = %s/%s", tr.Variant, tr.SessionID)
	}
	if tr.ExportedAt.IsZero() {
		t.Error("ExportedAt should be set")
	}
	if len(tr.Messages) != 4 {
		t.Fatalf("len(Messages) = %d, want 4", len(tr.Messages))
	}

	tests := []struct {
		name  string
		entry TranscriptEntry
		check func(t *testing.T, e TranscriptEntry)
	}{
		{
			name:  "image with payload",
			entry: tr.Messages[0],
			check: func(t *testing.T, e TranscriptEntry) {
				if e.Image == nil || e.Image.MimeType != "image/png" || e.Image.Bytes != len(TestPNG) || e.Image.Dropped {
					t.Errorf("Image = %+v", e.Image)
				}
				if !e.Timestamp.Equal(stamp) {
					t.Errorf("Timestamp = %v, want %v", e.Timestamp, stamp)
				}
			},
		},
		{
			name:  "stripped image",
			entry: tr.Messages[1],
			check: func(t *testing.T, e TranscriptEntry) {
				if e.Image == nil || !e.Image.Dropped {
					t.Errorf("Image = %+v, want dropped", e.Image)
				}
			},
		},
		{
			name:  "file attachment",
			entry: tr.Messages[2],
			check: func(t *testing.T, e TranscriptEntry) {
				if e.Image != nil || e.AttachmentName != "notes.txt" {
					t.Errorf("entry = %+v", e)
				}
			},
		},
		{
			name:  "error message",
			entry: tr.Messages[3],
			check: func(t *testing.T, e TranscriptEntry) {
				if !e.IsError || !e.Retryable || e.ID == "" {
					t.Errorf("entry = %+v", e)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.entry)
		})
	}
}

func TestPayloadSize(t *testing.T) {
	tests := []struct {
		data string
		want int
	}{
		{data: "", want: 0},
		{data: "YQ==", want: 1},
		{data: "YWI=", want: 2},
		{data: "YWJj", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			if got := payloadSize(tt.data); got != tt.want {
				t.Errorf("payloadSize(%q) = %d, want %d", tt.data, got, tt.want)
			}
		})
	}
}
