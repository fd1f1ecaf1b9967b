package internal

import (
	"errors"
	"testing"
)

func TestMessageValidate(t *testing.T) {
	image := &Attachment{Data: "aGVsbG8=", MimeType: "image/png"}

	tests := []struct {
		name    string
		msg     *Message
		wantErr error
	}{
		{
			name: "user text",
			msg:  NewMessage(RoleUser, "hello"),
		},
		{
			name: "user image without text",
			msg:  NewMessage(RoleUser, "", WithAttachment(image)),
		},
		{
			name: "user text and image",
			msg:  NewMessage(RoleUser, "what is this?", WithAttachment(image)),
		},
		{
			name: "stripped image keeps message valid",
			msg:  NewMessage(RoleUser, "", WithAttachment(&Attachment{})),
		},
		{
			name: "retryable bot error",
			msg:  NewMessage(RoleBot, "Quota exceeded", WithError("hello", true)),
		},
		{
			name:    "unknown role",
			msg:     NewMessage(Role("system"), "hi"),
			wantErr: errInvalidRole,
		},
		{
			name:    "error from user",
			msg:     NewMessage(RoleUser, "oops", WithError("oops", false)),
			wantErr: errErrorNotBot,
		},
		{
			name:    "retryable without input",
			msg:     NewMessage(RoleBot, "failed", WithError("", true)),
			wantErr: errRetryNoInput,
		},
		{
			name:    "empty message",
			msg:     NewMessage(RoleUser, ""),
			wantErr: errEmptyMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewMessage_Options(t *testing.T) {
	msg := NewMessage(RoleUser, "see attached",
		WithAttachmentName("notes.txt"),
		WithOriginalText("see attached"))

	if msg.AttachmentName != "notes.txt" {
		t.Errorf("AttachmentName = %q, want notes.txt", msg.AttachmentName)
	}
	if msg.OriginalText != "see attached" {
		t.Errorf("OriginalText = %q, want %q", msg.OriginalText, "see attached")
	}
	if msg.ID != "" || !msg.Timestamp.IsZero() {
		t.Error("NewMessage() should leave ID and Timestamp for append to assign")
	}

	errMsg := NewMessage(RoleBot, "failed", WithError("hi", true))
	if !errMsg.IsError || !errMsg.Retryable || errMsg.OriginalText != "hi" {
		t.Errorf("WithError() produced %+v", errMsg)
	}
}

func TestMessageClone(t *testing.T) {
	orig := NewMessage(RoleUser, "img", WithAttachment(&Attachment{Data: "AAAA", MimeType: "image/png"}))
	clone := orig.Clone()

	clone.Text = "changed"
	clone.Attachment.Data = "BBBB"

	if orig.Text != "img" {
		t.Errorf("Clone() shares Text: %q", orig.Text)
	}
	if orig.Attachment.Data != "AAAA" {
		t.Errorf("Clone() shares Attachment: %q", orig.Attachment.Data)
	}

	var nilMsg *Message
	if nilMsg.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}

func TestAttachmentHasPayload(t *testing.T) {
	var nilAttachment *Attachment
	if nilAttachment.HasPayload() {
		t.Error("nil attachment should have no payload")
	}
	if (&Attachment{}).HasPayload() {
		t.Error("stripped attachment should have no payload")
	}
	if !(&Attachment{Data: "AAAA", MimeType: "image/png"}).HasPayload() {
		t.Error("attachment with data should have a payload")
	}
}

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleBot, true},
		{Role("model"), false},
		{Role(""), false},
	}
	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestNewMessageID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := newMessageID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
