package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/chat-session/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		want       []string
		wantErr    bool
	}{
		{
			name:       "basic transcript",
			transcript: internal.CreateTestTranscript("session-1"),
			want: []string{
				"# Conversation session-1",
				"**Variant:** gemini",
				"**Messages:** 2",
				"## Messages",
				"**user:**",
				"Hello, how are you?",
				"**bot:**",
			},
			wantErr: false,
		},
		{
			name: "message with timestamp",
			transcript: internal.CreateTestTranscriptWithEntries("session-2", []internal.TranscriptEntry{
				{Role: internal.RoleUser, Text: "Hello", Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
			}),
			want: []string{
				"**user:** (2023-01-01T00:00:00Z)",
			},
			wantErr: false,
		},
		{
			name: "error message and attachments",
			transcript: internal.CreateTestTranscriptWithEntries("session-3", []internal.TranscriptEntry{
				{Role: internal.RoleUser, Text: "What is this?", Image: &internal.TranscriptImage{MimeType: "image/jpeg", Bytes: 2048}, AttachmentName: "report.pdf"},
				{Role: internal.RoleBot, Text: "Quota exceeded", IsError: true, Retryable: true},
			}),
			want: []string{
				"_Image: image/jpeg, 2048 bytes_",
				"_Attachment: report.pdf_",
				"**bot [error]:**",
			},
			wantErr: false,
		},
		{
			name:       "transcript without session id",
			transcript: internal.CreateTestTranscriptWithEntries("", []internal.TranscriptEntry{}),
			want: []string{
				"# Conversation (local)",
				"**Messages:** 0",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			err := exporter.Export(tt.transcript, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("MarkdownExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				for _, wantStr := range tt.want {
					if !strings.Contains(output, wantStr) {
						t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
					}
				}
			}
		})
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:  "basic text",
			input: "Hello world",
			want:  []string{"Hello world"},
		},
		{
			name:    "markdown bold",
			input:   "This is **bold** text",
			want:    []string{"\\*\\*bold\\*\\*"},
			notWant: []string{"**bold**"},
		},
		{
			name:    "markdown underline",
			input:   "This is __underlined__ text",
			want:    []string{"\\_\\_underlined\\_\\_"},
			notWant: []string{"__underlined__"},
		},
		{
			name:  "code block preserved",
			input: "```go\npackage main\n```",
			want:  []string{"```go", "package main", "```"},
		},
		{
			name:    "mixed content",
			input:   "Regular text **bold** and ```code```",
			want:    []string{"\\*\\*bold\\*\\*", "```code```"},
			notWant: []string{"**bold**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeMarkdown(tt.input)
			for _, wantStr := range tt.want {
				if !strings.Contains(got, wantStr) {
					t.Errorf("escapeMarkdown() should contain %q, got: %s", wantStr, got)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(got, notWantStr) {
					t.Errorf("escapeMarkdown() should not contain %q, got: %s", notWantStr, got)
				}
			}
		})
	}
}
