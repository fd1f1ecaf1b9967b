package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/chat-session/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		want       []string
		wantErr    bool
	}{
		{
			name:       "empty transcript",
			transcript: internal.CreateTestTranscriptWithEntries("s1", []internal.TranscriptEntry{}),
			want:       []string{},
			wantErr:    false,
		},
		{
			name:       "transcript with messages",
			transcript: internal.CreateTestTranscript("s2"),
			want: []string{
				`"role":"user"`,
				`"role":"bot"`,
			},
			wantErr: false,
		},
		{
			name: "message with timestamp",
			transcript: internal.CreateTestTranscriptWithEntries("s3", []internal.TranscriptEntry{
				{Role: internal.RoleUser, Text: "Hello", Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
			}),
			want: []string{
				`"timestamp":"2023-01-01T00:00:00Z"`,
			},
			wantErr: false,
		},
		{
			name: "image and attachment summaries",
			transcript: internal.CreateTestTranscriptWithEntries("s4", []internal.TranscriptEntry{
				{Role: internal.RoleUser, Text: "Look", Image: &internal.TranscriptImage{MimeType: "image/png", Bytes: 10}, AttachmentName: "notes.txt"},
				{Role: internal.RoleUser, Text: "Older", Image: &internal.TranscriptImage{Dropped: true}},
			}),
			want: []string{
				`"image":"image/png, 10 bytes"`,
				`"attachment":"notes.txt"`,
				`"image":"image (not retained)"`,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}

			err := exporter.Export(tt.transcript, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONLExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			output := buf.String()
			if len(tt.transcript.Messages) == 0 {
				if output != "" {
					t.Errorf("Empty transcript should produce empty output, got: %q", output)
				}
				return
			}

			lines := strings.Split(strings.TrimSpace(output), "\n")
			if len(lines) != len(tt.transcript.Messages) {
				t.Errorf("got %d lines, want %d", len(lines), len(tt.transcript.Messages))
			}
			for i, line := range lines {
				var msg map[string]interface{}
				if err := json.Unmarshal([]byte(line), &msg); err != nil {
					t.Errorf("Line %d is not valid JSON: %v\nLine: %s", i+1, err, line)
				}
			}
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
				}
			}
		})
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
