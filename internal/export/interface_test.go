package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/chat-session/internal"
)

// failedImageTranscript holds an image turn, the error it produced and an
// older image whose payload was not retained.
func failedImageTranscript() *internal.Transcript {
	messages := []*internal.Message{
		internal.NewMessage(internal.RoleUser, "old picture", internal.WithAttachment(&internal.Attachment{})),
		internal.CreateTestImageMessage("What is this?"),
		internal.NewMessage(internal.RoleBot, "Quota exceeded", internal.WithError("What is this?", true)),
	}
	return internal.NewTranscriptFromMessages("gemini", "s-42", messages)
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		want    []string
	}{
		{
			format:  "jsonl",
			wantExt: "jsonl",
			want: []string{
				`"image":"image (not retained)"`,
				`"image":"image/png, 67 bytes"`,
				`"role":"bot","text":"Quota exceeded"`,
				`"error":true`,
			},
		},
		{
			format:  "md",
			wantExt: "md",
			want: []string{
				"# Conversation s-42",
				"_Image: image (not retained)_",
				"_Image: image/png, 67 bytes_",
				"**bot [error]:**",
			},
		},
		{
			format:  "Markdown",
			wantExt: "md",
			want:    []string{"**bot [error]:**"},
		},
		{
			format:  " yml ",
			wantExt: "yaml",
			want:    []string{"is_error: true"},
		},
		{
			format:  "yaml",
			wantExt: "yaml",
			want: []string{
				"session_id: s-42",
				"dropped: true",
				"mime_type: image/png",
				"is_error: true",
				"retryable: true",
			},
		},
		{
			format:  "json",
			wantExt: "json",
			want: []string{
				`"sessionId": "s-42"`,
				`"dropped": true`,
				`"bytes": 67`,
				`"isError": true`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if err != nil {
				t.Fatalf("NewExporter(%q) error = %v", tt.format, err)
			}
			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", got, tt.wantExt)
			}

			var buf bytes.Buffer
			if err := exporter.Export(failedImageTranscript(), &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("%s output should contain %q, got:\n%s", tt.format, want, out)
				}
			}
			if strings.Contains(out, "iVBORw0KGgo") {
				t.Errorf("%s output must not embed the image payload", tt.format)
			}
		})
	}
}

func TestNewExporter_Unsupported(t *testing.T) {
	for _, format := range []string{"xml", "", "csv"} {
		exporter, err := NewExporter(format)
		if err == nil {
			t.Errorf("NewExporter(%q) should fail, got %T", format, exporter)
		}
		if err != nil && !strings.Contains(err.Error(), "supported: jsonl, md, yaml, json") {
			t.Errorf("NewExporter(%q) error = %v, want the supported list", format, err)
		}
	}
}
