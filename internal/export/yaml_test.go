package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/chat-session/internal"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		wantErr    bool
	}{
		{
			name:       "basic transcript",
			transcript: internal.CreateTestTranscript("s1"),
			wantErr:    false,
		},
		{
			name:       "empty transcript",
			transcript: internal.CreateTestTranscriptWithEntries("s2", []internal.TranscriptEntry{}),
			wantErr:    false,
		},
		{
			name: "transcript without session id",
			transcript: internal.CreateTestTranscriptWithEntries("", []internal.TranscriptEntry{
				{ID: "m1", Role: internal.RoleUser, Text: "Hello"},
			}),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &YAMLExporter{}

			err := exporter.Export(tt.transcript, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("YAMLExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				var decoded internal.Transcript
				if err := yaml.Unmarshal([]byte(output), &decoded); err != nil {
					t.Errorf("Output is not valid YAML: %v\nOutput: %s", err, output)
					return
				}
				if decoded.Variant != tt.transcript.Variant {
					t.Errorf("Variant = %q, want %q", decoded.Variant, tt.transcript.Variant)
				}
				if len(decoded.Messages) != len(tt.transcript.Messages) {
					t.Errorf("got %d messages, want %d", len(decoded.Messages), len(tt.transcript.Messages))
				}
				if tt.transcript.SessionID == "" && strings.Contains(output, "session_id") {
					t.Errorf("Empty session id should be omitted, got:\n%s", output)
				}
			}
		})
	}
}

func TestYAMLExporter_Extension(t *testing.T) {
	exporter := &YAMLExporter{}
	if got := exporter.Extension(); got != "yaml" {
		t.Errorf("YAMLExporter.Extension() = %v, want yaml", got)
	}
}
