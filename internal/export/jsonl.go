package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/chat-session/internal"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlLine struct {
	Role       internal.Role `json:"role"`
	Text       string        `json:"text"`
	Timestamp  string        `json:"timestamp,omitempty"`
	Error      bool          `json:"error,omitempty"`
	Image      string        `json:"image,omitempty"`
	Attachment string        `json:"attachment,omitempty"`
}

// Export writes one line per message
func (e *JSONLExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, entry := range transcript.Messages {
		line := jsonlLine{
			Role:       entry.Role,
			Text:       entry.Text,
			Error:      entry.IsError,
			Attachment: entry.AttachmentName,
		}
		if !entry.Timestamp.IsZero() {
			line.Timestamp = entry.Timestamp.Format(time.RFC3339)
		}
		if entry.Image != nil {
			line.Image = imageSummary(entry.Image)
		}

		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

func imageSummary(img *internal.TranscriptImage) string {
	if img.Dropped {
		return "image (not retained)"
	}
	return fmt.Sprintf("%s, %d bytes", img.MimeType, img.Bytes)
}
