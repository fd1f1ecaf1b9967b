package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/chat-session/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export writes a readable Markdown conversation
func (e *MarkdownExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	title := transcript.SessionID
	if title == "" {
		title = "(local)"
	}
	_, _ = fmt.Fprintf(w, "# Conversation %s\n\n", title)
	_, _ = fmt.Fprintf(w, "**Variant:** %s  \n", transcript.Variant)
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(transcript.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, entry := range transcript.Messages {
		timestamp := ""
		if !entry.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", entry.Timestamp.Format(time.RFC3339))
		}

		speaker := string(entry.Role)
		if entry.IsError {
			speaker += " [error]"
		}
		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", speaker, timestamp, escapeMarkdown(entry.Text))

		if entry.Image != nil {
			_, _ = fmt.Fprintf(w, "_Image: %s_\n\n", imageSummary(entry.Image))
		}
		if entry.AttachmentName != "" {
			_, _ = fmt.Fprintf(w, "_Attachment: %s_\n\n", entry.AttachmentName)
		}

		if i < len(transcript.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Code blocks are left untouched
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
