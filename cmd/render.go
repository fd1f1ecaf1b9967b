package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-session/internal"
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	botMessageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true).
			Padding(0, 1)

	errorMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	attachmentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Padding(0, 2)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

// messageRenderer prints messages, optionally writing images to disk
type messageRenderer struct {
	w        io.Writer
	handles  *internal.HandleRegistry
	imageDir string
}

func (r *messageRenderer) header(variant, sessionID string, count int) {
	_, _ = fmt.Fprintln(r.w, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s conversation", variant)))

	metaParts := []string{fmt.Sprintf("Messages: %d", count)}
	if sessionID != "" {
		metaParts = append(metaParts, fmt.Sprintf("Session: %s", sessionID))
	} else {
		metaParts = append(metaParts, "Session: not bound")
	}
	_, _ = fmt.Fprintln(r.w, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
	_, _ = fmt.Fprintln(r.w)
}

func (r *messageRenderer) message(index, total int, msg *internal.Message) {
	var label string
	var style lipgloss.Style
	switch {
	case msg.IsError:
		style, label = errorMessageStyle, "⚠️  Error"
	case msg.Role == internal.RoleUser:
		style, label = userMessageStyle, "👤 You"
	default:
		style, label = botMessageStyle, "🤖 Bot"
	}

	header := style.Render(label)
	if total > 0 {
		header += " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	}
	if !msg.Timestamp.IsZero() {
		header += " " + timestampStyle.Render(msg.Timestamp.Local().Format("15:04:05"))
	}
	_, _ = fmt.Fprintln(r.w, header)

	if msg.Attachment != nil {
		_, _ = fmt.Fprintln(r.w, attachmentStyle.Render(r.image(msg)))
	}
	if msg.AttachmentName != "" {
		_, _ = fmt.Fprintln(r.w, attachmentStyle.Render("📎 "+msg.AttachmentName))
	}

	content := strings.TrimSpace(msg.Text)
	if content != "" {
		_, _ = fmt.Fprintln(r.w, messageContentStyle.Render(wrapText(content, 80)))
	} else {
		_, _ = fmt.Fprintln(r.w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}

	if msg.IsError && msg.Retryable {
		_, _ = fmt.Fprintln(r.w, hintStyle.Render(fmt.Sprintf("   retry with: chat-session retry %s", msg.ID)))
		_, _ = fmt.Fprintln(r.w)
	}
}

func (r *messageRenderer) image(msg *internal.Message) string {
	a := msg.Attachment
	if !a.HasPayload() {
		return "🖼  image (not retained)"
	}
	if a.Handle.IsZero() {
		return fmt.Sprintf("🖼  %s (could not be restored)", a.MimeType)
	}
	if r.imageDir == "" || r.handles == nil {
		return fmt.Sprintf("🖼  %s", a.MimeType)
	}
	path, err := r.handles.Materialize(a.Handle, r.imageDir, msg.ID)
	if err != nil {
		internal.LogWarn("Failed to save image for message %s: %v", msg.ID, err)
		return fmt.Sprintf("🖼  %s", a.MimeType)
	}
	return fmt.Sprintf("🖼  %s → %s", a.MimeType, path)
}

// result prints what a send cycle appended
func (r *messageRenderer) result(result *internal.SendResult) {
	if result == nil {
		return
	}
	if result.Reply != nil {
		r.message(0, 0, result.Reply)
	}
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}
