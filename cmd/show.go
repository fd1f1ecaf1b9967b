package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-session/internal"
	"github.com/spf13/cobra"
)

var (
	limit      int
	since      string
	saveImages string
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored conversation",
	Long: `Display the conversation restored from local storage.

Use --save-images to write the retained images to a directory so they can
be opened with an image viewer.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		messages, err := filterMessages(a.session.Messages(), since, limit)
		if err != nil {
			return err
		}

		r := &messageRenderer{w: cmd.OutOrStdout(), handles: a.codec.Handles(), imageDir: saveImages}
		r.header(a.session.Variant().Name, a.session.SessionID(), a.session.Len())

		if len(messages) == 0 {
			internal.PrintInfo("No messages yet. Start with: chat-session send \"Hello\"")
			return nil
		}

		for i, msg := range messages {
			r.message(i+1, len(messages), msg)
		}

		if hidden := a.session.Len() - len(messages); hidden > 0 && since == "" {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d earlier message(s))", hidden)))
		}
		return nil
	},
}

// filterMessages applies --since and then keeps the last n messages
func filterMessages(messages []*internal.Message, since string, n int) ([]*internal.Message, error) {
	if since != "" {
		sinceTime, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return nil, fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
		}
		filtered := make([]*internal.Message, 0, len(messages))
		for _, msg := range messages {
			if !msg.Timestamp.IsZero() && !msg.Timestamp.Before(sinceTime) {
				filtered = append(filtered, msg)
			}
		}
		messages = filtered
	}

	if n > 0 && n < len(messages) {
		messages = messages[len(messages)-n:]
	}
	return messages, nil
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N messages")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
	showCmd.Flags().StringVar(&saveImages, "save-images", "", "Write retained images to this directory")
}
