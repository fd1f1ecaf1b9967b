package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/chat-session/internal"
	"github.com/spf13/cobra"
)

var chatHistory int

const chatHelp = `Commands:
  /image <path>   queue an image for the next message
  /attach <path>  queue a file for the next message
  /retry          resend the last failed message
  /clear          forget the conversation
  /help           show this help
  /quit           leave`

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat on stdin.

The stored conversation is restored first and every message is saved as it
is sent. Type /help for the available commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		bridge, err := a.newBridge()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		r := &messageRenderer{w: out}

		messages := a.session.Messages()
		r.header(a.session.Variant().Name, a.session.SessionID(), len(messages))
		if chatHistory > 0 && len(messages) > chatHistory {
			messages = messages[len(messages)-chatHistory:]
		}
		for _, msg := range messages {
			r.message(0, 0, msg)
		}
		_, _ = fmt.Fprintln(out, hintStyle.Render("Type /help for commands, /quit to leave."))

		loop := &chatLoop{app: a, bridge: bridge, render: r, out: out}
		return loop.run(cmd, cmd.InOrStdin())
	},
}

type chatLoop struct {
	app    *app
	bridge *internal.Bridge
	render *messageRenderer
	out    io.Writer

	pendingImages []string
	pendingAttach string
}

func (l *chatLoop) run(cmd *cobra.Command, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	for {
		_, _ = fmt.Fprint(l.out, "> ")
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(l.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := l.command(cmd, line)
			if err != nil {
				internal.PrintError(err.Error())
			}
			if quit {
				return nil
			}
			continue
		}

		l.send(cmd, line)
	}
}

// command handles a slash command and reports whether to leave the loop
func (l *chatLoop) command(cmd *cobra.Command, line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		_, _ = fmt.Fprintln(l.out, chatHelp)
	case "/image":
		if arg == "" {
			return false, fmt.Errorf("usage: /image <path>")
		}
		l.pendingImages = append(l.pendingImages, arg)
		_, _ = fmt.Fprintln(l.out, hintStyle.Render(fmt.Sprintf("queued image %s (%d)", arg, len(l.pendingImages))))
	case "/attach":
		if arg == "" {
			return false, fmt.Errorf("usage: /attach <path>")
		}
		l.pendingAttach = arg
		_, _ = fmt.Fprintln(l.out, hintStyle.Render("queued file "+arg))
	case "/retry":
		msg, ok := l.bridge.LatestRetryable()
		if !ok {
			return false, fmt.Errorf("nothing to retry")
		}
		var result *internal.SendResult
		err := internal.WithSpinner(cmd.Context(), "Retrying...", func() error {
			var retryErr error
			result, retryErr = l.bridge.Retry(cmd.Context(), msg.ID)
			return retryErr
		})
		if err != nil {
			return false, err
		}
		l.render.result(result)
		l.app.warnUnsaved()
	case "/clear":
		if err := l.app.persistence.Clear(l.app.session); err != nil {
			return false, err
		}
		l.pendingImages, l.pendingAttach = nil, ""
		internal.PrintSuccess("Conversation cleared")
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

func (l *chatLoop) send(cmd *cobra.Command, text string) {
	req, err := buildSendRequest(l.app.codec, text, l.pendingImages, l.pendingAttach)
	l.pendingImages, l.pendingAttach = nil, ""
	if err != nil {
		internal.PrintError(err.Error())
		return
	}

	result, err := sendWithSpinner(cmd.Context(), l.bridge, req)
	if err != nil {
		internal.PrintError(err.Error())
		return
	}
	l.render.result(result)
	l.app.warnUnsaved()
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().IntVarP(&chatHistory, "history", "n", 10, "Number of stored messages to print on start (0 for all)")
}
