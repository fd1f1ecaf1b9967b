package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iksnae/chat-session/internal"
	"github.com/spf13/cobra"
)

var (
	sendImages []string
	sendAttach string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Send one message and print the reply",
	Long: `Send a message to the backend and print the reply.

Images (--image, repeatable) are shown to the model and kept in the local
history. A non-image file (--attach) is sent along but only its name is
recorded. Without text, images are sent with a default prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		req, err := buildSendRequest(a.codec, strings.Join(args, " "), sendImages, sendAttach)
		if err != nil {
			return err
		}
		if req.IsEmpty() {
			return errors.New("nothing to send: provide text, --image or --attach")
		}

		bridge, err := a.newBridge()
		if err != nil {
			return err
		}

		result, err := sendWithSpinner(cmd.Context(), bridge, req)
		if err != nil {
			return err
		}

		r := &messageRenderer{w: cmd.OutOrStdout()}
		r.result(result)
		a.warnUnsaved()
		if result.Failed() {
			return fmt.Errorf("message not delivered: %w", result.Err)
		}
		return nil
	},
}

// buildSendRequest reads the given files into a send request
func buildSendRequest(codec *internal.Codec, text string, images []string, attach string) (internal.SendRequest, error) {
	req := internal.SendRequest{Text: text}
	for _, path := range images {
		f, err := codec.ReadFile(path)
		if err != nil {
			return req, err
		}
		if !f.IsImage() {
			return req, fmt.Errorf("%s is not an image (%s); use --attach for other files", f.Name, f.MimeType)
		}
		req.Images = append(req.Images, f)
	}
	if attach != "" {
		f, err := codec.ReadFile(attach)
		if err != nil {
			return req, err
		}
		req.Attachment = &f
	}
	return req, nil
}

func sendWithSpinner(ctx context.Context, bridge *internal.Bridge, req internal.SendRequest) (*internal.SendResult, error) {
	var result *internal.SendResult
	err := internal.WithSpinner(ctx, "Waiting for reply...", func() error {
		var sendErr error
		result, sendErr = bridge.Send(ctx, req)
		return sendErr
	})
	return result, err
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringSliceVarP(&sendImages, "image", "i", nil, "Image to send (repeatable)")
	sendCmd.Flags().StringVarP(&sendAttach, "attach", "a", "", "File to attach")
}
