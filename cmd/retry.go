package cmd

import (
	"fmt"

	"github.com/iksnae/chat-session/internal"
	"github.com/spf13/cobra"
)

// retryCmd represents the retry command
var retryCmd = &cobra.Command{
	Use:   "retry [message-id]",
	Short: "Resend a message that failed",
	Long: `Resend the input behind a failed exchange.

Without an id the most recent retryable error is used. Ids are printed under
each error by 'chat-session show'.

Only the text is resent. Images and files from the failed send are not
attached again; send them anew with 'chat-session send --image'.`,
	Args: cobra.MaximumNArgs(1),
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

		var messageID string
		if len(args) == 1 {
			messageID = args[0]
		} else {
			msg, ok := bridge.LatestRetryable()
			if !ok {
				return fmt.Errorf("%w: no failed message in the conversation", internal.ErrNotRetryable)
			}
			messageID = msg.ID
		}

		var result *internal.SendResult
		err = internal.WithSpinner(cmd.Context(), "Retrying...", func() error {
			var retryErr error
			result, retryErr = bridge.Retry(cmd.Context(), messageID)
			return retryErr
		})
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

func init() {
	rootCmd.AddCommand(retryCmd)
}
