package cmd

import (
	"fmt"

	"github.com/iksnae/chat-session/internal"
	"github.com/spf13/cobra"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the stored conversation",
	Long: `Delete the stored messages and the remote session binding for the
selected variant. The next message starts a new conversation.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		count := a.session.Len()
		if err := a.persistence.Clear(a.session); err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Cleared %d message(s) from the %s conversation", count, a.session.Variant().Name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
