package cmd

import (
	"github.com/spf13/cobra"
)

var flagSendNoEnter bool

var sendCmd = &cobra.Command{
	Use:   "send <name> <text>",
	Short: "Send keystrokes to a session",
	Long: `Send text to a managed session, followed by Enter unless --no-enter.

Known key tokens (Enter, Escape, Up, Down, C-c, ...) are sent as key
presses; anything else is sent literally. Before submitting to a
coding-agent session, the pane's input box is checked for a human
mid-composition: the first conflicting send is refused with a
human-typing-detected advisory, and repeating the identical send
overrides it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.mgr.Send(cmd.Context(), args[0], args[1], !flagSendNoEnter)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	sendCmd.Flags().BoolVar(&flagSendNoEnter, "no-enter", false, "do not press Enter after the text")
	rootCmd.AddCommand(sendCmd)
}
