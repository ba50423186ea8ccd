package cmd

import (
	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill <name>",
	Short: "Kill a session and release its lock",
	Long: `Kill a managed session and release its completion-lock marker.

Idempotent: killing a session that no longer exists still releases any
leftover lock and succeeds, reporting existed=false.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.mgr.Kill(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	rootCmd.AddCommand(killCmd)
}
