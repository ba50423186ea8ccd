package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagListJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List live sessions",
	Long: `List all live multiplexer sessions, one name per line.

With --json each session is emitted with its attached flag.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		sessions, err := rt.mgr.List(cmd.Context())
		if err != nil {
			return err
		}
		if flagListJSON {
			return printJSON(sessions)
		}
		for _, s := range sessions {
			fmt.Println(s.Name)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&flagListJSON, "json", false, "emit JSON with attached flags")
	rootCmd.AddCommand(listCmd)
}
