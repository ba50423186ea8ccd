package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagCaptureLines int
	flagCaptureJSON  bool
)

var captureCmd = &cobra.Command{
	Use:   "capture <name>",
	Short: "Capture a session's recent output",
	Long: `Capture the scrollback of a managed session and print it to stdout.

Output is trimmed of trailing blank lines and truncated tail-first to
the configured line and byte budgets, so the most recent output always
survives. With --json the text is wrapped in an object that also
reports whether truncation happened and how much was kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.mgr.Capture(cmd.Context(), args[0], flagCaptureLines)
		if err != nil {
			return err
		}
		if flagCaptureJSON {
			return printJSON(res)
		}
		fmt.Fprintln(os.Stdout, res.Text)
		if res.Truncated {
			fmt.Fprintf(os.Stderr, "truncated: showing %d of %d lines (%d of %d bytes)\n",
				res.ShownLines, res.TotalLines, res.ShownBytes, res.TotalBytes)
		}
		return nil
	},
}

func init() {
	captureCmd.Flags().IntVar(&flagCaptureLines, "lines", 0, "scrollback lines to capture (default from config)")
	captureCmd.Flags().BoolVar(&flagCaptureJSON, "json", false, "emit JSON with truncation stats")
	rootCmd.AddCommand(captureCmd)
}
