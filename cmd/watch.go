package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/timvw/pane-wrangler/internal/watch"
)

var flagWatchRefresh time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive session monitor",
	Long: `Open a full-screen monitor of live sessions with a preview of the
selected session's recent output. Sessions can be killed from the list.

Refreshes automatically at the configured interval; --refresh overrides it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		refresh := rt.cfg.RefreshDuration
		if flagWatchRefresh > 0 {
			refresh = flagWatchRefresh
		}

		w := &watch.Watch{
			Manager:         rt.mgr,
			RefreshInterval: refresh,
		}
		return w.Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().DurationVar(&flagWatchRefresh, "refresh", 0, "auto-refresh interval (default from config)")
	rootCmd.AddCommand(watchCmd)
}
