// ABOUTME: Watch command running the background scheduler until interrupted
// ABOUTME: Drives the global fetch frequency and per-feed interval timers

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/feedvault/internal/schedule"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run scheduled syncs in the foreground",
	Long: `Run the sync scheduler until interrupted.

The global fetch frequency (startup, hourly, daily) is evaluated against
the last recorded fetch, so restarting does not reset the cadence. Feeds
with their own interval sync on their own timer as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sched := schedule.New(eng)
		sched.Start()

		fmt.Println("Watching feeds. Press Ctrl+C to stop.")

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		fmt.Println("\nStopping...")
		sched.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
