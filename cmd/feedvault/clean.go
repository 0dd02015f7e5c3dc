// ABOUTME: Clean command applying the retention policy
// ABOUTME: Removes old vault articles and prunes stale article state

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old articles per the retention policy",
	Long: `Delete vault articles older than the configured retention period and
prune article state rows not touched since then. With retention disabled
(0 days) this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := repo.Snapshot()
		if snap.RetentionDays <= 0 {
			fmt.Println("Retention is disabled (retention_days: 0); nothing to clean.")
			return nil
		}

		removedFiles := 0
		for _, feed := range snap.Feeds {
			n, err := vault.CleanOld(&feed, snap.RSSFolder, snap.RetentionDays)
			if err != nil {
				fmt.Printf("warning: clean %s: %v\n", feed.DisplayName(), err)
				continue
			}
			removedFiles += n
		}

		prunedRows, err := stateStore.Prune(snap.RetentionDays)
		if err != nil {
			return fmt.Errorf("prune article state: %w", err)
		}

		fmt.Printf("Removed %d article file(s), pruned %d state row(s)\n", removedFiles, prunedRows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
