// ABOUTME: Sync command running the fetch pipeline for one feed or all feeds
// ABOUTME: Prints colored per-feed progress and a run summary

package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [url]",
	Short: "Sync feeds into the vault",
	Long: `Sync all active feeds, or a single feed by URL.

Each sync fetches the feed, filters out articles seen before, enhances
thin articles with readable content from their pages, and writes new
articles into the vault. Use --force to re-evaluate the whole upstream
document; existing files are still never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		ctx := context.Background()

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		if len(args) == 1 {
			feed, ok := repo.FeedByURL(args[0])
			if !ok {
				return fmt.Errorf("feed not found: %s", args[0])
			}
			report, err := eng.SyncFeed(ctx, feed.ID, force)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s: %d new article(s)\n", green("v"), report.Title, report.New)
			return nil
		}

		report := eng.SyncAll(ctx)

		totalNew := 0
		for _, fr := range report.Synced {
			if fr.New > 0 {
				fmt.Printf("%s %s: %d new\n", green("v"), fr.Title, fr.New)
			} else {
				fmt.Printf("%s %s: no new articles\n", green("v"), fr.Title)
			}
			totalNew += fr.New
		}
		for _, ff := range report.Failed {
			fmt.Printf("%s %s: %v\n", red("x"), ff.URL, ff.Err)
		}

		fmt.Println()
		fmt.Printf("Summary: %d feed(s) synced, %d new article(s)\n", len(report.Synced), totalNew)
		if len(report.Failed) > 0 {
			fmt.Printf("  %s %d feed(s) failed\n", red("x"), len(report.Failed))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolP("force", "f", false, "ignore the duplicate-filter watermark and re-evaluate all upstream articles")
}
