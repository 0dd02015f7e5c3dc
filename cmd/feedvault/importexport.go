// ABOUTME: OPML import and export commands
// ABOUTME: Reconciles imported subscriptions against existing feeds with a colored summary

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/feedvault/internal/opml"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import feeds from an OPML file",
	Long: `Import subscriptions from an OPML file.

Every new URL is validated with a live fetch before it is added. Feeds
already subscribed are skipped, and unreachable or non-feed URLs are
reported without blocking the rest of the import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read OPML file: %w", err)
		}

		result, err := opml.Import(context.Background(), data, repo.Feeds())
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()

		for _, feed := range result.Imported {
			if err := repo.AddFeed(feed); err != nil {
				fmt.Printf("%s %s: %v\n", red("x"), feed.URL, err)
				continue
			}
			fmt.Printf("%s %s\n", green("v"), feed.DisplayName())
		}
		for _, url := range result.Duplicates {
			fmt.Printf("%s %s (already subscribed)\n", faint("-"), url)
		}
		for _, ie := range result.Errors {
			fmt.Printf("%s %s: %v\n", red("x"), ie.URL, ie.Err)
		}

		fmt.Println()
		fmt.Printf("Imported %d feed(s), skipped %d duplicate(s), %d error(s)\n",
			len(result.Imported), len(result.Duplicates), len(result.Errors))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export feeds as OPML to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := opml.Export("feedvault feeds", repo.Feeds())
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}
