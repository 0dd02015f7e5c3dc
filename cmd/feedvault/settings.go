// ABOUTME: Settings command showing and updating global sync configuration
// ABOUTME: Covers the RSS folder name, article cap, retention, and fetch frequency

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/feedvault/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show global settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := repo.Snapshot()
		fmt.Printf("RSS folder:      %s\n", snap.RSSFolder)
		fmt.Printf("Max articles:    %d\n", snap.MaxArticles)
		fmt.Printf("Retention days:  %d\n", snap.RetentionDays)
		fmt.Printf("Fetch frequency: %s\n", snap.FetchFrequency)
		fmt.Printf("Feeds:           %d\n", len(snap.Feeds))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update global settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return repo.Update(func(s *settings.Settings) error {
			if cmd.Flags().Changed("rss-folder") {
				v, _ := cmd.Flags().GetString("rss-folder")
				s.RSSFolder = v
			}
			if cmd.Flags().Changed("max-articles") {
				v, _ := cmd.Flags().GetInt("max-articles")
				s.MaxArticles = v
			}
			if cmd.Flags().Changed("retention-days") {
				v, _ := cmd.Flags().GetInt("retention-days")
				s.RetentionDays = v
			}
			if cmd.Flags().Changed("frequency") {
				v, _ := cmd.Flags().GetString("frequency")
				switch v {
				case settings.FrequencyStartup, settings.FrequencyHourly, settings.FrequencyDaily:
					s.FetchFrequency = v
				default:
					return fmt.Errorf("invalid frequency %q: use startup, hourly, or daily", v)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	settingsSetCmd.Flags().String("rss-folder", "", "vault folder feeds are written under")
	settingsSetCmd.Flags().Int("max-articles", 0, "default per-sync article cap")
	settingsSetCmd.Flags().Int("retention-days", 0, "days to keep articles (0 disables retention)")
	settingsSetCmd.Flags().String("frequency", "", "global fetch frequency: startup, hourly, or daily")
}
