// ABOUTME: Feed management commands for adding, listing, removing, pausing, and regrouping feeds
// ABOUTME: Keeps the vault folder layout in step with feed renames and group moves

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/feedvault/internal/models"
	"github.com/harper/feedvault/internal/storage"
)

// enhanceCredentialVar holds the content-API key that the summarize,
// transcribe, and rewrite features call out to. Enabling a feature checks
// the variable at toggle time; nothing is stored beyond the toggle itself.
const enhanceCredentialVar = "OPENAI_API_KEY"

var feedCmd = &cobra.Command{
	Use:     "feed",
	Aliases: []string{"f"},
	Short:   "Manage feed subscriptions",
	Long:    "Add, list, remove, pause, resume, and regroup RSS/Atom feed subscriptions",
}

var feedAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a new RSS/Atom feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		group, _ := cmd.Flags().GetString("group")
		title, _ := cmd.Flags().GetString("title")
		singleFile, _ := cmd.Flags().GetBool("single-file")
		interval, _ := cmd.Flags().GetInt("interval")

		feed := models.NewFeed(url)
		feed.Title = title
		feed.Group = group
		feed.Interval = interval
		if singleFile {
			feed.Type = models.TypeSingleFile
		}

		if err := repo.AddFeed(*feed); err != nil {
			return err
		}

		if group != "" {
			fmt.Printf("Added feed to group '%s': %s\n", group, url)
		} else {
			fmt.Printf("Added feed: %s\n", url)
		}
		fmt.Printf("Feed ID: %s\n", feed.ID)
		return nil
	},
}

var feedListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		feeds := repo.Feeds()
		if len(feeds) == 0 {
			fmt.Println("No feeds found. Add a feed with 'feedvault feed add <url>'")
			return nil
		}

		faint := color.New(color.Faint).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("Found %d feed(s):\n\n", len(feeds))
		for _, feed := range feeds {
			name := feed.DisplayName()
			if feed.Group != "" {
				name = fmt.Sprintf("[%s] %s", feed.Group, name)
			}
			if !feed.Active() {
				name += " " + yellow("(paused)")
			}
			fmt.Println(name)
			fmt.Printf("  %s %s\n", faint("URL:"), feed.URL)
			if feed.LastError != nil {
				fmt.Printf("  %s %s\n", red("Last error:"), feed.LastError.Message)
			}
			fmt.Println()
		}
		return nil
	},
}

var feedRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Remove a feed and its vault folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feed, ok := repo.FeedByURL(args[0])
		if !ok {
			return fmt.Errorf("feed not found: %s", args[0])
		}

		removed, err := repo.RemoveFeed(feed.ID)
		if err != nil {
			return err
		}

		rssFolder := repo.Snapshot().RSSFolder
		folder := storage.FeedFolder(rssFolder, removed.Group, removed.DisplayName())
		if err := vault.RemoveFolder(folder); err != nil {
			return fmt.Errorf("remove feed folder: %w", err)
		}

		fmt.Printf("Removed feed: %s\n", removed.URL)
		return nil
	},
}

var feedPauseCmd = &cobra.Command{
	Use:   "pause <url>",
	Short: "Pause a feed without removing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(args[0], models.StatusPaused, "Paused")
	},
}

var feedResumeCmd = &cobra.Command{
	Use:   "resume <url>",
	Short: "Resume a paused feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(args[0], models.StatusActive, "Resumed")
	},
}

func setStatus(url, status, verb string) error {
	feed, ok := repo.FeedByURL(url)
	if !ok {
		return fmt.Errorf("feed not found: %s", url)
	}
	feed.Status = status
	if err := repo.UpdateFeed(feed); err != nil {
		return err
	}
	fmt.Printf("%s feed: %s\n", verb, feed.DisplayName())
	return nil
}

var feedSetCmd = &cobra.Command{
	Use:   "set <url>",
	Short: "Toggle per-feed content features",
	Long:  "Toggle summarize, transcribe, and rewrite for a feed. Enabling a feature requires " + enhanceCredentialVar + " to be set in the environment.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feed, ok := repo.FeedByURL(args[0])
		if !ok {
			return fmt.Errorf("feed not found: %s", args[0])
		}

		toggles := []struct {
			name   string
			target *bool
		}{
			{"summarize", &feed.Summarize},
			{"transcribe", &feed.Transcribe},
			{"rewrite", &feed.Rewrite},
		}

		changed := false
		for _, toggle := range toggles {
			if !cmd.Flags().Changed(toggle.name) {
				continue
			}
			value, _ := cmd.Flags().GetBool(toggle.name)
			if value && os.Getenv(enhanceCredentialVar) == "" {
				return fmt.Errorf("enabling %s requires %s to be set", toggle.name, enhanceCredentialVar)
			}
			*toggle.target = value
			changed = true
		}
		if !changed {
			return fmt.Errorf("nothing to change: pass --summarize, --transcribe, or --rewrite")
		}

		if err := repo.UpdateFeed(feed); err != nil {
			return err
		}
		fmt.Printf("Updated feed: %s\n", feed.DisplayName())
		return nil
	},
}

var feedMoveCmd = &cobra.Command{
	Use:   "move <url> <group>",
	Short: "Move a feed to a different group",
	Long:  "Move a feed to a different group, relocating its vault folder. Use '' as the group to ungroup.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		feed, ok := repo.FeedByURL(args[0])
		if !ok {
			return fmt.Errorf("feed not found: %s", args[0])
		}
		newGroup := args[1]
		if newGroup == feed.Group {
			fmt.Println("Feed is already in that group")
			return nil
		}

		rssFolder := repo.Snapshot().RSSFolder
		oldFolder := storage.FeedFolder(rssFolder, feed.Group, feed.DisplayName())
		newFolder := storage.FeedFolder(rssFolder, newGroup, feed.DisplayName())

		feed.Group = newGroup
		if err := repo.UpdateFeed(feed); err != nil {
			return err
		}
		if err := vault.MoveFolder(oldFolder, newFolder); err != nil {
			return fmt.Errorf("move feed folder: %w", err)
		}

		fmt.Printf("Moved %s to %s\n", feed.DisplayName(), newFolder)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(feedAddCmd)
	feedCmd.AddCommand(feedListCmd)
	feedCmd.AddCommand(feedRemoveCmd)
	feedCmd.AddCommand(feedPauseCmd)
	feedCmd.AddCommand(feedResumeCmd)
	feedCmd.AddCommand(feedSetCmd)
	feedCmd.AddCommand(feedMoveCmd)

	feedSetCmd.Flags().Bool("summarize", false, "summarize article content after fetch")
	feedSetCmd.Flags().Bool("transcribe", false, "transcribe linked audio enclosures")
	feedSetCmd.Flags().Bool("rewrite", false, "rewrite article content for readability")

	feedAddCmd.Flags().StringP("group", "g", "", "group to organize the feed in")
	feedAddCmd.Flags().StringP("title", "t", "", "feed title (defaults to the feed's own title)")
	feedAddCmd.Flags().Bool("single-file", false, "append articles to one file instead of one file per article")
	feedAddCmd.Flags().Int("interval", 0, "per-feed sync interval in minutes (0 uses the global frequency)")
}
