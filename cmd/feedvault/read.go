// ABOUTME: Read command for viewing a vault article in the terminal
// ABOUTME: Renders markdown with glamour and marks the article as read

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/feedvault/internal/models"
	"github.com/harper/feedvault/internal/storage"
)

// originalLinkRE matches the source link line the article template writes.
var originalLinkRE = regexp.MustCompile(`\[Read original\]\(([^)]+)\)`)

var readCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Read an article from the vault",
	Long: `Display a vault article with terminal markdown rendering and mark
it as read. The path is relative to the vault root (or absolute).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noMark, _ := cmd.Flags().GetBool("no-mark")

		path := args[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(vault.Root(), path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read article: %w", err)
		}

		rendered, err := glamour.Render(string(data), "dark")
		if err != nil {
			// Plain markdown still beats nothing.
			fmt.Println(string(data))
		} else {
			fmt.Print(rendered)
		}

		if noMark {
			return nil
		}

		faint := color.New(color.Faint).SprintFunc()
		feed, link, ok := resolveArticle(path, data)
		if !ok {
			fmt.Printf("%s\n", faint("(could not resolve article for read tracking)"))
			return nil
		}
		if err := stateStore.MarkRead(feed.URL, link); err != nil {
			return fmt.Errorf("mark as read: %w", err)
		}
		fmt.Printf("%s\n", faint("Marked as read"))
		return nil
	},
}

// resolveArticle maps a vault file back to its feed and source link: the
// enclosing folder names the feed, the template's source link names the
// article.
func resolveArticle(path string, data []byte) (models.Feed, string, bool) {
	match := originalLinkRE.FindSubmatch(data)
	if match == nil {
		return models.Feed{}, "", false
	}
	link := string(match[1])

	folder := filepath.Base(filepath.Dir(path))
	for _, feed := range repo.Feeds() {
		if storage.Sanitize(feed.DisplayName()) == folder {
			return feed, link, true
		}
	}
	return models.Feed{}, "", false
}

var markUnreadCmd = &cobra.Command{
	Use:   "mark-unread <feed-url> <article-link>",
	Short: "Mark an article as unread",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := stateStore.MarkUnread(args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Marked as unread")
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <feed-url> <article-link>",
	Short: "Delete an article so re-syncs never bring it back",
	Long: `Mark an article as deleted and remove its file from the vault.

Deleted articles are remembered, so a future sync of the same feed will
not re-create the file even if the article is still upstream.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		feedURL, link := args[0], args[1]

		if err := stateStore.MarkDeleted(feedURL, link); err != nil {
			return err
		}

		// Best effort: find and remove the materialized file.
		if feed, ok := repo.FeedByURL(feedURL); ok {
			rssFolder := repo.Snapshot().RSSFolder
			folder := filepath.Join(vault.Root(), storage.FeedFolder(rssFolder, feed.Group, feed.DisplayName()))
			entries, err := os.ReadDir(folder)
			if err == nil {
				for _, entry := range entries {
					if entry.IsDir() {
						continue
					}
					p := filepath.Join(folder, entry.Name())
					content, err := os.ReadFile(p)
					if err != nil {
						continue
					}
					if strings.Contains(string(content), "("+link+")") {
						os.Remove(p)
						break
					}
				}
			}
		}

		fmt.Println("Deleted article")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(markUnreadCmd)
	rootCmd.AddCommand(deleteCmd)

	readCmd.Flags().Bool("no-mark", false, "don't mark the article as read")
}
