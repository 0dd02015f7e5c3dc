// ABOUTME: Vault writer materializing feed items as markdown files in the document tree
// ABOUTME: Handles folder lifecycle, idempotent writes, append-only aggregates, and retention cleanup

package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/feedvault/internal/mdutil"
	"github.com/harper/feedvault/internal/models"
)

// separator joins rendered items in single-file mode.
const separator = "\n\n---\n\n"

// Vault writes feed content into a directory tree rooted at a vault path.
type Vault struct {
	root string
}

// NewVault creates a Vault rooted at root, creating the directory if needed.
func NewVault(root string) (*Vault, error) {
	if err := mdutil.EnsureDir(root); err != nil {
		return nil, fmt.Errorf("create vault root: %w", err)
	}
	return &Vault{root: root}, nil
}

// Root returns the vault's root directory.
func (v *Vault) Root() string {
	return v.root
}

// FeedFolder derives a feed's storage folder from the configured RSS root,
// the optional group, and the feed title. The folder is always derived,
// never stored; moving a feed between groups re-derives it.
func FeedFolder(rssFolder, group, title string) string {
	parts := []string{Sanitize(rssFolder)}
	if group != "" {
		parts = append(parts, Sanitize(group))
	}
	parts = append(parts, Sanitize(title))
	return filepath.Join(parts...)
}

// SingleFilePath derives the aggregate file path for a single-file feed.
func SingleFilePath(rssFolder, group, title string) string {
	parts := []string{Sanitize(rssFolder)}
	if group != "" {
		parts = append(parts, Sanitize(group))
	}
	parts = append(parts, Sanitize(title)+".md")
	return filepath.Join(parts...)
}

// Sanitize replaces characters illegal in file paths with a hyphen,
// collapses runs, and trims leading/trailing separators.
func Sanitize(name string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '#', '^', '[', ']':
			return '-'
		}
		return r
	}, name)

	for strings.Contains(replaced, "--") {
		replaced = strings.ReplaceAll(replaced, "--", "-")
	}
	return strings.Trim(strings.TrimSpace(replaced), "-")
}

// EnsureFolder creates a folder under the vault root if absent. It never
// errors when the folder already exists.
func (v *Vault) EnsureFolder(rel string) error {
	return mdutil.EnsureDir(filepath.Join(v.root, rel))
}

// RemoveFolder recursively deletes a folder: files first, then subfolders,
// then the folder itself. Individual file failures are logged and skipped;
// a folder-level failure propagates because callers rely on completion to
// free the name for reuse.
func (v *Vault) RemoveFolder(rel string) error {
	abs := filepath.Join(v.root, rel)

	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read folder %s: %w", rel, err)
	}

	for _, entry := range entries {
		path := filepath.Join(abs, entry.Name())
		if entry.IsDir() {
			if err := v.RemoveFolder(filepath.Join(rel, entry.Name())); err != nil {
				return err
			}
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Printf("storage: remove file %s: %v", path, err)
		}
	}

	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("remove folder %s: %w", rel, err)
	}
	return nil
}

// MoveFolder relocates a feed folder, creating the destination's parent.
func (v *Vault) MoveFolder(oldRel, newRel string) error {
	oldAbs := filepath.Join(v.root, oldRel)
	newAbs := filepath.Join(v.root, newRel)

	if _, err := os.Stat(oldAbs); os.IsNotExist(err) {
		return nil
	}
	if err := mdutil.EnsureDir(filepath.Dir(newAbs)); err != nil {
		return err
	}
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return fmt.Errorf("move folder %s -> %s: %w", oldRel, newRel, err)
	}
	return nil
}

// WriteFeed persists items for a feed according to its storage mode and
// returns the number of items actually written. Multi-file mode never
// overwrites an existing file, which is what makes re-running a sync safe;
// single-file mode is an append-only log.
func (v *Vault) WriteFeed(feed *models.Feed, rssFolder string, items []models.Item) (int, error) {
	if feed.Type == models.TypeSingleFile {
		return v.writeSingleFile(feed, rssFolder, items)
	}
	return v.writeMultipleFiles(feed, rssFolder, items)
}

func (v *Vault) writeMultipleFiles(feed *models.Feed, rssFolder string, items []models.Item) (int, error) {
	folder := FeedFolder(rssFolder, feed.Group, feed.DisplayName())
	if err := v.EnsureFolder(folder); err != nil {
		return 0, err
	}

	written := 0
	for _, item := range items {
		name := Sanitize(item.Title)
		if name == "" {
			name = mdutil.Slugify(item.Link)
		}
		if name == "" {
			name = "untitled"
		}
		path := filepath.Join(v.root, folder, name+".md")

		// Presence of the target path means "already synced".
		if _, err := os.Stat(path); err == nil {
			continue
		}

		if err := mdutil.AtomicWrite(path, []byte(RenderItem(item))); err != nil {
			return written, fmt.Errorf("write article %s: %w", name, err)
		}
		written++
	}
	return written, nil
}

func (v *Vault) writeSingleFile(feed *models.Feed, rssFolder string, items []models.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	rel := SingleFilePath(rssFolder, feed.Group, feed.DisplayName())
	path := filepath.Join(v.root, rel)
	if err := mdutil.EnsureDir(filepath.Dir(path)); err != nil {
		return 0, err
	}

	rendered := make([]string, 0, len(items))
	for _, item := range items {
		rendered = append(rendered, RenderItem(item))
	}
	block := strings.Join(rendered, separator)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := mdutil.AtomicWrite(path, []byte(block+"\n")); err != nil {
			return 0, fmt.Errorf("create aggregate file: %w", err)
		}
		return len(items), nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open aggregate file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(separator + block + "\n"); err != nil {
		return 0, fmt.Errorf("append aggregate file: %w", err)
	}
	return len(items), nil
}

// CleanOld deletes files in the feed's own folder whose modification time
// is older than retentionDays. Retention is best-effort: a failed deletion
// is logged and the sweep continues.
func (v *Vault) CleanOld(feed *models.Feed, rssFolder string, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	folder := filepath.Join(v.root, FeedFolder(rssFolder, feed.Group, feed.DisplayName()))
	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read feed folder: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Printf("storage: stat %s: %v", entry.Name(), err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(folder, entry.Name())); err != nil {
			log.Printf("storage: clean %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}
