// ABOUTME: Test suite for the vault writer
// ABOUTME: Covers sanitization, idempotent multi-file sync, append-only aggregates, and retention cleanup

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/feedvault/internal/models"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := NewVault(t.TempDir())
	if err != nil {
		t.Fatalf("NewVault() error = %v", err)
	}
	return v
}

func multiFeed() *models.Feed {
	f := models.NewFeed("https://x.test/feed.xml")
	f.Title = "Test Feed"
	return f
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Plain Title", "Plain Title"},
		{"What? A/B Testing: Results", "What- A-B Testing- Results"},
		{"||pipes||", "pipes"},
		{"--already--dashed--", "already-dashed"},
		{`back\slash`, "back-slash"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFeedFolder(t *testing.T) {
	got := FeedFolder("RSS", "Tech", "Example Feed")
	want := filepath.Join("RSS", "Tech", "Example Feed")
	if got != want {
		t.Errorf("FeedFolder() = %q, want %q", got, want)
	}

	got = FeedFolder("RSS", "", "Example Feed")
	want = filepath.Join("RSS", "Example Feed")
	if got != want {
		t.Errorf("FeedFolder() without group = %q, want %q", got, want)
	}
}

func TestWriteFeed_MultiFileIdempotent(t *testing.T) {
	v := newTestVault(t)
	feed := multiFeed()
	items := []models.Item{
		{Title: "Article One", Link: "https://x.test/1", Content: "body one"},
		{Title: "Article Two", Link: "https://x.test/2", Content: "body two"},
	}

	written, err := v.WriteFeed(feed, "RSS", items)
	if err != nil {
		t.Fatalf("WriteFeed() error = %v", err)
	}
	if written != 2 {
		t.Errorf("first sync written = %d, want 2", written)
	}

	folder := filepath.Join(v.Root(), "RSS", "Test Feed")
	first := listFiles(t, folder)

	// Mutate a file, then re-sync. Existing files must never be overwritten.
	target := filepath.Join(folder, "Article One.md")
	if err := os.WriteFile(target, []byte("user edits"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	written, err = v.WriteFeed(feed, "RSS", items)
	if err != nil {
		t.Fatalf("WriteFeed() second error = %v", err)
	}
	if written != 0 {
		t.Errorf("second sync written = %d, want 0", written)
	}

	second := listFiles(t, folder)
	if len(first) != len(second) {
		t.Errorf("file count changed: %d -> %d, want unchanged", len(first), len(second))
	}

	data, _ := os.ReadFile(target)
	if string(data) != "user edits" {
		t.Errorf("existing file was overwritten: %q", string(data))
	}
}

func TestWriteFeed_SingleFileAppendOnly(t *testing.T) {
	v := newTestVault(t)
	feed := multiFeed()
	feed.Type = models.TypeSingleFile

	if _, err := v.WriteFeed(feed, "RSS", []models.Item{{Title: "First", Content: "one"}}); err != nil {
		t.Fatalf("WriteFeed() error = %v", err)
	}

	path := filepath.Join(v.Root(), "RSS", "Test Feed.md")
	firstData, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if _, err := v.WriteFeed(feed, "RSS", []models.Item{{Title: "Second", Content: "two"}}); err != nil {
		t.Fatalf("WriteFeed() second error = %v", err)
	}

	secondData, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(secondData), string(firstData)) {
		t.Error("aggregate file is not append-only: first content is not a prefix of second")
	}
	if !strings.Contains(string(secondData), "\n---\n") {
		t.Error("aggregate file missing horizontal-rule separator")
	}
	if !strings.Contains(string(secondData), "# Second") {
		t.Error("aggregate file missing appended article")
	}
}

func TestWriteFeed_RenderedTemplate(t *testing.T) {
	v := newTestVault(t)
	feed := multiFeed()
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []models.Item{{
		Title:     "Shaped Article",
		Link:      "https://x.test/shaped",
		Published: published,
		Author:    "Someone",
		Content:   "The body.",
	}}

	if _, err := v.WriteFeed(feed, "RSS", items); err != nil {
		t.Fatalf("WriteFeed() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(v.Root(), "RSS", "Test Feed", "Shaped Article.md"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)

	for _, want := range []string{"# Shaped Article", "unread", "by Someone", "[Read original](https://x.test/shaped)", "The body."} {
		if !strings.Contains(content, want) {
			t.Errorf("rendered article missing %q:\n%s", want, content)
		}
	}
}

func TestRemoveFolder(t *testing.T) {
	v := newTestVault(t)
	if err := v.EnsureFolder(filepath.Join("RSS", "Feed", "nested")); err != nil {
		t.Fatalf("EnsureFolder() error = %v", err)
	}
	for _, rel := range []string{"RSS/Feed/a.md", "RSS/Feed/nested/b.md"} {
		if err := os.WriteFile(filepath.Join(v.Root(), filepath.FromSlash(rel)), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	if err := v.RemoveFolder(filepath.Join("RSS", "Feed")); err != nil {
		t.Fatalf("RemoveFolder() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(v.Root(), "RSS", "Feed")); !os.IsNotExist(err) {
		t.Error("folder still exists after RemoveFolder")
	}

	// Removing a missing folder is not an error.
	if err := v.RemoveFolder(filepath.Join("RSS", "Feed")); err != nil {
		t.Errorf("RemoveFolder() on missing folder error = %v, want nil", err)
	}
}

func TestEnsureFolder_Idempotent(t *testing.T) {
	v := newTestVault(t)
	for i := 0; i < 2; i++ {
		if err := v.EnsureFolder("RSS/Feed"); err != nil {
			t.Fatalf("EnsureFolder() call %d error = %v", i+1, err)
		}
	}
}

func TestCleanOld(t *testing.T) {
	v := newTestVault(t)
	feed := multiFeed()
	items := []models.Item{
		{Title: "Old Article", Content: "old"},
		{Title: "New Article", Content: "new"},
	}
	if _, err := v.WriteFeed(feed, "RSS", items); err != nil {
		t.Fatalf("WriteFeed() error = %v", err)
	}

	folder := filepath.Join(v.Root(), "RSS", "Test Feed")
	oldPath := filepath.Join(folder, "Old Article.md")
	stale := time.Now().AddDate(0, 0, -31)
	if err := os.Chtimes(oldPath, stale, stale); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	removed, err := v.CleanOld(feed, "RSS", 30)
	if err != nil {
		t.Fatalf("CleanOld() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("CleanOld() removed = %d, want 1", removed)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("old article still present, want removed")
	}
	if _, err := os.Stat(filepath.Join(folder, "New Article.md")); err != nil {
		t.Errorf("new article missing after cleanup: %v", err)
	}
}

func TestCleanOld_ZeroRetention(t *testing.T) {
	v := newTestVault(t)
	feed := multiFeed()
	if _, err := v.WriteFeed(feed, "RSS", []models.Item{{Title: "Keep", Content: "x"}}); err != nil {
		t.Fatalf("WriteFeed() error = %v", err)
	}

	removed, err := v.CleanOld(feed, "RSS", 0)
	if err != nil {
		t.Fatalf("CleanOld() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("CleanOld(0) removed = %d, want 0", removed)
	}
}

func TestMoveFolder(t *testing.T) {
	v := newTestVault(t)
	oldRel := FeedFolder("RSS", "", "Feed A")
	if err := v.EnsureFolder(oldRel); err != nil {
		t.Fatalf("EnsureFolder() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(v.Root(), oldRel, "a.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	newRel := FeedFolder("RSS", "Tech", "Feed A")
	if err := v.MoveFolder(oldRel, newRel); err != nil {
		t.Fatalf("MoveFolder() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(v.Root(), newRel, "a.md")); err != nil {
		t.Errorf("moved article missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(v.Root(), oldRel)); !os.IsNotExist(err) {
		t.Error("old folder still exists after move")
	}
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s) error = %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
