// ABOUTME: Test suite for the article state store
// ABOUTME: Covers flag upserts, flag preservation, and retention pruning boundaries

package state

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMarkRead(t *testing.T) {
	store := openTestStore(t)

	if err := store.MarkRead("https://x.test/feed.xml", "https://x.test/a"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	entry, ok, err := store.Get("https://x.test/feed.xml", "https://x.test/a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true after MarkRead")
	}
	if !entry.Read {
		t.Error("Read = false, want true")
	}
	if entry.Deleted {
		t.Error("Deleted = true, want false")
	}
	if entry.LastUpdate == 0 {
		t.Error("LastUpdate = 0, want current time")
	}
}

func TestGet_Missing(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Get("https://x.test/feed.xml", "https://x.test/missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for unknown article")
	}
}

func TestMarkDeleted_PreservesRead(t *testing.T) {
	store := openTestStore(t)
	feedURL, link := "https://x.test/feed.xml", "https://x.test/a"

	if err := store.MarkRead(feedURL, link); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if err := store.MarkDeleted(feedURL, link); err != nil {
		t.Fatalf("MarkDeleted() error = %v", err)
	}

	entry, _, err := store.Get(feedURL, link)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !entry.Read {
		t.Error("Read = false, want preserved true after MarkDeleted")
	}
	if !entry.Deleted {
		t.Error("Deleted = false, want true")
	}
}

func TestMarkUnread(t *testing.T) {
	store := openTestStore(t)
	feedURL, link := "https://x.test/feed.xml", "https://x.test/a"

	if err := store.MarkRead(feedURL, link); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if err := store.MarkUnread(feedURL, link); err != nil {
		t.Fatalf("MarkUnread() error = %v", err)
	}

	entry, _, _ := store.Get(feedURL, link)
	if entry.Read {
		t.Error("Read = true, want false after MarkUnread")
	}
}

func TestMutationRefreshesLastUpdate(t *testing.T) {
	store := openTestStore(t)
	feedURL, link := "https://x.test/feed.xml", "https://x.test/a"

	if err := store.MarkRead(feedURL, link); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	old := time.Now().UnixMilli() - 1000000
	if err := store.setLastUpdate(feedURL, link, old); err != nil {
		t.Fatalf("setLastUpdate() error = %v", err)
	}

	if err := store.MarkDeleted(feedURL, link); err != nil {
		t.Fatalf("MarkDeleted() error = %v", err)
	}
	entry, _, _ := store.Get(feedURL, link)
	if entry.LastUpdate == old {
		t.Error("LastUpdate not refreshed by mutation")
	}
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)
	feedURL := "https://x.test/feed.xml"
	retentionDays := 30
	now := time.Now().UnixMilli()

	// One entry just past retention, one just inside it.
	if err := store.MarkRead(feedURL, "https://x.test/old"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if err := store.setLastUpdate(feedURL, "https://x.test/old", now-int64(retentionDays+1)*millisPerDay); err != nil {
		t.Fatalf("setLastUpdate() error = %v", err)
	}

	if err := store.MarkRead(feedURL, "https://x.test/recent"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if err := store.setLastUpdate(feedURL, "https://x.test/recent", now-int64(retentionDays-1)*millisPerDay); err != nil {
		t.Fatalf("setLastUpdate() error = %v", err)
	}

	removed, err := store.Prune(retentionDays)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune() removed = %d, want 1", removed)
	}

	if _, ok, _ := store.Get(feedURL, "https://x.test/old"); ok {
		t.Error("old entry still present, want pruned")
	}
	if _, ok, _ := store.Get(feedURL, "https://x.test/recent"); !ok {
		t.Error("recent entry pruned, want retained")
	}
}

func TestPrune_ZeroRetentionIsNoop(t *testing.T) {
	store := openTestStore(t)
	if err := store.MarkRead("https://x.test/feed.xml", "https://x.test/a"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	removed, err := store.Prune(0)
	if err != nil {
		t.Fatalf("Prune(0) error = %v", err)
	}
	if removed != 0 {
		t.Errorf("Prune(0) removed = %d, want 0", removed)
	}
	if n, _ := store.Count(); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}
