// ABOUTME: Sync engine orchestrating one feed's pipeline and the all-feeds pass
// ABOUTME: Fetches, filters new items, enhances thin content, writes the vault, and updates feed bookkeeping

package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/harper/feedvault/internal/enhance"
	"github.com/harper/feedvault/internal/mdutil"
	"github.com/harper/feedvault/internal/models"
	"github.com/harper/feedvault/internal/parse"
	"github.com/harper/feedvault/internal/settings"
	"github.com/harper/feedvault/internal/state"
	"github.com/harper/feedvault/internal/storage"
)

// SyncError wraps any failure during a single feed's sync pipeline. It
// always carries the feed ID; the failure is also stored on the feed
// record as LastError.
type SyncError struct {
	FeedID string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync feed %s: %v", e.FeedID, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// FeedReport summarizes one feed's sync.
type FeedReport struct {
	FeedID  string
	URL     string
	Title   string
	Fetched int // items in the upstream document
	New     int // files actually written
}

// FeedFailure records one feed's failed sync within an all-feeds pass.
type FeedFailure struct {
	FeedID string
	URL    string
	Err    error
}

// Report summarizes an all-feeds pass.
type Report struct {
	Synced  []FeedReport
	Failed  []FeedFailure
	Skipped int // malformed feed records skipped
}

// Engine runs feed syncs. Enhancer is optional; when nil, thin items are
// written as-is.
type Engine struct {
	Settings *settings.Repository
	Vault    *storage.Vault
	State    *state.Store
	Enhancer *enhance.Enhancer
}

// New creates an Engine.
func New(repo *settings.Repository, vault *storage.Vault, st *state.Store) *Engine {
	return &Engine{
		Settings: repo,
		Vault:    vault,
		State:    st,
	}
}

// SyncFeed runs the full pipeline for one feed. force skips the
// duplicate-filter watermark (the write path stays idempotent either way).
// On failure the feed's LastError is recorded and a *SyncError returned;
// on success the watermark advances and LastError clears.
func (e *Engine) SyncFeed(ctx context.Context, feedID string, force bool) (*FeedReport, error) {
	// Re-read the feed at sync time so scheduled callbacks never act on
	// stale data.
	feed, ok := e.Settings.FeedByID(feedID)
	if !ok {
		return nil, &SyncError{FeedID: feedID, Err: fmt.Errorf("feed not found")}
	}

	globals := e.Settings.Snapshot()

	parsed, err := parse.FetchAndParse(ctx, feed.URL)
	if err != nil {
		e.markFailed(&feed, err)
		return nil, &SyncError{FeedID: feed.ID, Err: err}
	}

	if feed.Title == "" && parsed.Title != "" {
		feed.Title = parsed.Title
	}

	items := e.filterNew(&feed, &globals, parsed.Items, force)
	items = e.dropDeleted(&feed, items)

	if e.Enhancer != nil {
		for i, item := range items {
			if enhance.NeedsEnhancement(item) {
				items[i] = e.Enhancer.Enhance(ctx, item)
			}
		}
	}

	written, err := e.Vault.WriteFeed(&feed, globals.RSSFolder, items)
	if err != nil {
		e.markFailed(&feed, err)
		return nil, &SyncError{FeedID: feed.ID, Err: err}
	}

	if globals.RetentionDays > 0 {
		if _, err := e.Vault.CleanOld(&feed, globals.RSSFolder, globals.RetentionDays); err != nil {
			// Retention is best-effort; a failed sweep never fails the sync.
			log.Printf("engine: clean old articles for %s: %v", feed.DisplayName(), err)
		}
	}

	now := time.Now()
	feed.LastUpdate = mdutil.FormatTime(now)
	feed.LastSuccess = now.UnixMilli()
	feed.LastError = nil
	feed.ErrorCount = 0
	if err := e.Settings.UpdateFeed(feed); err != nil {
		return nil, &SyncError{FeedID: feed.ID, Err: fmt.Errorf("persist feed: %w", err)}
	}

	return &FeedReport{
		FeedID:  feed.ID,
		URL:     feed.URL,
		Title:   feed.DisplayName(),
		Fetched: len(parsed.Items),
		New:     written,
	}, nil
}

// filterNew applies the duplicate-filter watermark and the article cap.
// The watermark boundary is exclusive: an item published exactly at the
// watermark is not re-imported.
func (e *Engine) filterNew(feed *models.Feed, globals *settings.Settings, items []models.Item, force bool) []models.Item {
	if feed.FilterDuplicates && !force {
		watermark := feed.Watermark()
		kept := make([]models.Item, 0, len(items))
		for _, item := range items {
			// Items without a date are always considered new; the write
			// path's skip-if-exists keeps them from duplicating.
			if item.Published.IsZero() || item.Published.After(watermark) {
				kept = append(kept, item)
			}
		}
		items = kept
	}

	limit := feed.MaxArticles
	if limit <= 0 {
		limit = globals.MaxArticles
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// dropDeleted removes items the user explicitly deleted. A deletion must
// survive re-sync regardless of duplicate-filter settings.
func (e *Engine) dropDeleted(feed *models.Feed, items []models.Item) []models.Item {
	kept := make([]models.Item, 0, len(items))
	for _, item := range items {
		entry, ok, err := e.State.Get(feed.URL, item.Link)
		if err != nil {
			log.Printf("engine: article state lookup for %s: %v", item.Link, err)
			kept = append(kept, item)
			continue
		}
		if ok && entry.Deleted {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// markFailed records a failure on the feed record. Persistence errors here
// are logged, not returned; the original sync error matters more.
func (e *Engine) markFailed(feed *models.Feed, cause error) {
	feed.LastError = &models.FeedError{
		Message:   cause.Error(),
		Timestamp: time.Now().UnixMilli(),
	}
	feed.ErrorCount++
	if err := e.Settings.UpdateFeed(*feed); err != nil {
		log.Printf("engine: record error for %s: %v", feed.DisplayName(), err)
	}
}

// SyncAll syncs every active feed. One feed's failure never prevents
// others from syncing: per-feed errors are collected in the report, and
// malformed feed records are skipped with a log entry. SyncAll itself
// never fails.
func (e *Engine) SyncAll(ctx context.Context) *Report {
	report := &Report{}

	for _, feed := range e.Settings.Feeds() {
		if feed.URL == "" || feed.ID == "" {
			log.Printf("engine: skipping malformed feed record %+v", feed)
			report.Skipped++
			continue
		}
		if !feed.Active() {
			continue
		}

		fr, err := e.SyncFeed(ctx, feed.ID, false)
		if err != nil {
			log.Printf("engine: %v", err)
			report.Failed = append(report.Failed, FeedFailure{FeedID: feed.ID, URL: feed.URL, Err: err})
			continue
		}
		report.Synced = append(report.Synced, *fr)
	}

	return report
}
