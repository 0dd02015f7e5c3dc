// ABOUTME: Feed model representing a subscribed RSS/Atom source with sync bookkeeping
// ABOUTME: Tracks storage mode, scheduling status, feature toggles, and last sync outcome

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harper/feedvault/internal/mdutil"
)

// Feed storage modes.
const (
	// TypeMultipleFiles materializes one markdown file per article.
	TypeMultipleFiles = "multiple-files"
	// TypeSingleFile appends every article to one aggregate markdown file.
	TypeSingleFile = "single-file"
)

// Feed scheduling statuses.
const (
	StatusActive = "active"
	StatusPaused = "paused"
)

// FeedError records the last failure for a feed.
type FeedError struct {
	Message   string `yaml:"message"`
	Timestamp int64  `yaml:"timestamp"` // epoch millis
}

// Feed represents a configured subscription to one RSS/Atom source.
// The ID is assigned at creation and never changes; it is the stable key
// for scheduling and state lookups. URL is unique (case-insensitive)
// across all feeds.
type Feed struct {
	ID               string     `yaml:"id"`
	URL              string     `yaml:"url"`
	Title            string     `yaml:"title"`
	Group            string     `yaml:"group,omitempty"`
	Type             string     `yaml:"type"`
	Status           string     `yaml:"status"`
	FilterDuplicates bool       `yaml:"filter_duplicates"`
	MaxArticles      int        `yaml:"max_articles,omitempty"` // 0 = use global default
	Interval         int        `yaml:"interval,omitempty"`     // per-feed poll interval in minutes, 0 = global cadence only
	Summarize        bool       `yaml:"summarize,omitempty"`
	Transcribe       bool       `yaml:"transcribe,omitempty"`
	Rewrite          bool       `yaml:"rewrite,omitempty"`
	LastUpdate       string     `yaml:"last_update,omitempty"` // RFC 3339, watermark for duplicate filtering
	LastSuccess      int64      `yaml:"last_success,omitempty"` // epoch millis of last successful sync
	LastError        *FeedError `yaml:"last_error,omitempty"`
	ErrorCount       int        `yaml:"error_count,omitempty"`
	CreatedAt        string     `yaml:"created_at"`
}

// NewFeed creates a Feed with a generated ID and sensible defaults:
// active, multi-file, duplicate filtering on, toggles off.
func NewFeed(url string) *Feed {
	return &Feed{
		ID:               uuid.New().String(),
		URL:              url,
		Type:             TypeMultipleFiles,
		Status:           StatusActive,
		FilterDuplicates: true,
		CreatedAt:        mdutil.FormatTime(time.Now()),
	}
}

// Active reports whether the scheduler should maintain a timer for the feed.
func (f *Feed) Active() bool {
	return f.Status == StatusActive
}

// Watermark returns the duplicate-filter boundary parsed from LastUpdate.
// A feed that has never synced returns the zero time, so the first sync
// takes everything up to the cap.
func (f *Feed) Watermark() time.Time {
	if f.LastUpdate == "" {
		return time.Time{}
	}
	t, err := mdutil.ParseTime(f.LastUpdate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DisplayName returns the title if set, else the URL.
func (f *Feed) DisplayName() string {
	if f.Title != "" {
		return f.Title
	}
	return f.URL
}
