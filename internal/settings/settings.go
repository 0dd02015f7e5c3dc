// ABOUTME: Process-wide settings repository persisted as a YAML blob
// ABOUTME: Serializes every mutation through one locked save path with atomic writes

package settings

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/harper/feedvault/internal/mdutil"
	"github.com/harper/feedvault/internal/models"
)

// Fetch frequencies for the global scheduler cadence.
const (
	FrequencyStartup = "startup"
	FrequencyHourly  = "hourly"
	FrequencyDaily   = "daily"
)

// Settings holds global defaults, the feed list, and scheduling bookkeeping.
type Settings struct {
	RSSFolder      string        `yaml:"rss_folder"`
	MaxArticles    int           `yaml:"max_articles"`
	RetentionDays  int           `yaml:"retention_days"`
	FetchFrequency string        `yaml:"fetch_frequency"`
	LastFetch      int64         `yaml:"last_fetch,omitempty"` // epoch millis of last global sync
	Feeds          []models.Feed `yaml:"feeds"`
}

// Default returns first-run settings.
func Default() *Settings {
	return &Settings{
		RSSFolder:      "RSS",
		MaxArticles:    25,
		RetentionDays:  0,
		FetchFrequency: FrequencyHourly,
	}
}

// Repository owns the single authoritative in-memory Settings copy. All
// mutation goes through Update, which holds a lock across the
// read-modify-write and persists atomically, so concurrent writers cannot
// drop each other's changes.
type Repository struct {
	path string

	mu sync.Mutex
	s  *Settings
}

// Open loads settings from path, creating defaults on first run.
func Open(path string) (*Repository, error) {
	repo := &Repository{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			repo.s = Default()
			if err := repo.save(); err != nil {
				return nil, err
			}
			return repo, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	repo.s = &s
	return repo, nil
}

// save persists the current settings. Callers must hold mu or be the only
// accessor (Open).
func (r *Repository) save() error {
	data, err := yaml.Marshal(r.s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := mdutil.AtomicWrite(r.path, data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Update applies fn to the settings under the lock and persists the result.
// fn works on a copy; if it returns an error, neither memory nor disk
// changes.
func (r *Repository) Update(fn func(*Settings) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := *r.s
	work.Feeds = append([]models.Feed(nil), r.s.Feeds...)
	if err := fn(&work); err != nil {
		return err
	}
	r.s = &work
	return r.save()
}

// Snapshot returns a copy of the current settings, with the feed list
// copied so callers cannot mutate shared state.
func (r *Repository) Snapshot() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := *r.s
	snap.Feeds = append([]models.Feed(nil), r.s.Feeds...)
	return snap
}

// Feeds returns a copy of the feed list.
func (r *Repository) Feeds() []models.Feed {
	return r.Snapshot().Feeds
}

// FeedByID returns a copy of the feed with the given ID.
func (r *Repository) FeedByID(id string) (models.Feed, bool) {
	for _, f := range r.Feeds() {
		if f.ID == id {
			return f, true
		}
	}
	return models.Feed{}, false
}

// FeedByURL returns a copy of the feed with the given URL
// (case-insensitive).
func (r *Repository) FeedByURL(url string) (models.Feed, bool) {
	for _, f := range r.Feeds() {
		if strings.EqualFold(f.URL, url) {
			return f, true
		}
	}
	return models.Feed{}, false
}

// AddFeed appends a feed. URLs are unique case-insensitively; adding a
// duplicate fails.
func (r *Repository) AddFeed(feed models.Feed) error {
	return r.Update(func(s *Settings) error {
		for _, existing := range s.Feeds {
			if strings.EqualFold(existing.URL, feed.URL) {
				return fmt.Errorf("feed URL %q already exists", feed.URL)
			}
		}
		s.Feeds = append(s.Feeds, feed)
		return nil
	})
}

// UpdateFeed replaces the stored feed with the same ID.
func (r *Repository) UpdateFeed(feed models.Feed) error {
	return r.Update(func(s *Settings) error {
		for i, existing := range s.Feeds {
			if existing.ID == feed.ID {
				s.Feeds[i] = feed
				return nil
			}
		}
		return fmt.Errorf("feed not found: %s", feed.ID)
	})
}

// RemoveFeed deletes a feed by ID and returns the removed record.
func (r *Repository) RemoveFeed(id string) (models.Feed, error) {
	var removed models.Feed
	err := r.Update(func(s *Settings) error {
		for i, existing := range s.Feeds {
			if existing.ID == id {
				removed = existing
				s.Feeds = append(s.Feeds[:i], s.Feeds[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("feed not found: %s", id)
	})
	return removed, err
}

// SetLastFetch records the time of the last global sync pass.
func (r *Repository) SetLastFetch(millis int64) error {
	return r.Update(func(s *Settings) error {
		s.LastFetch = millis
		return nil
	})
}
