// ABOUTME: Background scheduler driving periodic syncs from fetch frequency and per-feed intervals
// ABOUTME: Runs a heartbeat loop for the global frequency plus one timer goroutine per overridden feed

package schedule

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/harper/feedvault/internal/engine"
	"github.com/harper/feedvault/internal/settings"
)

// MinInterval is the smallest per-feed interval the scheduler honors.
const MinInterval = time.Minute

// DefaultHeartbeat is how often the scheduler re-checks whether the
// global fetch frequency is due.
const DefaultHeartbeat = time.Minute

// Scheduler runs syncs in the background. The global fetch frequency
// (startup, hourly, daily) is evaluated on a heartbeat against the
// persisted last-fetch time, so a restart never loses the cadence. Feeds
// with their own interval get a dedicated timer on top of that.
type Scheduler struct {
	Engine *engine.Engine

	// Heartbeat overrides the frequency check cadence. Zero means
	// DefaultHeartbeat.
	Heartbeat time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
	feeds   map[string]chan struct{}
}

// New creates a Scheduler driving the given engine.
func New(eng *engine.Engine) *Scheduler {
	return &Scheduler{
		Engine: eng,
		feeds:  make(map[string]chan struct{}),
	}
}

// Start launches the heartbeat loop and one timer per feed that carries
// its own interval. Starting an already-running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.mu.Unlock()

	snap := s.Engine.Settings.Snapshot()

	if snap.FetchFrequency == settings.FrequencyStartup {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runAll()
		}()
	}

	for _, feed := range snap.Feeds {
		if feed.Active() && feed.Interval > 0 {
			s.ScheduleFeed(feed.ID)
		}
	}

	s.wg.Add(1)
	go s.heartbeatLoop()
}

// Stop cancels every timer and waits for in-flight syncs to finish.
// Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	for id, cancel := range s.feeds {
		close(cancel)
		delete(s.feeds, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) heartbeatLoop() {
	defer s.wg.Done()

	beat := s.Heartbeat
	if beat <= 0 {
		beat = DefaultHeartbeat
	}
	ticker := time.NewTicker(beat)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if s.frequencyDue() {
				s.runAll()
			}
		}
	}
}

// frequencyDue reports whether the global fetch frequency has elapsed
// since the persisted last-fetch time. Startup frequency never fires
// from the heartbeat; it already ran at Start.
func (s *Scheduler) frequencyDue() bool {
	snap := s.Engine.Settings.Snapshot()

	var period time.Duration
	switch snap.FetchFrequency {
	case settings.FrequencyHourly:
		period = time.Hour
	case settings.FrequencyDaily:
		period = 24 * time.Hour
	default:
		return false
	}

	if snap.LastFetch == 0 {
		return true
	}
	return time.Since(time.UnixMilli(snap.LastFetch)) >= period
}

// runAll syncs every active feed and advances the persisted last-fetch
// marker. Sync failures are already collected and logged by the engine.
func (s *Scheduler) runAll() {
	report := s.Engine.SyncAll(context.Background())
	log.Printf("schedule: synced %d feeds, %d failed, %d skipped",
		len(report.Synced), len(report.Failed), report.Skipped)

	if err := s.Engine.Settings.SetLastFetch(time.Now().UnixMilli()); err != nil {
		log.Printf("schedule: record last fetch: %v", err)
	}
}

// ScheduleFeed starts (or restarts) the dedicated timer for one feed.
// The timer captures only the feed ID; the feed record is re-read at
// every fire, so edits between fires always take effect. Feeds without
// a positive interval are unscheduled instead.
func (s *Scheduler) ScheduleFeed(feedID string) {
	feed, ok := s.Engine.Settings.FeedByID(feedID)
	if !ok || !feed.Active() || feed.Interval <= 0 {
		s.UnscheduleFeed(feedID)
		return
	}

	interval := time.Duration(feed.Interval) * time.Minute
	if interval < MinInterval {
		interval = MinInterval
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	if old, ok := s.feeds[feedID]; ok {
		close(old)
	}
	cancel := make(chan struct{})
	s.feeds[feedID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.feedLoop(feedID, interval, cancel)
}

// UnscheduleFeed cancels a feed's timer. Unknown IDs are a no-op so
// callers can unschedule unconditionally on feed removal.
func (s *Scheduler) UnscheduleFeed(feedID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.feeds[feedID]; ok {
		close(cancel)
		delete(s.feeds, feedID)
	}
}

func (s *Scheduler) feedLoop(feedID string, interval time.Duration, cancel chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-s.stop:
			return
		case <-ticker.C:
			// A failed sync is recorded on the feed by the engine; the
			// timer keeps running so transient failures self-heal.
			if _, err := s.Engine.SyncFeed(context.Background(), feedID, false); err != nil {
				log.Printf("schedule: %v", err)
			}
		}
	}
}
