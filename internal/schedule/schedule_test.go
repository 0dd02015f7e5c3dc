// ABOUTME: Test suite for the background scheduler
// ABOUTME: Covers startup syncs, heartbeat due checks, and per-feed timer lifecycle

package schedule

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/feedvault/internal/engine"
	"github.com/harper/feedvault/internal/models"
	"github.com/harper/feedvault/internal/settings"
	"github.com/harper/feedvault/internal/state"
	"github.com/harper/feedvault/internal/storage"
)

const feedDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Sched Feed</title><link>https://x.test</link><description>d</description>
<item><title>One</title><link>https://x.test/1</link><description>b</description></item>
</channel></rss>`

func newScheduler(t *testing.T) (*Scheduler, *settings.Repository, *atomic.Int32) {
	t.Helper()
	dir := t.TempDir()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, feedDoc)
	}))
	t.Cleanup(server.Close)

	repo, err := settings.Open(filepath.Join(dir, "settings.yaml"))
	if err != nil {
		t.Fatalf("settings.Open() error = %v", err)
	}
	vault, err := storage.NewVault(filepath.Join(dir, "vault"))
	if err != nil {
		t.Fatalf("storage.NewVault() error = %v", err)
	}
	st, err := state.Open(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("state.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	feed := models.NewFeed(server.URL)
	if err := repo.AddFeed(*feed); err != nil {
		t.Fatalf("AddFeed() error = %v", err)
	}

	return New(engine.New(repo, vault, st)), repo, &hits
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStartupFrequencySyncsImmediately(t *testing.T) {
	sched, repo, hits := newScheduler(t)
	if err := repo.Update(func(s *settings.Settings) error {
		s.FetchFrequency = settings.FrequencyStartup
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	sched.Heartbeat = time.Hour

	sched.Start()
	defer sched.Stop()

	waitFor(t, func() bool { return hits.Load() >= 1 }, "startup frequency never triggered a sync")
	waitFor(t, func() bool { return repo.Snapshot().LastFetch != 0 }, "LastFetch never recorded")
}

func TestHeartbeatFiresWhenFrequencyDue(t *testing.T) {
	sched, repo, hits := newScheduler(t)
	if err := repo.Update(func(s *settings.Settings) error {
		s.FetchFrequency = settings.FrequencyHourly
		s.LastFetch = 0
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	sched.Heartbeat = 10 * time.Millisecond

	sched.Start()
	defer sched.Stop()

	waitFor(t, func() bool { return hits.Load() >= 1 }, "due hourly frequency never triggered a sync")
}

func TestHeartbeatSkipsWhenNotDue(t *testing.T) {
	sched, repo, hits := newScheduler(t)
	if err := repo.Update(func(s *settings.Settings) error {
		s.FetchFrequency = settings.FrequencyHourly
		s.LastFetch = time.Now().UnixMilli()
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	sched.Heartbeat = 10 * time.Millisecond

	sched.Start()
	time.Sleep(100 * time.Millisecond)
	sched.Stop()

	if got := hits.Load(); got != 0 {
		t.Errorf("syncs fired = %d, want 0 while frequency not due", got)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	sched, _, _ := newScheduler(t)
	sched.Heartbeat = time.Hour

	sched.Start()
	sched.Start()
	sched.Stop()
	sched.Stop()
}

func TestScheduleFeedLifecycle(t *testing.T) {
	sched, repo, _ := newScheduler(t)
	sched.Heartbeat = time.Hour
	sched.Start()
	defer sched.Stop()

	feeds := repo.Feeds()
	id := feeds[0].ID
	updated := feeds[0]
	updated.Interval = 5
	if err := repo.UpdateFeed(updated); err != nil {
		t.Fatalf("UpdateFeed() error = %v", err)
	}

	sched.ScheduleFeed(id)
	sched.ScheduleFeed(id) // re-schedule replaces, never doubles

	sched.mu.Lock()
	count := len(sched.feeds)
	sched.mu.Unlock()
	if count != 1 {
		t.Errorf("timer count = %d, want 1 after double schedule", count)
	}

	sched.UnscheduleFeed(id)
	sched.UnscheduleFeed(id) // unknown ID is a no-op
	sched.UnscheduleFeed("never-existed")

	sched.mu.Lock()
	count = len(sched.feeds)
	sched.mu.Unlock()
	if count != 0 {
		t.Errorf("timer count = %d, want 0 after unschedule", count)
	}
}

func TestScheduleFeedWithoutInterval(t *testing.T) {
	sched, repo, _ := newScheduler(t)
	sched.Heartbeat = time.Hour
	sched.Start()
	defer sched.Stop()

	id := repo.Feeds()[0].ID
	sched.ScheduleFeed(id) // Interval is zero; nothing to schedule

	sched.mu.Lock()
	count := len(sched.feeds)
	sched.mu.Unlock()
	if count != 0 {
		t.Errorf("timer count = %d, want 0 for feed without interval", count)
	}
}
