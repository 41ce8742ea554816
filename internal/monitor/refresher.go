// Package monitor keeps the stored per-link analytics summaries up to date in the background.
package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/axellelanca/urlanalytics/internal/models"
)

// Recomputer is the part of the analytics service the refresher drives.
type Recomputer interface {
	ListLinkIDs(ctx context.Context) ([]string, error)
	RecomputeLinkAnalytics(ctx context.Context, linkID string) (*models.LinkAnalytics, error)
}

// AnalyticsRefresher periodically rebuilds the analytics summary of every link.
// Each pass fans the link ids out to a fixed pool of workers.
type AnalyticsRefresher struct {
	svc         Recomputer
	interval    time.Duration // How often a full pass runs
	workerCount int

	mu       sync.Mutex
	lastRun  time.Time // End of the last completed pass
	lastFail int       // Links that failed during the last pass
}

// NewAnalyticsRefresher creates and returns a new instance of AnalyticsRefresher.
func NewAnalyticsRefresher(svc Recomputer, interval time.Duration, workerCount int) *AnalyticsRefresher {
	return &AnalyticsRefresher{
		svc:         svc,
		interval:    interval,
		workerCount: max(workerCount, 1),
	}
}

// Start runs one pass immediately, then one per interval, until ctx is cancelled.
// It blocks; callers run it in its own goroutine.
func (r *AnalyticsRefresher) Start(ctx context.Context) {
	log.Printf("[REFRESHER] Starting analytics refresher with interval of %v and %d worker(s)...", r.interval, r.workerCount)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RefreshAll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[REFRESHER] Stopped.")
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll recomputes every link once and returns how many succeeded and failed.
// A failing link is logged and skipped.
func (r *AnalyticsRefresher) RefreshAll(ctx context.Context) (refreshed, failed int) {
	log.Println("[REFRESHER] Starting analytics refresh...")

	ids, err := r.svc.ListLinkIDs(ctx)
	if err != nil {
		log.Printf("[REFRESHER] ERROR retrieving links to refresh: %v", err)
		return 0, 0
	}

	results := runWorkers(ctx, r.workerCount, ids, func(ctx context.Context, id string) error {
		_, err := r.svc.RecomputeLinkAnalytics(ctx, id)
		return err
	})
	for res := range results {
		if res.err != nil {
			failed++
			log.Printf("[REFRESHER] ERROR refreshing analytics for link %s: %v", res.linkID, res.err)
			continue
		}
		refreshed++
	}

	r.mu.Lock()
	r.lastRun = time.Now().UTC()
	r.lastFail = failed
	r.mu.Unlock()

	log.Printf("[REFRESHER] Analytics refresh completed: %d refreshed, %d failed.", refreshed, failed)
	return refreshed, failed
}

// LastRun reports when the last pass ended and how many links failed in it.
func (r *AnalyticsRefresher) LastRun() (time.Time, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.lastFail
}
