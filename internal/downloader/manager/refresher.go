package manager

import (
	"context"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/debrid"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/downloader"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
)

// ensureRefresher starts the transfer refresher on first use and waits for a non-empty snapshot.
// Concurrent callers block until that first wait is over. It reports whether this call started it.
func (dm *DownloadManager) ensureRefresher(ctx context.Context) (started bool) {
	dm.refresherOnce.Do(func() {
		started = true
		dm.mu.Lock()
		if dm.closed {
			dm.mu.Unlock()
			return
		}
		dm.refresherStarted = true
		dm.mu.Unlock()

		dm.refreshTransfers()
		go dm.runRefresher()
		dm.waitForSnapshot(ctx)
	})
	return started
}

func (dm *DownloadManager) runRefresher() {
	defer close(dm.refresherDone)
	downloader.RunPeriodic(dm.done, dm.refreshInterval(), "transfer refresher", dm.refreshTransfers)
}

// refreshTransfers keeps the previous snapshot when the fetch fails. Fetches are serialized so a
// slow fetch never overwrites a newer snapshot. The refresher stops only through dm.done, so its
// fetches are not bound to the workers' context.
func (dm *DownloadManager) refreshTransfers() {
	dm.refreshMu.Lock()
	defer dm.refreshMu.Unlock()

	transfers, err := dm.client.Transfers(context.Background())
	if err != nil {
		logutils.Log.WithError(err).Warn("Failed to refresh transfers, keeping previous snapshot")
		return
	}
	if transfers == nil {
		transfers = make([]debrid.Transfer, 0)
	}
	dm.transfers.Store(&transfers)
}

func (dm *DownloadManager) waitForSnapshot(ctx context.Context) {
	attempts := dm.settings.SnapshotWaitAttempts
	if attempts <= 0 {
		attempts = config.DefaultSnapshotWaitAttempts
	}
	interval := dm.settings.SnapshotWaitInterval
	if interval <= 0 {
		interval = config.DefaultSnapshotWaitInterval
	}

	for i := 0; i < attempts; i++ {
		if len(dm.Transfers()) > 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-dm.done:
			return
		case <-dm.clock.After(interval):
		}
	}
	if len(dm.Transfers()) == 0 {
		logutils.Log.Warn("Could not get debrid transfers in time")
	}
}
