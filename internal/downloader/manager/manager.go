package manager

import (
	"context"
	"sync"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/debrid"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/downloader"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/pkg/metrics"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/timeutil"
)

var _ downloader.Engine = (*DownloadManager)(nil)

func NewDownloadManager(client debrid.Client, settings config.DownloadConfig, opts ...Option) *DownloadManager {
	ctx, cancel := context.WithCancel(context.Background())
	dm := &DownloadManager{
		client:        client,
		settings:      settings,
		metrics:       metrics.NewNoOpMetrics(),
		clock:         timeutil.NewSystemTimeProvider(),
		queue:         make([]*downloadTask, 0),
		refresherDone: make(chan struct{}),
		done:          make(chan struct{}),
		workersCtx:    ctx,
		cancelWorkers: cancel,
	}
	for _, opt := range opts {
		opt(dm)
	}
	empty := make([]debrid.Transfer, 0)
	dm.transfers.Store(&empty)
	return dm
}

// Download uploads the show's torrents, then runs WorkersPerShow workers over the shared queue and
// returns once all of them have exited.
func (dm *DownloadManager) Download(ctx context.Context, info *models.Information) error {
	if dm.isClosed() {
		return downloader.ErrEngineClosed
	}

	logutils.Log.WithFields(map[string]any{
		"show":     info.Show.Name,
		"torrents": len(info.Torrents),
	}).Info("Downloading show")

	dm.startTorrenting(ctx, info)

	workerCount := dm.settings.WorkersPerShow
	if workerCount <= 0 {
		workerCount = config.DefaultWorkersPerShow
	}

	dm.mu.Lock()
	if dm.closed {
		dm.mu.Unlock()
		return downloader.ErrEngineClosed
	}
	dm.workers.Add(workerCount)
	dm.mu.Unlock()

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(dm.workersCtx, cancel)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func(id int) {
			defer dm.workers.Done()
			defer wg.Done()
			dm.worker(workerCtx, id)
		}(i)
	}
	wg.Wait()

	logutils.Log.WithField("show", info.Show.Name).Debug("All workers for show finished")
	return nil
}

// Transfers returns the current snapshot. Callers must not modify it.
func (dm *DownloadManager) Transfers() []debrid.Transfer {
	return *dm.transfers.Load()
}

func (dm *DownloadManager) isClosed() bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.closed
}

// Close stops the refresher and all workers, then closes the client exactly once. Further calls are
// no-ops returning the first result.
func (dm *DownloadManager) Close() error {
	dm.closeOnce.Do(func() {
		dm.mu.Lock()
		dm.closed = true
		close(dm.done)
		refresherStarted := dm.refresherStarted
		dm.mu.Unlock()

		dm.cancelWorkers()

		if refresherStarted {
			if !waitChannel(dm.refresherDone, 2*dm.refreshInterval()) {
				logutils.Log.Warn("Transfer refresher did not stop in time")
			}
		}

		workersDone := make(chan struct{})
		go func() {
			dm.workers.Wait()
			close(workersDone)
		}()
		if !waitChannel(workersDone, dm.refreshInterval()) {
			logutils.Log.Warn("Workers did not stop in time")
		}

		dm.closeErr = dm.client.Close()
		logutils.Log.Info("Download manager closed")
	})
	return dm.closeErr
}

func (dm *DownloadManager) refreshInterval() time.Duration {
	if dm.settings.RefreshInterval > 0 {
		return dm.settings.RefreshInterval
	}
	return config.DefaultRefreshInterval
}

func waitChannel(ch <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

// sleep waits d on the manager clock. It returns false when ctx is cancelled first.
func (dm *DownloadManager) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-dm.clock.After(d):
		return ctx.Err() == nil
	}
}
