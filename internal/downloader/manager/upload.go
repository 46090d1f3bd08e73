package manager

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

// transferSet deduplicates transfer ids within one upload batch.
type transferSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newTransferSet() *transferSet {
	return &transferSet{ids: make(map[string]struct{})}
}

// add reports whether id was not yet in the set.
func (s *transferSet) add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// startTorrenting uploads every torrent concurrently and returns once all uploads are done.
func (dm *DownloadManager) startTorrenting(ctx context.Context, info *models.Information) {
	logutils.Log.WithField("show", info.Show.Name).Debug("Start torrenting")

	seen := newTransferSet()
	var g errgroup.Group
	if dm.settings.UploadConcurrency > 0 {
		g.SetLimit(dm.settings.UploadConcurrency)
	}
	for _, torrent := range info.Torrents {
		torrent := torrent
		g.Go(func() error {
			dm.uploadTorrent(ctx, info, torrent, seen)
			return nil
		})
	}
	_ = g.Wait()

	// A running refresher may hold a snapshot older than these uploads.
	if !dm.ensureRefresher(ctx) && !dm.isClosed() {
		dm.refreshTransfers()
	}
}

// uploadTorrent tries the links in order and enqueues a task for the first accepted, not yet seen transfer.
func (dm *DownloadManager) uploadTorrent(ctx context.Context, info *models.Information, torrent models.Torrent, seen *transferSet) {
	for _, link := range torrent.Links {
		if ctx.Err() != nil || dm.isClosed() {
			return
		}

		transfer, err := dm.client.Upload(ctx, link)
		if err != nil {
			logutils.Log.WithError(err).WithFields(map[string]any{
				"show":      info.Show.Name,
				"reference": torrent.Reference.String(),
				"link":      truncate(link, 50),
			}).Debug("Link was not accepted")
			dm.metrics.IncrementCounter(metricUploads, map[string]string{"result": "rejected"})
			continue
		}

		if !seen.add(transfer.ID) {
			logutils.Log.WithFields(map[string]any{
				"reference": torrent.Reference.String(),
				"link":      truncate(link, 50),
			}).Warn("Link was a duplicate")
			dm.metrics.IncrementCounter(metricUploads, map[string]string{"result": "duplicate"})
			continue
		}

		retries := dm.settings.RetryBudget
		if retries <= 0 {
			retries = config.DefaultRetryBudget
		}
		task := &downloadTask{
			id:        uuid.NewString(),
			info:      info,
			reference: torrent.Reference,
			transfer:  *transfer,
			retries:   retries,
		}
		dm.enqueue(task)
		dm.metrics.IncrementCounter(metricUploads, map[string]string{"result": "accepted"})

		logutils.Log.WithFields(map[string]any{
			"task_id":     task.id,
			"show":        info.Show.Name,
			"reference":   torrent.Reference.String(),
			"transfer_id": transfer.ID,
		}).Info("Queued download")
		return
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
