package manager

import (
	"context"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/debrid"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/downloader"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/release"
)

// DownloadFromCache downloads missing items from finished transfers already present on the service.
// Each reused item is removed from info.Status.
func (dm *DownloadManager) DownloadFromCache(ctx context.Context, info *models.Information) error {
	if dm.isClosed() {
		return downloader.ErrEngineClosed
	}
	dm.ensureRefresher(ctx)

	for _, transfer := range dm.Transfers() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !release.MatchesShow(transfer.Name, info.Show.Name) {
			continue
		}
		if !transfer.IsFinished() {
			logutils.Log.WithFields(map[string]any{
				"show":     info.Show.Name,
				"transfer": transfer.Name,
				"status":   transfer.StatusMessage(),
			}).Debug("Cached transfer is not finished yet")
			continue
		}
		dm.reuseTransfer(ctx, info, transfer)
	}

	logutils.Log.WithFields(map[string]any{
		"show":    info.Show.Name,
		"missing": info.Status.Len(),
	}).Debug("Cache reuse done")
	return nil
}

// reuseTransfer serves at most one missing item from transfer, episodes first.
func (dm *DownloadManager) reuseTransfer(ctx context.Context, info *models.Information, transfer debrid.Transfer) {
	for _, episode := range info.Status.EpisodesMissing() {
		if release.MatchesEpisode(transfer.Name, episode) {
			logutils.Log.WithFields(map[string]any{
				"episode":  episode.String(),
				"transfer": transfer.Name,
			}).Info("Found episode in transfer")
			if dm.reuse(ctx, info, episode.Ref(), transfer) {
				return
			}
		}
	}

	for _, season := range info.Status.SeasonsMissing() {
		if release.MatchesSeason(transfer.Name, season) {
			logutils.Log.WithFields(map[string]any{
				"season":   season.Number,
				"transfer": transfer.Name,
			}).Info("Found season in transfer")
			if dm.reuse(ctx, info, season.Ref(), transfer) {
				return
			}
		}
	}
}

func (dm *DownloadManager) reuse(ctx context.Context, info *models.Information, ref models.Reference, transfer debrid.Transfer) bool {
	if err := dm.fetchTransfer(ctx, info, ref, transfer); err != nil {
		logutils.Log.WithError(err).WithFields(map[string]any{
			"show":      info.Show.Name,
			"reference": ref.String(),
		}).Warn("Failed to reuse cached transfer")
		return false
	}
	info.Status.Remove(ref)
	dm.recordOutcome(&models.DownloadRecord{
		Show:       info.Show.Name,
		Reference:  ref.String(),
		TransferID: transfer.ID,
		Transfer:   transfer.Name,
		Outcome:    models.OutcomeCached,
	})
	return true
}
