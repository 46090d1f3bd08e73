package manager

import (
	"context"
	"fmt"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/debrid"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/filemanager"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

// worker processes tasks until the queue is empty, ctx is cancelled or a cycle panics.
func (dm *DownloadManager) worker(ctx context.Context, id int) {
	log := logutils.Log.WithField("worker", id)
	for {
		if ctx.Err() != nil {
			log.Debug("Worker was cancelled")
			return
		}
		task, ok := dm.tryDequeue()
		if !ok {
			log.Debug("Download queue is empty, work is finished")
			return
		}
		if !dm.runCycle(ctx, id, task) {
			return
		}
	}
}

func (dm *DownloadManager) runCycle(ctx context.Context, workerID int, task *downloadTask) (keepRunning bool) {
	defer func() {
		if r := recover(); r != nil {
			logutils.Log.WithFields(map[string]any{
				"worker":    workerID,
				"task_id":   task.id,
				"reference": task.reference.String(),
			}).Errorf("Worker got exception: %v", r)
			keepRunning = false
		}
	}()

	// Let other workers observe the queue before this task is handled.
	if !dm.sleep(ctx, dm.settings.YieldDelay) {
		dm.enqueue(task)
		return false
	}

	if task.startedAt.IsZero() {
		task.startedAt = dm.clock.Now()
	}

	transfer := debrid.Find(dm.Transfers(), task.transfer.ID)
	state := dm.client.Classify(transfer, task.startedAt)
	if state == debrid.Finished && transfer == nil {
		state = debrid.Unresolvable
	}

	var requeue bool
	switch state {
	case debrid.Finished:
		requeue = dm.handleFinished(ctx, task, *transfer)
	case debrid.Running:
		requeue = dm.handleRunning(task, transfer)
	case debrid.Unresolvable:
		logutils.Log.WithFields(map[string]any{
			"show":        task.info.Show.Name,
			"reference":   task.reference.String(),
			"transfer_id": task.transfer.ID,
			"retries":     task.retries,
		}).Warn("Torrent not found anymore")
		requeue = dm.consumeRetry(task, models.OutcomeLost, "transfer not found in snapshot")
	case debrid.RemoteError:
		message := task.transfer.Message
		name := task.transfer.Name
		if transfer != nil {
			message = transfer.Message
			name = transfer.Name
		}
		logutils.Log.WithFields(map[string]any{
			"show":      task.info.Show.Name,
			"reference": task.reference.String(),
			"transfer":  name,
		}).Errorf("Error torrenting: %s", message)
		dm.record(task, models.OutcomeRemoteError, message)
	}

	if requeue {
		dm.enqueue(task)
	}

	return dm.sleep(ctx, dm.settings.PollPause)
}

// handleRunning requeues without touching the retry budget. transfer may be nil when the client
// classified an absent transfer as running.
func (dm *DownloadManager) handleRunning(task *downloadTask, transfer *debrid.Transfer) bool {
	status := "running"
	if transfer != nil {
		status = transfer.StatusMessage()
	}
	logutils.Log.WithFields(map[string]any{
		"show":      task.info.Show.Name,
		"reference": task.reference.String(),
	}).Debug(status)
	return true
}

func (dm *DownloadManager) handleFinished(ctx context.Context, task *downloadTask, transfer debrid.Transfer) bool {
	if err := dm.fetchTransfer(ctx, task.info, task.reference, transfer); err != nil {
		if ctx.Err() != nil {
			logutils.Log.WithFields(map[string]any{
				"show":      task.info.Show.Name,
				"reference": task.reference.String(),
			}).Info("Download interrupted by shutdown")
			return true
		}
		logutils.Log.WithError(err).WithFields(map[string]any{
			"show":      task.info.Show.Name,
			"reference": task.reference.String(),
			"retries":   task.retries,
		}).Warn("Download of finished transfer failed")
		return dm.consumeRetry(task, models.OutcomeFailed, err.Error())
	}

	task.info.Status.Remove(task.reference)
	dm.record(task, models.OutcomeDownloaded, "")
	logutils.Log.WithFields(map[string]any{
		"show":      task.info.Show.Name,
		"reference": task.reference.String(),
	}).Info("Finished downloading")
	return false
}

// fetchTransfer downloads a finished transfer into the reference's season directory and removes it
// from the service.
func (dm *DownloadManager) fetchTransfer(
	ctx context.Context,
	info *models.Information,
	ref models.Reference,
	transfer debrid.Transfer,
) error {
	dir, err := info.Show.SeasonDirectory(info.DownloadDirectory, ref)
	if err != nil {
		return err
	}
	if err := filemanager.EnsureDir(dir); err != nil {
		return err
	}
	started := dm.clock.Now()
	if err := dm.client.DownloadFile(ctx, transfer, dir); err != nil {
		dm.metrics.RecordDuration(metricFetch, dm.clock.Now().Sub(started), map[string]string{"result": "failed"})
		return fmt.Errorf("downloading %s: %w", transfer.Name, err)
	}
	dm.metrics.RecordDuration(metricFetch, dm.clock.Now().Sub(started), map[string]string{"result": "ok"})

	logutils.Log.WithField("transfer", transfer.Name).Info("Cleaning up")
	if err := dm.client.Delete(ctx, transfer); err != nil {
		logutils.Log.WithError(err).WithField("transfer_id", transfer.ID).Warn("Failed to delete finished transfer")
	}
	return nil
}

// consumeRetry spends one retry. It reports whether the task should be requeued; when the budget is
// exhausted the task is recorded with outcome and dropped.
func (dm *DownloadManager) consumeRetry(task *downloadTask, outcome models.Outcome, message string) bool {
	if task.retries > 0 {
		task.retries--
	}
	if task.retries > 0 {
		return true
	}
	logutils.Log.WithFields(map[string]any{
		"show":      task.info.Show.Name,
		"reference": task.reference.String(),
		"outcome":   outcome.String(),
	}).Error("Download was not downloadable, giving up")
	dm.record(task, outcome, message)
	return false
}

func (dm *DownloadManager) record(task *downloadTask, outcome models.Outcome, message string) {
	dm.recordOutcome(&models.DownloadRecord{
		TaskID:     task.id,
		Show:       task.info.Show.Name,
		Reference:  task.reference.String(),
		TransferID: task.transfer.ID,
		Transfer:   task.transfer.Name,
		Outcome:    outcome,
		Retries:    task.retries,
		Message:    message,
	})
}

func (dm *DownloadManager) recordOutcome(rec *models.DownloadRecord) {
	dm.metrics.IncrementCounter(metricOutcomes, map[string]string{"outcome": rec.Outcome.String()})
	if dm.history == nil {
		return
	}
	if err := dm.history.RecordOutcome(context.Background(), rec); err != nil {
		logutils.Log.WithError(err).WithField("reference", rec.Reference).Warn("Failed to record download outcome")
	}
}
