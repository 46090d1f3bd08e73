package database

import (
	"context"
	"fmt"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

func (s *SQLiteDatabase) RecordOutcome(ctx context.Context, record *models.DownloadRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to record outcome for %s %s: %w", record.Show, record.Reference, err)
	}

	logutils.Log.WithFields(map[string]any{
		"show":      record.Show,
		"reference": record.Reference,
		"outcome":   record.Outcome.String(),
	}).Debug("Recorded download outcome")
	return nil
}

func (s *SQLiteDatabase) ListByShow(ctx context.Context, show string) ([]models.DownloadRecord, error) {
	var records []models.DownloadRecord
	result := s.db.WithContext(ctx).
		Where("show = ?", show).
		Order("created_at ASC, id ASC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list history for %s: %w", show, result.Error)
	}
	return records, nil
}

func (s *SQLiteDatabase) ListRecent(ctx context.Context, limit int) ([]models.DownloadRecord, error) {
	var records []models.DownloadRecord
	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent history: %w", err)
	}
	return records, nil
}

func (s *SQLiteDatabase) CountByOutcome(ctx context.Context, show string) (map[models.Outcome]int64, error) {
	var rows []struct {
		Outcome models.Outcome
		Count   int64
	}
	result := s.db.WithContext(ctx).
		Model(&models.DownloadRecord{}).
		Select("outcome, COUNT(*) AS count").
		Where("show = ?", show).
		Group("outcome").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to count outcomes for %s: %w", show, result.Error)
	}

	counts := make(map[models.Outcome]int64, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Count
	}
	return counts, nil
}
