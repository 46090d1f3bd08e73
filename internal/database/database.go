package database

import (
	"context"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

// HistoryWriter stores terminal download outcomes. The download manager depends on this subset.
type HistoryWriter interface {
	RecordOutcome(ctx context.Context, record *models.DownloadRecord) error
}

// HistoryReader is the read-only subset of the outcome history.
type HistoryReader interface {
	ListByShow(ctx context.Context, show string) ([]models.DownloadRecord, error)
	ListRecent(ctx context.Context, limit int) ([]models.DownloadRecord, error)
	CountByOutcome(ctx context.Context, show string) (map[models.Outcome]int64, error)
}

// Database is the full storage interface.
type Database interface {
	Init(config *config.Config) error
	HistoryWriter
	HistoryReader
	Close() error
}

func NewDatabase(config *config.Config) (Database, error) {
	database := NewSQLiteDatabase()
	if err := database.Init(config); err != nil {
		logutils.Log.WithError(err).Error("Failed to initialize the database")
		return nil, err
	}

	logutils.Log.Info("Database initialized successfully")
	return database, nil
}
