package downloader

import (
	"context"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

// Engine fetches a show's missing items through the debrid service.
type Engine interface {
	// DownloadFromCache reuses transfers already present on the service.
	DownloadFromCache(ctx context.Context, info *models.Information) error
	// Download uploads info.Torrents and blocks until the resulting tasks are finished or dropped.
	Download(ctx context.Context, info *models.Information) error
	Close() error
}
