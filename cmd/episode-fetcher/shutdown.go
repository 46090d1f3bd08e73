package main

import (
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
)

// shutdownTimeout leaves room for the engine's own bounded waits on the refresher and the workers.
func shutdownTimeout(settings config.DownloadConfig) time.Duration {
	interval := settings.RefreshInterval
	if interval <= 0 {
		interval = config.DefaultRefreshInterval
	}
	return 3*interval + 5*time.Second
}
