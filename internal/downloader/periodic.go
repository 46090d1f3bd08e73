package downloader

import (
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
)

// RunPeriodic calls fn every interval until done is closed.
func RunPeriodic(done <-chan struct{}, interval time.Duration, name string, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logutils.Log.WithField("interval", interval).Debugf("Starting periodic %s", name)

	for {
		select {
		case <-done:
			logutils.Log.Debugf("Stopping periodic %s", name)
			return
		case <-ticker.C:
			select {
			case <-done:
				logutils.Log.Debugf("Stopping periodic %s", name)
				return
			default:
			}
			fn()
		}
	}
}
