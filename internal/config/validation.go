package config

import (
	"fmt"
	"os"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

func (c *Config) validate() error {
	if err := c.validateRequiredFields(); err != nil {
		return err
	}
	if err := c.validateProwlarr(); err != nil {
		return err
	}
	if err := c.validateDownloadSettings(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRequiredFields() error {
	var missingFields []string

	if c.DownloadPath == "" {
		missingFields = append(missingFields, "DOWNLOAD_PATH")
	}
	if c.Debrid.APIKey == "" {
		missingFields = append(missingFields, "DEBRID_API_KEY")
	}

	if len(missingFields) > 0 {
		return utils.WrapError(utils.ErrConfigurationError, "missing required settings", map[string]any{
			"missing_fields": missingFields,
		})
	}

	info, err := os.Stat(c.DownloadPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: DOWNLOAD_PATH is not a directory: %s", utils.ErrConfigurationError, c.DownloadPath)
	}

	return nil
}

func (c *Config) validateProwlarr() error {
	if (c.ProwlarrURL == "") != (c.ProwlarrAPIKey == "") {
		if c.ProwlarrURL == "" {
			return fmt.Errorf("%w: PROWLARR_URL is required when PROWLARR_API_KEY is set", utils.ErrConfigurationError)
		}
		return fmt.Errorf("%w: PROWLARR_API_KEY is required when PROWLARR_URL is set", utils.ErrConfigurationError)
	}
	return nil
}

func (c *Config) validateDownloadSettings() error {
	d := c.DownloadSettings
	if d.WorkersPerShow <= 0 {
		return fmt.Errorf("%w: WORKERS_PER_SHOW must be greater than 0", utils.ErrConfigurationError)
	}
	if d.RefreshInterval <= 0 {
		return fmt.Errorf("%w: REFRESH_INTERVAL must be positive", utils.ErrConfigurationError)
	}
	if d.RetryBudget < 0 {
		return fmt.Errorf("%w: RETRY_BUDGET cannot be negative", utils.ErrConfigurationError)
	}
	if d.SnapshotWaitAttempts < 0 || d.YieldDelay < 0 || d.PollPause < 0 || d.SnapshotWaitInterval < 0 {
		return fmt.Errorf("%w: download delays cannot be negative", utils.ErrConfigurationError)
	}
	if c.Debrid.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: DEBRID_REQUESTS_PER_SECOND cannot be negative", utils.ErrConfigurationError)
	}
	if d.UploadConcurrency < 0 {
		return fmt.Errorf("%w: UPLOAD_CONCURRENCY cannot be negative", utils.ErrConfigurationError)
	}
	if c.SearchSettings.MaxLinksPerTorrent <= 0 {
		return fmt.Errorf("%w: MAX_LINKS_PER_TORRENT must be greater than 0", utils.ErrConfigurationError)
	}
	return nil
}
