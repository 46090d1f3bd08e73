package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type fileConfig struct {
	DownloadPath string `toml:"download_path"`
	LogLevel     string `toml:"log_level"`
	DatabasePath string `toml:"database_path"`
	TVMazeURL    string `toml:"tvmaze_url"`

	Prowlarr struct {
		URL    string `toml:"url"`
		APIKey string `toml:"api_key"`
	} `toml:"prowlarr"`

	Debrid struct {
		Provider          string `toml:"provider"`
		URL               string `toml:"url"`
		APIKey            string `toml:"api_key"`
		RequestTimeout    string `toml:"request_timeout"`
		RequestsPerSecond *int   `toml:"requests_per_second"`
	} `toml:"debrid"`

	Download struct {
		WorkersPerShow       *int   `toml:"workers_per_show"`
		RefreshInterval      string `toml:"refresh_interval"`
		SnapshotWaitAttempts *int   `toml:"snapshot_wait_attempts"`
		SnapshotWaitInterval string `toml:"snapshot_wait_interval"`
		YieldDelay           string `toml:"yield_delay"`
		PollPause            string `toml:"poll_pause"`
		RetryBudget          *int   `toml:"retry_budget"`
		StuckTimeout         string `toml:"stuck_timeout"`
		UploadConcurrency    *int   `toml:"upload_concurrency"`
	} `toml:"download"`

	Search struct {
		MaxLinksPerTorrent *int  `toml:"max_links_per_torrent"`
		UpdateMissing      *bool `toml:"update_missing"`
	} `toml:"search"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	setString(&c.DownloadPath, fc.DownloadPath)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.DatabasePath, fc.DatabasePath)
	setString(&c.TVMazeURL, fc.TVMazeURL)
	setString(&c.ProwlarrURL, fc.Prowlarr.URL)
	setString(&c.ProwlarrAPIKey, fc.Prowlarr.APIKey)
	setString(&c.Debrid.Provider, fc.Debrid.Provider)
	setString(&c.Debrid.URL, fc.Debrid.URL)
	setString(&c.Debrid.APIKey, fc.Debrid.APIKey)
	setInt(&c.Debrid.RequestsPerSecond, fc.Debrid.RequestsPerSecond)

	d := &c.DownloadSettings
	setInt(&d.WorkersPerShow, fc.Download.WorkersPerShow)
	setInt(&d.SnapshotWaitAttempts, fc.Download.SnapshotWaitAttempts)
	setInt(&d.RetryBudget, fc.Download.RetryBudget)
	setInt(&d.UploadConcurrency, fc.Download.UploadConcurrency)
	setInt(&c.SearchSettings.MaxLinksPerTorrent, fc.Search.MaxLinksPerTorrent)
	if fc.Search.UpdateMissing != nil {
		c.SearchSettings.UpdateMissing = *fc.Search.UpdateMissing
	}

	durations := []struct {
		key   string
		raw   string
		field *time.Duration
	}{
		{"debrid.request_timeout", fc.Debrid.RequestTimeout, &c.Debrid.RequestTimeout},
		{"download.refresh_interval", fc.Download.RefreshInterval, &d.RefreshInterval},
		{"download.snapshot_wait_interval", fc.Download.SnapshotWaitInterval, &d.SnapshotWaitInterval},
		{"download.yield_delay", fc.Download.YieldDelay, &d.YieldDelay},
		{"download.poll_pause", fc.Download.PollPause, &d.PollPause},
		{"download.stuck_timeout", fc.Download.StuckTimeout, &d.StuckTimeout},
	}
	for _, item := range durations {
		if item.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(item.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", item.key, err)
		}
		*item.field = parsed
	}

	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setInt(dst *int, value *int) {
	if value != nil {
		*dst = *value
	}
}
