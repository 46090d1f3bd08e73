package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

const (
	DefaultWorkersPerShow       = 5
	DefaultRefreshInterval      = 2 * time.Second
	DefaultSnapshotWaitAttempts = 10
	DefaultSnapshotWaitInterval = time.Second
	DefaultYieldDelay           = 100 * time.Millisecond
	DefaultPollPause            = 5 * time.Second
	DefaultRetryBudget          = 10
	DefaultStuckTimeout         = 6 * time.Hour
	DefaultRequestTimeout       = 30 * time.Second
	DefaultMaxLinksPerTorrent   = 5
	DefaultRequestsPerSecond    = 5

	DefaultDebridProvider = "premiumize"
	DefaultDebridURL      = "https://www.premiumize.me/api"
	DefaultTVMazeURL      = "https://api.tvmaze.com"
	DefaultDatabaseName   = "episode-fetcher.db"
)

type Config struct {
	DownloadPath string
	LogLevel     string
	DatabasePath string
	TVMazeURL    string

	ProwlarrURL    string
	ProwlarrAPIKey string

	Debrid           DebridConfig
	DownloadSettings DownloadConfig
	SearchSettings   SearchConfig
}

type DebridConfig struct {
	Provider       string
	URL            string
	APIKey         string
	RequestTimeout time.Duration

	// RequestsPerSecond throttles API calls to the service; 0 disables throttling.
	RequestsPerSecond int
}

// DownloadConfig tunes the orchestration engine.
type DownloadConfig struct {
	WorkersPerShow       int
	RefreshInterval      time.Duration
	SnapshotWaitAttempts int
	SnapshotWaitInterval time.Duration
	YieldDelay           time.Duration
	PollPause            time.Duration
	RetryBudget          int
	StuckTimeout         time.Duration
	UploadConcurrency    int
}

type SearchConfig struct {
	MaxLinksPerTorrent int
	UpdateMissing      bool
}

func DefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		WorkersPerShow:       DefaultWorkersPerShow,
		RefreshInterval:      DefaultRefreshInterval,
		SnapshotWaitAttempts: DefaultSnapshotWaitAttempts,
		SnapshotWaitInterval: DefaultSnapshotWaitInterval,
		YieldDelay:           DefaultYieldDelay,
		PollPause:            DefaultPollPause,
		RetryBudget:          DefaultRetryBudget,
		StuckTimeout:         DefaultStuckTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logutils.Log.WithField("key", key).Warn("Ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logutils.Log.WithField("key", key).Warn("Ignoring invalid duration in environment")
	}
	return defaultValue
}

func defaults() *Config {
	return &Config{
		LogLevel:  "info",
		TVMazeURL: DefaultTVMazeURL,
		Debrid: DebridConfig{
			Provider:          DefaultDebridProvider,
			URL:               DefaultDebridURL,
			RequestTimeout:    DefaultRequestTimeout,
			RequestsPerSecond: DefaultRequestsPerSecond,
		},
		DownloadSettings: DefaultDownloadConfig(),
		SearchSettings: SearchConfig{
			MaxLinksPerTorrent: DefaultMaxLinksPerTorrent,
		},
	}
}

// NewConfig builds the configuration from defaults, the optional CONFIG_FILE and the environment,
// in that order of precedence (environment wins).
func NewConfig() (*Config, error) {
	return LoadConfig(getEnv("CONFIG_FILE", ""))
}

// LoadConfig layers defaults, the optional TOML file, the environment and finally overrides, which
// carry command line flags.
func LoadConfig(configFile string, overrides ...func(*Config)) (*Config, error) {
	config := defaults()

	if configFile != "" {
		if err := config.applyFile(configFile); err != nil {
			return nil, utils.WrapError(err, "failed to read configuration file", map[string]any{
				"path": configFile,
			})
		}
	}

	config.applyEnv()
	for _, override := range overrides {
		override(config)
	}

	if config.DatabasePath == "" && config.DownloadPath != "" {
		config.DatabasePath = filepath.Join(config.DownloadPath, DefaultDatabaseName)
	}

	if err := config.validate(); err != nil {
		return nil, utils.WrapError(err, "configuration validation failed", nil)
	}

	logutils.Log.Debug("Configuration loaded successfully")
	return config, nil
}

func (c *Config) applyEnv() {
	c.DownloadPath = getEnv("DOWNLOAD_PATH", c.DownloadPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.TVMazeURL = getEnv("TVMAZE_URL", c.TVMazeURL)
	c.ProwlarrURL = getEnv("PROWLARR_URL", c.ProwlarrURL)
	c.ProwlarrAPIKey = getEnv("PROWLARR_API_KEY", c.ProwlarrAPIKey)

	c.Debrid.Provider = strings.ToLower(getEnv("DEBRID_PROVIDER", c.Debrid.Provider))
	c.Debrid.URL = getEnv("DEBRID_URL", c.Debrid.URL)
	c.Debrid.APIKey = getEnv("DEBRID_API_KEY", c.Debrid.APIKey)
	c.Debrid.RequestTimeout = getEnvDuration("DEBRID_REQUEST_TIMEOUT", c.Debrid.RequestTimeout)
	c.Debrid.RequestsPerSecond = getEnvInt("DEBRID_REQUESTS_PER_SECOND", c.Debrid.RequestsPerSecond)

	d := &c.DownloadSettings
	d.WorkersPerShow = getEnvInt("WORKERS_PER_SHOW", d.WorkersPerShow)
	d.RefreshInterval = getEnvDuration("REFRESH_INTERVAL", d.RefreshInterval)
	d.SnapshotWaitAttempts = getEnvInt("SNAPSHOT_WAIT_ATTEMPTS", d.SnapshotWaitAttempts)
	d.SnapshotWaitInterval = getEnvDuration("SNAPSHOT_WAIT_INTERVAL", d.SnapshotWaitInterval)
	d.YieldDelay = getEnvDuration("YIELD_DELAY", d.YieldDelay)
	d.PollPause = getEnvDuration("POLL_PAUSE", d.PollPause)
	d.RetryBudget = getEnvInt("RETRY_BUDGET", d.RetryBudget)
	d.StuckTimeout = getEnvDuration("STUCK_TIMEOUT", d.StuckTimeout)
	d.UploadConcurrency = getEnvInt("UPLOAD_CONCURRENCY", d.UploadConcurrency)

	c.SearchSettings.MaxLinksPerTorrent = getEnvInt("MAX_LINKS_PER_TORRENT", c.SearchSettings.MaxLinksPerTorrent)
	c.SearchSettings.UpdateMissing = getEnvBool("UPDATE_MISSING", c.SearchSettings.UpdateMissing)
}

func (c *Config) GetDownloadSettings() DownloadConfig {
	return c.DownloadSettings
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{DownloadPath:%s Debrid:%s Workers:%d Refresh:%v}",
		c.DownloadPath, c.Debrid.Provider, c.DownloadSettings.WorkersPerShow, c.DownloadSettings.RefreshInterval)
}
