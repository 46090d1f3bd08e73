package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/database"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/debrid"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/downloader/manager"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/metadata"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/pkg/metrics"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/prowlarr"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/showmanager"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/shutdown"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/status"
)

type rootOptions struct {
	configFile    string
	downloadDir   string
	updateMissing bool
}

func newRootCommand() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:           "episode-fetcher [show...]",
		Short:         "Download missing TV episodes through a debrid service",
		Long:          "Resolves each show, compares the catalog with the download directory and fetches what is missing.\nWithout arguments every show directory below the download directory is processed.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &opts)
			if err != nil {
				return err
			}
			return runFetch(cmd.Context(), cfg, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Configuration file path (defaults to $CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVarP(&opts.downloadDir, "download-dir", "d", "", "Directory holding one folder per show")
	rootCmd.Flags().BoolVarP(&opts.updateMissing, "update-missing", "u", false, "Only fetch episodes newer than the latest one on disk")

	rootCmd.AddCommand(newHistoryCommand(&opts))
	return rootCmd
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	configFile := opts.configFile
	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	updateChanged := cmd.Flags().Lookup("update-missing") != nil && cmd.Flags().Changed("update-missing")

	cfg, err := config.LoadConfig(configFile, func(c *config.Config) {
		if opts.downloadDir != "" {
			c.DownloadPath = opts.downloadDir
		}
		if updateChanged {
			c.SearchSettings.UpdateMissing = opts.updateMissing
		}
	})
	if err != nil {
		return nil, err
	}

	logutils.InitLogger(cfg.LogLevel)
	logutils.Log.WithFields(map[string]any{
		"version":    Version,
		"build_time": BuildTime,
		"config":     cfg.String(),
	}).Debug("Configuration loaded")
	return cfg, nil
}

func runFetch(ctx context.Context, cfg *config.Config, args []string) error {
	db, err := database.NewDatabase(cfg)
	if err != nil {
		return err
	}

	client, err := debrid.New(cfg.Debrid, debrid.WithStuckTimeout(cfg.DownloadSettings.StuckTimeout))
	if err != nil {
		_ = db.Close()
		return err
	}
	stats := metrics.NewInMemoryMetrics()
	engine := manager.NewDownloadManager(client, cfg.GetDownloadSettings(),
		manager.WithHistory(db),
		manager.WithMetrics(stats),
	)

	var finder showmanager.Finder
	if cfg.ProwlarrURL != "" {
		finder = prowlarr.NewFinder(prowlarr.NewProwlarr(cfg.ProwlarrURL, cfg.ProwlarrAPIKey), cfg.SearchSettings.MaxLinksPerTorrent)
	} else {
		logutils.Log.Warn("PROWLARR_URL is not set, only transfers already on the debrid service will be used")
	}

	analyzer := status.NewAnalyzer(cfg.DownloadPath, status.WithUpdateMissing(cfg.SearchSettings.UpdateMissing))
	shows := showmanager.New(cfg.DownloadPath, metadata.NewTVMaze(cfg.TVMazeURL), analyzer, finder, engine)

	shutdownManager := shutdown.NewManager(shutdownTimeout(cfg.DownloadSettings))
	shutdownManager.Register(shutdown.NewCloserShutdown("download_manager", shows))
	shutdownManager.Register(shutdown.NewCloserShutdown("database", db))

	runCtx, cancel := shutdownManager.NotifyContext(ctx)
	defer cancel()

	logutils.Log.WithField("download_path", cfg.DownloadPath).Info("Episode fetcher started")
	manageErr := shows.Manage(runCtx, args)

	shutdownErr := shutdownManager.Shutdown()
	stats.LogSummary()
	if shutdownErr != nil && manageErr == nil {
		return shutdownErr
	}
	if manageErr == nil && runCtx.Err() != nil && ctx.Err() == nil {
		return context.Canceled
	}
	return manageErr
}
