package showmanager

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/downloader"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/filemanager"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

type Resolver interface {
	Resolve(ctx context.Context, argument string) (*models.Show, error)
}

type Analyzer interface {
	Analyze(show *models.Show) (*models.Status, error)
}

type Finder interface {
	Find(ctx context.Context, info *models.Information) ([]models.Torrent, error)
}

// ShowManager runs the whole pipeline for a set of shows sharing one engine. A nil finder limits it
// to transfers already on the debrid service.
type ShowManager struct {
	downloadDir string
	resolver    Resolver
	analyzer    Analyzer
	finder      Finder
	engine      downloader.Engine
}

func New(downloadDir string, resolver Resolver, analyzer Analyzer, finder Finder, engine downloader.Engine) *ShowManager {
	return &ShowManager{
		downloadDir: downloadDir,
		resolver:    resolver,
		analyzer:    analyzer,
		finder:      finder,
		engine:      engine,
	}
}

// Manage processes every argument concurrently. Without arguments the show directories already in
// the download directory are used. Failures of one show never stop the others.
func (m *ShowManager) Manage(ctx context.Context, args []string) error {
	if len(args) == 0 {
		dirs, err := filemanager.ListDirectories(m.downloadDir)
		if err != nil {
			return fmt.Errorf("failed to list shows in %s: %w", m.downloadDir, err)
		}
		args = dirs
	}
	if len(args) == 0 {
		logutils.Log.Warnf("No shows to manage in %s", m.downloadDir)
		return nil
	}

	var failed atomic.Int32
	var g errgroup.Group
	for _, arg := range args {
		arg := arg
		g.Go(func() error {
			if err := m.manageShow(ctx, arg); err != nil {
				failed.Add(1)
				logutils.Log.WithError(err).WithField("show", arg).Error("Show processing failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	logutils.Log.WithFields(map[string]any{
		"shows":  len(args),
		"failed": failed.Load(),
	}).Info("All shows processed")
	return nil
}

func (m *ShowManager) manageShow(ctx context.Context, arg string) error {
	show, err := m.resolver.Resolve(ctx, arg)
	if err != nil {
		return err
	}
	status, err := m.analyzer.Analyze(show)
	if err != nil {
		return err
	}

	info := models.NewInformation(m.downloadDir)
	info.Show = show
	info.Status = status
	log := logutils.Log.WithField("show", show.Name)

	if status.Empty() {
		log.Info("Show is up to date")
		return nil
	}
	log.WithField("status", status.String()).Info("Show has missing items")

	if err := m.engine.DownloadFromCache(ctx, info); err != nil {
		return err
	}
	if status.Empty() {
		log.Info("Show completed from cached transfers")
		return nil
	}

	if m.finder == nil {
		log.WithField("status", status.String()).Warn("No release finder configured, only cached transfers are used")
		return nil
	}
	torrents, err := m.finder.Find(ctx, info)
	if err != nil {
		return err
	}
	if len(torrents) == 0 {
		log.WithField("status", status.String()).Warn("No releases found for missing items")
		return nil
	}
	info.Torrents = torrents

	if err := m.engine.Download(ctx, info); err != nil {
		return err
	}
	log.WithField("status", status.String()).Info("Show processed")
	return nil
}

func (m *ShowManager) Close() error {
	return m.engine.Close()
}
