package status

import (
	"fmt"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/filemanager"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/release"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/timeutil"
)

// Analyzer compares a show catalog with what is on disk.
type Analyzer struct {
	downloadDir   string
	updateMissing bool
	clock         timeutil.TimeProvider
}

type Option func(*Analyzer)

// WithUpdateMissing limits the result to episodes newer than the latest one already on disk.
func WithUpdateMissing(enabled bool) Option {
	return func(a *Analyzer) {
		a.updateMissing = enabled
	}
}

func WithClock(clock timeutil.TimeProvider) Option {
	return func(a *Analyzer) {
		a.clock = clock
	}
}

func NewAnalyzer(downloadDir string, opts ...Option) *Analyzer {
	a := &Analyzer{
		downloadDir: downloadDir,
		clock:       timeutil.NewSystemTimeProvider(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type seasonScan struct {
	season  *models.Season
	aired   []models.Episode
	present map[int]bool
}

// Analyze lists aired episodes that have no file in their season directory. Seasons with nothing on
// disk whose episodes have all aired are reported as whole seasons instead.
func (a *Analyzer) Analyze(show *models.Show) (*models.Status, error) {
	now := a.clock.Now()

	scans := make([]seasonScan, 0, len(show.Seasons))
	latest := models.Reference{}
	for _, number := range show.SeasonNumbers() {
		season := show.Seasons[number]
		dir, err := show.SeasonDirectory(a.downloadDir, season.Ref())
		if err != nil {
			return nil, err
		}
		// Partial files of an interrupted run are never resumed.
		filemanager.RemovePartialFiles(dir)
		files, err := filemanager.ListVideoFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}

		scan := seasonScan{
			season:  season,
			aired:   season.AiredEpisodes(now),
			present: make(map[int]bool),
		}
		for _, e := range season.Episodes {
			if !hasFile(files, e) {
				continue
			}
			scan.present[e.Number] = true
			if isAfter(e.Ref(), latest) {
				latest = e.Ref()
			}
		}
		scans = append(scans, scan)
	}

	var (
		episodes []models.Episode
		seasons  []*models.Season
	)
	for _, scan := range scans {
		if len(scan.aired) == 0 {
			continue
		}
		if a.updateMissing && latest.Season > 0 && scan.season.Number < latest.Season {
			continue
		}
		complete := len(scan.aired) == len(scan.season.Episodes)
		if len(scan.present) == 0 && complete && (!a.updateMissing || scan.season.Number > latest.Season) {
			seasons = append(seasons, scan.season)
			continue
		}
		for _, e := range scan.aired {
			if scan.present[e.Number] {
				continue
			}
			if a.updateMissing && latest.Season > 0 && !isAfter(e.Ref(), latest) {
				continue
			}
			episodes = append(episodes, e)
		}
	}

	result := models.NewStatus(episodes, seasons)
	logutils.Log.WithFields(map[string]any{
		"show":   show.Name,
		"status": result.String(),
	}).Info("Analyzed show on disk")
	return result, nil
}

func hasFile(files []string, e models.Episode) bool {
	for _, f := range files {
		if release.MatchesEpisode(f, e) {
			return true
		}
	}
	return false
}

func isAfter(a, b models.Reference) bool {
	if a.Season != b.Season {
		return a.Season > b.Season
	}
	return a.Episode > b.Episode
}
