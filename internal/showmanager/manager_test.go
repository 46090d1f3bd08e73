package showmanager

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/debrid"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/downloader/manager"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/status"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/testutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

var airDate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	logutils.InitLogger("error")
	logutils.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeResolver struct {
	mu    sync.Mutex
	shows map[string]*models.Show
	args  []string
}

func (r *fakeResolver) Resolve(_ context.Context, argument string) (*models.Show, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.args = append(r.args, argument)
	show, ok := r.shows[argument]
	if !ok {
		return nil, utils.ErrShowNotFound
	}
	return show, nil
}

type fakeFinder struct {
	mu       sync.Mutex
	torrents []models.Torrent
	calls    int
}

func (f *fakeFinder) Find(_ context.Context, _ *models.Information) ([]models.Torrent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.torrents, nil
}

type fakeEngine struct {
	mu        sync.Mutex
	cached    int
	downloads int
	closed    int
}

func (e *fakeEngine) DownloadFromCache(context.Context, *models.Information) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cached++
	return nil
}

func (e *fakeEngine) Download(context.Context, *models.Information) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.downloads++
	return nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed++
	return nil
}

func writeEpisode(t *testing.T, root string, show *models.Show, season int, name string) {
	t.Helper()
	dir := filepath.Join(root, show.StorageName(), models.SeasonDirName(season))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func seasonFile(root string, show *models.Show, season int, name string) string {
	return filepath.Join(root, show.StorageName(), models.SeasonDirName(season), name)
}

func newEngine(t *testing.T, client debrid.Client) *manager.DownloadManager {
	t.Helper()
	dm := manager.NewDownloadManager(client, testutils.TestDownloadConfig())
	t.Cleanup(func() { _ = dm.Close() })
	return dm
}

func TestManage_CompletesFromCache(t *testing.T) {
	root := t.TempDir()
	show := testutils.TestShow("Show", 1, 2, airDate)
	writeEpisode(t, root, show, 1, "Show.S01E01.mkv")

	client := testutils.NewMockDebridClient()
	client.AddTransfer(&testutils.MockTransfer{
		Transfer: debrid.Transfer{ID: "cached", Name: "Show.S01E02.1080p", Status: debrid.StatusFinished},
	})
	finder := &fakeFinder{}
	sm := New(root, &fakeResolver{shows: map[string]*models.Show{"Show": show}}, status.NewAnalyzer(root), finder, newEngine(t, client))

	if err := sm.Manage(context.Background(), []string{"Show"}); err != nil {
		t.Fatalf("Manage() error = %v", err)
	}

	if finder.calls != 0 {
		t.Errorf("finder called %d times, want 0", finder.calls)
	}
	if _, err := os.Stat(seasonFile(root, show, 1, "Show.S01E02.1080p.mkv")); err != nil {
		t.Errorf("cached episode not downloaded: %v", err)
	}
}

func TestManage_DownloadsFoundReleases(t *testing.T) {
	root := t.TempDir()
	show := testutils.TestShow("Show", 1, 2, airDate)
	writeEpisode(t, root, show, 1, "Show.S01E01.mkv")

	client := testutils.NewMockDebridClient()
	client.AddTransfer(&testutils.MockTransfer{
		Transfer: debrid.Transfer{ID: "t-e2", Name: "release-e2", Status: debrid.StatusFinished},
	}, "magnet:e2")
	finder := &fakeFinder{torrents: []models.Torrent{{
		Reference: models.Reference{Kind: models.EpisodeRef, Season: 1, Episode: 2},
		Links:     []string{"magnet:e2"},
	}}}
	resolver := &fakeResolver{shows: map[string]*models.Show{"Show": show}}
	sm := New(root, resolver, status.NewAnalyzer(root), finder, newEngine(t, client))

	if err := sm.Manage(context.Background(), []string{"Show", "Broken"}); err != nil {
		t.Fatalf("Manage() error = %v, failures of one show must not surface", err)
	}

	if finder.calls != 1 {
		t.Errorf("finder called %d times, want 1", finder.calls)
	}
	if _, err := os.Stat(seasonFile(root, show, 1, "release-e2.mkv")); err != nil {
		t.Errorf("found release not downloaded: %v", err)
	}
	if got := client.DeletedIDs(); len(got) != 1 || got[0] != "t-e2" {
		t.Errorf("deleted = %v, want [t-e2]", got)
	}
}

func TestManage_UpToDateShowSkipsEngine(t *testing.T) {
	root := t.TempDir()
	show := testutils.TestShow("Show", 1, 2, airDate)
	writeEpisode(t, root, show, 1, "Show.S01E01.mkv")
	writeEpisode(t, root, show, 1, "Show.S01E02.mkv")

	engine := &fakeEngine{}
	finder := &fakeFinder{}
	sm := New(root, &fakeResolver{shows: map[string]*models.Show{"Show": show}}, status.NewAnalyzer(root), finder, engine)

	if err := sm.Manage(context.Background(), []string{"Show"}); err != nil {
		t.Fatalf("Manage() error = %v", err)
	}
	if engine.cached != 0 || engine.downloads != 0 || finder.calls != 0 {
		t.Errorf("engine cached=%d downloads=%d finder=%d, want all zero", engine.cached, engine.downloads, finder.calls)
	}
}

func TestManage_NoReleasesSkipsDownload(t *testing.T) {
	root := t.TempDir()
	show := testutils.TestShow("Show", 1, 2, airDate)
	engine := &fakeEngine{}
	finder := &fakeFinder{}
	sm := New(root, &fakeResolver{shows: map[string]*models.Show{"Show": show}}, status.NewAnalyzer(root), finder, engine)

	if err := sm.Manage(context.Background(), []string{"Show"}); err != nil {
		t.Fatalf("Manage() error = %v", err)
	}
	if engine.cached != 1 || finder.calls != 1 || engine.downloads != 0 {
		t.Errorf("engine cached=%d downloads=%d finder=%d, want 1, 0, 1", engine.cached, engine.downloads, finder.calls)
	}
}

func TestManage_UsesExistingShowDirectories(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"Show (2019)", "Other", ".hidden"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	resolver := &fakeResolver{}
	sm := New(root, resolver, status.NewAnalyzer(root), &fakeFinder{}, &fakeEngine{})
	if err := sm.Manage(context.Background(), nil); err != nil {
		t.Fatalf("Manage() error = %v", err)
	}

	sort.Strings(resolver.args)
	if len(resolver.args) != 2 || resolver.args[0] != "Other" || resolver.args[1] != "Show (2019)" {
		t.Errorf("resolved %v, want [Other Show (2019)]", resolver.args)
	}
}

func TestManage_MissingDownloadDirectory(t *testing.T) {
	sm := New(filepath.Join(t.TempDir(), "missing"), &fakeResolver{}, status.NewAnalyzer(""), &fakeFinder{}, &fakeEngine{})
	if err := sm.Manage(context.Background(), nil); err == nil {
		t.Error("Manage() without a download directory should fail")
	}
}

func TestClose(t *testing.T) {
	engine := &fakeEngine{}
	sm := New(t.TempDir(), &fakeResolver{}, status.NewAnalyzer(""), &fakeFinder{}, engine)
	if err := sm.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if engine.closed != 1 {
		t.Errorf("engine closed %d times, want 1", engine.closed)
	}
}


func TestManage_WithoutFinderUsesCacheOnly(t *testing.T) {
	root := t.TempDir()
	show := testutils.TestShow("Show", 1, 2, airDate)
	engine := &fakeEngine{}
	sm := New(root, &fakeResolver{shows: map[string]*models.Show{"Show": show}}, status.NewAnalyzer(root), nil, engine)

	if err := sm.Manage(context.Background(), []string{"Show"}); err != nil {
		t.Fatalf("Manage() error = %v", err)
	}
	if engine.cached != 1 || engine.downloads != 0 {
		t.Errorf("engine cached=%d downloads=%d, want 1, 0", engine.cached, engine.downloads)
	}
}
