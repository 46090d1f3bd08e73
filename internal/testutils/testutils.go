package testutils

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackpal/bencode-go"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

const testFileMode = 0o600

// TestDownloadConfig returns engine settings with short intervals for tests.
func TestDownloadConfig() config.DownloadConfig {
	return config.DownloadConfig{
		WorkersPerShow:       3,
		RefreshInterval:      20 * time.Millisecond,
		SnapshotWaitAttempts: 3,
		SnapshotWaitInterval: 5 * time.Millisecond,
		YieldDelay:           time.Millisecond,
		PollPause:            time.Millisecond,
		RetryBudget:          config.DefaultRetryBudget,
		StuckTimeout:         time.Hour,
	}
}

// TestConfig creates a configuration suitable for testing
func TestConfig(tempDir string) *config.Config {
	return &config.Config{
		DownloadPath:     tempDir,
		LogLevel:         "debug",
		DatabasePath:     filepath.Join(tempDir, config.DefaultDatabaseName),
		TVMazeURL:        config.DefaultTVMazeURL,
		Debrid:           config.DebridConfig{Provider: config.DefaultDebridProvider, URL: "http://localhost", APIKey: "test"},
		DownloadSettings: TestDownloadConfig(),
		SearchSettings:   config.SearchConfig{MaxLinksPerTorrent: config.DefaultMaxLinksPerTorrent},
	}
}

// TestShow builds a show whose episodes all aired at airDate.
func TestShow(name string, seasons, episodesPerSeason int, airDate time.Time) *models.Show {
	show := &models.Show{ID: 1, Name: name, Seasons: make(map[int]*models.Season)}
	for s := 1; s <= seasons; s++ {
		season := &models.Season{Number: s}
		for e := 1; e <= episodesPerSeason; e++ {
			season.Episodes = append(season.Episodes, models.Episode{Season: s, Number: e, AirDate: airDate})
		}
		show.Seasons[s] = season
	}
	return show
}

// TestInformation marks every episode of the show as missing.
func TestInformation(t *testing.T, show *models.Show) *models.Information {
	t.Helper()
	var episodes []models.Episode
	for _, n := range show.SeasonNumbers() {
		episodes = append(episodes, show.Seasons[n].Episodes...)
	}
	info := models.NewInformation(t.TempDir())
	info.Show = show
	info.Status = models.NewStatus(episodes, nil)
	return info
}

// CreateTestTorrent writes a minimal single-file torrent and returns its path and raw contents.
func CreateTestTorrent(t *testing.T, dir, name string) (string, []byte) {
	t.Helper()

	torrentMeta := map[string]any{
		"announce": "http://tracker.example.com:8080/announce",
		"info": map[string]any{
			"name":         name,
			"length":       int64(1024),
			"piece length": int64(16384),
			"pieces":       "12345678901234567890",
		},
	}

	torrentPath := filepath.Join(dir, name+".torrent")
	f, err := os.Create(torrentPath)
	if err != nil {
		t.Fatalf("Failed to create torrent file: %v", err)
	}
	if err := bencode.Marshal(f, torrentMeta); err != nil {
		f.Close()
		t.Fatalf("Failed to encode torrent: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close torrent file: %v", err)
	}

	data, err := os.ReadFile(torrentPath)
	if err != nil {
		t.Fatalf("Failed to read torrent file: %v", err)
	}
	return torrentPath, data
}

// CreateTestDataFile creates a file with the given content below dir.
func CreateTestDataFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(filePath, content, testFileMode); err != nil {
		t.Fatalf("Failed to create test data file: %v", err)
	}
	return filePath
}

// MockHTTPServer serves fixed bodies per path and 404 otherwise.
func MockHTTPServer(t *testing.T, contentType string, responses map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if response, exists := responses[r.URL.Path]; exists {
			w.Header().Set("Content-Type", contentType)
			if _, err := io.WriteString(w, response); err != nil {
				t.Errorf("Failed to write response: %v", err)
			}
			return
		}
		http.NotFound(w, r)
	}))

	t.Cleanup(server.Close)
	return server
}
