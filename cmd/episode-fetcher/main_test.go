package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

type fakeHistory struct {
	records []models.DownloadRecord
	counts  map[models.Outcome]int64
	limit   int
	show    string
}

func (h *fakeHistory) ListByShow(_ context.Context, show string) ([]models.DownloadRecord, error) {
	h.show = show
	return h.records, nil
}

func (h *fakeHistory) ListRecent(_ context.Context, limit int) ([]models.DownloadRecord, error) {
	h.limit = limit
	return h.records, nil
}

func (h *fakeHistory) CountByOutcome(_ context.Context, _ string) (map[models.Outcome]int64, error) {
	return h.counts, nil
}

func TestPrintHistory(t *testing.T) {
	history := &fakeHistory{
		records: []models.DownloadRecord{
			{Show: "Show", Reference: "S01E02", Outcome: models.OutcomeDownloaded, Transfer: "Show.S01E02", CreatedAt: time.Now()},
			{Show: "Show", Reference: "S01", Outcome: models.OutcomeLost, Retries: 0, Message: "transfer disappeared", CreatedAt: time.Now()},
		},
		counts: map[models.Outcome]int64{models.OutcomeDownloaded: 1, models.OutcomeLost: 1},
	}

	var out bytes.Buffer
	if err := printHistory(context.Background(), &out, history, "Show", 10); err != nil {
		t.Fatalf("printHistory() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{"S01E02", "transfer disappeared", "downloaded", "lost"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(strings.ToUpper(text), "SUCCEEDED") {
		t.Errorf("output missing the success total:\n%s", text)
	}
	if history.show != "Show" {
		t.Errorf("ListByShow called with %q", history.show)
	}
}

func TestPrintHistoryRecent(t *testing.T) {
	history := &fakeHistory{}
	var out bytes.Buffer
	if err := printHistory(context.Background(), &out, history, "", 5); err != nil {
		t.Fatalf("printHistory() error = %v", err)
	}
	if history.limit != 5 {
		t.Errorf("ListRecent limit = %d, want 5", history.limit)
	}
	if !strings.Contains(out.String(), "No download history") {
		t.Errorf("output = %q", out.String())
	}
}

func TestShutdownTimeout(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		want     time.Duration
	}{
		{"Configured interval", time.Second, 8 * time.Second},
		{"Default interval", 0, 3*config.DefaultRefreshInterval + 5*time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shutdownTimeout(config.DownloadConfig{RefreshInterval: tt.interval})
			if got != tt.want {
				t.Errorf("shutdownTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"config", "download-dir"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
	if cmd.Flags().Lookup("update-missing") == nil {
		t.Error("missing flag --update-missing")
	}
	if sub, _, err := cmd.Find([]string{"history"}); err != nil || sub.Name() != "history" {
		t.Errorf("history subcommand not registered: %v", err)
	}
}
