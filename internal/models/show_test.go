package models

import (
	"path/filepath"
	"testing"
	"time"
)

func TestEpisodePattern(t *testing.T) {
	ep := Episode{Season: 1, Number: 2}

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"Standard tag", "Show.Name.S01E02.1080p.WEB.mkv", true},
		{"Lowercase short", "show name s1e2 720p.mp4", true},
		{"Cross notation", "Show Name - 1x02 - Title.avi", true},
		{"Separator between season and episode", "Show.S01.E02.mkv", true},
		{"Other episode", "Show.Name.S01E12.mkv", false},
		{"Other season", "Show.Name.S11E02.mkv", false},
		{"Episode prefix of longer number", "Show.Name.S01E020.mkv", false},
		{"Season pack", "Show.Name.S01.1080p", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ep.Pattern().MatchString(tt.input); got != tt.want {
				t.Errorf("Pattern().MatchString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSeasonPattern(t *testing.T) {
	season := &Season{Number: 1}

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"Pack tag", "Show.Name.S01.1080p.WEB", true},
		{"Pack at end", "Show Name S1", true},
		{"Spelled out", "Show Name Season 1 Complete", true},
		{"Single episode", "Show.Name.S01E02.mkv", false},
		{"Other season", "Show.Name.S10.1080p", false},
		{"No tag", "Show.Name.1080p", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := season.Pattern().MatchString(tt.input); got != tt.want {
				t.Errorf("Pattern().MatchString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEpisodeAired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if (Episode{}).Aired(now) {
		t.Error("episode without air date should not count as aired")
	}
	if !(Episode{AirDate: now.Add(-time.Hour)}).Aired(now) {
		t.Error("episode in the past should count as aired")
	}
	if (Episode{AirDate: now.Add(time.Hour)}).Aired(now) {
		t.Error("episode in the future should not count as aired")
	}
}

func TestReferenceString(t *testing.T) {
	if got := (Reference{Kind: EpisodeRef, Season: 3, Episode: 7}).String(); got != "S03E07" {
		t.Errorf("episode reference = %q, want S03E07", got)
	}
	if got := (Reference{Kind: SeasonRef, Season: 12}).String(); got != "S12" {
		t.Errorf("season reference = %q, want S12", got)
	}
}

func TestShowSeasonDirectory(t *testing.T) {
	show := &Show{
		Name: "Some: Show",
		Year: 2019,
		Seasons: map[int]*Season{
			1: {Number: 1},
			2: {Number: 2},
		},
	}

	tests := []struct {
		name    string
		ref     Reference
		want    string
		wantErr bool
	}{
		{"Season reference", Reference{Kind: SeasonRef, Season: 2}, filepath.Join("/data", "Some Show (2019)", "Season 02"), false},
		{"Episode reference resolves to parent season", Reference{Kind: EpisodeRef, Season: 1, Episode: 4}, filepath.Join("/data", "Some Show (2019)", "Season 01"), false},
		{"Unknown season", Reference{Kind: SeasonRef, Season: 5}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := show.SeasonDirectory("/data", tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SeasonDirectory() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SeasonDirectory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShowSeasonNumbers(t *testing.T) {
	show := &Show{Seasons: map[int]*Season{3: {Number: 3}, 1: {Number: 1}, 2: {Number: 2}}}
	got := show.SeasonNumbers()
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("SeasonNumbers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SeasonNumbers()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
