package release

import (
	"testing"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

func TestMatchesShow(t *testing.T) {
	tests := []struct {
		name     string
		release  string
		showName string
		want     bool
	}{
		{"Dotted release", "The.Expanse.S01E02.1080p.WEB", "The Expanse", true},
		{"Different case and separators", "the_expanse-s01", "The Expanse", true},
		{"Other show", "Dark.S01E02.1080p", "The Expanse", false},
		{"Empty show name", "Dark.S01E02", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesShow(tt.release, tt.showName); got != tt.want {
				t.Errorf("MatchesShow(%q, %q) = %v, want %v", tt.release, tt.showName, got, tt.want)
			}
		})
	}
}

func TestMatchesEpisode(t *testing.T) {
	episode := models.Episode{Season: 2, Number: 5}

	tests := []struct {
		release string
		want    bool
	}{
		{"Show.S02E05.720p.HDTV.x264", true},
		{"Show 2x05 Title", true},
		{"Show.S02E06.720p.HDTV.x264", false},
		{"Show.S02.Complete.1080p", false},
	}
	for _, tt := range tests {
		if got := MatchesEpisode(tt.release, episode); got != tt.want {
			t.Errorf("MatchesEpisode(%q) = %v, want %v", tt.release, got, tt.want)
		}
	}
}

func TestMatchesSeason(t *testing.T) {
	season := &models.Season{Number: 3}

	tests := []struct {
		release string
		want    bool
	}{
		{"Show.S03.1080p.BluRay.x264-GRP", true},
		{"Show Season 3 Complete", true},
		{"Show.S03E01.1080p", false},
		{"Show.S04.1080p", false},
	}
	for _, tt := range tests {
		if got := MatchesSeason(tt.release, season); got != tt.want {
			t.Errorf("MatchesSeason(%q) = %v, want %v", tt.release, got, tt.want)
		}
	}
}

func TestMatchesReference(t *testing.T) {
	show := &models.Show{Name: "Show", Seasons: map[int]*models.Season{1: {Number: 1}}}

	if !MatchesReference("Show.S01.1080p", show, models.Reference{Kind: models.SeasonRef, Season: 1}) {
		t.Error("season reference should match the season pack")
	}
	if !MatchesReference("Show.S01E03.1080p", show, models.Reference{Kind: models.EpisodeRef, Season: 1, Episode: 3}) {
		t.Error("episode reference should match the episode release")
	}
	if MatchesReference("Show.S01E03.1080p", show, models.Reference{Kind: models.SeasonRef, Season: 1}) {
		t.Error("season reference should not match a single episode")
	}
}
