package release

import (
	"strings"

	"github.com/moistari/rls"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

// Parse parses a release or file name.
func Parse(name string) rls.Release {
	return rls.ParseString(name)
}

// MatchesShow reports whether a release name carries the show name.
func MatchesShow(name, showName string) bool {
	show := utils.NormalizeName(showName)
	if show == "" {
		return false
	}
	return strings.Contains(utils.NormalizeName(name), show)
}

// MatchesEpisode tries the episode pattern first and falls back to the parsed release tags.
func MatchesEpisode(name string, episode models.Episode) bool {
	if episode.Pattern().MatchString(name) {
		return true
	}
	r := Parse(name)
	return r.Series == episode.Season && r.Episode == episode.Number
}

// MatchesSeason matches season packs only. A release naming a single episode never matches.
func MatchesSeason(name string, season *models.Season) bool {
	if season.Pattern().MatchString(name) {
		return true
	}
	r := Parse(name)
	return r.Series == season.Number && r.Episode == 0 && r.Type != rls.Movie
}

// MatchesReference dispatches on the reference kind.
func MatchesReference(name string, show *models.Show, ref models.Reference) bool {
	if ref.IsSeason() {
		season, ok := show.Seasons[ref.Season]
		if !ok {
			season = &models.Season{Number: ref.Season}
		}
		return MatchesSeason(name, season)
	}
	return MatchesEpisode(name, models.Episode{Season: ref.Season, Number: ref.Episode})
}
