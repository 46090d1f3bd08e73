package models

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

type ReferenceKind int

const (
	EpisodeRef ReferenceKind = iota
	SeasonRef
)

// Reference names what a torrent or task satisfies: a single episode or a whole season.
type Reference struct {
	Kind    ReferenceKind
	Season  int
	Episode int
}

func (r Reference) IsSeason() bool {
	return r.Kind == SeasonRef
}

func (r Reference) String() string {
	if r.Kind == SeasonRef {
		return fmt.Sprintf("S%02d", r.Season)
	}
	return fmt.Sprintf("S%02dE%02d", r.Season, r.Episode)
}

type Episode struct {
	Season  int
	Number  int
	Title   string
	AirDate time.Time
}

func (e Episode) Ref() Reference {
	return Reference{Kind: EpisodeRef, Season: e.Season, Episode: e.Number}
}

func (e Episode) String() string {
	return e.Ref().String()
}

// Aired reports whether the episode has a known air date that is not in the future.
func (e Episode) Aired(now time.Time) bool {
	return !e.AirDate.IsZero() && !e.AirDate.After(now)
}

// Pattern matches release and file names carrying this episode, e.g. S01E02, s1e2 or 1x02.
func (e Episode) Pattern() *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(
		`(?i)(?:^|[^a-z0-9])(?:s0*%d[ ._-]?e0*%d|0*%dx0*%d)(?:[^0-9]|$)`,
		e.Season, e.Number, e.Season, e.Number,
	))
}

type Season struct {
	Number   int
	Episodes []Episode
}

func (s *Season) Ref() Reference {
	return Reference{Kind: SeasonRef, Season: s.Number}
}

func (s *Season) String() string {
	return s.DirName()
}

// DirName is the directory holding this season below the show directory.
func (s *Season) DirName() string {
	return SeasonDirName(s.Number)
}

func SeasonDirName(number int) string {
	return fmt.Sprintf("Season %02d", number)
}

// Pattern matches season packs (S01, Season 1) but not single episodes of that season.
func (s *Season) Pattern() *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(
		`(?i)(?:^|[^a-z0-9])(?:s0*%d|season[ ._-]?0*%d)(?:[^0-9e]|$)`,
		s.Number, s.Number,
	))
}

func (s *Season) AiredEpisodes(now time.Time) []Episode {
	aired := make([]Episode, 0, len(s.Episodes))
	for _, e := range s.Episodes {
		if e.Aired(now) {
			aired = append(aired, e)
		}
	}
	return aired
}

func (s *Season) Episode(number int) (Episode, bool) {
	for _, e := range s.Episodes {
		if e.Number == number {
			return e, true
		}
	}
	return Episode{}, false
}

// Show is the resolved catalog of a series. It is not modified after resolution.
type Show struct {
	ID      int
	Name    string
	Year    int
	Status  string
	Seasons map[int]*Season
}

func (s *Show) String() string {
	return s.Name
}

// StorageName is the show's directory name below the download directory.
func (s *Show) StorageName() string {
	name := utils.SanitizeFileName(s.Name)
	if s.Year > 0 {
		return fmt.Sprintf("%s (%d)", name, s.Year)
	}
	return name
}

// SeasonNumbers returns the catalog's season numbers in ascending order.
func (s *Show) SeasonNumbers() []int {
	numbers := make([]int, 0, len(s.Seasons))
	for n := range s.Seasons {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// SeasonDirectory resolves a reference to the directory its files belong in. Season references
// resolve directly, episode references through their parent season.
func (s *Show) SeasonDirectory(downloadDir string, ref Reference) (string, error) {
	season, ok := s.Seasons[ref.Season]
	if !ok {
		return "", fmt.Errorf("show %q has no season %d for %s", s.Name, ref.Season, ref)
	}
	return joinPath(downloadDir, s.StorageName(), season.DirName()), nil
}
