package metadata

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

const (
	statusRunning = "Running"
	airDateLayout = "2006-01-02"
)

var (
	yearRegex   = regexp.MustCompile(`\b(19\d\d|20[0-3]\d)\b`)
	bracesRegex = regexp.MustCompile(`[\(\[\{]\s*[\)\]\}]`)
	spaceRegex  = regexp.MustCompile(`\s+`)
)

// Resolver turns a show argument (title, "Title (Year)" or an IMDb id) into a show catalog.
type Resolver interface {
	Resolve(ctx context.Context, argument string) (*models.Show, error)
}

// TVMaze resolves shows through the public TVmaze API.
type TVMaze struct {
	Client *resty.Client
}

type tvmazeShow struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Premiered string `json:"premiered"`
	Status    string `json:"status"`
	Summary   string `json:"summary"`
}

type tvmazeSearchResult struct {
	Score float64    `json:"score"`
	Show  tvmazeShow `json:"show"`
}

type tvmazeEpisode struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Number  *int   `json:"number"`
	AirDate string `json:"airdate"`
}

func NewTVMaze(baseURL string) *TVMaze {
	if baseURL == "" {
		baseURL = config.DefaultTVMazeURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(config.DefaultRequestTimeout).
		SetHeader("Accept", "application/json")
	logutils.Log.Infof("Initialized TVmaze client with baseURL: %s", baseURL)
	return &TVMaze{Client: client}
}

func (m *TVMaze) Resolve(ctx context.Context, argument string) (*models.Show, error) {
	argument = strings.TrimSpace(argument)
	if argument == "" {
		return nil, fmt.Errorf("%w: empty show argument", utils.ErrShowNotFound)
	}

	var (
		found tvmazeShow
		err   error
	)
	if strings.HasPrefix(argument, "tt") {
		found, err = m.lookupIMDb(ctx, argument)
	} else {
		title, year := SplitYear(argument)
		found, err = m.search(ctx, title, year)
	}
	if err != nil {
		return nil, err
	}

	show := &models.Show{
		ID:      found.ID,
		Name:    found.Name,
		Year:    premieredYear(found.Premiered),
		Status:  found.Status,
		Seasons: make(map[int]*models.Season),
	}
	if err := m.loadEpisodes(ctx, show); err != nil {
		return nil, err
	}

	logutils.Log.WithFields(map[string]any{
		"argument": argument,
		"show":     show.Name,
		"seasons":  len(show.Seasons),
	}).Info("Resolved show")
	return show, nil
}

// SplitYear removes a year between 1900 and 2039 from the argument and returns it separately.
func SplitYear(argument string) (title string, year int) {
	loc := yearRegex.FindStringIndex(argument)
	if loc == nil {
		return strings.TrimSpace(argument), 0
	}
	year, _ = strconv.Atoi(argument[loc[0]:loc[1]])
	title = argument[:loc[0]] + argument[loc[1]:]
	title = bracesRegex.ReplaceAllString(title, " ")
	title = strings.TrimSpace(spaceRegex.ReplaceAllString(title, " "))
	if title == "" {
		return strings.TrimSpace(argument), 0
	}
	return title, year
}

func (m *TVMaze) lookupIMDb(ctx context.Context, imdbID string) (tvmazeShow, error) {
	var show tvmazeShow
	resp, err := m.Client.R().
		SetContext(ctx).
		SetQueryParam("imdb", imdbID).
		SetResult(&show).
		Get("/lookup/shows")
	if err != nil {
		return tvmazeShow{}, fmt.Errorf("%w: imdb lookup %s: %v", utils.ErrExternalServiceError, imdbID, err)
	}
	if resp.StatusCode() == 404 || show.ID == 0 {
		return tvmazeShow{}, fmt.Errorf("%w: %s", utils.ErrShowNotFound, imdbID)
	}
	if resp.IsError() {
		return tvmazeShow{}, fmt.Errorf("%w: imdb lookup %s: %s", utils.ErrExternalServiceError, imdbID, resp.Status())
	}
	return show, nil
}

func (m *TVMaze) search(ctx context.Context, title string, year int) (tvmazeShow, error) {
	var results []tvmazeSearchResult
	resp, err := m.Client.R().
		SetContext(ctx).
		SetQueryParam("q", title).
		SetResult(&results).
		Get("/search/shows")
	if err != nil {
		return tvmazeShow{}, fmt.Errorf("%w: search %q: %v", utils.ErrExternalServiceError, title, err)
	}
	if resp.IsError() {
		return tvmazeShow{}, fmt.Errorf("%w: search %q: %s", utils.ErrExternalServiceError, title, resp.Status())
	}

	shows := make([]tvmazeShow, 0, len(results))
	for _, r := range results {
		shows = append(shows, r.Show)
	}
	logutils.Log.WithFields(map[string]any{
		"title":   title,
		"matches": len(shows),
	}).Debug("Searched shows")

	best, ok := pickShow(shows, year)
	if !ok {
		return tvmazeShow{}, fmt.Errorf("%w: %s", utils.ErrShowNotFound, title)
	}
	return best, nil
}

// pickShow narrows candidates to the premiere year when given, prefers running shows and then takes
// the one with the longest summary.
func pickShow(shows []tvmazeShow, year int) (tvmazeShow, bool) {
	candidates := shows
	if year > 0 {
		var byYear []tvmazeShow
		for _, s := range shows {
			if premieredYear(s.Premiered) == year {
				byYear = append(byYear, s)
			}
		}
		if len(byYear) > 0 {
			candidates = byYear
		}
	}

	var running []tvmazeShow
	for _, s := range candidates {
		if s.Status == statusRunning {
			running = append(running, s)
		}
	}
	if len(running) > 0 {
		candidates = running
	}

	if len(candidates) == 0 {
		return tvmazeShow{}, false
	}
	best := candidates[0]
	for _, s := range candidates[1:] {
		if len(s.Summary) > len(best.Summary) {
			best = s
		}
	}
	return best, true
}

func (m *TVMaze) loadEpisodes(ctx context.Context, show *models.Show) error {
	var episodes []tvmazeEpisode
	resp, err := m.Client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(show.ID)).
		SetResult(&episodes).
		Get("/shows/{id}/episodes")
	if err != nil {
		return fmt.Errorf("%w: episodes of %s: %v", utils.ErrExternalServiceError, show.Name, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: episodes of %s: %s", utils.ErrExternalServiceError, show.Name, resp.Status())
	}

	for _, e := range episodes {
		if e.Number == nil {
			continue
		}
		season, ok := show.Seasons[e.Season]
		if !ok {
			season = &models.Season{Number: e.Season}
			show.Seasons[e.Season] = season
		}
		season.Episodes = append(season.Episodes, models.Episode{
			Season:  e.Season,
			Number:  *e.Number,
			Title:   e.Name,
			AirDate: parseAirDate(e.AirDate),
		})
	}
	return nil
}

func premieredYear(premiered string) int {
	t := parseAirDate(premiered)
	if t.IsZero() {
		return 0
	}
	return t.Year()
}

func parseAirDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(airDateLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
