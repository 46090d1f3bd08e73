package prowlarr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

// Prowlarr talks to the Prowlarr search API. Client carries the base URL and API key.
type Prowlarr struct {
	Client  *resty.Client
	APIKey  string
	BaseURL string // e.g. http://localhost:9696
}

type searchResult struct {
	Title       string  `json:"title"`
	Size        float64 `json:"size"`
	MagnetURL   string  `json:"magnetUrl"`
	DownloadURL string  `json:"downloadUrl"`
	IndexerName string  `json:"indexer"`
	InfoHash    string  `json:"infoHash"`
	Seeders     int     `json:"seeders"`
}

func NewProwlarr(baseURL, apiKey string) *Prowlarr {
	baseURL = strings.TrimSuffix(baseURL, "/")
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(config.DefaultRequestTimeout).
		SetHeader("X-Api-Key", apiKey)
	logutils.Log.Infof("Initialized Prowlarr client with baseURL: %s", baseURL)
	return &Prowlarr{
		Client:  client,
		APIKey:  apiKey,
		BaseURL: baseURL,
	}
}

// SearchTorrents runs a free-text search. categories may be nil for all.
func (p *Prowlarr) SearchTorrents(ctx context.Context, query string, categories []int) ([]models.TorrentSearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "search")
	for _, cat := range categories {
		params.Add("categories", strconv.Itoa(cat))
	}

	logutils.Log.WithFields(map[string]any{
		"query":      query,
		"categories": categories,
	}).Debug("Searching torrents")

	var raw []searchResult
	resp, err := p.Client.R().
		SetContext(ctx).
		SetQueryString(params.Encode()).
		SetResult(&raw).
		Get("/api/v1/search")
	if err != nil {
		return nil, fmt.Errorf("%w: prowlarr search %q: %v", utils.ErrExternalServiceError, query, err)
	}
	if resp.IsError() {
		logutils.Log.WithField("status", resp.Status()).Warn("Prowlarr search returned error status")
		return nil, fmt.Errorf("%w: prowlarr search %q: %s", utils.ErrExternalServiceError, query, resp.Status())
	}

	results := make([]models.TorrentSearchResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, models.TorrentSearchResult{
			Title:       r.Title,
			Size:        int64(r.Size),
			Magnet:      r.MagnetURL,
			TorrentURL:  r.DownloadURL,
			IndexerName: r.IndexerName,
			InfoHash:    r.InfoHash,
			Seeders:     r.Seeders,
		})
	}
	logutils.Log.Debugf("Prowlarr search %q returned %d results", query, len(results))
	return results, nil
}

// GetTorrentFile downloads a .torrent, usually from a result's TorrentURL.
func (p *Prowlarr) GetTorrentFile(ctx context.Context, torrentURL string) ([]byte, error) {
	if !utils.IsValidLink(torrentURL) {
		return nil, fmt.Errorf("%w: %s", utils.ErrInvalidURL, torrentURL)
	}
	resp, err := p.Client.R().SetContext(ctx).Get(torrentURL)
	if err != nil {
		return nil, fmt.Errorf("%w: torrent download: %v", utils.ErrExternalServiceError, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: torrent download: %s", utils.ErrExternalServiceError, resp.Status())
	}
	return resp.Body(), nil
}
