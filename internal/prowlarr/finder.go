package prowlarr

import (
	"context"
	"fmt"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/filemanager"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/release"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/torrentmeta"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

// TV categories in the Newznab numbering Prowlarr uses.
var tvCategories = []int{5000}

// Searcher is the part of Prowlarr the finder needs.
type Searcher interface {
	SearchTorrents(ctx context.Context, query string, categories []int) ([]models.TorrentSearchResult, error)
	GetTorrentFile(ctx context.Context, torrentURL string) ([]byte, error)
}

// Finder builds the torrent list for whatever a show is still missing.
type Finder struct {
	searcher Searcher
	maxLinks int
}

func NewFinder(searcher Searcher, maxLinks int) *Finder {
	return &Finder{searcher: searcher, maxLinks: maxLinks}
}

// Find searches missing seasons first, then missing episodes. References without usable links are
// left out. A failed search for one reference is logged and skipped.
func (f *Finder) Find(ctx context.Context, info *models.Information) ([]models.Torrent, error) {
	if info.Show == nil || info.Status == nil {
		return nil, fmt.Errorf("%w: show information is incomplete", utils.ErrConfigurationError)
	}

	refs := make([]models.Reference, 0, info.Status.Len())
	for _, s := range info.Status.SeasonsMissing() {
		refs = append(refs, s.Ref())
	}
	for _, e := range info.Status.EpisodesMissing() {
		refs = append(refs, e.Ref())
	}

	var torrents []models.Torrent
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return torrents, err
		}
		links, err := f.findLinks(ctx, info.Show, ref)
		if err != nil {
			logutils.Log.WithError(err).WithFields(map[string]any{
				"show":      info.Show.Name,
				"reference": ref.String(),
			}).Warn("Release search failed")
			continue
		}
		if len(links) == 0 {
			logutils.Log.WithFields(map[string]any{
				"show":      info.Show.Name,
				"reference": ref.String(),
			}).Info("No releases found")
			continue
		}
		torrents = append(torrents, models.Torrent{Reference: ref, Links: links})
	}
	return torrents, nil
}

func (f *Finder) findLinks(ctx context.Context, show *models.Show, ref models.Reference) ([]string, error) {
	query := fmt.Sprintf("%s %s", show.Name, ref)
	results, err := f.searcher.SearchTorrents(ctx, query, tvCategories)
	if err != nil {
		return nil, err
	}

	var magnets, files []models.TorrentSearchResult
	for _, r := range results {
		if !release.MatchesShow(r.Title, show.Name) || !release.MatchesReference(r.Title, show, ref) {
			continue
		}
		switch {
		case r.Magnet != "" && utils.IsMagnetLink(r.Magnet):
			magnets = append(magnets, r)
		case r.TorrentURL != "":
			files = append(files, r)
		}
	}

	seen := make(map[string]struct{})
	var links []string
	add := func(key, link string) bool {
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		links = append(links, link)
		return f.maxLinks > 0 && len(links) >= f.maxLinks
	}

	for _, r := range magnets {
		meta := torrentmeta.MagnetMeta(r.Magnet)
		logutils.Log.WithFields(map[string]any{
			"release": meta.Info.Name,
			"size":    meta.TotalLength(),
		}).Debugf("Magnet candidate for %s", ref)
		if add(f.magnetKey(r), r.Magnet) {
			return links, nil
		}
	}
	for _, r := range files {
		key, ok := f.torrentKey(ctx, r)
		if !ok {
			continue
		}
		if add(key, r.TorrentURL) {
			return links, nil
		}
	}
	return links, nil
}

func (f *Finder) magnetKey(r models.TorrentSearchResult) string {
	if r.InfoHash != "" {
		return torrentmeta.NormalizeInfoHash(r.InfoHash)
	}
	hash, err := torrentmeta.InfoHashFromMagnet(r.Magnet)
	if err != nil {
		return r.Magnet
	}
	return hash
}

// torrentKey fetches the .torrent only when the indexer did not report an info hash. A fetched file
// that is not a torrent (usually an indexer error page) or holds no video disqualifies the link.
func (f *Finder) torrentKey(ctx context.Context, r models.TorrentSearchResult) (string, bool) {
	if r.InfoHash != "" {
		return torrentmeta.NormalizeInfoHash(r.InfoHash), true
	}
	data, err := f.searcher.GetTorrentFile(ctx, r.TorrentURL)
	if err != nil {
		logutils.Log.WithError(err).Debugf("Could not fetch %s for deduplication", r.Title)
		return r.TorrentURL, true
	}
	meta, err := torrentmeta.ValidateContent(data)
	if err != nil {
		logutils.Log.WithError(err).WithField("title", r.Title).Warn("Skipping invalid torrent file")
		return "", false
	}
	if !hasVideo(meta) {
		logutils.Log.WithFields(map[string]any{
			"title": r.Title,
			"size":  meta.TotalLength(),
		}).Info("Skipping torrent without video files")
		return "", false
	}
	hash, err := torrentmeta.InfoHashFromTorrent(data)
	if err != nil {
		return r.TorrentURL, true
	}
	return hash, true
}

func hasVideo(meta *torrentmeta.Meta) bool {
	for _, p := range meta.FilePaths() {
		if filemanager.IsVideoFilePath(p) && !filemanager.IsSampleFile(p) {
			return true
		}
	}
	return false
}
