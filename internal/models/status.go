package models

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Status holds what is still missing for a show. Items are only ever removed.
type Status struct {
	mu              sync.Mutex
	episodesMissing []Episode
	seasonsMissing  []*Season
}

func NewStatus(episodes []Episode, seasons []*Season) *Status {
	return &Status{
		episodesMissing: append([]Episode(nil), episodes...),
		seasonsMissing:  append([]*Season(nil), seasons...),
	}
}

func (s *Status) EpisodesMissing() []Episode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Episode(nil), s.episodesMissing...)
}

func (s *Status) SeasonsMissing() []*Season {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Season(nil), s.seasonsMissing...)
}

// Remove drops the item named by ref and reports whether it was still missing.
func (s *Status) Remove(ref Reference) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref.Kind == SeasonRef {
		for i, season := range s.seasonsMissing {
			if season.Number == ref.Season {
				s.seasonsMissing = append(s.seasonsMissing[:i:i], s.seasonsMissing[i+1:]...)
				return true
			}
		}
		return false
	}

	for i, e := range s.episodesMissing {
		if e.Season == ref.Season && e.Number == ref.Episode {
			s.episodesMissing = append(s.episodesMissing[:i:i], s.episodesMissing[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Status) Contains(ref Reference) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref.Kind == SeasonRef {
		for _, season := range s.seasonsMissing {
			if season.Number == ref.Season {
				return true
			}
		}
		return false
	}
	for _, e := range s.episodesMissing {
		if e.Season == ref.Season && e.Number == ref.Episode {
			return true
		}
	}
	return false
}

func (s *Status) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.episodesMissing) + len(s.seasonsMissing)
}

func (s *Status) Empty() bool {
	return s.Len() == 0
}

func (s *Status) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%d missing episodes, %d missing seasons", len(s.episodesMissing), len(s.seasonsMissing))
}

// Torrent is one release candidate: alternative links for the same content, tried in order.
type Torrent struct {
	Reference Reference
	Links     []string
}

// Information is everything the engine needs to process one show.
type Information struct {
	DownloadDirectory string
	Show              *Show
	Status            *Status
	Torrents          []Torrent
}

func NewInformation(downloadDirectory string) *Information {
	return &Information{DownloadDirectory: downloadDirectory}
}

func joinPath(elem ...string) string {
	return filepath.Join(elem...)
}
