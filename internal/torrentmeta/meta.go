package torrentmeta

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/go-bittorrent/magneturi"
	"github.com/jackpal/bencode-go"
)

type Meta struct {
	Info struct {
		Name   string `bencode:"name"`
		Length int64  `bencode:"length"`
		Files  []struct {
			Length int64    `bencode:"length"`
			Path   []string `bencode:"path"`
		} `bencode:"files"`
	} `bencode:"info"`
}

// FilePaths lists the torrent's files relative to its root. Single-file torrents yield their name.
func (m *Meta) FilePaths() []string {
	if len(m.Info.Files) == 0 {
		return []string{m.Info.Name}
	}
	paths := make([]string, 0, len(m.Info.Files))
	for _, f := range m.Info.Files {
		paths = append(paths, path.Join(append([]string{m.Info.Name}, f.Path...)...))
	}
	return paths
}

func (m *Meta) TotalLength() int64 {
	if len(m.Info.Files) == 0 {
		return m.Info.Length
	}
	var total int64
	for _, f := range m.Info.Files {
		total += f.Length
	}
	return total
}

func ParseMeta(r io.Reader) (*Meta, error) {
	var meta Meta
	if err := bencode.Unmarshal(r, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode torrent meta: %w", err)
	}
	if meta.Info.Name == "" {
		return nil, fmt.Errorf("torrent meta does not contain a file name")
	}
	return &meta, nil
}

// MagnetMeta builds the metadata a magnet link carries itself: display name and exact length.
func MagnetMeta(uri string) *Meta {
	m := &Meta{}
	m.Info.Name = "Magnet download"
	if parsed, err := magneturi.Parse(uri); err == nil {
		if parsed.DisplayName != "" {
			m.Info.Name = parsed.DisplayName
		}
		if parsed.ExactLength > 0 {
			m.Info.Length = parsed.ExactLength
		}
	}
	return m
}

// InfoHashFromMagnet returns the lowercase hex v1 info hash of a magnet link.
func InfoHashFromMagnet(uri string) (string, error) {
	m, err := metainfo.ParseMagnetUri(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse magnet: %w", err)
	}
	return m.InfoHash.HexString(), nil
}

// InfoHashFromTorrent returns the lowercase hex v1 info hash of .torrent file contents.
func InfoHashFromTorrent(data []byte) (string, error) {
	mi, err := metainfo.Load(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to load torrent: %w", err)
	}
	return mi.HashInfoBytes().HexString(), nil
}

// NormalizeInfoHash lowercases a hash reported by an indexer so it compares with the computed ones.
func NormalizeInfoHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
