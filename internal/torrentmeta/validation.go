package torrentmeta

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	headerSize     = 512
	MinTorrentSize = 20
	MaxTorrentSize = 10 * 1024 * 1024
)

var htmlIndicators = []string{
	"<!doctype html",
	"<html",
	"<head>",
	"<body>",
	"<title>",
	"<meta",
	"<script",
	"<style",
}

// ValidateContent checks that data is a .torrent file and not an indexer error page or a magnet
// link saved to disk, and returns the decoded metadata.
func ValidateContent(data []byte) (*Meta, error) {
	if len(data) < MinTorrentSize {
		return nil, fmt.Errorf("torrent file is too small (%d bytes)", len(data))
	}
	if len(data) > MaxTorrentSize {
		return nil, fmt.Errorf("torrent file is too large (%d bytes)", len(data))
	}

	header := string(data[:min(len(data), headerSize)])
	if isClearlyHTML(header) {
		return nil, fmt.Errorf("file appears to be HTML, not a torrent file")
	}
	if isMagnetLink(header) {
		return nil, fmt.Errorf("file appears to be a magnet link, not a torrent file")
	}

	meta, err := ParseMeta(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid torrent file format: %w", err)
	}
	return meta, nil
}

func isClearlyHTML(content string) bool {
	lowerContent := strings.ToLower(strings.TrimSpace(content))

	htmlCount := 0
	for _, indicator := range htmlIndicators {
		if strings.Contains(lowerContent, indicator) {
			htmlCount++
		}
	}

	if strings.HasPrefix(lowerContent, "<") && htmlCount > 0 {
		return true
	}
	return htmlCount >= 2
}

func isMagnetLink(content string) bool {
	lowerContent := strings.ToLower(strings.TrimSpace(content))
	return strings.HasPrefix(lowerContent, "magnet:") || strings.Contains(lowerContent, "magnet:?xt=urn:btih:")
}
