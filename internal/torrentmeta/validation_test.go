package torrentmeta

import (
	"strings"
	"testing"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/testutils"
)

func TestValidateContent(t *testing.T) {
	_, valid := testutils.CreateTestTorrent(t, t.TempDir(), "valid-torrent")

	tests := []struct {
		name          string
		data          []byte
		expectedError string
	}{
		{"Valid torrent file", valid, ""},
		{
			"HTML file instead of torrent",
			[]byte("<!DOCTYPE html><html><head><title>Login</title></head><body></body></html>"),
			"file appears to be HTML",
		},
		{
			"Magnet link file",
			[]byte("magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567&dn=Show"),
			"magnet link",
		},
		{"Empty file", nil, "too small"},
		{"Too large", make([]byte, MaxTorrentSize+1), "too large"},
		{"Not bencode", []byte("this is definitely not a torrent file"), "invalid torrent file format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ValidateContent(tt.data)
			if tt.expectedError == "" {
				if err != nil {
					t.Fatalf("ValidateContent() error = %v", err)
				}
				if meta.Info.Name != "valid-torrent" {
					t.Errorf("name = %q, want valid-torrent", meta.Info.Name)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.expectedError) {
				t.Errorf("ValidateContent() error = %v, want %q", err, tt.expectedError)
			}
		})
	}
}
