package torrentmeta

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"
)

const (
	singleInfo = "d6:lengthi1048576e4:name9:test.file12:piece lengthi32768e6:pieces20:00000000000000000000e"
	multiInfo  = "d5:filesld6:lengthi524288e4:pathl7:folder19:file1.txteed6:lengthi262144e4:pathl7:folder29:file2.txteee" +
		"4:name10:multi-test12:piece lengthi32768e6:pieces20:00000000000000000000e"
)

func torrentWithInfo(info string) string {
	return "d8:announce8:test-url4:info" + info + "e"
}

func TestParseMeta(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		expectedName  string
		expectedTotal int64
		expectedPaths []string
		expectError   bool
	}{
		{
			name:          "Valid single file torrent",
			content:       torrentWithInfo(singleInfo),
			expectedName:  "test.file",
			expectedTotal: 1048576,
			expectedPaths: []string{"test.file"},
		},
		{
			name:          "Valid multi-file torrent",
			content:       torrentWithInfo(multiInfo),
			expectedName:  "multi-test",
			expectedTotal: 786432,
			expectedPaths: []string{"multi-test/folder1/file1.txt", "multi-test/folder2/file2.txt"},
		},
		{
			name:        "Missing name",
			content:     "d4:infod6:lengthi1eee",
			expectError: true,
		},
		{
			name:        "Not bencode",
			content:     "not a torrent",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ParseMeta(strings.NewReader(tt.content))
			if tt.expectError {
				if err == nil {
					t.Fatal("ParseMeta() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMeta() error = %v", err)
			}
			if meta.Info.Name != tt.expectedName {
				t.Errorf("name = %q, want %q", meta.Info.Name, tt.expectedName)
			}
			if got := meta.TotalLength(); got != tt.expectedTotal {
				t.Errorf("TotalLength() = %d, want %d", got, tt.expectedTotal)
			}
			paths := meta.FilePaths()
			if len(paths) != len(tt.expectedPaths) {
				t.Fatalf("FilePaths() = %v, want %v", paths, tt.expectedPaths)
			}
			for i := range paths {
				if paths[i] != tt.expectedPaths[i] {
					t.Errorf("FilePaths()[%d] = %q, want %q", i, paths[i], tt.expectedPaths[i])
				}
			}
		})
	}
}

func TestInfoHashFromTorrent(t *testing.T) {
	sum := sha1.Sum([]byte(singleInfo))
	want := hex.EncodeToString(sum[:])

	got, err := InfoHashFromTorrent([]byte(torrentWithInfo(singleInfo)))
	if err != nil {
		t.Fatalf("InfoHashFromTorrent() error = %v", err)
	}
	if got != want {
		t.Errorf("InfoHashFromTorrent() = %s, want %s", got, want)
	}

	if _, err := InfoHashFromTorrent([]byte("garbage")); err == nil {
		t.Error("InfoHashFromTorrent(garbage) expected error")
	}
}

func TestInfoHashFromMagnet(t *testing.T) {
	const hash = "0123456789abcdef0123456789abcdef01234567"

	got, err := InfoHashFromMagnet("magnet:?xt=urn:btih:" + strings.ToUpper(hash) + "&dn=Show.S01E01")
	if err != nil {
		t.Fatalf("InfoHashFromMagnet() error = %v", err)
	}
	if got != hash {
		t.Errorf("InfoHashFromMagnet() = %s, want %s", got, hash)
	}

	if _, err := InfoHashFromMagnet("https://example.com/file.torrent"); err == nil {
		t.Error("InfoHashFromMagnet(url) expected error")
	}
}

func TestMagnetMeta(t *testing.T) {
	meta := MagnetMeta("magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567&dn=Show.S01E01&xl=42")
	if meta.Info.Name != "Show.S01E01" {
		t.Errorf("name = %q, want Show.S01E01", meta.Info.Name)
	}
	if meta.Info.Length != 42 {
		t.Errorf("length = %d, want 42", meta.Info.Length)
	}

	if got := MagnetMeta("not a magnet").Info.Name; got != "Magnet download" {
		t.Errorf("fallback name = %q, want Magnet download", got)
	}
}

func TestNormalizeInfoHash(t *testing.T) {
	if got := NormalizeInfoHash("  ABCDEF "); got != "abcdef" {
		t.Errorf("NormalizeInfoHash() = %q, want abcdef", got)
	}
}
