package filemanager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
)

const (
	dirPerm    = 0o755
	PartSuffix = ".part"
)

var videoExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".webm": {}, ".m4v": {}, ".ts": {}, ".wmv": {},
}

// IsVideoFilePath reports whether the path has a known video container extension.
func IsVideoFilePath(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IsSampleFile reports whether a file name looks like a release sample clip.
func IsSampleFile(path string) bool {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	return base == "sample" || strings.HasPrefix(base, "sample.") || strings.HasSuffix(base, ".sample") ||
		strings.HasSuffix(base, "-sample")
}

func HasEnoughSpace(path string, requiredSpace int64) bool {
	if requiredSpace <= 0 {
		return true
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		logutils.Log.WithError(err).Warn("Failed to get filesystem stats")
		return true
	}
	availableSpace := stat.Bavail * uint64(stat.Bsize)

	logutils.Log.WithFields(map[string]any{
		"required_space":  requiredSpace,
		"available_space": availableSpace,
	}).Debug("Checking available disk space")

	return availableSpace >= uint64(requiredSpace)
}

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// ListVideoFiles returns the base names of video files directly inside dir. A missing directory
// yields an empty list.
func ListVideoFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsVideoFilePath(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}

// ListDirectories returns the names of the subdirectories of dir, skipping hidden ones.
func ListDirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			dirs = append(dirs, entry.Name())
		}
	}
	return dirs, nil
}

// RemovePartialFiles deletes leftover *.part files in dir.
func RemovePartialFiles(dir string) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+PartSuffix))
	if err != nil {
		logutils.Log.WithError(err).Warnf("Failed to find partial files in %s", dir)
		return
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			logutils.Log.WithError(err).Warnf("Failed to delete partial file %s", match)
		} else {
			logutils.Log.Infof("Partial file %s deleted", match)
		}
	}
}
