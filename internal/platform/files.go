package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Suffixes yt-dlp leaves behind for interrupted downloads
var (
	PartialSuffixes = []string{".part", ".ytdl"}
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FileSize returns the size of path in bytes
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// RemoveWithPartials deletes path together with any partial download files
// next to it. Missing files are not an error.
func RemoveWithPartials(path string) error {
	var errs []error
	for _, candidate := range append([]string{path}, partialPaths(path)...) {
		if err := os.Remove(candidate); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", candidate, err))
		}
	}
	return errors.Join(errs...)
}

func partialPaths(path string) []string {
	paths := make([]string, 0, len(PartialSuffixes))
	for _, suffix := range PartialSuffixes {
		paths = append(paths, path+suffix)
	}
	return paths
}
