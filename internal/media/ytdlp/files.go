package ytdlp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var videoExtensions = []string{".mp4", ".mkv", ".webm", ".mov", ".m4v"}

func isVideoExt(ext string) bool {
	for _, e := range videoExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// FindDownloaded locates the final file for a resolution, tolerating
// whatever container the merge step actually produced: exact name first,
// then prefix matches, then any file tagged with the resolution.
func FindDownloaded(dir, base string, height int) string {
	prefix := fmt.Sprintf("%s_%dp", base, height)

	exact := make([]string, 0, len(videoExtensions))
	for _, ext := range videoExtensions {
		exact = append(exact, filepath.Join(dir, prefix+ext))
	}
	if found := largestFile(exact); found != "" {
		return found
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	lowerPrefix := strings.ToLower(prefix)
	tag := fmt.Sprintf("_%dp", height)
	var byPrefix, byTag []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if !isVideoExt(filepath.Ext(name)) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch {
		case strings.HasPrefix(name, lowerPrefix):
			byPrefix = append(byPrefix, path)
		case strings.Contains(name, tag):
			byTag = append(byTag, path)
		}
	}
	if found := largestFile(byPrefix); found != "" {
		return found
	}
	return largestFile(byTag)
}

// largestFile picks the biggest existing candidate, newest on ties.
func largestFile(candidates []string) string {
	var best string
	bestSize := int64(-1)
	var bestTime time.Time
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Size() > bestSize || (info.Size() == bestSize && info.ModTime().After(bestTime)) {
			best, bestSize, bestTime = c, info.Size(), info.ModTime()
		}
	}
	return best
}
