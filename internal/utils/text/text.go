// Package text has the filename hygiene helpers shared by the pipeline
// steps.
package text

import (
	"strings"
	"unicode/utf8"
)

const maxFilenameRunes = 150

// SanitizeFilename strips characters that are unsafe in file names, trims
// leading/trailing dots and spaces and caps the length. Falls back to
// "video" when nothing survives.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			continue
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), ". ")
	if utf8.RuneCountInString(out) > maxFilenameRunes {
		runes := []rune(out)
		out = strings.Trim(string(runes[:maxFilenameRunes]), ". ")
	}
	if out == "" {
		return "video"
	}
	return out
}
