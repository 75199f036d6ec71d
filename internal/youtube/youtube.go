// Package youtube locates YouTube video references in user input.
package youtube

import (
	"regexp"

	"github.com/iamwavecut/tubetool/internal/errs"
)

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`), // bare video id
}

var urlPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:watch\?v=|shorts/)|youtu\.be/)[\w-]+\S*`)

// ExtractID pulls the 11-character video id out of any of the known URL
// shapes, or accepts a bare id as-is.
func ExtractID(url string) (string, error) {
	for _, p := range idPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", errs.ErrInvalidURL
}

// FindURL scans free-form text (a chat message) for the first YouTube link.
func FindURL(text string) (string, bool) {
	m := urlPattern.FindString(text)
	return m, m != ""
}
