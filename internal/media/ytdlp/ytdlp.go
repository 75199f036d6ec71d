// Package ytdlp drives the yt-dlp binary: metadata queries, video
// downloads and subtitle acquisition.
package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/media/runner"
)

// Browser-like identity plus a spread of player clients. YouTube throttles
// or blocks the default yt-dlp fingerprint on datacenter IPs.
const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	playerClients    = "youtube:player_client=web,web_safari,tv"

	stagedCookiesName = "ytdlp_cookies.txt"
)

type Client struct {
	bin     string
	cookies string
	run     runner.Runner
}

// New builds a client around the yt-dlp binary. cookiesFile may point to a
// Netscape-format cookie jar; a missing file simply disables cookies.
func New(bin, cookiesFile string, run runner.Runner) *Client {
	return &Client{bin: bin, cookies: cookiesFile, run: run}
}

// argVariants returns the base argument sets to try in order: the staged
// cookie jar first, then bare. A stale jar makes YouTube reject requests
// that succeed anonymously.
func (c *Client) argVariants() [][]string {
	base := []string{
		"--extractor-args", playerClients,
		"--user-agent", browserUserAgent,
	}
	staged := c.stageCookies()
	if staged == "" {
		return [][]string{base}
	}
	withCookies := append(append(make([]string, 0, len(base)+2), base...), "--cookies", staged)
	return [][]string{withCookies, base}
}

// stageCookies copies the cookie jar into the temp dir. yt-dlp rewrites the
// jar on use and the configured one usually lives on a read-only volume.
func (c *Client) stageCookies() string {
	if c.cookies == "" {
		return ""
	}
	data, err := os.ReadFile(c.cookies)
	if err != nil {
		return ""
	}
	staged := filepath.Join(os.TempDir(), stagedCookiesName)
	if err := os.WriteFile(staged, data, 0o600); err != nil {
		log.WithError(err).Debug("cant stage cookies")
		return ""
	}
	return staged
}

// Title resolves the video title without downloading anything.
func (c *Client) Title(ctx context.Context, url string) (string, error) {
	var lastErr error
	for _, base := range c.argVariants() {
		args := append(append([]string{}, base...), "--skip-download", "--no-warnings", "--print", "title", url)
		out, err := c.run.Run(ctx, c.bin, args...)
		if err != nil {
			lastErr = err
			continue
		}
		title := strings.TrimSpace(out)
		if i := strings.IndexByte(title, '\n'); i >= 0 {
			title = title[:i]
		}
		if title == "" {
			lastErr = errors.New("empty title")
			continue
		}
		return title, nil
	}
	return "", errors.Wrap(lastErr, "query title")
}

// FormatLadder is the download format selector for a resolution cap. Each
// alternative loosens the previous one so a download still succeeds when
// mp4/m4a variants or the requested height are missing.
func FormatLadder(maxHeight int) string {
	h := strconv.Itoa(maxHeight)
	return "bestvideo[height<=" + h + "][ext=mp4]+bestaudio[ext=m4a]/" +
		"bestvideo[height<=" + h + "]+bestaudio/" +
		"best[height<=" + h + "]/" +
		"bestvideo+bestaudio/" +
		"best"
}

// Download fetches the video capped at maxHeight into outputTemplate (a
// yt-dlp -o template). Progress lines stream to onLine when non-nil.
func (c *Client) Download(ctx context.Context, url, outputTemplate string, maxHeight int, onLine func(string)) error {
	var lastErr error
	for _, base := range c.argVariants() {
		args := append(append([]string{}, base...),
			"-f", FormatLadder(maxHeight),
			"--merge-output-format", "mp4",
			"-o", outputTemplate,
			"--newline",
			url,
		)
		if lastErr = c.run.RunStreaming(ctx, onLine, c.bin, args...); lastErr == nil {
			return nil
		}
	}
	return errors.Wrapf(lastErr, "download %dp", maxHeight)
}

// SubtitleTrack is one caption file fetched from the video.
type SubtitleTrack struct {
	Path string
	Lang string
	Auto bool
}

// DownloadSubtitles writes json3 subtitle files for the requested languages
// into destDir and returns the produced tracks. auto selects auto-generated
// captions instead of creator-uploaded ones. langs entries may be yt-dlp
// language patterns ("all", ".*-orig").
func (c *Client) DownloadSubtitles(ctx context.Context, url, destDir string, langs []string, auto bool) ([]SubtitleTrack, error) {
	template := filepath.Join(destDir, "subs.%(ext)s")
	subsFlag := "--write-subs"
	if auto {
		subsFlag = "--write-auto-subs"
	}
	var lastErr error
	for _, base := range c.argVariants() {
		args := append(append([]string{}, base...),
			"--skip-download", "--no-warnings",
			subsFlag,
			"--sub-langs", strings.Join(langs, ","),
			"--sub-format", "json3",
			"-o", template,
			url,
		)
		if _, lastErr = c.run.Run(ctx, c.bin, args...); lastErr == nil {
			return collectTracks(destDir, auto)
		}
	}
	return nil, errors.Wrap(lastErr, "download subtitles")
}

// collectTracks scans destDir for subs.<lang>.json3 files.
func collectTracks(destDir string, auto bool) ([]SubtitleTrack, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return nil, errors.Wrap(err, "scan subtitle dir")
	}
	var tracks []SubtitleTrack
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "subs.") || !strings.HasSuffix(name, ".json3") {
			continue
		}
		lang := strings.TrimSuffix(strings.TrimPrefix(name, "subs."), ".json3")
		if lang == "" {
			continue
		}
		tracks = append(tracks, SubtitleTrack{
			Path: filepath.Join(destDir, name),
			Lang: lang,
			Auto: auto,
		})
	}
	return tracks, nil
}
