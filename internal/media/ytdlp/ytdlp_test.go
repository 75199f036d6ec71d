package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeRunner struct {
	lastName string
	lastArgs []string
	calls    [][]string
	out      string
	err      error
	onRun    func(args []string)
	respond  func(args []string) (string, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.lastName = name
	f.lastArgs = args
	f.calls = append(f.calls, args)
	if f.onRun != nil {
		f.onRun(args)
	}
	if f.respond != nil {
		return f.respond(args)
	}
	return f.out, f.err
}

func (f *fakeRunner) RunStreaming(_ context.Context, onLine func(string), name string, args ...string) error {
	f.lastName = name
	f.lastArgs = args
	f.calls = append(f.calls, args)
	if onLine != nil {
		onLine("[download] 100%")
	}
	if f.respond != nil {
		_, err := f.respond(args)
		return err
	}
	return f.err
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func hasArg(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func TestTitle(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{out: "My Video Title\n"}
	c := New("yt-dlp", "", run)

	title, err := c.Title(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Title: %v", err)
	}
	if title != "My Video Title" {
		t.Errorf("title = %q, want My Video Title", title)
	}
	if run.lastName != "yt-dlp" {
		t.Errorf("binary = %q, want yt-dlp", run.lastName)
	}
	if !hasArgPair(run.lastArgs, "--print", "title") {
		t.Errorf("args missing --print title: %v", run.lastArgs)
	}
	if !hasArgPair(run.lastArgs, "--extractor-args", playerClients) {
		t.Errorf("args missing extractor args: %v", run.lastArgs)
	}
	if !hasArg(run.lastArgs, "--skip-download") {
		t.Errorf("args missing --skip-download: %v", run.lastArgs)
	}
}

func TestTitleEmptyOutput(t *testing.T) {
	t.Parallel()

	c := New("yt-dlp", "", &fakeRunner{out: "  \n"})
	if _, err := c.Title(context.Background(), "https://youtu.be/dQw4w9WgXcQ"); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestFormatLadder(t *testing.T) {
	t.Parallel()

	want := "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/" +
		"bestvideo[height<=720]+bestaudio/" +
		"best[height<=720]/" +
		"bestvideo+bestaudio/" +
		"best"
	if got := FormatLadder(720); got != want {
		t.Errorf("FormatLadder(720) = %q, want %q", got, want)
	}
}

func TestDownloadArgs(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{}
	c := New("yt-dlp", "", run)

	var lines []string
	err := c.Download(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "/tmp/out_%(ext)s", 1080, func(l string) {
		lines = append(lines, l)
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !hasArgPair(run.lastArgs, "-f", FormatLadder(1080)) {
		t.Errorf("args missing format ladder: %v", run.lastArgs)
	}
	if !hasArgPair(run.lastArgs, "--merge-output-format", "mp4") {
		t.Errorf("args missing merge format: %v", run.lastArgs)
	}
	if !hasArg(run.lastArgs, "--newline") {
		t.Errorf("args missing --newline: %v", run.lastArgs)
	}
	if len(lines) == 0 {
		t.Error("progress lines not delivered")
	}
}

func TestCookiesStagedWhenPresent(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	jar := filepath.Join(tmp, "cookies.txt")
	if err := os.WriteFile(jar, []byte("# Netscape HTTP Cookie File\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	run := &fakeRunner{out: "ok"}
	c := New("yt-dlp", jar, run)
	if _, err := c.Title(context.Background(), "https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Fatalf("Title: %v", err)
	}
	if !hasArg(run.lastArgs, "--cookies") {
		t.Errorf("args missing --cookies: %v", run.lastArgs)
	}
}

func TestTitleRetriesWithoutCookies(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	jar := filepath.Join(tmp, "cookies.txt")
	if err := os.WriteFile(jar, []byte("# Netscape HTTP Cookie File\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	run := &fakeRunner{respond: func(args []string) (string, error) {
		if hasArg(args, "--cookies") {
			return "", errors.New("Requested format is not available")
		}
		return "Recovered Title\n", nil
	}}
	c := New("yt-dlp", jar, run)

	title, err := c.Title(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Title: %v", err)
	}
	if title != "Recovered Title" {
		t.Errorf("title = %q, want Recovered Title", title)
	}
	if len(run.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(run.calls))
	}
	if !hasArg(run.calls[0], "--cookies") {
		t.Errorf("first call missing --cookies: %v", run.calls[0])
	}
	if hasArg(run.calls[1], "--cookies") {
		t.Errorf("retry still has --cookies: %v", run.calls[1])
	}
}

func TestDownloadRetriesWithoutCookies(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	jar := filepath.Join(tmp, "cookies.txt")
	if err := os.WriteFile(jar, []byte("# Netscape HTTP Cookie File\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	run := &fakeRunner{respond: func(args []string) (string, error) {
		if hasArg(args, "--cookies") {
			return "", errors.New("Requested format is not available")
		}
		return "", nil
	}}
	c := New("yt-dlp", jar, run)

	if err := c.Download(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "/tmp/out_%(ext)s", 720, nil); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(run.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(run.calls))
	}
	if hasArg(run.calls[1], "--cookies") {
		t.Errorf("retry still has --cookies: %v", run.calls[1])
	}
}

func TestCookiesSkippedWhenMissing(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{out: "ok"}
	c := New("yt-dlp", "/nonexistent/cookies.txt", run)
	if _, err := c.Title(context.Background(), "https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Fatalf("Title: %v", err)
	}
	if hasArg(run.lastArgs, "--cookies") {
		t.Errorf("unexpected --cookies for missing jar: %v", run.lastArgs)
	}
}

func TestDownloadSubtitles(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	run := &fakeRunner{onRun: func([]string) {
		_ = os.WriteFile(filepath.Join(dest, "subs.en.json3"), []byte(`{"events":[]}`), 0o644)
	}}
	c := New("yt-dlp", "", run)

	tracks, err := c.DownloadSubtitles(context.Background(), "https://youtu.be/dQw4w9WgXcQ", dest, []string{"pt", "en"}, true)
	if err != nil {
		t.Fatalf("DownloadSubtitles: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(tracks))
	}
	if tracks[0].Lang != "en" || !tracks[0].Auto {
		t.Errorf("track = %+v, want lang en auto", tracks[0])
	}
	if !hasArg(run.lastArgs, "--write-auto-subs") {
		t.Errorf("args missing --write-auto-subs: %v", run.lastArgs)
	}
	if !hasArgPair(run.lastArgs, "--sub-langs", "pt,en") {
		t.Errorf("args missing sub langs: %v", run.lastArgs)
	}
	if !hasArgPair(run.lastArgs, "--sub-format", "json3") {
		t.Errorf("args missing sub format: %v", run.lastArgs)
	}
}

func TestFindDownloadedExactMatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := filepath.Join(dir, "video_720p.mp4")
	writeSized(t, want, 100)

	if got := FindDownloaded(dir, "video", 720); got != want {
		t.Errorf("FindDownloaded = %q, want %q", got, want)
	}
}

func TestFindDownloadedPrefersLargest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	small := filepath.Join(dir, "video_720p.webm")
	big := filepath.Join(dir, "video_720p.mkv")
	writeSized(t, small, 10)
	writeSized(t, big, 1000)

	if got := FindDownloaded(dir, "video", 720); got != big {
		t.Errorf("FindDownloaded = %q, want %q", got, big)
	}
}

func TestFindDownloadedPrefixFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := filepath.Join(dir, "video_720p.f137.mp4")
	writeSized(t, want, 50)

	if got := FindDownloaded(dir, "video", 720); got != want {
		t.Errorf("FindDownloaded = %q, want %q", got, want)
	}
}

func TestFindDownloadedTagFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := filepath.Join(dir, "renamed by yt-dlp_720p extra.mp4")
	writeSized(t, want, 50)
	writeSized(t, filepath.Join(dir, "unrelated.mp4"), 500)

	if got := FindDownloaded(dir, "video", 720); got != want {
		t.Errorf("FindDownloaded = %q, want %q", got, want)
	}
}

func TestFindDownloadedNothing(t *testing.T) {
	t.Parallel()

	if got := FindDownloaded(t.TempDir(), "video", 720); got != "" {
		t.Errorf("FindDownloaded = %q, want empty", got)
	}
}

func writeSized(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatal(err)
	}
}
