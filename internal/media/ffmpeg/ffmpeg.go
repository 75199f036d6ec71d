// Package ffmpeg drives ffmpeg/ffprobe: audio enhancement, dub assembly
// primitives and chat-size transcodes.
package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/iamwavecut/tubetool/internal/media/runner"
)

// The enhancement chain: cut rumble and extreme highs, denoise, then even
// out the dynamics and loudness (EBU R128).
const enhanceFilters = "highpass=f=80," +
	"lowpass=f=12000," +
	"afftdn=nf=-25," +
	"acompressor=threshold=-20dB:ratio=4:attack=5:release=50," +
	"loudnorm=I=-16:TP=-1.5:LRA=11"

// MinWindowSeconds is the smallest dub window a segment may occupy.
const MinWindowSeconds = 0.15

type Client struct {
	ffmpeg  string
	ffprobe string
	run     runner.Runner
}

func New(ffmpegBin, ffprobeBin string, run runner.Runner) *Client {
	return &Client{ffmpeg: ffmpegBin, ffprobe: ffprobeBin, run: run}
}

// EnhanceAudio extracts the audio track, runs the enhancement chain and
// remuxes it over the untouched video stream. Returns the produced file,
// named <base>_audio_melhorado.mp4 beside the other artifacts.
func (c *Client) EnhanceAudio(ctx context.Context, videoPath, outDir string) (string, error) {
	base := stripExt(filepath.Base(videoPath))
	rawWAV := filepath.Join(outDir, base+"_audio_temp.wav")
	filteredWAV := filepath.Join(outDir, base+"_audio_tratado.wav")
	outVideo := filepath.Join(outDir, base+"_audio_melhorado.mp4")
	defer func() {
		os.Remove(rawWAV)
		os.Remove(filteredWAV)
	}()

	if _, err := c.run.Run(ctx, c.ffmpeg, "-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "2",
		rawWAV,
	); err != nil {
		return "", errors.Wrap(err, "extract audio")
	}

	if _, err := c.run.Run(ctx, c.ffmpeg, "-y",
		"-i", rawWAV,
		"-af", enhanceFilters,
		"-ar", "44100",
		filteredWAV,
	); err != nil {
		return "", errors.Wrap(err, "filter audio")
	}

	if _, err := c.run.Run(ctx, c.ffmpeg, "-y",
		"-i", videoPath,
		"-i", filteredWAV,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		outVideo,
	); err != nil {
		return "", errors.Wrap(err, "remux audio")
	}

	return outVideo, nil
}

// Duration probes a media file's duration in seconds.
func (c *Client) Duration(ctx context.Context, path string) (float64, error) {
	out, err := c.run.Run(ctx, c.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, errors.Wrap(err, "probe duration")
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse duration")
	}
	return math.Max(0, d), nil
}

// AtempoChain builds an atempo filter chain for the total speed-up factor.
// Single atempo stages only accept 0.5..2.0, so larger factors cascade.
func AtempoChain(factor float64) string {
	remaining := math.Max(0.5, factor)
	var parts []string
	for remaining > 2.0 {
		parts = append(parts, "atempo=2.0")
		remaining /= 2.0
	}
	parts = append(parts, fmt.Sprintf("atempo=%.6f", remaining))
	return strings.Join(parts, ",")
}

// FitToWindow renders a TTS clip into exactly target seconds of mono WAV:
// sped up when it overruns the window, silence-padded up to it either way.
func (c *Client) FitToWindow(ctx context.Context, inPath, outPath string, target float64) error {
	target = math.Max(MinWindowSeconds, target)
	actual, err := c.Duration(ctx, inPath)
	if err != nil {
		actual = 0
	}

	pad := fmt.Sprintf("apad=pad_dur=%.6f,atrim=0:%.6f", target, target)
	filter := pad
	if actual > target {
		filter = AtempoChain(actual/target) + "," + pad
	}

	if _, err := c.run.Run(ctx, c.ffmpeg, "-y",
		"-i", inPath,
		"-af", filter,
		"-ar", "44100",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		outPath,
	); err != nil {
		return errors.Wrap(err, "fit segment")
	}
	return nil
}

// SilenceBase writes a mono silence WAV of the given length, the canvas the
// dub clips are overlaid onto.
func (c *Client) SilenceBase(ctx context.Context, path string, seconds float64) error {
	_, err := c.run.Run(ctx, c.ffmpeg, "-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=mono",
		"-t", strconv.FormatFloat(seconds, 'f', -1, 64),
		path,
	)
	return errors.Wrap(err, "silence base")
}

// MixWithFilterScript runs ffmpeg over the inputs with a prebuilt
// filter_complex script that labels its result [out]. The script goes in a
// file because a long video yields more filter text than argv allows.
func (c *Client) MixWithFilterScript(ctx context.Context, inputs []string, scriptPath, outPath string) error {
	args := []string{"-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	args = append(args,
		"-filter_complex_script", scriptPath,
		"-map", "[out]",
		"-ar", "44100",
		outPath,
	)
	_, err := c.run.Run(ctx, c.ffmpeg, args...)
	return errors.Wrap(err, "mix segments")
}

// ConcatAudio concatenates WAV clips listed in a concat demuxer file.
func (c *Client) ConcatAudio(ctx context.Context, listPath, outPath string) error {
	_, err := c.run.Run(ctx, c.ffmpeg, "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "pcm_s16le",
		"-ar", "44100",
		outPath,
	)
	return errors.Wrap(err, "concat segments")
}

// ReplaceAudio swaps the video's audio for the dubbed track, padding the
// audio so it covers the whole video, without re-encoding the picture.
func (c *Client) ReplaceAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	_, err := c.run.Run(ctx, c.ffmpeg, "-y",
		"-i", videoPath,
		"-i", audioPath,
		"-filter_complex", "[1:a]apad[aout]",
		"-map", "0:v:0",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		outPath,
	)
	return errors.Wrap(err, "replace audio")
}

// CompressForTelegram transcodes down to a chat-friendly size. The result
// lands next to the input with a _telegram suffix.
func (c *Client) CompressForTelegram(ctx context.Context, videoPath string) (string, error) {
	base := stripExt(filepath.Base(videoPath))
	outPath := filepath.Join(filepath.Dir(videoPath), base+"_telegram.mp4")
	if _, err := c.run.Run(ctx, c.ffmpeg, "-y",
		"-i", videoPath,
		"-vf", "scale='min(1280,iw)':-2",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "30",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		outPath,
	); err != nil {
		return "", errors.Wrap(err, "compress video")
	}
	return outPath, nil
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
