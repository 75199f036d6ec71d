// Package dub synthesizes a Portuguese voice track from timed transcript
// segments and renders a dubbed copy of the video.
package dub

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/errs"
	"github.com/iamwavecut/tubetool/internal/media/ffmpeg"
	"github.com/iamwavecut/tubetool/internal/media/runner"
	"github.com/iamwavecut/tubetool/internal/transcript"
)

// Neural voice ids the TTS engine ships for pt-BR. Both english and
// portuguese option names are accepted.
var voices = map[string]string{
	"male":      "pt-BR-AntonioNeural",
	"masculina": "pt-BR-AntonioNeural",
	"female":    "pt-BR-FranciscaNeural",
	"feminina":  "pt-BR-FranciscaNeural",
}

const defaultVoice = "male"

// VoiceID resolves a configured voice name, falling back to the default
// male voice for unknown values.
func VoiceID(name string) string {
	if id, ok := voices[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id
	}
	return voices[defaultVoice]
}

// OutputName derives the dubbed file name from the source video, dropping
// the audio enhancement tag so names do not stack suffixes.
func OutputName(videoPath string) string {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	base = strings.ReplaceAll(base, "_audio_melhorado", "")
	return base + "_dublado_PT.mp4"
}

type Dubber struct {
	tts    string
	ffmpeg *ffmpeg.Client
	run    runner.Runner
	voice  string
}

func New(ttsBin string, ff *ffmpeg.Client, run runner.Runner, voiceName string) *Dubber {
	return &Dubber{tts: ttsBin, ffmpeg: ff, run: run, voice: VoiceID(voiceName)}
}

// timedFile is a synthesized clip placed at its transcript start time.
type timedFile struct {
	path  string
	start float64
}

// DubVideo speaks every segment, fits each clip into its caption window,
// lays the clips over a silence canvas and swaps the result in as the
// video's audio track. The dubbed file lands in outDir.
func (d *Dubber) DubVideo(ctx context.Context, videoPath, outDir string, segments []transcript.Segment) (string, error) {
	normalized := transcript.Normalize(segments)
	if len(normalized) == 0 {
		return "", errs.ErrNoTranscript
	}

	workDir, err := os.MkdirTemp("", "dubbing_")
	if err != nil {
		return "", errors.Wrap(err, "create dub workspace")
	}
	defer os.RemoveAll(workDir)

	voiceTrack, err := d.assembleTrack(ctx, workDir, normalized)
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(outDir, OutputName(videoPath))
	if err := d.ffmpeg.ReplaceAudio(ctx, videoPath, voiceTrack, outPath); err != nil {
		return "", errors.Wrap(err, "replace audio track")
	}
	return outPath, nil
}

func (d *Dubber) assembleTrack(ctx context.Context, workDir string, segments []transcript.Segment) (string, error) {
	spoken := make([]timedFile, 0, len(segments))
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fitted, err := d.speakSegment(ctx, workDir, i, seg)
		if err != nil {
			log.WithError(err).WithField("segment", i).Warn("skipping voice segment")
			continue
		}
		spoken = append(spoken, timedFile{path: fitted, start: seg.Start})
		if (i+1)%20 == 0 {
			log.WithField("done", i+1).WithField("total", len(segments)).Debug("voice segments synthesized")
		}
	}
	if len(spoken) == 0 {
		return "", errors.New("no voice segments were generated")
	}

	silence := filepath.Join(workDir, "silencio_base.wav")
	if err := d.ffmpeg.SilenceBase(ctx, silence, transcript.TotalSpan(segments)); err != nil {
		return "", errors.Wrap(err, "render silence base")
	}

	mixed := filepath.Join(workDir, "dublagem_completa.wav")
	if err := d.mix(ctx, workDir, silence, spoken, mixed); err != nil {
		log.WithError(err).Warn("complex mix failed, falling back to plain concatenation")
		return d.concat(ctx, workDir, spoken)
	}
	return mixed, nil
}

// speakSegment renders one caption through the TTS engine and squeezes the
// clip into the caption's time window.
func (d *Dubber) speakSegment(ctx context.Context, workDir string, i int, seg transcript.Segment) (string, error) {
	raw := filepath.Join(workDir, fmt.Sprintf("seg_raw_%05d.mp3", i))
	fitted := filepath.Join(workDir, fmt.Sprintf("seg_%05d.wav", i))

	if _, err := d.run.Run(ctx, d.tts, "--text", seg.Text, "--voice", d.voice, "--write-media", raw); err != nil {
		return "", errors.Wrap(err, "synthesize speech")
	}
	err := d.ffmpeg.FitToWindow(ctx, raw, fitted, seg.Duration)
	os.Remove(raw)
	if err != nil {
		return "", errors.Wrap(err, "fit clip to caption window")
	}
	return fitted, nil
}

func (d *Dubber) mix(ctx context.Context, workDir, silence string, spoken []timedFile, outPath string) error {
	script := filepath.Join(workDir, "mix_filter.txt")
	if err := os.WriteFile(script, []byte(mixFilter(spoken)), 0o644); err != nil {
		return errors.Wrap(err, "write mix filter script")
	}
	inputs := make([]string, 0, len(spoken)+1)
	inputs = append(inputs, silence)
	for _, s := range spoken {
		inputs = append(inputs, s.path)
	}
	return d.ffmpeg.MixWithFilterScript(ctx, inputs, script, outPath)
}

// mixFilter delays each clip to its start time and mixes everything over
// the silence canvas (input 0) without renormalizing levels.
func mixFilter(spoken []timedFile) string {
	parts := make([]string, 0, len(spoken)+1)
	for i, s := range spoken {
		parts = append(parts, fmt.Sprintf(
			"[%d]aresample=44100,aformat=channel_layouts=mono,adelay=%d[d%d]",
			i+1, int(s.start*1000), i,
		))
	}
	var mixIn strings.Builder
	mixIn.WriteString("[0]")
	for i := range spoken {
		fmt.Fprintf(&mixIn, "[d%d]", i)
	}
	parts = append(parts, fmt.Sprintf(
		"%samix=inputs=%d:duration=longest:normalize=0:dropout_transition=0[out]",
		mixIn.String(), len(spoken)+1,
	))
	return strings.Join(parts, ";")
}

func (d *Dubber) concat(ctx context.Context, workDir string, spoken []timedFile) (string, error) {
	list := filepath.Join(workDir, "concat_list.txt")
	var b strings.Builder
	for _, s := range spoken {
		fmt.Fprintf(&b, "file '%s'\n", s.path)
	}
	if err := os.WriteFile(list, []byte(b.String()), 0o644); err != nil {
		return "", errors.Wrap(err, "write concat list")
	}
	out := filepath.Join(workDir, "dublagem_concat.wav")
	if err := d.ffmpeg.ConcatAudio(ctx, list, out); err != nil {
		return "", errors.Wrap(err, "concatenate voice segments")
	}
	return out, nil
}
