// Package pipeline runs the processing steps for one video: transcript,
// downloads, audio enhancement and Portuguese dubbing. Steps are
// independent; one failing is noted and the rest still run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/config"
	"github.com/iamwavecut/tubetool/internal/infra"
	"github.com/iamwavecut/tubetool/internal/media/ytdlp"
	"github.com/iamwavecut/tubetool/internal/observability"
	"github.com/iamwavecut/tubetool/internal/transcript"
	"github.com/iamwavecut/tubetool/internal/translate"
	"github.com/iamwavecut/tubetool/internal/utils/text"
	"github.com/iamwavecut/tubetool/internal/youtube"
)

// Downloader is the video fetch surface the pipeline drives.
type Downloader interface {
	Title(ctx context.Context, url string) (string, error)
	Download(ctx context.Context, url, outputTemplate string, maxHeight int, onLine func(string)) error
	DownloadSubtitles(ctx context.Context, url, destDir string, langs []string, auto bool) ([]ytdlp.SubtitleTrack, error)
}

// AudioLab is the audio post-processing surface.
type AudioLab interface {
	EnhanceAudio(ctx context.Context, videoPath, outDir string) (string, error)
}

// Voice renders a dubbed copy of a video from timed segments.
type Voice interface {
	DubVideo(ctx context.Context, videoPath, outDir string, segments []transcript.Segment) (string, error)
}

// Update is one progress notification. Stage and Percent move the task's
// display line; Note reports a non-fatal problem as it happens.
type Update struct {
	Stage   string
	Percent int
	Note    string
}

// Progress receives updates while a job runs. A nil Progress is fine.
type Progress func(Update)

const (
	KindVideo      = "video"
	KindTranscript = "transcricao"
)

// File is one produced artifact, named relative to the task folder.
type File struct {
	Name string
	Kind string
}

// Result is everything one job produced. Errors holds the notes emitted
// for skipped or failed steps.
type Result struct {
	VideoID string
	Title   string
	Folder  string
	Files   []File
	Errors  []string

	Video720  string
	Video1080 string
	Enhanced  string
	Dubbed    string
}

// BestVideo is the preferred artifact for delivery: dubbed, enhanced,
// 1080p, then 720p.
func (r Result) BestVideo() string {
	for _, p := range []string{r.Dubbed, r.Enhanced, r.Video1080, r.Video720} {
		if p != "" {
			return p
		}
	}
	return ""
}

type Pipeline struct {
	cfg        config.Config
	dl         Downloader
	lab        AudioLab
	voice      Voice
	translator translate.Translator
}

// New wires a pipeline. translator may be nil, which disables local
// translation fallback.
func New(cfg config.Config, dl Downloader, lab AudioLab, voice Voice, translator translate.Translator) *Pipeline {
	return &Pipeline{cfg: cfg, dl: dl, lab: lab, voice: voice, translator: translator}
}

// job carries the mutable state of one Run.
type job struct {
	p      *Pipeline
	url    string
	opts   Options
	report Progress

	step  int
	total int
	base  string
	res   Result
}

// Run processes one video URL. It returns an error only for conditions
// that prevent the job from running at all; per-step failures land in
// Result.Errors.
func (p *Pipeline) Run(ctx context.Context, url string, opts Options, report Progress) (Result, error) {
	videoID, err := youtube.ExtractID(url)
	if err != nil {
		return Result{}, err
	}
	j := &job{p: p, url: url, opts: opts, report: report, total: opts.StepCount()}
	j.res.VideoID = videoID

	j.stage("Obtendo informações do vídeo...", 0)
	title, err := p.dl.Title(ctx, url)
	if err != nil || strings.TrimSpace(title) == "" {
		title = videoID
	}
	j.res.Title = title
	j.base = text.SanitizeFilename(title)

	folder, err := infra.EnsureDir(p.cfg.DownloadDir, time.Now().Format("02-01-06")+" "+j.base)
	if err != nil {
		return j.res, errors.Wrap(err, "create task folder")
	}
	j.res.Folder = folder

	var ptSegments []transcript.Segment
	if opts.Transcript {
		j.advance("Buscando transcrição...")
		ptSegments = j.fetchTranscript(ctx, folder)
	}
	if opts.Download720 {
		j.advance("Baixando 720p...")
		j.download(ctx, folder, 720)
	}
	if opts.Download1080 {
		j.advance("Baixando 1080p...")
		j.download(ctx, folder, 1080)
	}
	if opts.EnhanceAudio {
		j.advance("Melhorando áudio...")
		j.enhance(ctx, folder)
	}
	if opts.DubPortuguese {
		j.advance("Gerando dublagem PT...")
		j.dub(ctx, folder, ptSegments)
	}

	if err := ctx.Err(); err != nil {
		return j.res, err
	}
	j.stage("Concluído!", 100)
	return j.res, nil
}

func (j *job) stage(stage string, percent int) {
	if j.report != nil {
		j.report(Update{Stage: stage, Percent: percent})
	}
}

func (j *job) advance(label string) {
	j.step++
	j.stage(fmt.Sprintf("(%d/%d) %s", j.step, j.total, label), j.step*100/j.total)
}

// note records a non-fatal problem and forwards it to the reporter.
func (j *job) note(msg string) {
	j.res.Errors = append(j.res.Errors, msg)
	if j.report != nil {
		j.report(Update{Note: msg})
	}
}

func (j *job) addFile(name, kind string) {
	j.res.Files = append(j.res.Files, File{Name: name, Kind: kind})
}

func (j *job) download(ctx context.Context, folder string, height int) {
	template := filepath.Join(folder, fmt.Sprintf("%s_%dp.%%(ext)s", j.base, height))
	err := j.p.dl.Download(ctx, j.url, template, height, func(line string) { log.Debug(line) })
	if err != nil {
		log.WithError(err).WithField("height", height).Warn("download failed")
		j.note(fmt.Sprintf("Falha no download de %dp.", height))
		return
	}
	path := ytdlp.FindDownloaded(folder, j.base, height)
	if path == "" {
		j.note(fmt.Sprintf("Falha no download de %dp.", height))
		return
	}
	if fi, err := os.Stat(path); err == nil {
		observability.RecordDownloadBytes(fi.Size())
	}
	if height == 720 {
		j.res.Video720 = path
	} else {
		j.res.Video1080 = path
	}
	j.addFile(filepath.Base(path), KindVideo)
}

// savedTranscript recovers PT segments from what a same-day run for the
// same title left in the folder, so a rerun without the transcript step
// can still dub: the translated transcript directly, or the original one
// translated locally and saved next to it.
func (j *job) savedTranscript(ctx context.Context, folder string) []transcript.Segment {
	if segments, err := transcript.ParseFile(filepath.Join(folder, j.base+"_transcricao_PT.txt")); err == nil && len(segments) > 0 {
		return segments
	}
	if j.p.translator == nil {
		return nil
	}
	original, err := transcript.ParseFile(filepath.Join(folder, j.base+"_transcricao_original.txt"))
	if err != nil || len(original) == 0 {
		return nil
	}
	segments := translate.Segments(ctx, j.p.translator, original)
	ptPath := filepath.Join(folder, j.base+"_transcricao_PT_traduzida.txt")
	if err := transcript.SaveTranslated(ptPath, segments); err == nil {
		j.addFile(filepath.Base(ptPath), KindTranscript)
	}
	return segments
}

// baseVideo picks the enhancement source: this run's files first, then
// whatever a same-day run for the same title left in the folder.
func (j *job) baseVideo() string {
	for _, p := range []string{j.res.Video1080, j.res.Video720} {
		if p != "" {
			return p
		}
	}
	for _, h := range []int{1080, 720} {
		if p := ytdlp.FindDownloaded(j.res.Folder, j.base, h); p != "" {
			return p
		}
	}
	return ""
}

func (j *job) enhance(ctx context.Context, folder string) {
	base := j.baseVideo()
	if base == "" {
		j.note("Melhoria de áudio pulada: vídeo não baixado.")
		return
	}
	out, err := j.p.lab.EnhanceAudio(ctx, base, folder)
	if err != nil {
		log.WithError(err).Warn("audio enhancement failed")
		j.note("Falha na melhoria de áudio.")
		return
	}
	j.res.Enhanced = out
	j.addFile(filepath.Base(out), KindVideo)
}

func (j *job) dub(ctx context.Context, folder string, segments []transcript.Segment) {
	base := j.res.Enhanced
	if base == "" {
		base = j.baseVideo()
	}
	if len(segments) == 0 {
		segments = j.savedTranscript(ctx, folder)
	}
	if len(segments) == 0 || base == "" {
		j.note("Dublagem pulada: sem transcrição PT ou sem vídeo base disponível.")
		return
	}
	out, err := j.p.voice.DubVideo(ctx, base, folder, segments)
	if err != nil {
		log.WithError(err).Warn("dubbing failed")
		j.note("Falha ao gerar dublagem PT.")
		return
	}
	j.res.Dubbed = out
	j.addFile(filepath.Base(out), KindVideo)
}
