package main

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/config"
	"github.com/iamwavecut/tubetool/internal/dub"
	"github.com/iamwavecut/tubetool/internal/infra"
	"github.com/iamwavecut/tubetool/internal/media/ffmpeg"
	"github.com/iamwavecut/tubetool/internal/media/runner"
	"github.com/iamwavecut/tubetool/internal/media/ytdlp"
	"github.com/iamwavecut/tubetool/internal/pipeline"
	"github.com/iamwavecut/tubetool/internal/store"
	"github.com/iamwavecut/tubetool/internal/tracker"
	"github.com/iamwavecut/tubetool/internal/translate"
)

// toolkit bundles the domain wiring every surface shares: one pipeline
// with its external tools and the task tracker in front of the store.
type toolkit struct {
	tasks  *tracker.Tracker
	ffmpeg *ffmpeg.Client
	pipe   *pipeline.Pipeline
}

// openStore prepares the downloads tree and opens the sqlite task store.
func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	if _, err := infra.EnsureDir(cfg.DownloadDir); err != nil {
		return nil, errors.Wrap(err, "prepare download dir")
	}
	return store.New(ctx, cfg.DBPath)
}

// newToolkit wires the pipeline. st may be nil, which keeps task history
// in memory only.
func newToolkit(ctx context.Context, cfg config.Config, st *store.Store) *toolkit {
	run := runner.New()
	dl := ytdlp.New(cfg.Tools.YtDlp, cfg.CookiesFile, run)
	ff := ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe, run)
	voice := dub.New(cfg.Tools.EdgeTTS, ff, run, cfg.Dub.Voice)

	translator, err := translate.New(ctx, cfg.Translator, "pt")
	if err != nil {
		log.WithError(err).Warn("local translation disabled")
		translator = nil
	}

	return &toolkit{
		tasks:  tracker.New(st),
		ffmpeg: ff,
		pipe:   pipeline.New(cfg, dl, ff, voice, translator),
	}
}
