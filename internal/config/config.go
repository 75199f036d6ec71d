package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

// Mode names accepted by the entrypoint dispatcher. They are part of the
// container's external interface and never change spelling.
const (
	ModeWeb      = "web"
	ModeTelegram = "telegram"
	ModeCLI      = "cli"
)

type (
	Config struct {
		Mode        string `env:"APP_MODE,default=web"`
		LogLevel    int    `env:"LOG_LEVEL,default=4"`
		Language    string `env:"LANGUAGE,default=pt"`
		DownloadDir string `env:"DOWNLOAD_DIR,default=/app/downloads"`
		DBPath      string `env:"DB_PATH"`
		CookiesFile string `env:"COOKIES_FILE,default=/app/cookies.txt"`
		MetricsPort int    `env:"METRICS_PORT,default=2112"`

		Web        Web
		Telegram   Telegram
		Tools      Tools
		Dub        Dub
		Translator Translator
	}

	// Web carries the GUNICORN_* names verbatim: they are the knobs every
	// existing deployment of the container already sets, so the Go server
	// keeps answering to them.
	Web struct {
		Host           string `env:"BIND_HOST,default=0.0.0.0"`
		Port           int    `env:"PORT,default=5000"`
		Workers        int    `env:"GUNICORN_WORKERS,default=2"`
		Threads        int    `env:"GUNICORN_THREADS,default=4"`
		TimeoutSeconds int    `env:"GUNICORN_TIMEOUT,default=180"`
	}

	Telegram struct {
		BotToken      string   `env:"TELEGRAM_BOT_TOKEN"`
		UploadLimitMB int64    `env:"TELEGRAM_UPLOAD_LIMIT_MB,default=49"`
		Handlers      []string `env:"BOT_HANDLERS,default=operator"`
	}

	Tools struct {
		YtDlp      string `env:"YTDLP_PATH,default=yt-dlp"`
		FFmpeg     string `env:"FFMPEG_PATH,default=ffmpeg"`
		FFprobe    string `env:"FFPROBE_PATH,default=ffprobe"`
		EdgeTTS    string `env:"EDGE_TTS_PATH,default=edge-tts"`
		AutoUpdate bool   `env:"YTDLP_AUTO_UPDATE,default=false"`
	}

	Dub struct {
		Voice string `env:"DUB_VOICE,default=male"`
	}

	// Translator selects the caption translation backend. Model is left
	// empty by default so each backend picks its own.
	Translator struct {
		Backend string `env:"TRANSLATOR,default=google"`
		APIKey  string `env:"LLM_API_KEY"`
		Model   string `env:"LLM_API_MODEL"`
		BaseURL string `env:"LLM_API_URL"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

// Parse fills a Config from the given lookuper. Load wires it to the real
// environment; tests feed it an envconfig.MapLookuper.
func Parse(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	cfg := Config{}
	envcfg := envconfig.Config{
		Lookuper: lookuper,
		Target:   &cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DownloadDir, "tubetool.db")
	}
	return cfg, nil
}

func Load() (Config, error) {
	once.Do(func() {
		cfg, err := Parse(context.Background(), envconfig.OsLookuper())
		if err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = &cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}
