// Package bot is the Telegram surface: a user sends a YouTube link, picks
// options from an inline menu, and receives the processed video back in
// the chat.
package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/tubetool/internal/config"
	"github.com/iamwavecut/tubetool/internal/pipeline"
	"github.com/iamwavecut/tubetool/internal/tracker"
)

// Runner runs one processing job. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, url string, opts pipeline.Options, report pipeline.Progress) (pipeline.Result, error)
}

type ServiceBot interface {
	GetBot() *api.BotAPI
}

type Service interface {
	ServiceBot
	GetRunner() Runner
	GetTracker() *tracker.Tracker
	GetConfig() config.Config
	// Language is the catalog used for every user-facing string.
	Language() string
}

type service struct {
	bot    *api.BotAPI
	runner Runner
	tasks  *tracker.Tracker
	cfg    config.Config
}

func NewService(bot *api.BotAPI, runner Runner, tasks *tracker.Tracker, cfg config.Config) *service {
	return &service{
		bot:    bot,
		runner: runner,
		tasks:  tasks,
		cfg:    cfg,
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetRunner() Runner {
	return s.runner
}

func (s *service) GetTracker() *tracker.Tracker {
	return s.tasks
}

func (s *service) GetConfig() config.Config {
	return s.cfg
}

func (s *service) Language() string {
	return s.cfg.Language
}
