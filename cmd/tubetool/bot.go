package main

import (
	"context"
	"os/signal"
	"syscall"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iamwavecut/tubetool/internal/bot"
	"github.com/iamwavecut/tubetool/internal/config"
	"github.com/iamwavecut/tubetool/internal/infra"
	"github.com/iamwavecut/tubetool/internal/observability"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram surface",
	Run: func(cmd *cobra.Command, args []string) {
		runBot()
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot() {
	cfg := config.Get()
	if cfg.Telegram.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required for telegram mode")
	}

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if err := observability.Init(ctx); err != nil {
		log.WithError(err).Fatal("cant init observability")
	}
	observability.StartMetricsServer(cfg.MetricsPort)

	botAPI, err := api.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.WithError(err).Fatal("cant initialize bot api")
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}
	defer botAPI.StopReceivingUpdates()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("cant open store")
	}
	defer func() { _ = st.Close() }()

	tk := newToolkit(ctx, cfg, st)
	service := bot.NewService(botAPI, tk.pipe, tk.tasks, cfg)
	bot.RegisterUpdateHandler("operator", bot.NewOperator(service, tk.ffmpeg))

	updateConfig := api.NewUpdate(0)
	updateConfig.Timeout = 60
	processor := bot.NewUpdateProcessor(service, cfg.Telegram.Handlers)

	go infra.GoRecoverable(-1, "update pump", func() {
		updates, errCh := bot.GetUpdatesChans(ctx, botAPI, updateConfig)
		for {
			select {
			case err, ok := <-errCh:
				if !ok || errors.Is(err, context.Canceled) {
					return
				}
				log.WithError(err).Fatalln("bot api get updates error")
			case update, ok := <-updates:
				if !ok {
					return
				}
				if err := processor.Process(ctx, &update); err != nil {
					log.WithError(err).Errorln("cant process update")
				}
			case <-ctx.Done():
				return
			}
		}
	})

	log.WithField("bot", botAPI.Self.UserName).Info("telegram surface running")
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case <-infra.MonitorExecutable(ctx):
		log.Error("executable file was modified, shutting down")
	}
}
