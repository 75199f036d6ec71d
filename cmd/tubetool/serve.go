package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/tubetool/internal/config"
	"github.com/iamwavecut/tubetool/internal/infra"
	"github.com/iamwavecut/tubetool/internal/lifecycle"
	"github.com/iamwavecut/tubetool/internal/observability"
	"github.com/iamwavecut/tubetool/internal/web"
)

const shutdownTimeout = 30 * time.Second

var (
	serveHost    string
	servePort    int
	serveWorkers int
	serveThreads int
	serveTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web surface",
	Long: `Serves the single page UI, the JSON task API and the downloads
browser. Flags override the corresponding environment values; the
container entrypoint passes them explicitly.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "interface to bind (default from BIND_HOST)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from PORT)")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "worker count (default from GUNICORN_WORKERS)")
	serveCmd.Flags().IntVar(&serveThreads, "threads", 0, "threads per worker (default from GUNICORN_THREADS)")
	serveCmd.Flags().IntVar(&serveTimeout, "timeout", 0, "request timeout in seconds (default from GUNICORN_TIMEOUT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	cfg := config.Get()
	if serveHost != "" {
		cfg.Web.Host = serveHost
	}
	if servePort > 0 {
		cfg.Web.Port = servePort
	}
	if serveWorkers > 0 {
		cfg.Web.Workers = serveWorkers
	}
	if serveThreads > 0 {
		cfg.Web.Threads = serveThreads
	}
	if serveTimeout > 0 {
		cfg.Web.TimeoutSeconds = serveTimeout
	}

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if err := observability.Init(ctx); err != nil {
		log.WithError(err).Fatal("cant init observability")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("cant open store")
	}

	tk := newToolkit(ctx, cfg, st)
	srv := web.New(cfg, tk.tasks, tk.pipe)

	rt := lifecycle.NewRuntime(
		lifecycle.Funcs{OnStop: func(context.Context) error { return st.Close() }},
		srv,
	)
	if err := rt.Start(ctx); err != nil {
		log.WithError(err).Fatal("cant start web surface")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-infra.MonitorExecutable(gctx):
			return errors.New("executable file was modified")
		}
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("supervision ended")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rt.Stop(stopCtx); err != nil {
		log.WithError(err).Error("shutdown finished with errors")
	}
	log.Info("web surface stopped")
}
