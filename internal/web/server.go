// Package web serves the HTTP surface: the single page UI, the JSON
// task API and the downloads browser.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/config"
	"github.com/iamwavecut/tubetool/internal/observability"
	"github.com/iamwavecut/tubetool/internal/pipeline"
	"github.com/iamwavecut/tubetool/internal/store"
	"github.com/iamwavecut/tubetool/internal/tracker"
)

// Runner runs one processing job. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, url string, opts pipeline.Options, report pipeline.Progress) (pipeline.Result, error)
}

type Server struct {
	cfg    config.Config
	tasks  *tracker.Tracker
	runner Runner

	jobs    chan func()
	srv     *http.Server
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(cfg config.Config, tasks *tracker.Tracker, runner Runner) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		tasks:   tasks,
		runner:  runner,
		jobs:    make(chan func(), queueSize(cfg)),
		baseCtx: baseCtx,
		cancel:  cancel,
	}

	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/api/process", s.handleProcess).Methods(http.MethodPost)
	r.HandleFunc("/api/status/{id}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", s.handleTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/downloads", s.handleDownloads).Methods(http.MethodGet)
	r.HandleFunc("/downloads/{path:.*}", s.handleFile).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.Web.TimeoutSeconds) * time.Second,
	}
	return s
}

// workerCount mirrors the gunicorn sizing the container always ran
// with: workers times threads.
func workerCount(cfg config.Config) int {
	n := cfg.Web.Workers * cfg.Web.Threads
	if n < 1 {
		n = 1
	}
	return n
}

func queueSize(cfg config.Config) int {
	return workerCount(cfg) * 8
}

// Start brings up the worker pool and then the listener, so a bound
// port means the API is ready to accept work.
func (s *Server) Start(ctx context.Context) error {
	s.startWorkers()
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.srv.Addr)
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server failed")
		}
	}()
	log.WithField("addr", s.srv.Addr).Info("web server listening")
	return nil
}

// Stop drains the HTTP server first so nothing new is enqueued, then
// cancels running jobs and waits for the workers to exit.
func (s *Server) Stop(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	close(s.jobs)
	s.cancel()
	s.wg.Wait()
	return errors.Wrap(err, "shutdown http server")
}

func (s *Server) startWorkers() {
	for i := 0; i < workerCount(s.cfg); i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for job := range s.jobs {
				job()
			}
		}()
	}
}

// runTask executes one job and folds its progress into the tracker.
func (s *Server) runTask(ctx context.Context, id, url string, opts pipeline.Options) {
	stop := observability.StartTaskTimer("web")
	defer stop()

	res, err := s.runner.Run(ctx, url, opts, func(up pipeline.Update) {
		if up.Note != "" {
			observability.RecordStepError()
			s.tasks.AddError(id, up.Note)
			return
		}
		s.tasks.SetProgress(ctx, id, up.Stage, up.Percent)
	})
	s.tasks.Finish(ctx, id, res, err)

	status := store.StatusDone
	if err != nil {
		status = store.StatusError
		log.WithError(err).WithField("task", id).Error("task failed")
	}
	observability.RecordTask("web", status)
}
