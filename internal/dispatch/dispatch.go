// Package dispatch turns the container run configuration into the single
// application process that replaces the entrypoint.
package dispatch

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/iamwavecut/tubetool/internal/config"
	"github.com/iamwavecut/tubetool/internal/errs"
)

// AppBinary is the application image the entrypoint hands control to.
const AppBinary = "tubetool"

// Target is the child process image: Args[0] equals Binary, environment is
// inherited wholesale from the entrypoint.
type Target struct {
	Binary string
	Args   []string
}

// Plan maps APP_MODE to the exact argv to exec. The GUNICORN_* values ride
// along as flags only for the web surface; the telegram and cli surfaces
// read everything they need from their own environment.
func Plan(cfg config.Config) (Target, error) {
	switch cfg.Mode {
	case config.ModeWeb:
		return Target{
			Binary: AppBinary,
			Args: []string{
				AppBinary, "serve",
				"--host", "0.0.0.0",
				"--port", strconv.Itoa(cfg.Web.Port),
				"--workers", strconv.Itoa(cfg.Web.Workers),
				"--threads", strconv.Itoa(cfg.Web.Threads),
				"--timeout", strconv.Itoa(cfg.Web.TimeoutSeconds),
			},
		}, nil
	case config.ModeTelegram:
		return Target{Binary: AppBinary, Args: []string{AppBinary, "bot"}}, nil
	case config.ModeCLI:
		return Target{Binary: AppBinary, Args: []string{AppBinary, "get"}}, nil
	}
	return Target{}, errors.WithMessage(errs.ErrUnknownMode, cfg.Mode)
}

// Usage explains the valid APP_MODE values. Written to stderr right before
// the entrypoint exits with status 1.
func Usage(w io.Writer, mode string) {
	fmt.Fprintf(w, "tubetool-entrypoint: unknown APP_MODE %q, valid modes: web, telegram, cli\n", mode)
}
