// The container entrypoint. Reads the run configuration from the
// environment, optionally freshens yt-dlp, then replaces itself with the
// selected application surface via execve. It never survives a successful
// dispatch and never validates what the child will read for itself.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/config"
	"github.com/iamwavecut/tubetool/internal/dispatch"
)

func main() {
	log.SetFormatter(&config.TTFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tubetool-entrypoint: %v\n", err)
		os.Exit(1)
	}
	log.SetLevel(log.Level(cfg.LogLevel))

	target, err := dispatch.Plan(cfg)
	if err != nil {
		dispatch.Usage(os.Stderr, cfg.Mode)
		os.Exit(1)
	}

	dispatch.MaybeUpgradeYtDlp(context.Background(), cfg)

	binary, err := exec.LookPath(target.Binary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tubetool-entrypoint: command not found: %s\n", target.Binary)
		os.Exit(127)
	}

	log.WithField("mode", cfg.Mode).WithField("argv", target.Args).Info("dispatching")
	if err := syscall.Exec(binary, target.Args, os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "tubetool-entrypoint: failed to exec %s: %v\n", binary, err)
		os.Exit(1)
	}
}
