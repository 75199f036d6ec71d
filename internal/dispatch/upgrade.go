package dispatch

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/config"
)

const upgradeTimeout = 2 * time.Minute

// MaybeUpgradeYtDlp self-updates yt-dlp before the mode is launched, when
// enabled. Strictly best-effort: it returns nothing, so no failure here can
// ever keep the container from dispatching.
func MaybeUpgradeYtDlp(ctx context.Context, cfg config.Config) {
	if !cfg.Tools.AutoUpdate {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, upgradeTimeout)
	defer cancel()

	entry := log.WithField("tool", cfg.Tools.YtDlp)
	out, err := exec.CommandContext(ctx, cfg.Tools.YtDlp, "-U").CombinedOutput()
	if err != nil {
		entry.WithError(err).Warn("yt-dlp self-update failed, continuing")
		return
	}
	entry.WithField("result", lastLine(out)).Info("yt-dlp self-update finished")
}

func lastLine(out []byte) string {
	out = bytes.TrimSpace(out)
	if i := bytes.LastIndexByte(out, '\n'); i >= 0 {
		out = out[i+1:]
	}
	return string(out)
}
