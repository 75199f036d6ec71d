// tubetool is the application binary behind every surface: the web API,
// the Telegram bot and the one-shot terminal run. The container
// entrypoint picks the subcommand from APP_MODE.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iamwavecut/tubetool/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "tubetool",
	Short: "YouTube processing toolkit",
	Long: `Fetches transcripts, downloads 720p/1080p copies, enhances audio and
produces Portuguese dubbed versions of YouTube videos, behind a web API,
a Telegram bot or a one-shot terminal run.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFormatter(&config.TTFormatter{})
		log.SetOutput(os.Stdout)
		log.SetLevel(log.Level(config.Get().LogLevel))
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
