package cli

import (
	"log/slog"
	"os"

	"github.com/me/reel/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking REEL_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("REEL_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the reel CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reel",
		Short: "Timeline playback for scripted scenarios",
		Long:  "reel registers scenario documents on a reel server and drives live playback sessions against them.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "reel server URL (or REEL_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newPushCmd(),
		newValidateCmd(),
		newListCmd(),
		newRmCmd(),
		newPlayCmd(),
		newSessionsCmd(),
		newStatusCmd(),
		newCtlCmd(),
		newWatchCmd(),
		newRunCmd(),
	)

	return root
}
