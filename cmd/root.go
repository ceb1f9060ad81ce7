package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/mirror/cmd/mirror"
	"github.com/sidkik/mirror/cmd/util"
	"github.com/sidkik/mirror/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "MIRROR_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := mirror.New()
	rootCmd.AddCommand(version.New())

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
