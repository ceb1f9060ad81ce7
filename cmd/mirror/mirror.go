package mirror

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/mirror/pkg/config"
	"github.com/sidkik/mirror/pkg/errors"
	"github.com/sidkik/mirror/pkg/oplog"
	"github.com/sidkik/mirror/pkg/schedule"
	"github.com/sidkik/mirror/pkg/sync"
)

// Mocked out for unit testing.
var stdout io.Writer = os.Stdout

type options struct {
	configPath string
	onError    string
	once       bool
}

// New creates the `mirror` command.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "mirror <source> <replica> <interval> <logFile>",
		Short: "Keep a replica directory identical to a source directory.",
		Long: "Mirror the source directory onto the replica directory every\n" +
			"<interval> seconds. Files that are new or changed in the source are\n" +
			"copied, and files and directories that only exist in the replica are\n" +
			"deleted. Every change is printed and appended to <logFile>.",
		Args: cobra.ArbitraryArgs,

		// The caller prints the error, so we silence errors here to avoid
		// double printing.
		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "",
		"Read the source, replica, interval and log file from a YAML file "+
			"instead of the arguments")
	cmd.Flags().StringVar(&opts.onError, "on-error", "",
		"What to do when a pass hits an error: \"abort\" stops the pass, "+
			"\"isolate\" only skips the directory it happened in (default \"abort\")")
	cmd.Flags().BoolVar(&opts.once, "once", false,
		"Run a single pass and exit")
	return cmd
}

func (opts options) config(args []string) (config.Config, error) {
	var cfg config.Config
	var err error
	if opts.configPath != "" {
		if len(args) != 0 {
			return config.Config{}, errors.NewFriendlyError(
				"The --config flag can't be combined with positional arguments.")
		}
		cfg, err = config.ParseFile(opts.configPath)
	} else {
		cfg, err = config.ParseArgs(args)
	}
	if err != nil {
		return config.Config{}, err
	}

	if opts.onError != "" {
		policy, err := sync.ParseErrorPolicy(opts.onError)
		if err != nil {
			return config.Config{}, errors.NewFriendlyError("Invalid --on-error: %s", err)
		}
		cfg.ErrorPolicy = policy
	}
	cfg.Once = opts.once
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.WithFields(log.Fields{
		"source":   cfg.Source,
		"replica":  cfg.Replica,
		"interval": cfg.Interval,
		"logFile":  cfg.LogFile,
		"onError":  cfg.ErrorPolicy,
	}).Debug("Starting mirror")

	clock := clockwork.NewRealClock()
	runner := schedule.Runner{
		Clock:        clock,
		Synchronizer: sync.NewSyncer(oplog.New(cfg.LogFile, stdout, clock), cfg.ErrorPolicy),
		Out:          stdout,
		Log:          log.StandardLogger(),
	}
	return runner.Run(ctx, cfg)
}
