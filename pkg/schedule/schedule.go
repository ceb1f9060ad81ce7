// Package schedule runs sync passes on a fixed interval.
package schedule

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/mirror/pkg/config"
	"github.com/sidkik/mirror/pkg/errors"
	"github.com/sidkik/mirror/pkg/sync"
)

// Synchronizer runs a single sync pass.
type Synchronizer interface {
	Synchronize(source, replica string) (sync.Stats, error)
}

// Runner repeatedly mirrors the configured source onto the replica.
type Runner struct {
	Clock        clockwork.Clock
	Synchronizer Synchronizer

	// Out receives the startup banner.
	Out io.Writer

	// Log is for diagnostics. Changes to the replica are recorded by the
	// Synchronizer.
	Log logrus.FieldLogger
}

// Run performs a pass, waits `cfg.Interval`, and repeats until `ctx` is
// cancelled. Passes never overlap.
// If `cfg.Once` is set, Run returns after the first pass with that pass's
// error.
func (r Runner) Run(ctx context.Context, cfg config.Config) error {
	lock, err := acquireLock(cfg.Replica)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.Log.WithError(err).Warn("Failed to release replica lock")
		}
	}()

	fmt.Fprintln(r.Out, "Synchronization started")
	for {
		err := r.runPass(cfg)
		if cfg.Once {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-r.Clock.After(cfg.Interval):
		}
	}
}

func (r Runner) runPass(cfg config.Config) error {
	start := r.Clock.Now()
	stats, err := r.Synchronizer.Synchronize(cfg.Source, cfg.Replica)

	logger := r.Log.WithFields(logrus.Fields{
		"copied":   stats.FilesCopied,
		"deleted":  stats.FilesDeleted + stats.DirsDeleted,
		"duration": r.Clock.Since(start),
	})
	if err != nil {
		// The Synchronizer already wrote the error to the operation log.
		logger.WithError(err).Debug("Pass failed. Retrying after the interval.")
		return err
	}

	logger.Debugf("Pass finished, %s copied", humanize.Bytes(uint64(stats.BytesCopied)))
	return nil
}

// LockPath returns the path of the lock file that guards `replica`. It lives
// beside the replica, outside the mirrored tree.
func LockPath(replica string) string {
	return filepath.Join(filepath.Dir(replica), "."+filepath.Base(replica)+".mirror.lock")
}

func acquireLock(replica string) (*flock.Flock, error) {
	path := LockPath(replica)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.WithContext(err, "create lock directory")
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.WithContext(err, "lock replica")
	}

	if !locked {
		return nil, errors.ReplicaLocked{Path: replica}
	}
	return lock, nil
}
