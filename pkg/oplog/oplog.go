// Package oplog is the operation log: a record of every change made to the
// replica. Each entry is a single "<timestamp>: <message>" line that's printed
// to the console and appended to the log file.
package oplog

import (
	"fmt"
	"io"
	"os"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// TimestampLayout is the layout of the timestamp that prefixes every line.
const TimestampLayout = "2006-01-02 15:04:05"

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// New returns a logger that writes operation log lines to `console`, and
// appends them to the file at `path`.
// The file is opened for each line and never held open.
func New(path string, console io.Writer, clock clockwork.Clock) *log.Logger {
	logger := log.New()
	logger.SetOutput(console)
	logger.SetLevel(log.InfoLevel)
	logger.SetFormatter(&lineFormatter{clock: clock})
	logger.AddHook(&fileHook{path: path})
	return logger
}

// lineFormatter renders entries as "<timestamp>: <message>", dropping the
// level and fields.
type lineFormatter struct {
	clock clockwork.Clock
}

func (f *lineFormatter) Format(entry *log.Entry) ([]byte, error) {
	return []byte(fmt.Sprintf("%s: %s\n",
		f.clock.Now().Format(TimestampLayout), entry.Message)), nil
}

type fileHook struct {
	path string
}

func (h *fileHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *fileHook) Fire(entry *log.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		log.WithError(err).Warn("Failed to format operation log entry")
		return nil
	}

	if err := appendLine(h.path, line); err != nil {
		log.WithError(err).WithField("path", h.path).Warn(
			"Failed to write to the log file. The entry was only printed to the console.")
	}

	// Never return an error because logrus prints hook errors straight to
	// stderr, in between the operation log lines.
	return nil
}

func appendLine(path string, line []byte) error {
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
