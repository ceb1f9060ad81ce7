package config

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sidkik/mirror/pkg/errors"
	"github.com/sidkik/mirror/pkg/sync"
)

const (
	// UsageMessage is shown when the mirror is invoked with the wrong
	// arguments.
	UsageMessage = "Usage: mirror <source> <replica> <interval> <logFile>"

	// InitialConfigVersion is the first version of the mirror config file.
	// Config files that do not specify a version will default to this
	// version.
	InitialConfigVersion = "v1alpha1"

	// SupportedConfigVersion is the config file version understood by this
	// binary.
	SupportedConfigVersion = "v1alpha1"

	// MinInterval is the shortest allowed time between passes.
	MinInterval = time.Second
)

// maxIntervalSeconds is the largest interval that fits in a time.Duration.
const maxIntervalSeconds = math.MaxInt64 / int64(time.Second)

// Config is everything needed to run the mirror. It is not modified once
// parsed.
type Config struct {
	// Source, Replica and LogFile are absolute paths.
	Source  string
	Replica string
	LogFile string

	// Interval is the time between the end of one pass and the start of the
	// next.
	Interval time.Duration

	ErrorPolicy sync.ErrorPolicy

	// Once runs a single pass instead of looping.
	Once bool
}

// File is the on-disk format of the config accepted by `--config`.
type File struct {
	Version string `json:"version,omitempty"`
	Source  string `json:"source"`
	Replica string `json:"replica"`

	// Interval is in whole seconds.
	Interval int    `json:"interval"`
	LogFile  string `json:"logFile"`
	OnError  string `json:"onError,omitempty"`
}

func (f File) getVersion() string {
	return f.Version
}

// ParseArgs parses the positional arguments
// `<source> <replica> <interval> <logFile>`.
func ParseArgs(args []string) (Config, error) {
	if len(args) != 4 {
		return Config{}, errors.NewFriendlyError(UsageMessage)
	}

	seconds, err := strconv.Atoi(args[2])
	if err != nil {
		return Config{}, errors.NewFriendlyError("Interval must be an integer.")
	}

	interval, err := intervalFromSeconds(seconds)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Source:   args[0],
		Replica:  args[1],
		Interval: interval,
		LogFile:  args[3],
	}
	return cfg.normalize("")
}

// ParseFile parses the config file at `path`. Relative paths inside the file
// are evaluated relative to the directory containing the file.
func ParseFile(path string) (Config, error) {
	path, err := homedirExpand(path)
	if err != nil {
		return Config{}, errors.WithContext(err, "expand config path")
	}

	file := File{Version: InitialConfigVersion}
	if err := parseConfig(path, &file, SupportedConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return Config{}, errors.NewFriendlyError(
				"The mirror config file doesn't exist at %q.", path)
		}
		return Config{}, errors.WithContext(err, "parse")
	}

	required := []struct{ field, value string }{
		{"source", file.Source},
		{"replica", file.Replica},
		{"logFile", file.LogFile},
	}
	for _, r := range required {
		if r.value == "" {
			return Config{}, errors.MissingFieldError{Field: r.field}
		}
	}

	policy, err := sync.ParseErrorPolicy(file.OnError)
	if err != nil {
		return Config{}, errors.NewFriendlyError("Invalid onError in %q: %s", path, err)
	}

	interval, err := intervalFromSeconds(file.Interval)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Source:      file.Source,
		Replica:     file.Replica,
		Interval:    interval,
		LogFile:     file.LogFile,
		ErrorPolicy: policy,
	}
	return cfg.normalize(filepath.Dir(path))
}

// normalize makes every path absolute, and checks that the config can be
// run. Relative paths are resolved against `relativeTo`, or against the
// working directory if it's empty.
func (c Config) normalize(relativeTo string) (Config, error) {
	for _, path := range []*string{&c.Source, &c.Replica, &c.LogFile} {
		resolved, err := resolvePath(*path, relativeTo)
		if err != nil {
			return Config{}, errors.WithContext(err, "resolve path")
		}
		*path = resolved
	}

	if c.Interval < MinInterval {
		return Config{}, errors.NewFriendlyError(
			"Interval must be at least %d second.", int(MinInterval/time.Second))
	}

	if contains(c.Source, c.Replica) || contains(c.Replica, c.Source) {
		return Config{}, errors.NewFriendlyError(
			"The source %q and replica %q must not overlap.", c.Source, c.Replica)
	}
	return c, nil
}

// intervalFromSeconds converts a user-supplied interval, rejecting values
// that would overflow a time.Duration.
func intervalFromSeconds(seconds int) (time.Duration, error) {
	switch {
	case int64(seconds) < int64(MinInterval/time.Second):
		return 0, errors.NewFriendlyError(
			"Interval must be at least %d second.", int(MinInterval/time.Second))
	case int64(seconds) > maxIntervalSeconds:
		return 0, errors.NewFriendlyError(
			"Interval must be at most %d seconds.", maxIntervalSeconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

func resolvePath(path, relativeTo string) (string, error) {
	path, err := homedirExpand(path)
	if err != nil {
		return "", err
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	if relativeTo != "" {
		return filepath.Join(relativeTo, path), nil
	}
	return filepath.Abs(path)
}

// contains returns whether `child` is `parent` or lives below it.
func contains(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
