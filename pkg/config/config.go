package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/sidkik/mirror/pkg/errors"
)

// parseConfigErrTemplate is shown when a `--config` file isn't valid YAML
// for the mirror. The yaml library drops the field context from its errors,
// so the parser's message is passed on as is.
const parseConfigErrTemplate = "The mirror config file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Giving the interval as a string, such as \"30s\", instead of whole seconds\n" +
	" - Misspelling a field, such as \"logfile\" instead of \"logFile\"\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

// versionedFile is a config file format that records which version of the
// format it was written for. File is the only implementation.
type versionedFile interface {
	getVersion() string
}

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The configuration file %q is incompatible "+
		"with this version of mirror.\n"+
		"Expected version %q, but got %q.", err.path, err.exp, err.actual)
}

// parseConfig reads the YAML file at `path` into `config`. Files written for a
// different version of the mirror config format are rejected before unknown
// fields are checked, so that a newer file gets a version error rather than
// a complaint about the fields it added.
func parseConfig(path string, config versionedFile, expVersion string) error {
	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound{Path: path}
		}
		return errors.WithContext(err, "read file")
	}

	err = yaml.Unmarshal(configBytes, config)
	if err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	if config.getVersion() != expVersion {
		return incompatibleVersionError{path, expVersion, config.getVersion()}
	}

	err = yaml.UnmarshalStrict(configBytes, config, yaml.DisallowUnknownFields)
	if err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}
	return nil
}
