package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/mirror/pkg/errors"
)

// Mocked out for unit testing.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// HandleFatalError prints `err` and exits. Errors with a friendly message are
// printed as is. Other errors are logged with their full context.
func HandleFatalError(err error) {
	if msg, ok := errors.GetFriendlyMessage(err); ok {
		fmt.Fprintln(stderr, msg)
	} else {
		log.WithError(err).Error("Fatal error")
	}
	exit(1)
}

// HandlePanic logs the stack of a panic and exits. It must be deferred.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("panic", r).Errorf("Unexpected panic:\n%s", debug.Stack())
		exit(1)
	}
}
