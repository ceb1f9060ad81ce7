package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return goErrors.New(msg)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return goErrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return goErrors.As(err, target)
}

// contextError annotates an error with a short description of what was being
// done when it happened.
type contextError struct {
	context string
	err     error
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err contextError) Unwrap() error {
	return err.err
}

// WithContext wraps err with a description of the operation that failed.
// It returns nil if err is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{context: context, err: err}
}

// RootCause unwraps err until it reaches an error that doesn't wrap anything.
func RootCause(err error) error {
	for {
		next := goErrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// FriendlyError is an error whose message is meant to be shown directly to
// the user, without any of the wrapping context.
type FriendlyError struct {
	msg string
}

// NewFriendlyError formats a FriendlyError.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{fmt.Sprintf(format, args...)}
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage returns the user-facing message.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}

// Friendly is implemented by errors that carry a user-facing message.
type Friendly interface {
	FriendlyMessage() string
}

// GetFriendlyMessage returns the first user-facing message in err's chain.
func GetFriendlyMessage(err error) (string, bool) {
	var friendly Friendly
	if goErrors.As(err, &friendly) {
		return friendly.FriendlyMessage(), true
	}
	return "", false
}
