package errors

import (
	"fmt"
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// DirectoryNotFound is returned when the source root of a pass is missing.
// It aborts the whole pass.
type DirectoryNotFound struct {
	Path string
}

func (err DirectoryNotFound) Error() string {
	return fmt.Sprintf("Source directory does not exist: %s", err.Path)
}

// ReplicaLocked is returned when another process is already mirroring to
// the replica.
type ReplicaLocked struct {
	Path string
}

func (err ReplicaLocked) Error() string {
	return fmt.Sprintf("replica %q is locked by another process", err.Path)
}

// FriendlyMessage returns the user-facing message.
func (err ReplicaLocked) FriendlyMessage() string {
	return fmt.Sprintf("Another mirror process is already writing to %q. "+
		"Stop it first, or choose a different replica.", err.Path)
}
