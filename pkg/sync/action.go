package sync

import "fmt"

// DirectoryPair is a source directory and the replica directory that mirrors
// it.
type DirectoryPair struct {
	Source  string
	Replica string
}

// ActionType is the kind of change a pass makes to the replica.
type ActionType int

const (
	// Copy overwrites or creates a replica file from its source file.
	Copy ActionType = iota

	// Delete removes a replica file that has no source counterpart.
	Delete

	// DeleteDir recursively removes a replica directory.
	DeleteDir

	// Recurse descends into a subdirectory pair.
	Recurse
)

func (t ActionType) String() string {
	switch t {
	case Copy:
		return "copy"
	case Delete:
		return "delete"
	case DeleteDir:
		return "delete-dir"
	case Recurse:
		return "recurse"
	default:
		return fmt.Sprintf("ActionType(%d)", int(t))
	}
}

// Action records a single step taken during a pass.
type Action struct {
	Type ActionType

	// Source is empty for deletions.
	Source string

	Replica string
}

// Mutates returns whether the action changes the replica.
func (a Action) Mutates() bool {
	return a.Type != Recurse
}

// Message returns the operation log line for the action.
func (a Action) Message() string {
	switch a.Type {
	case Copy:
		return fmt.Sprintf("Copied file: %s to %s", a.Source, a.Replica)
	case Delete:
		return fmt.Sprintf("Deleted file: %s", a.Replica)
	case DeleteDir:
		return fmt.Sprintf("Deleted directory: %s", a.Replica)
	default:
		return ""
	}
}

// Stats summarizes a single pass.
type Stats struct {
	Actions      []Action
	FilesCopied  int
	BytesCopied  int64
	FilesDeleted int
	DirsDeleted  int
	Errors       int
}

// Mutations returns the actions that changed the replica.
func (s Stats) Mutations() (mutations []Action) {
	for _, a := range s.Actions {
		if a.Mutates() {
			mutations = append(mutations, a)
		}
	}
	return mutations
}
