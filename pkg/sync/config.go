package sync

import (
	"fmt"

	"github.com/spf13/afero"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// ErrorPolicy decides how much of a pass is abandoned when an error occurs.
type ErrorPolicy int

const (
	// AbortPass stops the entire pass at the first error. The remaining
	// differences are picked up by the next pass.
	AbortPass ErrorPolicy = iota

	// IsolateSubtree stops only the directory in which the error occurred.
	// Sibling directories, and the rest of the parent, are still reconciled.
	IsolateSubtree
)

func (p ErrorPolicy) String() string {
	switch p {
	case AbortPass:
		return "abort"
	case IsolateSubtree:
		return "isolate"
	default:
		return fmt.Sprintf("ErrorPolicy(%d)", int(p))
	}
}

// ParseErrorPolicy parses the name of an ErrorPolicy. The empty string
// selects AbortPass.
func ParseErrorPolicy(name string) (ErrorPolicy, error) {
	switch name {
	case "", "abort":
		return AbortPass, nil
	case "isolate":
		return IsolateSubtree, nil
	default:
		return 0, fmt.Errorf("unknown error policy %q (expected \"abort\" or \"isolate\")", name)
	}
}
