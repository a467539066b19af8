package callback

import (
	"fmt"

	"github.com/agiangrant/framecore/dom"
)

// Update is what a callback asks the frame to do afterwards. Values are
// totally ordered; aggregation keeps the maximum so a later, cheaper result
// never downgrades an earlier, more expensive one.
type Update uint8

const (
	DoNothing Update = iota
	RequestRedraw
	RegenerateDomCurrentWindow
	RegenerateDomAllWindows
)

// Max returns the more expensive of two updates.
func (u Update) Max(o Update) Update {
	if o > u {
		return o
	}
	return u
}

// Valid reports whether u is one of the defined updates.
func (u Update) Valid() bool {
	return u <= RegenerateDomAllWindows
}

func (u Update) String() string {
	switch u {
	case DoNothing:
		return "do-nothing"
	case RequestRedraw:
		return "redraw"
	case RegenerateDomCurrentWindow:
		return "regenerate-window"
	case RegenerateDomAllWindows:
		return "regenerate-all"
	default:
		return fmt.Sprintf("update(%d)", uint8(u))
	}
}

// DiagnosticKind classifies a non-fatal problem seen during a frame.
type DiagnosticKind uint8

const (
	CallbackTrap DiagnosticKind = iota + 1
	InvalidCallbackResult
	StaleReference
	ResourceGcMismatch
)

func (k DiagnosticKind) String() string {
	switch k {
	case CallbackTrap:
		return "callback-trap"
	case InvalidCallbackResult:
		return "invalid-callback-result"
	case StaleReference:
		return "stale-reference"
	case ResourceGcMismatch:
		return "resource-gc-mismatch"
	default:
		return "unknown"
	}
}

// Diagnostic is one non-fatal problem, reported alongside the frame.
type Diagnostic struct {
	Kind    DiagnosticKind
	Node    *dom.DomNodeID
	Message string
}

func (d Diagnostic) String() string {
	if d.Node == nil {
		return d.Kind.String() + ": " + d.Message
	}
	return d.Kind.String() + " " + d.Node.String() + ": " + d.Message
}
