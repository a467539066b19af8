package frame

import (
	"time"

	"github.com/agiangrant/framecore/callback"
	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/events"
	"github.com/agiangrant/framecore/gpu"
	"github.com/agiangrant/framecore/hittest"
	"github.com/agiangrant/framecore/resources"
	"github.com/agiangrant/framecore/scroll"
)

// IFrameInvocation records one IFrame producer call.
type IFrameInvocation struct {
	Host   dom.DomNodeID
	Reason scroll.Reason

	// Updated is false for "no update" results.
	Updated bool
}

// Report tells the window backend what one frame produced.
type Report struct {
	// Number is the frame counter, starting at 1.
	Number uint64

	NeedsRedraw          bool
	NeedsDomRegeneration bool
	NeedsHitTestRebuild  bool

	// Update is the aggregate of every callback result of the frame.
	Update               callback.Update
	RegenerateAllWindows bool
	DirtySubtrees        []dom.DomNodeID
	WindowDirty          bool

	Cursor        dom.CursorIcon
	CursorChanged bool

	GpuUpdates []gpu.Update

	ResourceAdds    resources.Changes
	ResourceDeletes resources.Changes

	// ScrollbarDrag is set while a scrollbar thumb is being dragged.
	ScrollbarDrag *hittest.ScrollbarHitID

	// RedrawAfter is the time until the next timer is due when nothing
	// else needs a redraw; zero otherwise.
	RedrawAfter time.Duration

	IFrames     []IFrameInvocation
	Events      []events.Event
	Diagnostics []callback.Diagnostic
}
