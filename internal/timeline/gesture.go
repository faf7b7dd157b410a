package timeline

import (
	"github.com/mmcdole/splice/internal/domain"
)

// GestureState is the phase of a trim/move gesture
type GestureState int

const (
	GestureIdle GestureState = iota
	GestureActive
)

// GestureKind says what the active gesture manipulates
type GestureKind int

const (
	GestureTrimLeft GestureKind = iota
	GestureTrimRight
	GestureMoveOverlay
)

// Outcome is the result of ending a gesture
type Outcome struct {
	Span      domain.Span
	Overlay   domain.Overlay
	Kind      GestureKind
	Submitted bool // An edit command was sent to the sink
}

// Gesture drives one trim or overlay move at a time. Intermediate Adjust
// calls only change the in-memory copy; End is the single point where an
// edit command is submitted, so a gesture produces at most one command.
//
// A Gesture is not safe for concurrent use.
type Gesture struct {
	sink        domain.EditCommandSink
	toleranceMs int64

	state GestureState
	kind  GestureKind
	track Track

	// Trim state
	captured domain.Span
	span     domain.Span
	fixedPx  int

	// Overlay state
	capturedOverlay domain.Overlay
	overlay         domain.Overlay
	parent          domain.Window

	proposedPx int
}

// NewGesture creates an idle gesture that submits to sink
func NewGesture(sink domain.EditCommandSink, toleranceMs int64) *Gesture {
	if toleranceMs < 0 {
		toleranceMs = DefaultToleranceMs
	}
	return &Gesture{sink: sink, toleranceMs: toleranceMs}
}

// State returns the current phase
func (g *Gesture) State() GestureState { return g.state }

// Kind returns what the active gesture manipulates
func (g *Gesture) Kind() GestureKind { return g.kind }

// Span returns the in-memory span of the active trim
func (g *Gesture) Span() domain.Span { return g.span }

// Overlay returns the in-memory overlay of the active move
func (g *Gesture) Overlay() domain.Overlay { return g.overlay }

// EdgePx returns the column the gesture currently proposes
func (g *Gesture) EdgePx() int { return g.proposedPx }

// BeginTrim starts trimming one edge of span as laid out in track
func (g *Gesture) BeginTrim(track Track, span domain.Span, edge domain.Edge) error {
	if g.state == GestureActive {
		return domain.ErrGestureActive
	}
	body, ok := track.Media(span.ID)
	if !ok {
		return domain.ErrNotFound
	}

	g.state = GestureActive
	g.track = track
	g.captured = span
	g.span = span
	if edge == domain.EdgeLeft {
		g.kind = GestureTrimLeft
		g.fixedPx = body.X + body.Width
		g.proposedPx = body.X
	} else {
		g.kind = GestureTrimRight
		g.fixedPx = body.X
		g.proposedPx = body.X + body.Width
	}
	return nil
}

// BeginMove starts moving overlay within its parent's window
func (g *Gesture) BeginMove(track Track, overlay domain.Overlay, parent domain.Window) error {
	if g.state == GestureActive {
		return domain.ErrGestureActive
	}
	g.state = GestureActive
	g.kind = GestureMoveOverlay
	g.track = track
	g.capturedOverlay = overlay
	g.overlay = overlay
	g.parent = parent
	g.proposedPx = track.Column(overlay.StartMs)
	return nil
}

// Adjust proposes a new edge column (trims) or start column (overlay moves).
// Returns whether the in-memory state changed.
func (g *Gesture) Adjust(px int) (bool, error) {
	if g.state != GestureActive {
		return false, domain.ErrGestureIdle
	}
	g.proposedPx = px

	switch g.kind {
	case GestureMoveOverlay:
		start := MoveOverlayWindow(g.overlay, g.parent, g.track.TimeAt(px))
		if start == g.overlay.StartMs {
			return false, nil
		}
		g.overlay.StartMs = start
		return true, nil
	default:
		var trim Trim
		if g.kind == GestureTrimLeft {
			trim = AdjustLeftEdge(g.span, px, g.track.PxPerMs(), g.fixedPx, g.toleranceMs)
		} else {
			trim = AdjustRightEdge(g.span, px, g.track.PxPerMs(), g.fixedPx, g.toleranceMs)
		}
		if !trim.Changed {
			return false, nil
		}
		g.span = trim.Span
		g.proposedPx = trim.EdgePx
		return true, nil
	}
}

// Nudge moves the proposal by delta columns from where it last stood.
// Rejected proposals still accumulate, so repeated small nudges eventually
// cross the tolerance.
func (g *Gesture) Nudge(delta int) (bool, error) {
	return g.Adjust(g.proposedPx + delta)
}

// End finishes the gesture, re-validates the final state and submits a single
// edit command if it differs enough from the state captured at begin.
func (g *Gesture) End() (Outcome, error) {
	if g.state != GestureActive {
		return Outcome{}, domain.ErrGestureIdle
	}
	defer g.reset()

	out := Outcome{Kind: g.kind}
	if g.kind == GestureMoveOverlay {
		o := g.overlay
		o.StartMs = MoveOverlayWindow(o, g.parent, o.StartMs)
		out.Overlay = o
		if o.StartMs != g.capturedOverlay.StartMs {
			g.sink.SubmitOverlayStart(o.ParentID, o.ID, o.StartMs)
			out.Submitted = true
		}
		return out, nil
	}

	final := Revalidate(g.span, g.kind == GestureTrimLeft)
	out.Span = final
	if final.Still {
		if abs(final.TimelineDuration()-g.captured.TimelineDuration()) > g.toleranceMs {
			g.sink.SubmitDurationChange(final.ID, final.TimelineDuration())
			out.Submitted = true
		}
		return out, nil
	}
	if abs(final.BeginMs-g.captured.BeginMs) > g.toleranceMs ||
		abs(final.EndMs-g.captured.EndMs) > g.toleranceMs {
		g.sink.SubmitBoundaryChange(final.ID, final.BeginMs, final.EndMs)
		out.Submitted = true
	}
	return out, nil
}

// Cancel abandons the gesture and returns the state captured at begin
func (g *Gesture) Cancel() Outcome {
	out := Outcome{Kind: g.kind, Span: g.captured, Overlay: g.capturedOverlay}
	g.reset()
	return out
}

func (g *Gesture) reset() {
	*g = Gesture{sink: g.sink, toleranceMs: g.toleranceMs}
}

// Revalidate clamps a span back into its invariants by moving the leading
// edge (left) or the trailing edge (right). Stills always settle through
// EndMs, the same way the store applies a duration change.
func Revalidate(span domain.Span, left bool) domain.Span {
	span.BeginMs = max(span.BeginMs, 0)
	span.EndMs = min(span.EndMs, span.SourceDurationMs)

	d := clampDuration(span, span.TimelineDuration())
	if left && !span.Still {
		span.BeginMs = max(span.EndMs-d-span.Transitions(), 0)
	} else {
		span.EndMs = min(span.BeginMs+d+span.Transitions(), span.SourceDurationMs)
	}
	return span
}
