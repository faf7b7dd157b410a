package domain

// Element is one visual piece of a laid-out track.
// The set of implementations is closed: MediaElement, TransitionElement,
// HandleElement and SpacerElement.
type Element interface {
	element()
	// Bounds returns the element's column range [X, X+Width)
	Bounds() (x, width int)
}

// Edge identifies a span boundary
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
)

func (e Edge) String() string {
	if e == EdgeLeft {
		return "left"
	}
	return "right"
}

// MediaElement is the body of a span
type MediaElement struct {
	Span   Span
	Window Window
	X      int
	Width  int
}

// TransitionElement is the overlap between two adjacent spans
type TransitionElement struct {
	FromID     string
	ToID       string
	DurationMs int64
	X          int
	Width      int
}

// HandleElement is a grabbable trim handle on a span edge
type HandleElement struct {
	SpanID string
	Edge   Edge
	X      int
}

// SpacerElement pads the track up to the available width
type SpacerElement struct {
	X     int
	Width int
}

func (MediaElement) element()      {}
func (TransitionElement) element() {}
func (HandleElement) element()     {}
func (SpacerElement) element()     {}

func (e MediaElement) Bounds() (int, int)      { return e.X, e.Width }
func (e TransitionElement) Bounds() (int, int) { return e.X, e.Width }
func (e HandleElement) Bounds() (int, int)     { return e.X, 1 }
func (e SpacerElement) Bounds() (int, int)     { return e.X, e.Width }
