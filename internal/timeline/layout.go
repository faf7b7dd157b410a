package timeline

import (
	"github.com/mmcdole/splice/internal/domain"
)

// Track is one layout pass of a timeline over a fixed number of columns
type Track struct {
	Elements []domain.Element
	TotalMs  int64
	WidthPx  int
	OriginPx int
}

// Empty reports whether the timeline has no duration to map against
func (t Track) Empty() bool {
	return t.TotalMs == 0 || t.WidthPx == 0
}

// PxPerMs returns the horizontal scale, or 0 for an empty timeline
func (t Track) PxPerMs() float64 {
	if t.Empty() {
		return 0
	}
	return float64(t.WidthPx) / float64(t.TotalMs)
}

// Layout places spans back to back across widthPx columns starting at
// originPx. Transition time between neighbours is rendered as its own
// element. An empty timeline yields zero-width elements.
func Layout(spans []domain.Span, widthPx, originPx int) Track {
	var total int64
	for _, s := range spans {
		total += s.EndMs - s.BeginMs
	}
	track := Track{TotalMs: total, WidthPx: widthPx, OriginPx: originPx}

	if track.Empty() {
		for _, s := range spans {
			track.Elements = append(track.Elements, domain.MediaElement{Span: s, X: originPx})
		}
		track.Elements = append(track.Elements, domain.SpacerElement{X: originPx, Width: widthPx})
		return track
	}

	// Mapping cannot fail past the emptiness check above.
	col := func(t int64) int {
		px, _ := TimeToPixel(t, total, widthPx, originPx)
		return px
	}

	var (
		t        int64
		prevID   string
		pendMs   int64 // transition time carried from the previous span
		handles  []domain.Element
		elements []domain.Element
	)
	for _, s := range spans {
		if trans := pendMs + s.TransitionInMs; trans > 0 {
			x := col(t - pendMs)
			elements = append(elements, domain.TransitionElement{
				FromID:     prevID,
				ToID:       s.ID,
				DurationMs: trans,
				X:          x,
				Width:      col(t+s.TransitionInMs) - x,
			})
		}
		t += s.TransitionInMs

		win := domain.Window{StartMs: t, EndMs: t + s.TimelineDuration()}
		x := col(win.StartMs)
		w := col(win.EndMs) - x
		elements = append(elements, domain.MediaElement{Span: s, Window: win, X: x, Width: w})
		if w > 0 {
			handles = append(handles,
				domain.HandleElement{SpanID: s.ID, Edge: domain.EdgeLeft, X: x},
				domain.HandleElement{SpanID: s.ID, Edge: domain.EdgeRight, X: x + w - 1},
			)
		}

		t = win.EndMs + s.TransitionOutMs
		pendMs = s.TransitionOutMs
		prevID = s.ID
	}
	if pendMs > 0 {
		x := col(t - pendMs)
		elements = append(elements, domain.TransitionElement{
			FromID:     prevID,
			DurationMs: pendMs,
			X:          x,
			Width:      col(t) - x,
		})
	}

	end := col(t)
	if rest := originPx + widthPx - end; rest > 0 {
		elements = append(elements, domain.SpacerElement{X: end, Width: rest})
	}

	track.Elements = append(handles, elements...)
	return track
}

// Hit returns the element under column x. Handles win over the bodies they
// sit on.
func (t Track) Hit(x int) (domain.Element, bool) {
	for _, e := range t.Elements {
		ex, w := e.Bounds()
		if x >= ex && x < ex+w {
			return e, true
		}
	}
	return nil, false
}

// Media returns the laid-out body of the span with the given id
func (t Track) Media(spanID string) (domain.MediaElement, bool) {
	for _, e := range t.Elements {
		if m, ok := e.(domain.MediaElement); ok && m.Span.ID == spanID {
			return m, true
		}
	}
	return domain.MediaElement{}, false
}

// Column maps a timeline time to a column, or the origin for an empty timeline
func (t Track) Column(timeMs int64) int {
	if t.Empty() {
		return t.OriginPx
	}
	px, _ := TimeToPixel(timeMs, t.TotalMs, t.WidthPx, t.OriginPx)
	return px
}

// TimeAt maps a column to timeline time, or zero for an empty timeline
func (t Track) TimeAt(px int) int64 {
	if t.Empty() {
		return 0
	}
	ms, _ := PixelToTime(px, t.TotalMs, t.WidthPx, t.OriginPx)
	return ms
}

// Windows returns each span's placement on the timeline, in span order.
// Unlike Layout it needs no display width.
func Windows(spans []domain.Span) []domain.Window {
	windows := make([]domain.Window, len(spans))
	var t int64
	for i, s := range spans {
		t += s.TransitionInMs
		windows[i] = domain.Window{StartMs: t, EndMs: t + s.TimelineDuration()}
		t = windows[i].EndMs + s.TransitionOutMs
	}
	return windows
}
