package tui

import (
	"math"

	"github.com/mmcdole/splice/internal/timeline"
)

// Screen rows of the timeline view, top to bottom
const (
	rowHeader = iota
	rowRuler
	rowTrack
	rowWave
	rowOverlay
	rowInfo
	timelineRows
)

const (
	margin           = 1  // Blank columns either side of the track
	maxZoom          = 64 // Track width as a multiple of the view width
	waveBuckets      = 16 // Levels per waveform block
	defaultOverlayMs = 2000
)

// viewWidth is the number of columns showing the track
func (m Model) viewWidth() int {
	return max(m.Width-2*margin, 1)
}

// trackWidth is the full zoomed width the timeline is laid out across
func (m Model) trackWidth() int {
	return m.viewWidth() * m.zoom
}

func (m Model) maxScroll() int {
	return m.trackWidth() - m.viewWidth()
}

func (m *Model) clampScroll() {
	m.scroll = min(max(m.scroll, 0), m.maxScroll())
}

// visible reports whether screen column x shows part of the track
func (m Model) visible(x int) bool {
	return x >= margin && x < margin+m.viewWidth()
}

// track lays out the spans as displayed, in screen columns. While a trim is
// active the scale captured at its start is kept, and a start trim stays
// anchored on the span's fixed end so the dragged handle follows the
// pointer instead of the rest of the track.
func (m Model) track() timeline.Track {
	spans := m.displaySpans()
	origin := margin - m.scroll

	if m.gesture.State() != timeline.GestureActive || m.dragScale == 0 {
		return timeline.Layout(spans, m.trackWidth(), origin)
	}

	var total int64
	for _, s := range spans {
		total += s.EndMs - s.BeginMs
	}
	width := int(math.Round(m.dragScale * float64(total)))
	tr := timeline.Layout(spans, width, origin)

	if m.gesture.Kind() == timeline.GestureTrimLeft {
		if body, ok := tr.Media(m.gesture.Span().ID); ok {
			if shift := m.dragFixedPx - (body.X + body.Width); shift != 0 {
				tr = timeline.Layout(spans, width, origin+shift)
			}
		}
	}
	return tr
}

// ensureVisible scrolls the least amount that brings columns [x, x+w) on
// screen, preferring the start when the range is wider than the view
func (m *Model) ensureVisible(x, w int) {
	right := margin + m.viewWidth()
	switch {
	case x < margin:
		m.scroll -= margin - x
	case x+w > right:
		m.scroll += min(x+w-right, x-margin)
	}
	m.clampScroll()
}

// setZoom changes the zoom level keeping the time under the centre of the
// view in place
func (m *Model) setZoom(zoom int) {
	zoom = min(max(zoom, 1), maxZoom)
	if zoom == m.zoom {
		return
	}
	centre := margin + m.viewWidth()/2
	t := m.track().TimeAt(centre)

	m.zoom = zoom
	m.scroll += m.track().Column(t) - centre
	m.clampScroll()
}
