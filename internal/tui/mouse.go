package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/timeline"
)

// handleMouseMsg maps press, motion and release onto the gesture lifecycle
func (m Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || m.JumpModal.IsVisible() || m.InputModal.IsVisible() {
		return m, nil
	}
	active := m.gesture.State() == timeline.GestureActive

	switch msg.Action {
	case tea.MouseActionPress:
		if active {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			cmd := m.press(msg.X, msg.Y)
			return m, cmd
		case tea.MouseButtonWheelUp:
			m.scroll -= 2
		case tea.MouseButtonWheelDown:
			m.scroll += 2
		default:
			return m, nil
		}
		m.clampScroll()
		cmd := m.requestAssets()
		return m, cmd

	case tea.MouseActionMotion:
		if active {
			if _, err := m.gesture.Adjust(msg.X); err != nil {
				cmd := m.setStatus(err.Error(), true)
				return m, cmd
			}
		}

	case tea.MouseActionRelease:
		if active {
			cmd := m.commitGesture()
			return m, cmd
		}
	}
	return m, nil
}

// press selects what is under (x, y) and starts a gesture on a handle or
// an overlay. It never scrolls, so the pointer stays on what it pressed.
func (m *Model) press(x, y int) tea.Cmd {
	if !m.visible(x) {
		return nil
	}
	switch y {
	case rowTrack, rowWave:
		el, ok := m.track().Hit(x)
		if !ok {
			return nil
		}
		switch e := el.(type) {
		case domain.HandleElement:
			m.pick(e.SpanID)
			return m.beginTrim(e.SpanID, e.Edge)
		case domain.MediaElement:
			m.pick(e.Span.ID)
			return m.requestAssets()
		}

	case rowOverlay:
		if !m.showOverlay {
			return nil
		}
		if o, ok := m.overlayAt(m.track(), x); ok {
			m.pick(o.ParentID)
			return m.beginOverlayMove(o)
		}
	}
	return nil
}

// overlayAt returns the overlay drawn at column x. Later overlays are drawn
// on top, so they win.
func (m Model) overlayAt(tr timeline.Track, x int) (domain.Overlay, bool) {
	overlays := m.displayOverlays()
	for i := len(overlays) - 1; i >= 0; i-- {
		x0, x1 := overlayColumns(tr, overlays[i])
		if x >= x0 && x < x1 {
			return overlays[i], true
		}
	}
	return domain.Overlay{}, false
}

// overlayColumns returns the column range an overlay is drawn over, at
// least one column wide
func overlayColumns(tr timeline.Track, o domain.Overlay) (int, int) {
	x0 := tr.Column(o.StartMs)
	return x0, max(tr.Column(o.EndMs()), x0+1)
}
