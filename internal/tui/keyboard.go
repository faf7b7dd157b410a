package tui

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/timeline"
	"github.com/mmcdole/splice/internal/tui/components"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// Route to active modal if any
	if handled, newModel, cmd := m.routeToModal(msg); handled {
		return newModel, cmd
	}

	if m.gesture.State() == timeline.GestureActive {
		return m.handleGestureKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.showHelp = true

	case key.Matches(msg, Keys.Left):
		m.selectIndex(m.selected - 1)
		cmd := m.requestAssets()
		return m, cmd

	case key.Matches(msg, Keys.Right):
		m.selectIndex(m.selected + 1)
		cmd := m.requestAssets()
		return m, cmd

	case key.Matches(msg, Keys.FarLeft):
		m.scroll -= max(m.viewWidth()/4, 1)
		m.clampScroll()
		cmd := m.requestAssets()
		return m, cmd

	case key.Matches(msg, Keys.FarRight):
		m.scroll += max(m.viewWidth()/4, 1)
		m.clampScroll()
		cmd := m.requestAssets()
		return m, cmd

	case key.Matches(msg, Keys.TrimStart):
		if span, ok := m.Selected(); ok {
			cmd := m.beginTrim(span.ID, domain.EdgeLeft)
			return m, cmd
		}

	case key.Matches(msg, Keys.TrimEnd):
		if span, ok := m.Selected(); ok {
			cmd := m.beginTrim(span.ID, domain.EdgeRight)
			return m, cmd
		}

	case key.Matches(msg, Keys.MoveOverlay):
		if o, ok := m.selectedOverlay(); ok {
			cmd := m.beginOverlayMove(o)
			return m, cmd
		}
		cmd := m.setStatus("No overlay on this span", false)
		return m, cmd

	case key.Matches(msg, Keys.ZoomIn):
		m.setZoom(m.zoom * 2)
		cmd := m.requestAssets()
		return m, cmd

	case key.Matches(msg, Keys.ZoomOut):
		m.setZoom(m.zoom / 2)
		cmd := m.requestAssets()
		return m, cmd

	case key.Matches(msg, Keys.ToggleOverlay):
		m.showOverlay = !m.showOverlay

	case key.Matches(msg, Keys.Jump):
		m.JumpModal.Show(m.spans)

	case key.Matches(msg, Keys.Import):
		m.InputModal.Show(components.InputImport, "Import file or directory", "path [query]")

	case key.Matches(msg, Keys.AddOverlay):
		if span, ok := m.Selected(); ok {
			m.InputModal.Show(components.InputOverlay, "Overlay on "+span.Name, "caption text")
		}

	case key.Matches(msg, Keys.Remove):
		if span, ok := m.Selected(); ok {
			return m, RemoveSpanCmd(m.ProjectSvc, span)
		}

	case key.Matches(msg, Keys.Preview):
		span, ok := m.Selected()
		if !ok {
			return m, nil
		}
		if m.Previewer == nil {
			cmd := m.setStatus("Preview is not configured", true)
			return m, cmd
		}
		return m, PreviewCmd(m.Previewer, span)

	case key.Matches(msg, Keys.Regenerate):
		cmd := m.regenerate()
		return m, cmd
	}

	return m, nil
}

// routeToModal sends keys to a visible modal
func (m Model) routeToModal(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch {
	case m.JumpModal.IsVisible():
		var (
			cmd    tea.Cmd
			chosen bool
		)
		m.JumpModal, cmd, chosen = m.JumpModal.Update(msg)
		if chosen {
			span, _ := m.JumpModal.Selected()
			m.JumpModal.Hide()
			m.selectSpan(span.ID)
			cmd = m.requestAssets()
			return true, m, cmd
		}
		return true, m, cmd

	case m.InputModal.IsVisible():
		var (
			cmd       tea.Cmd
			submitted bool
		)
		m.InputModal, cmd, submitted = m.InputModal.Update(msg)
		if !submitted {
			return true, m, cmd
		}
		value := strings.TrimSpace(m.InputModal.Value())
		m.InputModal.Hide()
		if value == "" {
			return true, m, nil
		}
		cmd = m.submitInput(m.InputModal.Purpose(), value)
		return true, m, cmd
	}
	return false, m, nil
}

// submitInput acts on a value entered in the input modal
func (m *Model) submitInput(purpose components.InputPurpose, value string) tea.Cmd {
	switch purpose {
	case components.InputImport:
		return tea.Batch(m.setStatus("Importing "+value+"...", false), ImportCmd(m.ProjectSvc, value))
	case components.InputOverlay:
		span, ok := m.Selected()
		if !ok {
			return nil
		}
		body, ok := m.track().Media(span.ID)
		if !ok {
			return nil
		}
		return AddOverlayCmd(m.ProjectSvc, span.ID, value, body.Window.StartMs, defaultOverlayMs)
	}
	return nil
}

// handleGestureKey nudges, commits or cancels the active gesture
func (m Model) handleGestureKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Left):
		cmd := m.nudge(-1)
		return m, cmd
	case key.Matches(msg, Keys.Right):
		cmd := m.nudge(1)
		return m, cmd
	case key.Matches(msg, Keys.FarLeft):
		cmd := m.nudge(-10)
		return m, cmd
	case key.Matches(msg, Keys.FarRight):
		cmd := m.nudge(10)
		return m, cmd
	case key.Matches(msg, Keys.Commit):
		cmd := m.commitGesture()
		return m, cmd
	case key.Matches(msg, Keys.Cancel):
		m.cancelGesture()
		cmd := m.setStatus("Cancelled", false)
		return m, cmd
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// beginTrim starts trimming one edge of the span with id
func (m *Model) beginTrim(id string, edge domain.Edge) tea.Cmd {
	var span domain.Span
	for _, s := range m.spans {
		if s.ID == id {
			span = s
		}
	}
	tr := m.track()
	if tr.Empty() {
		return m.setStatus("Nothing to trim", false)
	}
	if err := m.gesture.BeginTrim(tr, span, edge); err != nil {
		return m.setStatus(fmt.Sprintf("trim %s: %v", edge, err), true)
	}
	body, _ := tr.Media(id)
	m.dragScale = tr.PxPerMs()
	m.dragFixedPx = body.X + body.Width
	return nil
}

// beginOverlayMove starts moving o within its parent span's window
func (m *Model) beginOverlayMove(o domain.Overlay) tea.Cmd {
	tr := m.track()
	parent, ok := tr.Media(o.ParentID)
	if !ok || tr.Empty() {
		return m.setStatus("Overlay parent not on the track", true)
	}
	if err := m.gesture.BeginMove(tr, o, parent.Window); err != nil {
		return m.setStatus(fmt.Sprintf("move overlay: %v", err), true)
	}
	return nil
}

func (m *Model) nudge(delta int) tea.Cmd {
	if _, err := m.gesture.Nudge(delta); err != nil {
		return m.setStatus(err.Error(), true)
	}
	return nil
}

// commitGesture ends the gesture and applies its outcome optimistically.
// The edit service confirms or rejects it through the status channel.
func (m *Model) commitGesture() tea.Cmd {
	out, err := m.gesture.End()
	m.dragScale = 0
	if err != nil {
		return m.setStatus(err.Error(), true)
	}
	if !out.Submitted {
		return m.setStatus("No change", false)
	}

	if out.Kind == timeline.GestureMoveOverlay {
		m.replaceOverlay(out.Overlay)
		return m.setStatus("Overlay at "+domain.FormatMillis(out.Overlay.StartMs), false)
	}
	before := slices.Clone(m.spans)
	m.replaceSpan(out.Span)
	for _, o := range timeline.ReflowOverlays(before, m.spans, m.overlays) {
		m.replaceOverlay(o)
	}
	status := fmt.Sprintf("%s %s..%s", out.Span.Name,
		domain.FormatMillis(out.Span.BeginMs), domain.FormatMillis(out.Span.EndMs))
	if out.Span.Still {
		status = fmt.Sprintf("%s %s", out.Span.Name, domain.FormatMillis(out.Span.TimelineDuration()))
	}
	return tea.Batch(m.setStatus(status, false), m.requestAssets())
}

func (m *Model) cancelGesture() {
	m.gesture.Cancel()
	m.dragScale = 0
}

// selectedOverlay returns the earliest overlay on the selected span
func (m Model) selectedOverlay() (domain.Overlay, bool) {
	span, ok := m.Selected()
	if !ok {
		return domain.Overlay{}, false
	}
	var mine []domain.Overlay
	for _, o := range m.overlays {
		if o.ParentID == span.ID {
			mine = append(mine, o)
		}
	}
	if len(mine) == 0 {
		return domain.Overlay{}, false
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].StartMs < mine[j].StartMs })
	return mine[0], true
}
