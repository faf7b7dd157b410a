package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/timeline"
	"github.com/mmcdole/splice/internal/tui/styles"
	"github.com/mmcdole/splice/internal/waveform"
)

// cell is one styled terminal column of a row
type cell struct {
	ch   string
	fg   lipgloss.Color
	bg   lipgloss.Color
	bold bool
}

func blankRow(width int) []cell {
	row := make([]cell, width)
	for i := range row {
		row[i].ch = " "
	}
	return row
}

// renderCells draws a row, styling runs of identical cells together
func renderCells(row []cell) string {
	var b strings.Builder
	for i := 0; i < len(row); {
		j := i
		var run strings.Builder
		for j < len(row) && row[j].fg == row[i].fg && row[j].bg == row[i].bg && row[j].bold == row[i].bold {
			run.WriteString(row[j].ch)
			j++
		}
		st := lipgloss.NewStyle().Bold(row[i].bold)
		if row[i].fg != "" {
			st = st.Foreground(row[i].fg)
		}
		if row[i].bg != "" {
			st = st.Background(row[i].bg)
		}
		b.WriteString(st.Render(run.String()))
		i = j
	}
	return b.String()
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.Width <= 2*margin {
		return ""
	}

	tr := m.track()
	lines := make([]string, timelineRows)
	lines[rowHeader] = m.renderHeader(tr)
	lines[rowRuler] = m.renderRuler(tr)
	lines[rowTrack] = m.renderTrackRow(tr)
	lines[rowWave] = m.renderWaveRow(tr)
	lines[rowOverlay] = m.renderOverlayRow(tr)
	lines[rowInfo] = m.renderInfo()

	for len(lines) < m.Height-1 {
		lines = append(lines, "")
	}
	lines = append(lines, m.renderFooter())
	view := strings.Join(lines, "\n")

	if m.JumpModal.IsVisible() {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.JumpModal.View())
	}
	if m.InputModal.IsVisible() {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.InputModal.View())
	}
	return view
}

func (m Model) renderHeader(tr timeline.Track) string {
	title := styles.TitleStyle.Render(" splice")
	info := fmt.Sprintf("  %d spans · %s · zoom ×%d", len(m.spans), clock(tr.TotalMs), m.zoom)
	if m.gesture.State() == timeline.GestureActive {
		info += " · " + gestureLabel(m.gesture.Kind())
	}
	return title + styles.DimStyle.Render(info)
}

// niceSteps are the ruler tick intervals, in milliseconds
var niceSteps = []int64{100, 250, 500, 1000, 2000, 5000, 10000, 15000, 30000, 60000, 120000, 300000, 600000}

// renderRuler labels the time at ticks at least 10 columns apart
func (m Model) renderRuler(tr timeline.Track) string {
	row := blankRow(m.Width)
	if tr.Empty() {
		return renderCells(row)
	}
	step := niceSteps[len(niceSteps)-1]
	for _, s := range niceSteps {
		if float64(s)*tr.PxPerMs() >= 10 {
			step = s
			break
		}
	}

	first := max(tr.TimeAt(margin)/step*step, 0)
	for t := first; t <= tr.TotalMs; t += step {
		x := tr.Column(t)
		if x >= margin+m.viewWidth() {
			break
		}
		if !m.visible(x) {
			continue
		}
		label := styles.RulerTick + clock(t)
		for i, r := range []rune(label) {
			if m.visible(x + i) {
				row[x+i] = cell{ch: string(r), fg: styles.DimGray}
			}
		}
	}
	return renderCells(row)
}

// renderTrackRow draws span bodies over their thumbnail colors, then
// transitions and finally the trim handles
func (m Model) renderTrackRow(tr timeline.Track) string {
	row := blankRow(m.Width)
	selected, _ := m.Selected()

	for _, el := range tr.Elements {
		switch e := el.(type) {
		case domain.MediaElement:
			name := []rune(" " + e.Span.Name)
			for col := max(e.X, margin); col < min(e.X+e.Width, margin+m.viewWidth()); col++ {
				c := cell{ch: " ", fg: styles.White, bg: styles.PendingBody}
				if swatch, ok := m.Cache.Get(domain.CacheKey{
					ItemID: e.Span.ID,
					Kind:   domain.AssetThumbnail,
					Index:  m.assetIndex(tr, e, col, domain.AssetThumbnail),
				}); ok {
					c.bg = styles.Swatch(swatch.Data)
					c.fg = styles.Contrast(swatch.Data)
				}
				if i := col - e.X; i < len(name) && i < e.Width-1 {
					c.ch = string(name[i])
				}
				c.bold = e.Span.ID == selected.ID
				row[col] = c
			}

		case domain.TransitionElement:
			for col := max(e.X, margin); col < min(e.X+e.Width, margin+m.viewWidth()); col++ {
				row[col] = cell{ch: styles.Transition, fg: styles.DimGray}
			}

		case domain.SpacerElement:
			// Already blank
		}
	}

	for _, el := range tr.Elements {
		h, ok := el.(domain.HandleElement)
		if !ok || !m.visible(h.X) {
			continue
		}
		c := row[h.X]
		c.ch = styles.HandleLeft
		if h.Edge == domain.EdgeRight {
			c.ch = styles.HandleRight
		}
		c.fg = styles.LightGray
		if h.SpanID == selected.ID {
			c.fg = styles.HandleColor
			if m.handleActive(h) {
				c.fg = styles.ActiveHandle
			}
		}
		row[h.X] = c
	}
	return renderCells(row)
}

// handleActive reports whether h is the edge being trimmed
func (m Model) handleActive(h domain.HandleElement) bool {
	if m.gesture.State() != timeline.GestureActive || m.gesture.Span().ID != h.SpanID {
		return false
	}
	switch m.gesture.Kind() {
	case timeline.GestureTrimLeft:
		return h.Edge == domain.EdgeLeft
	case timeline.GestureTrimRight:
		return h.Edge == domain.EdgeRight
	}
	return false
}

// renderWaveRow draws cached waveform levels, normalised across what is on
// screen so quiet material stays readable
func (m Model) renderWaveRow(tr timeline.Track) string {
	levels := make([]float64, m.Width)
	for _, el := range tr.Elements {
		body, ok := el.(domain.MediaElement)
		if !ok || body.Span.Still {
			continue
		}
		for col := max(body.X, margin); col < min(body.X+body.Width, margin+m.viewWidth()); col++ {
			levels[col] = m.levelAt(tr, body, col)
		}
	}

	glyphs := []rune(waveform.Render(waveform.Normalize(levels), m.Width))
	row := blankRow(m.Width)
	for i, g := range glyphs {
		row[i] = cell{ch: string(g), fg: styles.WaveColor}
	}
	return renderCells(row)
}

// levelAt returns the cached waveform level under col, or silence
func (m Model) levelAt(tr timeline.Track, body domain.MediaElement, col int) float64 {
	src := sourceTime(tr, body, col)
	asset, ok := m.Cache.Get(domain.CacheKey{
		ItemID: body.Span.ID,
		Kind:   domain.AssetWaveform,
		Index:  int(src / m.blockMs),
	})
	if !ok {
		return 0
	}
	levels := waveform.Decode(asset.Data)
	if len(levels) == 0 {
		return 0
	}
	i := int((src % m.blockMs) * int64(len(levels)) / m.blockMs)
	return levels[min(i, len(levels)-1)]
}

func (m Model) renderOverlayRow(tr timeline.Track) string {
	row := blankRow(m.Width)
	if !m.showOverlay {
		return renderCells(row)
	}
	var moving string
	if m.gesture.State() == timeline.GestureActive && m.gesture.Kind() == timeline.GestureMoveOverlay {
		moving = m.gesture.Overlay().ID
	}

	for _, o := range m.displayOverlays() {
		x0, x1 := overlayColumns(tr, o)
		bg := styles.OverlayColor
		if o.ID == moving {
			bg = styles.ActiveHandle
		}
		text := []rune(o.Text)
		for col := max(x0, margin); col < min(x1, margin+m.viewWidth()); col++ {
			c := cell{ch: " ", fg: styles.White, bg: bg}
			if i := col - x0; i < len(text) {
				c.ch = string(text[i])
			}
			row[col] = c
		}
	}
	return renderCells(row)
}

// renderInfo describes the selection, or the gesture in progress
func (m Model) renderInfo() string {
	if len(m.spans) == 0 {
		return styles.DimStyle.Render(" No media. Press i to import a file or directory.")
	}

	if m.gesture.State() == timeline.GestureActive {
		hint := styles.DimStyle.Render("  h/l nudge · enter commit · esc cancel")
		if m.gesture.Kind() == timeline.GestureMoveOverlay {
			o := m.gesture.Overlay()
			return styles.AccentStyle.Render(fmt.Sprintf(" %q at %s", o.Text, domain.FormatMillis(o.StartMs))) + hint
		}
		return styles.AccentStyle.Render(" "+spanSummary(m.gesture.Span())) + hint
	}

	span, _ := m.Selected()
	return styles.SubtitleStyle.Render(" " + spanSummary(span))
}

func spanSummary(s domain.Span) string {
	if s.Still {
		return fmt.Sprintf("%s  still  %s", s.Name, domain.FormatMillis(s.TimelineDuration()))
	}
	return fmt.Sprintf("%s  %s..%s  (%s of %s)", s.Name,
		domain.FormatMillis(s.BeginMs), domain.FormatMillis(s.EndMs),
		domain.FormatMillis(s.TimelineDuration()), domain.FormatMillis(s.SourceDurationMs))
}

func gestureLabel(kind timeline.GestureKind) string {
	switch kind {
	case timeline.GestureTrimLeft:
		return "trimming start"
	case timeline.GestureTrimRight:
		return "trimming end"
	default:
		return "moving overlay"
	}
}

// clock formats milliseconds as m:ss
func clock(ms int64) string {
	return fmt.Sprintf("%d:%02d", ms/60000, (ms/1000)%60)
}

// renderFooter renders a single-line footer: status left, help hint right
func (m Model) renderFooter() string {
	var left string
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(" " + m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(" " + m.StatusMsg)
		}
	}
	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help ")

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + strings.Repeat(" ", gap) + right
}

// renderHelp renders the help screen from the key map
func (m Model) renderHelp() string {
	groups := [][]key.Binding{
		{Keys.Left, Keys.Right, Keys.FarLeft, Keys.FarRight, Keys.Jump},
		{Keys.TrimStart, Keys.TrimEnd, Keys.MoveOverlay, Keys.Commit, Keys.Cancel},
		{Keys.ZoomIn, Keys.ZoomOut, Keys.ToggleOverlay},
		{Keys.Import, Keys.AddOverlay, Keys.Remove, Keys.Preview, Keys.Regenerate, Keys.Quit},
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Keys"))
	b.WriteString("\n")
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, k := range g {
			h := k.Help()
			b.WriteString(styles.HelpKeyStyle.Render(fmt.Sprintf("  %-8s", h.Key)))
			b.WriteString(styles.HelpDescStyle.Render(h.Desc))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("Mouse: drag a handle to trim, drag an overlay to move it"))

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(b.String()))
}
