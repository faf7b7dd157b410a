package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/search"
	"github.com/mmcdole/splice/internal/tui/styles"
)

// JumpModal finds a span by name and selects it
type JumpModal struct {
	input     textinput.Model
	spans     []domain.Span
	results   []search.Result
	cursor    int
	visible   bool
	width     int
	prevQuery string
}

// NewJumpModal creates a new jump modal
func NewJumpModal() JumpModal {
	ti := textinput.New()
	ti.Placeholder = "Jump to span..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return JumpModal{
		input: ti,
	}
}

// Show opens the modal over spans
func (j *JumpModal) Show(spans []domain.Span) {
	j.visible = true
	j.spans = spans
	j.results = nil
	j.cursor = 0
	j.prevQuery = ""
	j.input.SetValue("")
	j.input.Focus()
}

// Hide hides the modal
func (j *JumpModal) Hide() {
	j.visible = false
	j.input.Blur()
}

// IsVisible returns whether the modal is shown
func (j JumpModal) IsVisible() bool {
	return j.visible
}

// SetWidth sets the terminal width the modal sizes itself against
func (j *JumpModal) SetWidth(width int) {
	j.width = width
}

// Results returns the current matches, best first
func (j JumpModal) Results() []search.Result {
	return j.results
}

// Selected returns the highlighted span
func (j JumpModal) Selected() (domain.Span, bool) {
	if j.cursor < 0 || j.cursor >= len(j.results) {
		return domain.Span{}, false
	}
	return j.results[j.cursor].Span, true
}

// Update handles messages, returns (modal, cmd, chosen)
func (j JumpModal) Update(msg tea.Msg) (JumpModal, tea.Cmd, bool) {
	if !j.visible {
		return j, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			j.Hide()
			return j, nil, false
		case "enter":
			return j, nil, len(j.results) > 0
		case "down", "ctrl+n":
			if j.cursor < len(j.results)-1 {
				j.cursor++
			}
			return j, nil, false
		case "up", "ctrl+p":
			if j.cursor > 0 {
				j.cursor--
			}
			return j, nil, false
		}
	}

	var cmd tea.Cmd
	j.input, cmd = j.input.Update(msg)
	if q := j.input.Value(); q != j.prevQuery {
		j.prevQuery = q
		j.results = search.FindSpans(q, j.spans)
		j.cursor = 0
	}
	return j, cmd, false
}

// View renders the modal
func (j JumpModal) View() string {
	if !j.visible {
		return ""
	}

	modalWidth := min(max(j.width*2/3, 40), 80)
	const maxResults = 8

	var b strings.Builder
	b.WriteString(j.input.View())
	b.WriteString("\n\n")

	if len(j.results) == 0 && j.input.Value() != "" {
		b.WriteString(styles.DimStyle.Render("No matches"))
	}
	for i, r := range j.results {
		if i == maxResults {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf("... and %d more", len(j.results)-maxResults)))
			break
		}
		name := styles.Truncate(r.Span.Name, modalWidth-20)
		b.WriteString(highlight(name, r.MatchedIndexes, i == j.cursor))
		b.WriteString(" ")
		b.WriteString(styles.DimStyle.Render(domain.FormatMillis(r.Span.TimelineDuration())))
		b.WriteString("\n")
	}

	content := lipgloss.NewStyle().
		Width(modalWidth - 4).
		Render(b.String())

	return styles.ModalStyle.
		Width(modalWidth).
		Render(content)
}

// highlight renders name with the matched byte offsets emphasised
func highlight(name string, matched []int, selected bool) string {
	base, hit := styles.NormalItemStyle, styles.MatchHighlightStyle
	if selected {
		base, hit = styles.SelectedItemStyle, styles.MatchHighlightSelectedStyle
	}

	marks := make(map[int]bool, len(matched))
	for _, i := range matched {
		marks[i] = true
	}

	var b strings.Builder
	for i, r := range name {
		if marks[i] {
			b.WriteString(hit.Render(string(r)))
		} else {
			b.WriteString(base.UnsetPadding().Render(string(r)))
		}
	}
	return " " + b.String()
}
