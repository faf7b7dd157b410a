package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/mediacache"
	"github.com/mmcdole/splice/internal/service"
	"github.com/mmcdole/splice/internal/timeline"
	"github.com/mmcdole/splice/internal/tui/components"
)

// EditQueue accepts edit commands and reports their outcomes
type EditQueue interface {
	domain.EditCommandSink
	Status() <-chan domain.StatusEvent
}

// Previewer plays a span outside the terminal
type Previewer interface {
	Preview(span domain.Span) error
}

// Options carries timeline policy and initial view settings into the model
type Options struct {
	ToleranceMs int64 // Smallest change a gesture submits
	SlotMs      int64 // Source time per thumbnail slot
	BlockMs     int64 // Source time per waveform block
	Zoom        int
	ShowOverlay bool
	Previewer   Previewer // Optional
}

// Model is the main Bubble Tea model for the application
type Model struct {
	Ready bool

	// Services
	ProjectSvc *service.ProjectService
	EditSvc    EditQueue
	Assets     domain.AssetSource
	Cache      *mediacache.Cache
	Previewer  Previewer

	// UI Components
	JumpModal  components.JumpModal
	InputModal components.InputModal

	// Data
	spans    []domain.Span
	overlays []domain.Overlay
	selected int // Index into spans

	// Active trim or overlay move. dragScale and dragFixedPx pin the
	// display geometry captured when the gesture began.
	gesture     *timeline.Gesture
	dragScale   float64
	dragFixedPx int

	// Asset bookkeeping: requests in flight by epoch token, and the first
	// index a source could not produce per item and kind
	inflight map[domain.CacheKey]uint64
	limits   map[limitKey]int
	slotMs   int64
	blockMs  int64

	// Dimensions
	Width  int
	Height int

	// UI state
	zoom        int
	scroll      int // First visible column of the zoomed track
	showOverlay bool
	showHelp    bool
	StatusMsg   string
	StatusIsErr bool
}

// NewModel creates a new application model
func NewModel(
	projectSvc *service.ProjectService,
	editSvc EditQueue,
	source domain.AssetSource,
	cache *mediacache.Cache,
	opts Options,
) Model {
	if opts.SlotMs <= 0 {
		opts.SlotMs = 1000
	}
	if opts.BlockMs <= 0 {
		opts.BlockMs = 1000
	}
	return Model{
		ProjectSvc:  projectSvc,
		EditSvc:     editSvc,
		Assets:      source,
		Cache:       cache,
		Previewer:   opts.Previewer,
		JumpModal:   components.NewJumpModal(),
		InputModal:  components.NewInputModal(),
		gesture:     timeline.NewGesture(editSvc, opts.ToleranceMs),
		inflight:    make(map[domain.CacheKey]uint64),
		limits:      make(map[limitKey]int),
		slotMs:      opts.SlotMs,
		blockMs:     opts.BlockMs,
		zoom:        min(max(opts.Zoom, 1), maxZoom),
		showOverlay: opts.ShowOverlay,
	}
}

// Init loads the project and starts listening for edit outcomes
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadProjectCmd(m.ProjectSvc),
		WaitForStatusCmd(m.EditSvc.Status()),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.JumpModal.SetWidth(msg.Width)
		m.clampScroll()
		cmd := m.requestAssets()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case ProjectLoadedMsg:
		// An active gesture keeps its own copy of the span it edits
		m.spans = msg.Project.Spans
		m.overlays = msg.Project.Overlays
		m.selected = min(max(m.selected, 0), max(len(m.spans)-1, 0))
		cmd := m.requestAssets()
		return m, cmd

	case ImportedMsg:
		var status tea.Cmd
		if msg.Err != nil {
			status = m.setStatus(fmt.Sprintf("Imported %d, skipped: %v", len(msg.Spans), msg.Err), true)
		} else {
			status = m.setStatus(fmt.Sprintf("Imported %d files", len(msg.Spans)), false)
		}
		return m, tea.Batch(status, LoadProjectCmd(m.ProjectSvc))

	case OverlayAddedMsg:
		m.overlays = append(m.overlays, msg.Overlay)
		m.showOverlay = true
		cmd := m.setStatus("Added overlay", false)
		return m, cmd

	case AssetsMsg:
		cmd := m.receiveAssets(msg)
		return m, cmd

	case EditStatusMsg:
		cmds := []tea.Cmd{WaitForStatusCmd(m.EditSvc.Status())}
		if ev := msg.Event; ev.Err != nil {
			// The optimistic copy is wrong; resync from the store
			cmds = append(cmds,
				m.setStatus(fmt.Sprintf("%s rejected: %v", ev.Op, ev.Err), true),
				LoadProjectCmd(m.ProjectSvc))
		} else {
			cmds = append(cmds, m.setStatus("Saved "+msg.Event.Op, false))
		}
		return m, tea.Batch(cmds...)

	case ErrMsg:
		cmd := m.setStatus(msg.Error(), true)
		return m, cmd

	case StatusMsg:
		cmd := m.setStatus(msg.Message, msg.IsError)
		return m, cmd

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

// setStatus shows a status bar message and schedules its removal
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	if isErr {
		return ClearStatusCmd(5 * time.Second)
	}
	return ClearStatusCmd(3 * time.Second)
}

// Spans returns the spans as currently displayed
func (m Model) Spans() []domain.Span {
	return m.displaySpans()
}

// Overlays returns the overlays as currently displayed
func (m Model) Overlays() []domain.Overlay {
	return m.displayOverlays()
}

// Selected returns the selected span
func (m Model) Selected() (domain.Span, bool) {
	if m.selected < 0 || m.selected >= len(m.spans) {
		return domain.Span{}, false
	}
	return m.spans[m.selected], true
}

// Gesture returns the gesture state machine driven by keys and mouse
func (m Model) Gesture() *timeline.Gesture {
	return m.gesture
}

// displaySpans substitutes the in-memory copy of a span being trimmed
func (m Model) displaySpans() []domain.Span {
	if m.gesture.State() != timeline.GestureActive || m.gesture.Kind() == timeline.GestureMoveOverlay {
		return m.spans
	}
	live := m.gesture.Span()
	out := make([]domain.Span, len(m.spans))
	copy(out, m.spans)
	for i := range out {
		if out[i].ID == live.ID {
			out[i] = live
		}
	}
	return out
}

// displayOverlays substitutes the in-memory copy of an overlay being moved
func (m Model) displayOverlays() []domain.Overlay {
	if m.gesture.State() != timeline.GestureActive || m.gesture.Kind() != timeline.GestureMoveOverlay {
		return m.overlays
	}
	live := m.gesture.Overlay()
	out := make([]domain.Overlay, len(m.overlays))
	copy(out, m.overlays)
	for i := range out {
		if out[i].ID == live.ID {
			out[i] = live
		}
	}
	return out
}

func (m *Model) replaceSpan(span domain.Span) {
	for i := range m.spans {
		if m.spans[i].ID == span.ID {
			m.spans[i] = span
		}
	}
}

func (m *Model) replaceOverlay(o domain.Overlay) {
	for i := range m.overlays {
		if m.overlays[i].ID == o.ID {
			m.overlays[i] = o
		}
	}
}

// selectSpan selects the span with id and scrolls it into view
func (m *Model) selectSpan(id string) {
	for i, s := range m.spans {
		if s.ID == id {
			m.selectIndex(i)
			return
		}
	}
}

// pick selects the span with id without scrolling
func (m *Model) pick(id string) {
	for i, s := range m.spans {
		if s.ID == id {
			m.selected = i
			return
		}
	}
}

func (m *Model) selectIndex(i int) {
	if len(m.spans) == 0 {
		m.selected = 0
		return
	}
	m.selected = min(max(i, 0), len(m.spans)-1)
	if body, ok := m.track().Media(m.spans[m.selected].ID); ok {
		m.ensureVisible(body.X, body.Width)
	}
}
