package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Amber      = lipgloss.Color("#E5A00D")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Blue       = lipgloss.Color("#3B82F6")
	Violet     = lipgloss.Color("#8B5CF6")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Timeline glyphs
const (
	HandleLeft  = "▏"
	HandleRight = "▕"
	Transition  = "╳"
	RulerTick   = "┆"
)

// Timeline row colors. Clip bodies without a thumbnail yet fall back to
// PendingBody; the selected span is drawn over SelectedBody.
var (
	PendingBody  = SlateLight
	SelectedBody = Amber
	HandleColor  = Amber
	ActiveHandle = Green
	WaveColor    = Blue
	OverlayColor = Violet
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Padding(1, 2).
			Background(SlateDark)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true).
			MarginBottom(1)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Amber)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// List item styles
var (
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight).
				Padding(0, 1)

	NormalItemStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)
)

// Match highlight styles for search results
var (
	MatchHighlightStyle = lipgloss.NewStyle().
				Foreground(Amber).
				Bold(true)

	MatchHighlightSelectedStyle = lipgloss.NewStyle().
					Foreground(Amber).
					Background(SlateLight).
					Bold(true)
)

// Truncate truncates a string to the given width with ellipsis
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// Swatch returns the terminal color of a 3-byte RGB thumbnail swatch
func Swatch(rgb []byte) lipgloss.Color {
	if len(rgb) < 3 {
		return PendingBody
	}
	return lipgloss.Color(hexColor(rgb[0], rgb[1], rgb[2]))
}

// Contrast picks a readable text color for a background swatch
func Contrast(rgb []byte) lipgloss.Color {
	if len(rgb) < 3 {
		return White
	}
	// Rec. 601 luma
	if 299*int(rgb[0])+587*int(rgb[1])+114*int(rgb[2]) > 128*1000 {
		return SlateDark
	}
	return White
}

func hexColor(r, g, b byte) string {
	const digits = "0123456789ABCDEF"
	buf := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []byte{r, g, b} {
		buf[1+2*i] = digits[v>>4]
		buf[2+2*i] = digits[v&0x0F]
	}
	return string(buf)
}
