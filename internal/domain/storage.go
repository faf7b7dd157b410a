package domain

// ProjectStore persists the project's spans and overlays.
type ProjectStore interface {
	// LoadSpans returns all spans ordered by Position
	LoadSpans() ([]Span, error)
	GetSpan(id string) (Span, error)
	SaveSpan(span Span) error
	DeleteSpan(id string) error // Also removes the span's overlays

	// LoadOverlays returns all overlays ordered by StartMs
	LoadOverlays() ([]Overlay, error)
	GetOverlay(id string) (Overlay, error)
	SaveOverlay(overlay Overlay) error

	Close() error
}

// StatusEvent reports the asynchronous outcome of an edit command
type StatusEvent struct {
	ItemID string
	Op     string
	Err    error
}
