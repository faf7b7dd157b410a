package domain

import (
	"fmt"
)

// Span represents one item placed on the timeline (clip or still image)
type Span struct {
	ID         string // Stable identifier, unique on the track
	Name       string // Display name (usually the source file name)
	SourcePath string // Path to the underlying media
	Still      bool   // Still image: duration-only, no source boundaries
	Position   int    // Order on the track

	SourceDurationMs int64 // Total length of the underlying media
	BeginMs          int64 // Source-relative start of the used portion
	EndMs            int64 // Source-relative end of the used portion

	// Transition time consumed at each edge by an adjoining transition
	TransitionInMs  int64
	TransitionOutMs int64

	// Policy bounds supplied by the caller
	MinDurationMs int64
	MaxDurationMs int64
}

// TimelineDuration returns the time the span occupies on the timeline
func (s Span) TimelineDuration() int64 {
	return (s.EndMs - s.BeginMs) - s.TransitionInMs - s.TransitionOutMs
}

// Transitions returns the total transition time consumed at both edges
func (s Span) Transitions() int64 {
	return s.TransitionInMs + s.TransitionOutMs
}

// Validate checks the boundary and duration invariants
func (s Span) Validate() error {
	if s.BeginMs < 0 || s.BeginMs > s.EndMs || s.EndMs > s.SourceDurationMs {
		return fmt.Errorf("%w: boundaries %d..%d outside 0..%d",
			ErrInvalidSpan, s.BeginMs, s.EndMs, s.SourceDurationMs)
	}
	d := s.TimelineDuration()
	if d < s.MinDurationMs || d > s.MaxDurationMs {
		return fmt.Errorf("%w: duration %d outside %d..%d",
			ErrInvalidSpan, d, s.MinDurationMs, s.MaxDurationMs)
	}
	return nil
}

// Overlay is a floating window (e.g. a caption) attached to a span
type Overlay struct {
	ID         string
	ParentID   string // Span the overlay is attached to
	Text       string
	StartMs    int64 // Timeline-relative start
	DurationMs int64
}

// EndMs returns the timeline-relative end of the overlay
func (o Overlay) EndMs() int64 {
	return o.StartMs + o.DurationMs
}

// Window is a span's placement on the timeline
type Window struct {
	StartMs int64
	EndMs   int64
}

// Duration returns the window length
func (w Window) Duration() int64 {
	return w.EndMs - w.StartMs
}

// Contains reports whether t lies in [StartMs, EndMs)
func (w Window) Contains(t int64) bool {
	return t >= w.StartMs && t < w.EndMs
}

// FormatMillis renders a millisecond value as m:ss.mmm
func FormatMillis(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	mins := ms / 60000
	secs := (ms / 1000) % 60
	return fmt.Sprintf("%s%d:%02d.%03d", sign, mins, secs, ms%1000)
}
