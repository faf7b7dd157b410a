// Package timeline maps timeline time to display columns and adjusts span
// boundaries in response to drag gestures.
//
// Every function here is pure: spans are passed in by value and adjusted
// copies are returned, so callers may use the package from any goroutine.
package timeline

import (
	"math"

	"github.com/mmcdole/splice/internal/domain"
)

// DefaultToleranceMs is the smallest duration change treated as a real edit
const DefaultToleranceMs = 30

// TimeToPixel maps a timeline time to a column.
// Returns domain.ErrDivisionByZero when totalMs is zero.
func TimeToPixel(timeMs, totalMs int64, widthPx, originPx int) (int, error) {
	if totalMs == 0 {
		return 0, domain.ErrDivisionByZero
	}
	px := math.Round(float64(timeMs) * float64(widthPx) / float64(totalMs))
	return originPx + int(px), nil
}

// PixelToTime maps a column back to timeline time. It is not an exact inverse
// of TimeToPixel: the round trip is off by at most ceil(totalMs/widthPx).
func PixelToTime(px int, totalMs int64, widthPx, originPx int) (int64, error) {
	if totalMs == 0 || widthPx == 0 {
		return 0, domain.ErrDivisionByZero
	}
	t := math.Round(float64(px-originPx) * float64(totalMs) / float64(widthPx))
	return int64(t), nil
}

// Trim is the outcome of an edge adjustment
type Trim struct {
	Span    domain.Span
	EdgePx  int  // Edge column consistent with the clamped duration
	Changed bool // False when the change was below tolerance
}

// AdjustLeftEdge moves the leading edge of span to proposedPx while the
// trailing edge stays at fixedRightPx. The resulting duration is clamped to
// the span's bounds and BeginMs never goes below zero. Changes smaller than
// toleranceMs leave the span untouched.
//
// A still has no source offset to move, so its leading edge changes the
// duration through EndMs and BeginMs stays put.
func AdjustLeftEdge(span domain.Span, proposedPx int, pxPerMs float64, fixedRightPx int, toleranceMs int64) Trim {
	current := span.TimelineDuration()
	unchanged := Trim{Span: span, EdgePx: fixedRightPx - msToPx(current, pxPerMs)}
	if pxPerMs <= 0 {
		return unchanged
	}

	duration := clampDuration(span, pxToMs(fixedRightPx-proposedPx, pxPerMs))
	if span.Still {
		end := min(span.BeginMs+duration+span.Transitions(), span.SourceDurationMs)
		duration = end - span.BeginMs - span.Transitions()
		if abs(duration-current) < toleranceMs {
			return unchanged
		}
		span.EndMs = end
		return Trim{
			Span:    span,
			EdgePx:  fixedRightPx - msToPx(duration, pxPerMs),
			Changed: true,
		}
	}

	begin := span.EndMs - duration - span.Transitions()
	if begin < 0 {
		begin = 0
		duration = span.EndMs - span.Transitions()
	}

	if abs(duration-current) < toleranceMs {
		return unchanged
	}

	span.BeginMs = begin
	return Trim{
		Span:    span,
		EdgePx:  fixedRightPx - msToPx(duration, pxPerMs),
		Changed: true,
	}
}

// AdjustRightEdge moves the trailing edge of span to proposedPx while the
// leading edge stays at fixedLeftPx. EndMs never exceeds the source duration.
func AdjustRightEdge(span domain.Span, proposedPx int, pxPerMs float64, fixedLeftPx int, toleranceMs int64) Trim {
	current := span.TimelineDuration()
	unchanged := Trim{Span: span, EdgePx: fixedLeftPx + msToPx(current, pxPerMs)}
	if pxPerMs <= 0 {
		return unchanged
	}

	duration := clampDuration(span, pxToMs(proposedPx-fixedLeftPx, pxPerMs))
	end := span.BeginMs + duration + span.Transitions()
	if end > span.SourceDurationMs {
		end = span.SourceDurationMs
		duration = end - span.BeginMs - span.Transitions()
	}

	if abs(duration-current) < toleranceMs {
		return unchanged
	}

	span.EndMs = end
	return Trim{
		Span:    span,
		EdgePx:  fixedLeftPx + msToPx(duration, pxPerMs),
		Changed: true,
	}
}

// MoveOverlayWindow clamps a proposed overlay start so the overlay stays
// inside its parent's window. An overlay longer than its parent is pinned to
// the parent's start.
func MoveOverlayWindow(overlay domain.Overlay, parent domain.Window, proposedStartMs int64) int64 {
	latest := parent.EndMs - overlay.DurationMs
	if latest < parent.StartMs {
		return parent.StartMs
	}
	return min(max(proposedStartMs, parent.StartMs), latest)
}

// ReflowOverlays returns the overlays that have to move after the track
// changed from before to after. Each keeps its offset into its parent and is
// clamped inside the parent's new window. Overlays of removed spans are left
// out.
func ReflowOverlays(before, after []domain.Span, overlays []domain.Overlay) []domain.Overlay {
	prev := windowsByID(before)
	next := windowsByID(after)

	var moved []domain.Overlay
	for _, o := range overlays {
		w, ok := next[o.ParentID]
		if !ok {
			continue
		}
		start := o.StartMs
		if p, ok := prev[o.ParentID]; ok {
			start += w.StartMs - p.StartMs
		}
		start = MoveOverlayWindow(o, w, start)
		if start != o.StartMs {
			o.StartMs = start
			moved = append(moved, o)
		}
	}
	return moved
}

func windowsByID(spans []domain.Span) map[string]domain.Window {
	byID := make(map[string]domain.Window, len(spans))
	for i, w := range Windows(spans) {
		byID[spans[i].ID] = w
	}
	return byID
}

func clampDuration(span domain.Span, d int64) int64 {
	if d > span.MaxDurationMs {
		d = span.MaxDurationMs
	}
	if d < span.MinDurationMs {
		d = span.MinDurationMs
	}
	return d
}

func pxToMs(px int, pxPerMs float64) int64 {
	return int64(math.Round(float64(px) / pxPerMs))
}

func msToPx(ms int64, pxPerMs float64) int {
	return int(math.Round(float64(ms) * pxPerMs))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
