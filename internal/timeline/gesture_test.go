package timeline

import (
	"errors"
	"testing"

	"github.com/mmcdole/splice/internal/domain"
)

type recordingSink struct {
	boundaries []domain.Span
	durations  map[string]int64
	overlays   map[string]int64
}

func newRecordingSink() *recordingSink {
	return &recordingSink{durations: map[string]int64{}, overlays: map[string]int64{}}
}

func (r *recordingSink) SubmitBoundaryChange(itemID string, beginMs, endMs int64) {
	r.boundaries = append(r.boundaries, domain.Span{ID: itemID, BeginMs: beginMs, EndMs: endMs})
}

func (r *recordingSink) SubmitDurationChange(itemID string, durationMs int64) {
	r.durations[itemID] = durationMs
}

func (r *recordingSink) SubmitOverlayStart(itemID, overlayID string, startMs int64) {
	r.overlays[itemID+"/"+overlayID] = startMs
}

func (r *recordingSink) calls() int {
	return len(r.boundaries) + len(r.durations) + len(r.overlays)
}

func TestLayoutPlacesSpansBackToBack(t *testing.T) {
	a := clip(0, 4000, 4000, 0, 10000)
	a.ID = "a"
	b := clip(1000, 7000, 8000, 0, 10000)
	b.ID = "b"

	track := Layout([]domain.Span{a, b}, 100, 0)
	if track.TotalMs != 10000 {
		t.Fatalf("TotalMs = %d, want 10000", track.TotalMs)
	}

	ma, ok := track.Media("a")
	if !ok || ma.X != 0 || ma.Width != 40 {
		t.Errorf("a = %+v, want x=0 width=40", ma)
	}
	mb, ok := track.Media("b")
	if !ok || mb.X != 40 || mb.Width != 60 {
		t.Errorf("b = %+v, want x=40 width=60", mb)
	}
	if mb.Window.StartMs != 4000 || mb.Window.EndMs != 10000 {
		t.Errorf("b window = %+v", mb.Window)
	}

	if e, ok := track.Hit(40); !ok {
		t.Fatal("no element at column 40")
	} else if h, isHandle := e.(domain.HandleElement); !isHandle || h.SpanID != "b" || h.Edge != domain.EdgeLeft {
		t.Errorf("Hit(40) = %#v, want left handle of b", e)
	}
	if e, _ := track.Hit(20); e == nil {
		t.Error("Hit(20) found nothing")
	} else if m, isMedia := e.(domain.MediaElement); !isMedia || m.Span.ID != "a" {
		t.Errorf("Hit(20) = %#v, want body of a", e)
	}
}

func TestLayoutTransitions(t *testing.T) {
	a := clip(0, 5000, 5000, 0, 10000)
	a.ID = "a"
	a.TransitionOutMs = 500
	b := clip(0, 5000, 5000, 0, 10000)
	b.ID = "b"
	b.TransitionInMs = 500

	track := Layout([]domain.Span{a, b}, 100, 0)
	var found bool
	for _, e := range track.Elements {
		if tr, ok := e.(domain.TransitionElement); ok {
			found = true
			if tr.FromID != "a" || tr.ToID != "b" || tr.DurationMs != 1000 {
				t.Errorf("transition = %+v", tr)
			}
			if tr.X != 45 || tr.Width != 10 {
				t.Errorf("transition columns = %d+%d, want 45+10", tr.X, tr.Width)
			}
		}
	}
	if !found {
		t.Error("no transition element")
	}
}

func TestLayoutEmptyTimeline(t *testing.T) {
	a := clip(0, 0, 0, 0, 0)
	track := Layout([]domain.Span{a}, 80, 5)
	if !track.Empty() {
		t.Fatal("expected empty track")
	}
	for _, e := range track.Elements {
		switch e := e.(type) {
		case domain.MediaElement:
			if e.Width != 0 || e.X != 5 {
				t.Errorf("media element = %+v, want zero width at origin", e)
			}
		case domain.SpacerElement:
			if e.Width != 80 {
				t.Errorf("spacer width = %d, want 80", e.Width)
			}
		default:
			t.Errorf("unexpected element %T", e)
		}
	}
	if track.Column(1234) != 5 || track.TimeAt(40) != 0 {
		t.Error("empty track should map to origin/zero")
	}
}

func TestGestureSubmitsOnceOnEnd(t *testing.T) {
	sink := newRecordingSink()
	span := clip(0, 10000, 10000, 1000, 10000)
	track := Layout([]domain.Span{span}, 100, 0)

	g := NewGesture(sink, DefaultToleranceMs)
	if err := g.BeginTrim(track, span, domain.EdgeLeft); err != nil {
		t.Fatal(err)
	}
	for px := 1; px <= 30; px++ {
		if _, err := g.Adjust(px); err != nil {
			t.Fatal(err)
		}
	}
	if sink.calls() != 0 {
		t.Fatalf("sink called %d times during adjust", sink.calls())
	}
	if g.Span().BeginMs != 3000 {
		t.Errorf("in-memory BeginMs = %d, want 3000", g.Span().BeginMs)
	}

	out, err := g.End()
	if err != nil {
		t.Fatal(err)
	}
	if !out.Submitted || len(sink.boundaries) != 1 {
		t.Fatalf("expected one boundary submit, got %+v", sink.boundaries)
	}
	if got := sink.boundaries[0]; got.BeginMs != 3000 || got.EndMs != 10000 {
		t.Errorf("submitted %d..%d, want 3000..10000", got.BeginMs, got.EndMs)
	}
	if g.State() != GestureIdle {
		t.Error("gesture should be idle after End")
	}
}

func TestGestureReturningToStartDoesNotSubmit(t *testing.T) {
	sink := newRecordingSink()
	span := clip(0, 10000, 10000, 1000, 10000)
	track := Layout([]domain.Span{span}, 100, 0)

	g := NewGesture(sink, DefaultToleranceMs)
	if err := g.BeginTrim(track, span, domain.EdgeRight); err != nil {
		t.Fatal(err)
	}
	g.Adjust(50)
	g.Adjust(100)
	out, err := g.End()
	if err != nil {
		t.Fatal(err)
	}
	if out.Submitted || sink.calls() != 0 {
		t.Errorf("unexpected submit: %+v", out)
	}
}

func TestGestureStillSubmitsDuration(t *testing.T) {
	sink := newRecordingSink()
	still := domain.Span{ID: "img", Still: true, SourceDurationMs: 60000, EndMs: 5000, MinDurationMs: 1000, MaxDurationMs: 60000}
	track := Layout([]domain.Span{still}, 50, 0)

	g := NewGesture(sink, DefaultToleranceMs)
	if err := g.BeginTrim(track, still, domain.EdgeRight); err != nil {
		t.Fatal(err)
	}
	g.Nudge(25)
	if _, err := g.End(); err != nil {
		t.Fatal(err)
	}
	if sink.durations["img"] != 7500 {
		t.Errorf("submitted duration = %d, want 7500", sink.durations["img"])
	}
	if len(sink.boundaries) != 0 {
		t.Error("still should not submit boundaries")
	}
}

func TestGestureStillLeftTrim(t *testing.T) {
	still := domain.Span{ID: "img", Still: true, SourceDurationMs: 60000, EndMs: 5000, MinDurationMs: 1000, MaxDurationMs: 60000}
	track := Layout([]domain.Span{still}, 50, 0)

	tests := []struct {
		name    string
		delta   int
		wantEnd int64
	}{
		{"lengthen", -25, 7500},
		{"shorten", 10, 4000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newRecordingSink()
			g := NewGesture(sink, DefaultToleranceMs)
			if err := g.BeginTrim(track, still, domain.EdgeLeft); err != nil {
				t.Fatal(err)
			}
			g.Nudge(tt.delta)
			out, err := g.End()
			if err != nil {
				t.Fatal(err)
			}
			if !out.Submitted || sink.durations["img"] != tt.wantEnd {
				t.Errorf("submitted duration = %d, want %d", sink.durations["img"], tt.wantEnd)
			}
			// The optimistic copy must match what the store derives from the duration
			if out.Span.BeginMs != 0 || out.Span.EndMs != tt.wantEnd {
				t.Errorf("outcome = %d..%d, want 0..%d", out.Span.BeginMs, out.Span.EndMs, tt.wantEnd)
			}
		})
	}
}

func TestRevalidateStillKeepsBegin(t *testing.T) {
	still := domain.Span{ID: "img", Still: true, SourceDurationMs: 60000, EndMs: 500, MinDurationMs: 1000, MaxDurationMs: 60000}

	got := Revalidate(still, true)
	if got.BeginMs != 0 || got.EndMs != 1000 {
		t.Errorf("Revalidate = %d..%d, want 0..1000", got.BeginMs, got.EndMs)
	}
}

func TestGestureNudgeAccumulatesBelowTolerance(t *testing.T) {
	sink := newRecordingSink()
	span := clip(0, 10000, 20000, 1000, 20000)
	// 1000 columns over 10s: one column is 10ms
	track := Layout([]domain.Span{span}, 1000, 0)

	g := NewGesture(sink, DefaultToleranceMs)
	g.BeginTrim(track, span, domain.EdgeRight)

	changed, _ := g.Nudge(1)
	if changed {
		t.Error("10ms nudge should be below tolerance")
	}
	g.Nudge(1)
	changed, _ = g.Nudge(1)
	if !changed {
		t.Error("accumulated 30ms nudge should apply")
	}
	if g.Span().EndMs != 10030 {
		t.Errorf("EndMs = %d, want 10030", g.Span().EndMs)
	}
}

func TestGestureOverlayMove(t *testing.T) {
	sink := newRecordingSink()
	span := clip(0, 10000, 10000, 0, 10000)
	span.ID = "a"
	track := Layout([]domain.Span{span}, 100, 0)
	overlay := domain.Overlay{ID: "cap", ParentID: "a", StartMs: 1000, DurationMs: 2000}
	parent, _ := track.Media("a")

	g := NewGesture(sink, DefaultToleranceMs)
	if err := g.BeginMove(track, overlay, parent.Window); err != nil {
		t.Fatal(err)
	}
	g.Adjust(95)
	if g.Overlay().StartMs != 8000 {
		t.Errorf("overlay start = %d, want clamp to 8000", g.Overlay().StartMs)
	}
	g.Adjust(101) // one column is 100ms: overlay moves are not tolerance gated
	if _, err := g.End(); err != nil {
		t.Fatal(err)
	}
	if got := sink.overlays["a/cap"]; got != 8000 {
		t.Errorf("submitted start = %d, want 8000", got)
	}
}

func TestGestureCancel(t *testing.T) {
	sink := newRecordingSink()
	span := clip(0, 10000, 10000, 1000, 10000)
	track := Layout([]domain.Span{span}, 100, 0)

	g := NewGesture(sink, DefaultToleranceMs)
	g.BeginTrim(track, span, domain.EdgeLeft)
	g.Adjust(50)
	out := g.Cancel()
	if out.Span != span {
		t.Errorf("cancel returned %+v, want original span", out.Span)
	}
	if sink.calls() != 0 {
		t.Error("cancel must not submit")
	}
}

func TestGestureStateErrors(t *testing.T) {
	g := NewGesture(newRecordingSink(), DefaultToleranceMs)
	if _, err := g.Adjust(1); !errors.Is(err, domain.ErrGestureIdle) {
		t.Errorf("Adjust while idle err = %v", err)
	}
	if _, err := g.End(); !errors.Is(err, domain.ErrGestureIdle) {
		t.Errorf("End while idle err = %v", err)
	}

	span := clip(0, 10000, 10000, 0, 10000)
	track := Layout([]domain.Span{span}, 100, 0)
	if err := g.BeginTrim(track, span, domain.EdgeLeft); err != nil {
		t.Fatal(err)
	}
	if err := g.BeginTrim(track, span, domain.EdgeRight); !errors.Is(err, domain.ErrGestureActive) {
		t.Errorf("second Begin err = %v", err)
	}
	missing := span
	missing.ID = "missing"
	g.Cancel()
	if err := g.BeginTrim(track, missing, domain.EdgeLeft); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Begin on unknown span err = %v", err)
	}
}
