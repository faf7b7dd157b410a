package service

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/store"
	"github.com/mmcdole/splice/internal/timeline"
)

func memoryStore(t *testing.T) *store.ProjectStore {
	t.Helper()
	s, err := store.NewProjectStore("", "")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func nextStatus(t *testing.T, svc *EditService) domain.StatusEvent {
	t.Helper()
	select {
	case ev := <-svc.Status():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status event")
		return domain.StatusEvent{}
	}
}

func seed(t *testing.T, s *store.ProjectStore) {
	t.Helper()
	spans := []domain.Span{
		{ID: "a", Position: 0, SourceDurationMs: 10000, EndMs: 10000, MinDurationMs: 1000, MaxDurationMs: 10000},
		{ID: "img", Position: 1, Still: true, SourceDurationMs: 30000, EndMs: 5000, MinDurationMs: 1000, MaxDurationMs: 30000},
	}
	for _, sp := range spans {
		if err := s.SaveSpan(sp); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveOverlay(domain.Overlay{ID: "cap", ParentID: "img", StartMs: 10000, DurationMs: 2000}); err != nil {
		t.Fatal(err)
	}
}

func TestEditServiceAppliesCommands(t *testing.T) {
	s := memoryStore(t)
	seed(t, s)
	svc := NewEditService(s, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	svc.SubmitBoundaryChange("a", 2000, 9000)
	if ev := nextStatus(t, svc); ev.Err != nil || ev.Op != OpBoundary {
		t.Fatalf("boundary status = %+v", ev)
	}
	if got, _ := s.GetSpan("a"); got.BeginMs != 2000 || got.EndMs != 9000 {
		t.Errorf("span a = %d..%d, want 2000..9000", got.BeginMs, got.EndMs)
	}
	// "img" moved back 3s and its caption with it
	if got, _ := s.GetOverlay("cap"); got.StartMs != 7000 {
		t.Errorf("overlay start after trim = %d, want 7000", got.StartMs)
	}

	svc.SubmitDurationChange("img", 8000)
	if ev := nextStatus(t, svc); ev.Err != nil {
		t.Fatalf("duration status = %+v", ev)
	}
	if got, _ := s.GetSpan("img"); got.TimelineDuration() != 8000 {
		t.Errorf("still duration = %d, want 8000", got.TimelineDuration())
	}

	// "a" now spans 0..7000 on the timeline, so "img" sits at 7000..15000
	svc.SubmitOverlayStart("img", "cap", 12000)
	if ev := nextStatus(t, svc); ev.Err != nil {
		t.Fatalf("overlay status = %+v", ev)
	}
	if got, _ := s.GetOverlay("cap"); got.StartMs != 12000 {
		t.Errorf("overlay start = %d, want 12000", got.StartMs)
	}
}

// overlaysInsideParents fails the test if any overlay lies outside the
// current window of its parent
func overlaysInsideParents(t *testing.T, s *store.ProjectStore) {
	t.Helper()
	spans, err := s.LoadSpans()
	if err != nil {
		t.Fatal(err)
	}
	overlays, err := s.LoadOverlays()
	if err != nil {
		t.Fatal(err)
	}
	windows := timeline.Windows(spans)
	for _, o := range overlays {
		for i, w := range windows {
			if spans[i].ID == o.ParentID && timeline.MoveOverlayWindow(o, w, o.StartMs) != o.StartMs {
				t.Errorf("overlay %s at %d is outside parent %s window %d..%d",
					o.ID, o.StartMs, o.ParentID, w.StartMs, w.EndMs)
			}
		}
	}
}

func TestEditKeepsOverlaysInsideParent(t *testing.T) {
	s := memoryStore(t)
	seed(t, s)
	svc := NewEditService(s, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	// Shortening "a" to 4s pulls "img" to 4000..9000
	svc.SubmitBoundaryChange("a", 0, 4000)
	if ev := nextStatus(t, svc); ev.Err != nil {
		t.Fatalf("boundary status = %+v", ev)
	}
	overlaysInsideParents(t, s)
	caption, _ := s.GetOverlay("cap")
	if caption.StartMs != 4000 {
		t.Errorf("overlay start = %d, want 4000", caption.StartMs)
	}

	// Re-submitting the overlay where it already is must be accepted
	svc.SubmitOverlayStart("img", "cap", caption.StartMs)
	if ev := nextStatus(t, svc); ev.Err != nil {
		t.Errorf("overlay at its own start rejected: %v", ev.Err)
	}

	// A still shorter than its caption pins the caption to its start
	svc.SubmitDurationChange("img", 1500)
	if ev := nextStatus(t, svc); ev.Err != nil {
		t.Fatalf("duration status = %+v", ev)
	}
	if got, _ := s.GetOverlay("cap"); got.StartMs != 4000 {
		t.Errorf("overlay start = %d, want 4000", got.StartMs)
	}

	// Lengthening "a" pushes everything back out
	svc.SubmitBoundaryChange("a", 0, 10000)
	if ev := nextStatus(t, svc); ev.Err != nil {
		t.Fatalf("boundary status = %+v", ev)
	}
	overlaysInsideParents(t, s)
	if got, _ := s.GetOverlay("cap"); got.StartMs != 10000 {
		t.Errorf("overlay start = %d, want 10000", got.StartMs)
	}
}

func TestEditServiceRejectsInvalidEdits(t *testing.T) {
	s := memoryStore(t)
	seed(t, s)
	svc := NewEditService(s, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	tests := []struct {
		name   string
		submit func()
		want   error
	}{
		{"below min duration", func() { svc.SubmitBoundaryChange("a", 9500, 10000) }, domain.ErrInvalidSpan},
		{"past source end", func() { svc.SubmitBoundaryChange("a", 0, 12000) }, domain.ErrInvalidSpan},
		{"unknown span", func() { svc.SubmitDurationChange("nope", 2000) }, domain.ErrNotFound},
		{"overlay outside parent", func() { svc.SubmitOverlayStart("img", "cap", 100) }, domain.ErrInvalidSpan},
		{"overlay of other span", func() { svc.SubmitOverlayStart("a", "cap", 100) }, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.submit()
			if ev := nextStatus(t, svc); !errors.Is(ev.Err, tt.want) {
				t.Errorf("err = %v, want %v", ev.Err, tt.want)
			}
		})
	}

	if got, _ := s.GetSpan("a"); got.BeginMs != 0 || got.EndMs != 10000 {
		t.Errorf("rejected edits modified span: %d..%d", got.BeginMs, got.EndMs)
	}
}

func TestEditServiceQueueFull(t *testing.T) {
	svc := NewEditService(memoryStore(t), 1, nil)
	svc.SubmitBoundaryChange("a", 0, 1)
	svc.SubmitBoundaryChange("a", 0, 2) // not running: queue is full

	if ev := nextStatus(t, svc); !errors.Is(ev.Err, domain.ErrQueueFull) {
		t.Errorf("status = %+v, want ErrQueueFull", ev)
	}
}

func writeSilentWAV(t *testing.T, path string, ms int) {
	t.Helper()
	const rate = 1000
	dataLen := ms * rate / 1000 * 2
	var b []byte
	b = append(b, "RIFF"...)
	b = binary.LittleEndian.AppendUint32(b, uint32(36+dataLen))
	b = append(b, "WAVEfmt "...)
	b = binary.LittleEndian.AppendUint32(b, 16)
	b = binary.LittleEndian.AppendUint16(b, 1)
	b = binary.LittleEndian.AppendUint16(b, 1)
	b = binary.LittleEndian.AppendUint32(b, rate)
	b = binary.LittleEndian.AppendUint32(b, rate*2)
	b = binary.LittleEndian.AppendUint16(b, 2)
	b = binary.LittleEndian.AppendUint16(b, 16)
	b = append(b, "data"...)
	b = binary.LittleEndian.AppendUint32(b, uint32(dataLen))
	b = append(b, make([]byte, dataLen)...)
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestProjectImportDir(t *testing.T) {
	dir := t.TempDir()
	writeSilentWAV(t, filepath.Join(dir, "beat.wav"), 3000)
	writeSilentWAV(t, filepath.Join(dir, "other.wav"), 500)
	os.WriteFile(filepath.Join(dir, "poster.png"), []byte("png"), 0644)

	s := memoryStore(t)
	svc := NewProjectService(s, Policy{MinClipMs: 1000, MaxStillMs: 60000, DefaultStillMs: 4000}, nil)

	added, err := svc.ImportDir(context.Background(), dir, "beat")
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 1 || added[0].Name != "beat.wav" {
		t.Fatalf("added = %+v, want beat.wav", added)
	}
	if a := added[0]; a.TimelineDuration() != 3000 || a.MinDurationMs != 1000 || a.MaxDurationMs != 3000 {
		t.Errorf("span bounds = %+v", a)
	}

	added, err = svc.ImportDir(context.Background(), dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 3 {
		t.Fatalf("added %d spans, want 3", len(added))
	}
	// other.wav is shorter than the minimum clip length
	if o := added[1]; o.Name != "other.wav" || o.MinDurationMs != 500 {
		t.Errorf("short clip = %+v", o)
	}
	if p := added[2]; !p.Still || p.TimelineDuration() != 4000 || p.MaxDurationMs != 60000 {
		t.Errorf("still = %+v", p)
	}

	project, err := svc.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(project.Spans) != 4 || project.Spans[0].Name != "beat.wav" || project.Spans[3].Position != 3 {
		t.Errorf("project spans = %+v", project.Spans)
	}
}

func TestProjectImportSkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "notes.txt")
	os.WriteFile(bad, []byte("plain text, not media"), 0644)

	svc := NewProjectService(memoryStore(t), Policy{MinClipMs: 1000, MaxStillMs: 60000, DefaultStillMs: 4000}, nil)
	added, err := svc.Import(context.Background(), []string{bad})
	if len(added) != 0 || !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("Import = %v, %v", added, err)
	}
}

func TestAddOverlayClampsIntoParent(t *testing.T) {
	s := memoryStore(t)
	seed(t, s)
	svc := NewProjectService(s, Policy{}, nil)

	o, err := svc.AddOverlay("img", "Title", 99999, 3000)
	if err != nil {
		t.Fatal(err)
	}
	// img occupies 10000..15000
	if o.StartMs != 12000 || o.DurationMs != 3000 {
		t.Errorf("overlay = %+v, want start 12000", o)
	}
	if _, err := svc.AddOverlay("missing", "x", 0, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemoveDropsSpanAndOverlays(t *testing.T) {
	s := memoryStore(t)
	seed(t, s)
	svc := NewProjectService(s, Policy{}, nil)

	if err := svc.Remove("img"); err != nil {
		t.Fatal(err)
	}
	project, err := svc.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(project.Spans) != 1 || project.Spans[0].ID != "a" {
		t.Errorf("spans = %+v, want only a", project.Spans)
	}
	if len(project.Overlays) != 0 {
		t.Errorf("overlays = %+v, want the caption removed with its parent", project.Overlays)
	}
}

func TestRemoveMovesLaterOverlays(t *testing.T) {
	s := memoryStore(t)
	seed(t, s)
	svc := NewProjectService(s, Policy{}, nil)

	if err := svc.Remove("a"); err != nil {
		t.Fatal(err)
	}
	overlaysInsideParents(t, s)
	if got, _ := s.GetOverlay("cap"); got.StartMs != 0 {
		t.Errorf("overlay start = %d, want 0 after its parent moved to the front", got.StartMs)
	}
}
