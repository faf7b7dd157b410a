package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/timeline"
)

// Edit operation names reported in status events
const (
	OpBoundary = "boundary"
	OpDuration = "duration"
	OpOverlay  = "overlay"
)

const defaultQueueSize = 64

type editCommand struct {
	op        string
	itemID    string
	overlayID string
	a, b      int64 // begin/end, duration or start depending on op
}

// EditService applies edit commands to the project store in the background.
// It implements domain.EditCommandSink: submissions never block, and their
// outcomes are published on Status().
type EditService struct {
	store  domain.ProjectStore
	queue  chan editCommand
	status chan domain.StatusEvent
	logger *slog.Logger
}

// NewEditService creates a new edit service
func NewEditService(store domain.ProjectStore, queueSize int, logger *slog.Logger) *EditService {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &EditService{
		store:  store,
		queue:  make(chan editCommand, queueSize),
		status: make(chan domain.StatusEvent, queueSize),
		logger: logger.With("component", "edit"),
	}
}

// Status returns the channel edit outcomes are published on
func (s *EditService) Status() <-chan domain.StatusEvent {
	return s.status
}

// SubmitBoundaryChange queues a trim of a clip's source boundaries
func (s *EditService) SubmitBoundaryChange(itemID string, beginMs, endMs int64) {
	s.enqueue(editCommand{op: OpBoundary, itemID: itemID, a: beginMs, b: endMs})
}

// SubmitDurationChange queues a duration change of a still
func (s *EditService) SubmitDurationChange(itemID string, durationMs int64) {
	s.enqueue(editCommand{op: OpDuration, itemID: itemID, a: durationMs})
}

// SubmitOverlayStart queues a move of an overlay attached to itemID
func (s *EditService) SubmitOverlayStart(itemID, overlayID string, startMs int64) {
	s.enqueue(editCommand{op: OpOverlay, itemID: itemID, overlayID: overlayID, a: startMs})
}

func (s *EditService) enqueue(cmd editCommand) {
	select {
	case s.queue <- cmd:
		s.logger.Debug("edit queued", "op", cmd.op, "itemID", cmd.itemID)
	default:
		s.logger.Warn("edit queue full, dropping command", "op", cmd.op, "itemID", cmd.itemID)
		s.publish(domain.StatusEvent{ItemID: cmd.itemID, Op: cmd.op, Err: domain.ErrQueueFull})
	}
}

// Run applies queued commands until ctx is cancelled
func (s *EditService) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-s.queue:
			err := s.apply(cmd)
			if err != nil {
				s.logger.Error("edit failed", "op", cmd.op, "itemID", cmd.itemID, "error", err)
			} else {
				s.logger.Info("edit applied", "op", cmd.op, "itemID", cmd.itemID)
			}
			s.publish(domain.StatusEvent{ItemID: cmd.itemID, Op: cmd.op, Err: err})
		}
	}
}

func (s *EditService) publish(ev domain.StatusEvent) {
	select {
	case s.status <- ev:
	default:
		s.logger.Warn("status channel full, dropping event", "op", ev.Op, "itemID", ev.ItemID)
	}
}

func (s *EditService) apply(cmd editCommand) error {
	switch cmd.op {
	case OpBoundary, OpDuration:
		before, err := s.store.LoadSpans()
		if err != nil {
			return err
		}
		span, err := s.store.GetSpan(cmd.itemID)
		if err != nil {
			return err
		}
		if cmd.op == OpBoundary {
			span.BeginMs, span.EndMs = cmd.a, cmd.b
		} else {
			span.EndMs = span.BeginMs + cmd.a + span.Transitions()
		}
		if err := span.Validate(); err != nil {
			return err
		}
		if err := s.store.SaveSpan(span); err != nil {
			return err
		}
		// Later spans shift, so their overlays have to follow
		return reflowOverlays(s.store, before, s.logger)

	case OpOverlay:
		overlay, err := s.store.GetOverlay(cmd.overlayID)
		if err != nil {
			return err
		}
		if overlay.ParentID != cmd.itemID {
			return fmt.Errorf("overlay %s belongs to %s, not %s: %w",
				overlay.ID, overlay.ParentID, cmd.itemID, domain.ErrNotFound)
		}
		parent, err := s.parentWindow(cmd.itemID)
		if err != nil {
			return err
		}
		if timeline.MoveOverlayWindow(overlay, parent, cmd.a) != cmd.a {
			return fmt.Errorf("%w: overlay start %d outside %d..%d",
				domain.ErrInvalidSpan, cmd.a, parent.StartMs, parent.EndMs)
		}
		overlay.StartMs = cmd.a
		return s.store.SaveOverlay(overlay)
	}
	return fmt.Errorf("unknown edit op %q", cmd.op)
}

func (s *EditService) parentWindow(spanID string) (domain.Window, error) {
	spans, err := s.store.LoadSpans()
	if err != nil {
		return domain.Window{}, err
	}
	for i, w := range timeline.Windows(spans) {
		if spans[i].ID == spanID {
			return w, nil
		}
	}
	return domain.Window{}, fmt.Errorf("span %s: %w", spanID, domain.ErrNotFound)
}
