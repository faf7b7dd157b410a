package service

import (
	"log/slog"

	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/timeline"
)

// reflowOverlays saves the overlays that moved with their parent after the
// track was edited. before is the span list prior to the edit.
func reflowOverlays(store domain.ProjectStore, before []domain.Span, logger *slog.Logger) error {
	spans, err := store.LoadSpans()
	if err != nil {
		return err
	}
	overlays, err := store.LoadOverlays()
	if err != nil {
		return err
	}
	for _, o := range timeline.ReflowOverlays(before, spans, overlays) {
		logger.Debug("overlay moved with parent", "overlayID", o.ID, "parentID", o.ParentID, "startMs", o.StartMs)
		if err := store.SaveOverlay(o); err != nil {
			return err
		}
	}
	return nil
}
