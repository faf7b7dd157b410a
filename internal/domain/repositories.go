package domain

import (
	"context"
)

// EditCommandSink accepts edit commands for timeline items.
// Calls are fire-and-forget: they never block and return nothing.
// Failures surface asynchronously through a separate status channel.
type EditCommandSink interface {
	SubmitBoundaryChange(itemID string, beginMs, endMs int64)
	SubmitDurationChange(itemID string, durationMs int64)
	SubmitOverlayStart(itemID, overlayID string, startMs int64)
}

// AssetSource produces thumbnails and waveform blocks for timeline items.
// Generate may block; callers run it off the UI loop.
type AssetSource interface {
	Generate(ctx context.Context, req AssetRequest) ([]AssetDelivery, error)
}
