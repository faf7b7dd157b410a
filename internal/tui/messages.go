package tui

import (
	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/service"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ProjectLoadedMsg carries the spans and overlays read from the store
type ProjectLoadedMsg struct {
	Project service.Project
}

// ImportedMsg signals that files were appended to the track.
// Err joins the failures of files that were skipped.
type ImportedMsg struct {
	Spans []domain.Span
	Err   error
}

// OverlayAddedMsg signals that an overlay was created
type OverlayAddedMsg struct {
	Overlay domain.Overlay
}

// AssetsMsg carries the result of one asset request
type AssetsMsg struct {
	Request    domain.AssetRequest
	Deliveries []domain.AssetDelivery
	Err        error
}

// EditStatusMsg reports the outcome of a submitted edit command
type EditStatusMsg struct {
	Event domain.StatusEvent
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
