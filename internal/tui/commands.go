package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/service"
)

// Command factories for async operations

// LoadProjectCmd reads all spans and overlays
func LoadProjectCmd(svc *service.ProjectService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		project, err := svc.Load(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading project"}
		}
		return ProjectLoadedMsg{Project: project}
	}
}

// ImportCmd imports input, which is either a file, a directory, or a
// directory followed by a fuzzy query selecting files inside it
func ImportCmd(svc *service.ProjectService, input string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		input = strings.TrimSpace(input)
		dir, query, isDir := splitImportInput(input)

		var (
			spans []domain.Span
			err   error
		)
		if isDir {
			spans, err = svc.ImportDir(ctx, dir, query)
		} else {
			spans, err = svc.Import(ctx, []string{input})
		}
		return ImportedMsg{Spans: spans, Err: err}
	}
}

// splitImportInput reports whether input names a directory, optionally
// followed by a query after the last space
func splitImportInput(input string) (dir, query string, ok bool) {
	if fi, err := os.Stat(input); err == nil {
		return input, "", fi.IsDir()
	}
	i := strings.LastIndex(input, " ")
	if i < 0 {
		return "", "", false
	}
	if fi, err := os.Stat(input[:i]); err == nil && fi.IsDir() {
		return input[:i], strings.TrimSpace(input[i+1:]), true
	}
	return "", "", false
}

// AddOverlayCmd attaches a caption overlay to a span
func AddOverlayCmd(svc *service.ProjectService, parentID, text string, startMs, durationMs int64) tea.Cmd {
	return func() tea.Msg {
		o, err := svc.AddOverlay(parentID, text, startMs, durationMs)
		if err != nil {
			return ErrMsg{Err: err, Context: "adding overlay"}
		}
		return OverlayAddedMsg{Overlay: o}
	}
}

// RemoveSpanCmd deletes a span and its overlays, then reloads the project
func RemoveSpanCmd(svc *service.ProjectService, span domain.Span) tea.Cmd {
	return func() tea.Msg {
		if err := svc.Remove(span.ID); err != nil {
			return ErrMsg{Err: err, Context: "removing " + span.Name}
		}
		return LoadProjectCmd(svc)()
	}
}

// GenerateAssetsCmd runs one asset request off the update loop
func GenerateAssetsCmd(src domain.AssetSource, req domain.AssetRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		deliveries, err := src.Generate(ctx, req)
		if err != nil {
			err = fmt.Errorf("generating assets for %s: %w", req.ItemID, err)
		}
		return AssetsMsg{Request: req, Deliveries: deliveries, Err: err}
	}
}

// PreviewCmd opens the span's used range in an external player
func PreviewCmd(p Previewer, span domain.Span) tea.Cmd {
	return func() tea.Msg {
		if err := p.Preview(span); err != nil {
			return ErrMsg{Err: err, Context: "preview"}
		}
		return StatusMsg{Message: "Previewing " + span.Name}
	}
}

// WaitForStatusCmd blocks until the edit service reports the next outcome.
// Update re-issues it after every EditStatusMsg.
func WaitForStatusCmd(status <-chan domain.StatusEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-status
		if !ok {
			return nil
		}
		return EditStatusMsg{Event: ev}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
