package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/splice/internal/assets"
	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/timeline"
)

// Policy holds the duration bounds applied to imported spans
type Policy struct {
	MinClipMs      int64
	MaxStillMs     int64
	DefaultStillMs int64
}

// Project is the loaded timeline
type Project struct {
	Spans    []domain.Span
	Overlays []domain.Overlay
}

// ProjectService loads the project and adds content to it
type ProjectService struct {
	store  domain.ProjectStore
	policy Policy
	logger *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(store domain.ProjectStore, policy Policy, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{
		store:  store,
		policy: policy,
		logger: logger.With("component", "project"),
	}
}

// Load returns all spans and overlays
func (s *ProjectService) Load(ctx context.Context) (Project, error) {
	spans, err := s.store.LoadSpans()
	if err != nil {
		return Project{}, fmt.Errorf("loading spans: %w", err)
	}
	overlays, err := s.store.LoadOverlays()
	if err != nil {
		return Project{}, fmt.Errorf("loading overlays: %w", err)
	}
	return Project{Spans: spans, Overlays: overlays}, ctx.Err()
}

// Import probes paths and appends them to the end of the track. Files that
// cannot be probed are skipped; the returned error joins their failures.
func (s *ProjectService) Import(ctx context.Context, paths []string) ([]domain.Span, error) {
	existing, err := s.store.LoadSpans()
	if err != nil {
		return nil, err
	}
	next := 0
	if n := len(existing); n > 0 {
		next = existing[n-1].Position + 1
	}

	var (
		added []domain.Span
		errs  []error
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		info, err := assets.Probe(path)
		if err != nil {
			s.logger.Warn("skipping import", "path", path, "error", err)
			errs = append(errs, err)
			continue
		}

		span := s.newSpan(path, info)
		span.Position = next
		if err := s.store.SaveSpan(span); err != nil {
			return added, fmt.Errorf("saving span: %w", err)
		}
		s.logger.Info("imported media", "path", path, "itemID", span.ID, "durationMs", span.TimelineDuration())
		added = append(added, span)
		next++
	}
	return added, errors.Join(errs...)
}

// ImportDir imports the files in dir whose names fuzzy-match query, best
// matches first. An empty query imports every file, sorted by name.
func (s *ProjectService) ImportDir(ctx context.Context, dir, query string) ([]domain.Span, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	var picked []string
	if query == "" {
		sort.Strings(names)
		picked = names
	} else {
		ranks := fuzzy.RankFindNormalizedFold(query, names)
		sort.Sort(ranks)
		for _, r := range ranks {
			picked = append(picked, r.Target)
		}
	}

	paths := make([]string, len(picked))
	for i, name := range picked {
		paths[i] = filepath.Join(dir, name)
	}
	return s.Import(ctx, paths)
}

// AddOverlay attaches a new overlay to a span, clamped inside it
func (s *ProjectService) AddOverlay(parentID, text string, startMs, durationMs int64) (domain.Overlay, error) {
	spans, err := s.store.LoadSpans()
	if err != nil {
		return domain.Overlay{}, err
	}
	for i, w := range timeline.Windows(spans) {
		if spans[i].ID != parentID {
			continue
		}
		o := domain.Overlay{
			ID:         uuid.NewString(),
			ParentID:   parentID,
			Text:       text,
			DurationMs: min(durationMs, w.Duration()),
		}
		o.StartMs = timeline.MoveOverlayWindow(o, w, startMs)
		if err := s.store.SaveOverlay(o); err != nil {
			return domain.Overlay{}, err
		}
		return o, nil
	}
	return domain.Overlay{}, fmt.Errorf("span %s: %w", parentID, domain.ErrNotFound)
}

// Remove deletes a span and its overlays. Overlays of later spans move
// back with their parent.
func (s *ProjectService) Remove(id string) error {
	before, err := s.store.LoadSpans()
	if err != nil {
		return err
	}
	if err := s.store.DeleteSpan(id); err != nil {
		return err
	}
	return reflowOverlays(s.store, before, s.logger)
}

func (s *ProjectService) newSpan(path string, info assets.MediaInfo) domain.Span {
	span := domain.Span{
		ID:         uuid.NewString(),
		Name:       filepath.Base(path),
		SourcePath: path,
	}
	if info.Kind == assets.KindStill {
		span.Still = true
		span.SourceDurationMs = s.policy.MaxStillMs
		span.EndMs = min(s.policy.DefaultStillMs, s.policy.MaxStillMs)
		span.MinDurationMs = min(s.policy.MinClipMs, span.EndMs)
		span.MaxDurationMs = s.policy.MaxStillMs
		return span
	}
	span.SourceDurationMs = info.DurationMs
	span.EndMs = info.DurationMs
	span.MinDurationMs = min(s.policy.MinClipMs, info.DurationMs)
	span.MaxDurationMs = info.DurationMs
	return span
}
