package tui

import (
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/timeline"
)

// limitKey identifies one asset stream of an item
type limitKey struct {
	itemID string
	kind   domain.AssetKind
}

// Indexes closer than this are fetched in one request
const mergeGap = 4

// requestAssets issues asset requests for the visible thumbnails and
// waveform blocks that are neither cached nor already requested under the
// item's current epoch
func (m *Model) requestAssets() tea.Cmd {
	if m.Assets == nil || !m.Ready {
		return nil
	}

	tr := m.track()
	var cmds []tea.Cmd
	for _, el := range tr.Elements {
		body, ok := el.(domain.MediaElement)
		if !ok {
			continue
		}
		lo := max(body.X, margin)
		hi := min(body.X+body.Width, margin+m.viewWidth())
		if lo >= hi {
			continue
		}

		for _, kind := range []domain.AssetKind{domain.AssetThumbnail, domain.AssetWaveform} {
			if kind == domain.AssetWaveform && body.Span.Still {
				continue
			}
			seen := make(map[int]bool)
			var missing []int
			for col := lo; col < hi; col++ {
				idx := m.assetIndex(tr, body, col, kind)
				if !seen[idx] && m.needs(body.Span.ID, kind, idx) {
					missing = append(missing, idx)
				}
				seen[idx] = true
			}
			for _, req := range m.batch(body.Span.ID, kind, missing) {
				cmds = append(cmds, GenerateAssetsCmd(m.Assets, req))
			}
		}
	}
	return tea.Batch(cmds...)
}

// needs reports whether asset idx of an item should be requested
func (m *Model) needs(itemID string, kind domain.AssetKind, idx int) bool {
	if lim, ok := m.limits[limitKey{itemID, kind}]; ok && idx >= lim {
		return false
	}
	key := domain.CacheKey{ItemID: itemID, Kind: kind, Index: idx}
	if token, ok := m.inflight[key]; ok && token == m.Cache.Epoch(itemID) {
		return false
	}
	_, cached := m.Cache.Get(key)
	return !cached
}

// batch groups missing indexes into range requests and marks them in flight
func (m *Model) batch(itemID string, kind domain.AssetKind, missing []int) []domain.AssetRequest {
	if len(missing) == 0 {
		return nil
	}
	sort.Ints(missing)

	token := m.Cache.Epoch(itemID)
	var reqs []domain.AssetRequest
	first, last := missing[0], missing[0]
	flush := func() {
		reqs = append(reqs, domain.AssetRequest{
			ItemID:   itemID,
			Kind:     kind,
			First:    first,
			Count:    last - first + 1,
			SizeHint: waveBuckets,
			Token:    token,
		})
		for i := first; i <= last; i++ {
			m.inflight[domain.CacheKey{ItemID: itemID, Kind: kind, Index: i}] = token
		}
	}
	for _, idx := range missing[1:] {
		if idx-last > mergeGap {
			flush()
			first = idx
		}
		last = idx
	}
	flush()
	return reqs
}

// receiveAssets hands deliveries to the cache, which drops those issued
// before the item's last invalidation. A short answer under the current
// epoch marks the end of what the source can produce.
func (m *Model) receiveAssets(msg AssetsMsg) tea.Cmd {
	req := msg.Request
	for i := req.First; i < req.First+req.Count; i++ {
		key := domain.CacheKey{ItemID: req.ItemID, Kind: req.Kind, Index: i}
		if m.inflight[key] == req.Token {
			delete(m.inflight, key)
		}
	}

	for _, d := range msg.Deliveries {
		m.Cache.Deliver(d.Key, d.Asset, d.Token)
	}

	if req.Token == m.Cache.Epoch(req.ItemID) && len(msg.Deliveries) < req.Count {
		lk := limitKey{req.ItemID, req.Kind}
		end := req.First + len(msg.Deliveries)
		if lim, ok := m.limits[lk]; !ok || end < lim {
			m.limits[lk] = end
		}
	}

	if msg.Err != nil {
		return m.setStatus(msg.Err.Error(), true)
	}
	return nil
}

// regenerate drops the selected span's assets and requests them again
// under a new epoch
func (m *Model) regenerate() tea.Cmd {
	span, ok := m.Selected()
	if !ok {
		return nil
	}
	m.Cache.InvalidateForItem(span.ID)
	delete(m.limits, limitKey{span.ID, domain.AssetThumbnail})
	delete(m.limits, limitKey{span.ID, domain.AssetWaveform})
	return tea.Batch(m.setStatus("Regenerating "+span.Name, false), m.requestAssets())
}

// assetIndex returns the thumbnail slot or waveform block shown at col
func (m Model) assetIndex(tr timeline.Track, body domain.MediaElement, col int, kind domain.AssetKind) int {
	if kind == domain.AssetThumbnail && body.Span.Still {
		return 0
	}
	per := m.slotMs
	if kind == domain.AssetWaveform {
		per = m.blockMs
	}
	return int(sourceTime(tr, body, col) / per)
}

// sourceTime maps a column inside a span's body to source time
func sourceTime(tr timeline.Track, body domain.MediaElement, col int) int64 {
	rel := tr.TimeAt(col) - body.Window.StartMs
	rel = min(max(rel, 0), max(body.Window.Duration()-1, 0))
	return body.Span.BeginMs + body.Span.TransitionInMs + rel
}
