// Package assets generates thumbnail swatches and waveform blocks for
// timeline items and probes source media.
package assets

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/waveform"
)

// SwatchSize is the byte size of one thumbnail swatch (RGB)
const SwatchSize = 3

// spanLookup resolves item ids to spans (consumer-defined interface)
type spanLookup interface {
	GetSpan(id string) (domain.Span, error)
}

// Generator produces assets from the files behind timeline spans.
type Generator struct {
	spans       spanLookup
	slotMs      int64 // Source time covered by one thumbnail slot
	blockMs     int64 // Source time covered by one waveform block
	smoothRange int
	logger      *slog.Logger
}

// NewGenerator creates a generator. slotMs and blockMs fall back to one
// second when non-positive.
func NewGenerator(spans spanLookup, slotMs, blockMs int64, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if slotMs <= 0 {
		slotMs = 1000
	}
	if blockMs <= 0 {
		blockMs = 1000
	}
	return &Generator{
		spans:       spans,
		slotMs:      slotMs,
		blockMs:     blockMs,
		smoothRange: 1,
		logger:      logger.With("component", "assets"),
	}
}

// SlotMs returns the source time covered by one thumbnail slot
func (g *Generator) SlotMs() int64 { return g.slotMs }

// BlockMs returns the source time covered by one waveform block
func (g *Generator) BlockMs() int64 { return g.blockMs }

// Generate implements domain.AssetSource
func (g *Generator) Generate(ctx context.Context, req domain.AssetRequest) ([]domain.AssetDelivery, error) {
	span, err := g.spans.GetSpan(req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", req.ItemID, err)
	}

	info, err := Probe(span.SourcePath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(span.SourcePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g.logger.Debug("generating assets",
		"itemID", req.ItemID, "kind", req.Kind, "first", req.First, "count", req.Count, "token", req.Token)

	var out []domain.AssetDelivery
	for i := req.First; i < req.First+req.Count; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		var asset domain.Asset
		switch req.Kind {
		case domain.AssetThumbnail:
			asset, err = g.swatch(f, info, span, i)
		case domain.AssetWaveform:
			if info.Kind != KindAudio || info.BitsPerSample != 16 {
				return out, nil
			}
			asset, err = g.waveBlock(f, info, i, req.SizeHint)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, domain.AssetDelivery{
			Key:   domain.CacheKey{ItemID: req.ItemID, Kind: req.Kind, Index: i},
			Asset: asset,
			Token: req.Token,
		})
	}
	return out, nil
}

// swatch averages a run of bytes at the slot's relative position in the file
// into one RGB triple.
func (g *Generator) swatch(f io.ReaderAt, info MediaInfo, span domain.Span, slot int) (domain.Asset, error) {
	const window = 96

	var offset int64
	if !span.Still && span.SourceDurationMs > 0 {
		t := int64(slot) * g.slotMs
		if t >= span.SourceDurationMs {
			return domain.Asset{}, io.EOF
		}
		offset = info.Size * t / span.SourceDurationMs
	} else {
		offset = info.Size / 2
	}
	offset = max(min(offset, info.Size-window), 0)

	buf := make([]byte, window)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return domain.Asset{}, err
	}

	var sum [SwatchSize]int
	for i := 0; i < n; i++ {
		sum[i%SwatchSize] += int(buf[i])
	}
	rgb := make([]byte, SwatchSize)
	for c := range rgb {
		if per := (n + SwatchSize - 1 - c) / SwatchSize; per > 0 {
			rgb[c] = byte(sum[c] / per)
		}
	}
	return domain.Asset{Kind: domain.AssetThumbnail, Data: rgb}, nil
}

// waveBlock reads one block of PCM16 and reduces it to smoothed peak levels
func (g *Generator) waveBlock(f io.ReaderAt, info MediaInfo, block, buckets int) (domain.Asset, error) {
	if buckets <= 0 {
		buckets = 8
	}
	frameSize := int64(info.Channels * 2)
	if frameSize == 0 || info.SampleRate == 0 {
		return domain.Asset{}, io.EOF
	}

	framesPerBlock := int64(info.SampleRate) * g.blockMs / 1000
	start := int64(block) * framesPerBlock * frameSize
	if start >= info.DataSize {
		return domain.Asset{}, io.EOF
	}
	length := min(framesPerBlock*frameSize, info.DataSize-start)

	raw := make([]byte, length)
	n, err := f.ReadAt(raw, info.DataOffset+start)
	if err != nil && err != io.EOF {
		return domain.Asset{}, err
	}

	// first channel only
	frames := int64(n) / frameSize
	samples := make([]int16, frames)
	for i := int64(0); i < frames; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*frameSize:]))
	}

	levels := waveform.Smooth(waveform.Peaks(samples, buckets), g.smoothRange)
	return domain.Asset{Kind: domain.AssetWaveform, Data: waveform.Encode(levels)}, nil
}
