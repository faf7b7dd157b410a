// Package waveform reduces PCM samples to display levels and renders them
// with block glyphs.
package waveform

import (
	"math"
	"strings"
)

// Glyphs from silent to full scale
var Glyphs = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Peaks splits samples into buckets and returns each bucket's absolute peak
// scaled to [0,1] of full scale.
func Peaks(samples []int16, buckets int) []float64 {
	if buckets <= 0 {
		return nil
	}
	levels := make([]float64, buckets)
	if len(samples) == 0 {
		return levels
	}
	for i := range levels {
		lo := i * len(samples) / buckets
		hi := (i + 1) * len(samples) / buckets
		if hi <= lo {
			hi = min(lo+1, len(samples))
		}
		var peak int
		for _, s := range samples[lo:hi] {
			v := int(s)
			if v < 0 {
				v = -v
			}
			peak = max(peak, v)
		}
		levels[i] = float64(peak) / 32768
	}
	return levels
}

// Smooth applies a centered moving average of the given radius
func Smooth(levels []float64, radius int) []float64 {
	out := make([]float64, len(levels))
	if radius <= 0 {
		copy(out, levels)
		return out
	}
	for i := range levels {
		lo := max(i-radius, 0)
		hi := min(i+radius+1, len(levels))
		var sum float64
		for _, v := range levels[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// Normalize scales levels so the loudest becomes 1. Silence stays silent.
func Normalize(levels []float64) []float64 {
	out := make([]float64, len(levels))
	var peak float64
	for _, v := range levels {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		return out
	}
	for i, v := range levels {
		out[i] = v / peak
	}
	return out
}

// Encode packs levels into one byte each, for caching
func Encode(levels []float64) []byte {
	b := make([]byte, len(levels))
	for i, v := range levels {
		b[i] = byte(math.Round(clamp01(v) * 255))
	}
	return b
}

// Decode reverses Encode
func Decode(b []byte) []float64 {
	levels := make([]float64, len(b))
	for i, v := range b {
		levels[i] = float64(v) / 255
	}
	return levels
}

// Render resamples levels to width columns and draws them as glyphs
func Render(levels []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(levels) == 0 {
		return strings.Repeat(" ", width)
	}
	var b strings.Builder
	for col := 0; col < width; col++ {
		v := levels[col*len(levels)/width]
		idx := int(math.Round(clamp01(v) * float64(len(Glyphs)-1)))
		b.WriteRune(Glyphs[idx])
	}
	return b.String()
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
