package waveform

import (
	"math"
	"testing"
)

func TestPeaks(t *testing.T) {
	samples := []int16{0, 100, -16384, 5, 32767, -32768, 0, 0}
	got := Peaks(samples, 4)
	want := []float64{100.0 / 32768, 16384.0 / 32768, 1, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("bucket %d = %f, want %f", i, got[i], want[i])
		}
	}

	if len(Peaks(nil, 3)) != 3 {
		t.Error("empty input should still yield the requested buckets")
	}
	if Peaks(samples, 0) != nil {
		t.Error("zero buckets should yield nil")
	}
	// more buckets than samples
	if got := Peaks([]int16{16384}, 3); got[0] != 0.5 || got[2] != 0.5 {
		t.Errorf("sparse peaks = %v", got)
	}
}

func TestSmooth(t *testing.T) {
	got := Smooth([]float64{0, 0, 3, 0, 0}, 1)
	want := []float64{0, 1, 1, 1, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("Smooth[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float64{0.1, 0.25, 0.5})
	if got[2] != 1 || got[0] != 0.2 {
		t.Errorf("Normalize = %v", got)
	}
	for _, v := range Normalize([]float64{0, 0}) {
		if v != 0 {
			t.Error("silence should stay silent")
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	levels := Decode(Encode([]float64{0, 0.5, 1, 2, -1}))
	want := []float64{0, 128.0 / 255, 1, 1, 0}
	for i := range want {
		if math.Abs(levels[i]-want[i]) > 1e-9 {
			t.Errorf("level %d = %f, want %f", i, levels[i], want[i])
		}
	}
}

func TestRender(t *testing.T) {
	if got := Render([]float64{0, 1}, 4); got != "  ██" {
		t.Errorf("Render = %q", got)
	}
	if got := Render(nil, 3); got != "   " {
		t.Errorf("Render(nil) = %q", got)
	}
	if got := Render([]float64{1}, 0); got != "" {
		t.Errorf("Render width 0 = %q", got)
	}
}
