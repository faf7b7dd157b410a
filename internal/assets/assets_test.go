package assets

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/splice/internal/domain"
	"github.com/mmcdole/splice/internal/waveform"
)

// writeWAV writes a mono 16-bit WAV with the given samples
func writeWAV(t *testing.T, path string, rate int, samples []int16) {
	t.Helper()
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	var b []byte
	put32 := func(v uint32) { b = binary.LittleEndian.AppendUint32(b, v) }
	put16 := func(v uint16) { b = binary.LittleEndian.AppendUint16(b, v) }

	b = append(b, "RIFF"...)
	put32(uint32(36 + len(data)))
	b = append(b, "WAVE"...)
	// an unknown chunk before fmt, odd sized to exercise padding
	b = append(b, "LIST"...)
	put32(3)
	b = append(b, 'a', 'b', 'c', 0)
	b = append(b, "fmt "...)
	put32(16)
	put16(1) // PCM
	put16(1) // mono
	put32(uint32(rate))
	put32(uint32(rate * 2))
	put16(2)
	put16(16)
	b = append(b, "data"...)
	put32(uint32(len(data)))
	b = append(b, data...)

	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}
}

func writeMP4(t *testing.T, path string, timescale, duration uint32) {
	t.Helper()
	atom := func(typ string, payload []byte) []byte {
		b := binary.BigEndian.AppendUint32(nil, uint32(8+len(payload)))
		b = append(b, typ...)
		return append(b, payload...)
	}
	mvhd := make([]byte, 100)
	binary.BigEndian.PutUint32(mvhd[12:16], timescale)
	binary.BigEndian.PutUint32(mvhd[16:20], duration)

	var file []byte
	file = append(file, atom("ftyp", []byte("isom\x00\x00\x02\x00"))...)
	file = append(file, atom("free", make([]byte, 16))...)
	file = append(file, atom("moov", atom("mvhd", mvhd))...)
	file = append(file, atom("mdat", make([]byte, 512))...)
	if err := os.WriteFile(path, file, 0644); err != nil {
		t.Fatal(err)
	}
}

type spanMap map[string]domain.Span

func (m spanMap) GetSpan(id string) (domain.Span, error) {
	s, ok := m[id]
	if !ok {
		return domain.Span{}, domain.ErrNotFound
	}
	return s, nil
}

func TestProbeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 8000, make([]int16, 12000))

	info, err := Probe(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Kind != KindAudio || info.DurationMs != 1500 {
		t.Errorf("info = %+v, want audio 1500ms", info)
	}
	if info.SampleRate != 8000 || info.Channels != 1 || info.BitsPerSample != 16 {
		t.Errorf("pcm layout = %+v", info)
	}
}

func TestProbeMP4(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	writeMP4(t, path, 600, 4500)

	info, err := Probe(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Kind != KindVideo || info.DurationMs != 7500 {
		t.Errorf("info = %+v, want video 7500ms", info)
	}
}

func TestProbeStillAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "title.PNG")
	os.WriteFile(img, []byte("not really a png"), 0644)
	info, err := Probe(img)
	if err != nil || info.Kind != KindStill {
		t.Errorf("Probe(png) = %+v, %v", info, err)
	}

	txt := filepath.Join(dir, "notes.txt")
	os.WriteFile(txt, []byte("hello world, not media"), 0644)
	if _, err := Probe(txt); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("Probe(txt) err = %v, want ErrUnsupported", err)
	}
}

func TestGenerateWaveform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beat.wav")
	// 2 seconds at 1kHz: first second loud, second silent
	samples := make([]int16, 2000)
	for i := 0; i < 1000; i++ {
		samples[i] = 16384
	}
	writeWAV(t, path, 1000, samples)

	g := NewGenerator(spanMap{"a": {ID: "a", SourcePath: path, SourceDurationMs: 2000}}, 1000, 1000, nil)
	got, err := g.Generate(context.Background(), domain.AssetRequest{
		ItemID: "a", Kind: domain.AssetWaveform, First: 0, Count: 5, SizeHint: 4, Token: 7,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d blocks, want 2", len(got))
	}
	if got[0].Token != 7 || got[1].Key.Index != 1 {
		t.Errorf("deliveries = %+v", got)
	}
	loud := waveform.Decode(got[0].Asset.Data)
	quiet := waveform.Decode(got[1].Asset.Data)
	if len(loud) != 4 || loud[0] < 0.49 || quiet[3] != 0 {
		t.Errorf("levels loud=%v quiet=%v", loud, quiet)
	}
}

func TestGenerateThumbnails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	writeMP4(t, path, 1000, 3000)

	g := NewGenerator(spanMap{"v": {ID: "v", SourcePath: path, SourceDurationMs: 3000}}, 1000, 1000, nil)
	got, err := g.Generate(context.Background(), domain.AssetRequest{
		ItemID: "v", Kind: domain.AssetThumbnail, First: 1, Count: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	// slots 1 and 2 exist, slot 3 is past the end of the source
	if len(got) != 2 {
		t.Fatalf("got %d swatches, want 2", len(got))
	}
	for _, d := range got {
		if d.Asset.Size() != SwatchSize || d.Asset.Kind != domain.AssetThumbnail {
			t.Errorf("swatch = %+v", d.Asset)
		}
	}

	// video sources have no waveform
	wave, err := g.Generate(context.Background(), domain.AssetRequest{ItemID: "v", Kind: domain.AssetWaveform, Count: 3})
	if err != nil || len(wave) != 0 {
		t.Errorf("waveform for video = %v, %v", wave, err)
	}
}

func TestGenerateHonoursCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	writeMP4(t, path, 1000, 3000)
	g := NewGenerator(spanMap{"v": {ID: "v", SourcePath: path, SourceDurationMs: 3000}}, 1000, 1000, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, domain.AssetRequest{ItemID: "v", Count: 3}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if _, err := g.Generate(context.Background(), domain.AssetRequest{ItemID: "missing", Count: 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
