package assets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/splice/internal/domain"
)

// MediaKind classifies a probed source
type MediaKind int

const (
	KindVideo MediaKind = iota
	KindAudio
	KindStill
)

// MediaInfo describes a probed source file
type MediaInfo struct {
	Kind       MediaKind
	DurationMs int64 // 0 for stills
	Size       int64 // File size in bytes

	// PCM layout, WAV only
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataOffset    int64
	DataSize      int64
}

var stillExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true,
}

// containerAtoms are the MP4 boxes walked on the way to mvhd
var containerAtoms = map[string]bool{
	"moov": true,
	"trak": true,
	"mdia": true,
}

// Probe inspects a media file. WAV durations come from the RIFF header,
// MP4/MOV durations from the movie header atom; image files are stills.
func Probe(path string) (MediaInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return MediaInfo{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return MediaInfo{}, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if stillExtensions[ext] {
		return MediaInfo{Kind: KindStill, Size: st.Size()}, nil
	}

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return MediaInfo{}, fmt.Errorf("%w: %s: short header", domain.ErrUnsupported, path)
	}

	switch {
	case string(header[0:4]) == "RIFF" && string(header[8:12]) == "WAVE":
		info, err := probeWAV(f)
		if err != nil {
			return MediaInfo{}, fmt.Errorf("probing %s: %w", path, err)
		}
		info.Size = st.Size()
		return info, nil
	case string(header[4:8]) == "ftyp":
		d, err := probeMP4(f, 0, st.Size())
		if err != nil {
			return MediaInfo{}, fmt.Errorf("probing %s: %w", path, err)
		}
		return MediaInfo{Kind: KindVideo, DurationMs: d, Size: st.Size()}, nil
	}
	return MediaInfo{}, fmt.Errorf("%w: %s", domain.ErrUnsupported, path)
}

// probeWAV walks RIFF chunks after the 12-byte header
func probeWAV(r io.ReadSeeker) (MediaInfo, error) {
	info := MediaInfo{Kind: KindAudio}
	var byteRate int64
	offset := int64(12)
	chunk := make([]byte, 8)

	for {
		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return info, err
		}
		if _, err := io.ReadFull(r, chunk); err != nil {
			return info, errors.New("wav: missing data chunk")
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			fmtChunk := make([]byte, 16)
			if _, err := io.ReadFull(r, fmtChunk); err != nil {
				return info, fmt.Errorf("wav: fmt chunk: %w", err)
			}
			info.Channels = int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			byteRate = int64(binary.LittleEndian.Uint32(fmtChunk[8:12]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(fmtChunk[14:16]))
		case "data":
			if byteRate == 0 {
				return info, errors.New("wav: data before fmt")
			}
			info.DataOffset = offset + 8
			info.DataSize = size
			info.DurationMs = size * 1000 / byteRate
			return info, nil
		}
		// chunks are word aligned
		offset += 8 + size + size%2
	}
}

// probeMP4 finds moov/mvhd between start and end and returns its duration
func probeMP4(r io.ReadSeeker, start, end int64) (int64, error) {
	header := make([]byte, 8)
	for offset := start; offset+8 <= end; {
		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return 0, err
		}
		if _, err := io.ReadFull(r, header); err != nil {
			return 0, err
		}
		size := int64(binary.BigEndian.Uint32(header[0:4]))
		typ := string(header[4:8])
		headerSize := int64(8)

		switch size {
		case 1:
			ext := make([]byte, 8)
			if _, err := io.ReadFull(r, ext); err != nil {
				return 0, err
			}
			size = int64(binary.BigEndian.Uint64(ext))
			headerSize = 16
		case 0:
			size = end - offset
		}
		if size < headerSize {
			return 0, errors.New("mp4: malformed atom")
		}

		if typ == "mvhd" {
			return readMVHD(r)
		}
		if containerAtoms[typ] {
			if d, err := probeMP4(r, offset+headerSize, offset+size); err == nil {
				return d, nil
			}
		}
		offset += size
	}
	return 0, errors.New("mp4: no movie header")
}

func readMVHD(r io.Reader) (int64, error) {
	vf := make([]byte, 4)
	if _, err := io.ReadFull(r, vf); err != nil {
		return 0, err
	}
	var timescale, duration uint64
	if vf[0] == 1 {
		b := make([]byte, 28)
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		timescale = uint64(binary.BigEndian.Uint32(b[16:20]))
		duration = binary.BigEndian.Uint64(b[20:28])
	} else {
		b := make([]byte, 16)
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		timescale = uint64(binary.BigEndian.Uint32(b[8:12]))
		duration = uint64(binary.BigEndian.Uint32(b[12:16]))
	}
	if timescale == 0 {
		return 0, errors.New("mp4: zero timescale")
	}
	return int64(duration * 1000 / timescale), nil
}
