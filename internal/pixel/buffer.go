package pixel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-viewer/internal/metrics"
)

// Buffer holds decoded numeric samples for one record: a single frame
// or a frame stack. Samples are stored sample-major, so the value of
// channel c at (x, y) in frame f is
// Frames[f][(y*Width+x)*Channels+c]. Buffers are consumed once to build
// a DisplayBuffer and not retained.
type Buffer struct {
	Frames        [][]int32
	Width         int
	Height        int
	Channels      int
	BitsAllocated int
	Signed        bool

	// Window hints from the acquisition, nil when absent. Multi-valued
	// window elements keep only the first value; multi-frame records can
	// carry per-frame window lists, and the first entry is the
	// acquisition default. See the normalize fallback for malformed
	// hints.
	WindowCenter *float64
	WindowWidth  *float64
}

// FrameCount returns the number of frames in the buffer.
func (b *Buffer) FrameCount() int {
	return len(b.Frames)
}

// Decode reads and fully decodes the pixel data of a record into a
// Buffer. Encapsulated (compressed) transfer syntaxes that the parser
// cannot natively decode return an error.
func Decode(path string) (b *Buffer, err error) {
	start := time.Now()
	defer func() {
		metrics.PixelDecodeDuration.Observe(time.Since(start).Seconds())
	}()
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("pixel decode failed for %s: %v", path, r)
		}
	}()

	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("no pixel data in %s: %w", path, err)
	}
	info := dicom.MustGetPixelDataInfo(el.Value)
	if len(info.Frames) == 0 {
		return nil, fmt.Errorf("no frames in %s", path)
	}

	buf := &Buffer{
		Channels:      firstInt(&ds, tag.SamplesPerPixel, 1),
		BitsAllocated: firstInt(&ds, tag.BitsAllocated, 16),
		Signed:        firstInt(&ds, tag.PixelRepresentation, 0) == 1,
		WindowCenter:  firstFloat(&ds, tag.WindowCenter),
		WindowWidth:   firstFloat(&ds, tag.WindowWidth),
	}
	if buf.Channels < 1 {
		buf.Channels = 1
	}

	for _, fr := range info.Frames {
		native, err := fr.GetNativeFrame()
		if err != nil {
			return nil, fmt.Errorf("unsupported frame encoding in %s: %w", path, err)
		}
		buf.Width = native.Cols
		buf.Height = native.Rows

		samples := make([]int32, 0, len(native.Data)*buf.Channels)
		for _, px := range native.Data {
			for c := 0; c < buf.Channels; c++ {
				if c < len(px) {
					samples = append(samples, int32(px[c]))
				} else {
					samples = append(samples, 0)
				}
			}
		}
		buf.Frames = append(buf.Frames, samples)
	}

	return buf, nil
}

// firstInt returns the first integer value of a tag, accepting both
// binary and integer-string encodings.
func firstInt(ds *dicom.Dataset, t tag.Tag, def int) int {
	el, err := ds.FindElementByTag(t)
	if err != nil || el == nil {
		return def
	}
	switch v := el.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0]
		}
	case []string:
		if len(v) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(v[0])); err == nil {
				return n
			}
		}
	}
	return def
}

// firstFloat returns the first value of a decimal-string tag, or nil
// when the element is absent or unparsable. Multi-valued elements keep
// only the first entry.
func firstFloat(ds *dicom.Dataset, t tag.Tag) *float64 {
	el, err := ds.FindElementByTag(t)
	if err != nil || el == nil {
		return nil
	}
	ss, ok := el.Value.GetValue().([]string)
	if !ok || len(ss) == 0 {
		return nil
	}
	raw := strings.TrimSpace(ss[0])
	if i := strings.IndexByte(raw, '\\'); i >= 0 {
		raw = raw[:i]
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
