package pixel

import (
	"dicom-viewer/internal/metrics"
)

// midGray is the uniform value substituted for constant frames, where a
// min-max stretch would divide by zero.
const midGray = 128

// DisplayBuffer is an 8-bit buffer ready for presentation. Channels is
// 1 (luminance), 3 (RGB) or 4 (RGBA); each frame holds
// Width*Height*Channels bytes. DisplayBuffers are derived
// deterministically from a Buffer and recomputed on every request.
type DisplayBuffer struct {
	Width    int
	Height   int
	Channels int
	Frames   [][]byte
}

// FrameCount returns the number of frames in the buffer.
func (d *DisplayBuffer) FrameCount() int {
	return len(d.Frames)
}

// Display normalizes the buffer using its own window hints.
func (b *Buffer) Display() *DisplayBuffer {
	return Normalize(b, b.WindowCenter, b.WindowWidth)
}

// Normalize maps a sample buffer to an 8-bit display buffer.
//
// Already 8-bit unsigned data passes through unchanged. Otherwise, when
// both window hints are present the samples are clipped to
// [center-width/2, center+width/2] and that range is rescaled to
// [0,255]; the window applies uniformly across frames since it is a
// per-series acquisition parameter. Absent or malformed hints fall back
// to a per-frame min-max stretch. A constant frame becomes uniform
// mid-gray.
//
// A trailing channel dimension of 3 maps to RGB and 4 to RGBA; any
// other channel count is collapsed to luminance by averaging.
func Normalize(b *Buffer, windowCenter, windowWidth *float64) *DisplayBuffer {
	channels := b.Channels
	collapse := channels != 1 && channels != 3 && channels != 4
	outChannels := channels
	if collapse {
		outChannels = 1
	}

	out := &DisplayBuffer{
		Width:    b.Width,
		Height:   b.Height,
		Channels: outChannels,
		Frames:   make([][]byte, 0, len(b.Frames)),
	}

	passthrough := b.BitsAllocated == 8 && !b.Signed && !collapse

	windowed := windowCenter != nil && windowWidth != nil && *windowWidth > 0

	for _, samples := range b.Frames {
		if collapse {
			samples = collapseToLuminance(samples, channels)
		}

		var frame []byte
		switch {
		case passthrough:
			frame = make([]byte, len(samples))
			for i, v := range samples {
				frame[i] = byte(v)
			}
		case windowed:
			frame = applyWindow(samples, *windowCenter, *windowWidth)
		default:
			frame = stretchMinMax(samples)
		}

		out.Frames = append(out.Frames, frame)
		metrics.PixelFramesNormalized.Inc()
	}

	return out
}

// applyWindow clips samples to [center-width/2, center+width/2] and
// rescales the clipped range to [0,255].
func applyWindow(samples []int32, center, width float64) []byte {
	lo := center - width/2
	hi := center + width/2

	out := make([]byte, len(samples))
	for i, v := range samples {
		f := float64(v)
		if f < lo {
			f = lo
		}
		if f > hi {
			f = hi
		}
		out[i] = byte((f - lo) * 255 / (hi - lo))
	}
	return out
}

// stretchMinMax rescales the frame's actual value range to [0,255]. A
// constant frame becomes uniform mid-gray rather than dividing by zero.
func stretchMinMax(samples []int32) []byte {
	out := make([]byte, len(samples))
	if len(samples) == 0 {
		return out
	}

	min, max := samples[0], samples[0]
	for _, v := range samples {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		for i := range out {
			out[i] = midGray
		}
		return out
	}

	span := float64(max - min)
	for i, v := range samples {
		out[i] = byte(float64(v-min) * 255 / span)
	}
	return out
}

// collapseToLuminance averages sample groups of size channels into a
// single luminance sample.
func collapseToLuminance(samples []int32, channels int) []int32 {
	n := len(samples) / channels
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		var sum int64
		for c := 0; c < channels; c++ {
			sum += int64(samples[i*channels+c])
		}
		out[i] = int32(sum / int64(channels))
	}
	return out
}
