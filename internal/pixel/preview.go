package pixel

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Image converts one frame of the display buffer to an image.Image:
// Gray for luminance, NRGBA for RGB/RGBA frames.
func (d *DisplayBuffer) Image(frame int) (image.Image, error) {
	if frame < 0 || frame >= len(d.Frames) {
		return nil, fmt.Errorf("frame %d out of range (have %d)", frame, len(d.Frames))
	}
	data := d.Frames[frame]
	rect := image.Rect(0, 0, d.Width, d.Height)

	switch d.Channels {
	case 1:
		img := image.NewGray(rect)
		copy(img.Pix, data)
		return img, nil
	case 3:
		img := image.NewNRGBA(rect)
		for i := 0; i < d.Width*d.Height; i++ {
			img.Pix[i*4+0] = data[i*3+0]
			img.Pix[i*4+1] = data[i*3+1]
			img.Pix[i*4+2] = data[i*3+2]
			img.Pix[i*4+3] = 255
		}
		return img, nil
	case 4:
		img := image.NewNRGBA(rect)
		copy(img.Pix, data)
		return img, nil
	default:
		return nil, fmt.Errorf("unexpected channel count %d", d.Channels)
	}
}

// SavePreview writes one frame as an image file, downscaling to fit
// maxDim when the frame exceeds it. The format follows the path's
// extension.
func (d *DisplayBuffer) SavePreview(path string, frame, maxDim int) error {
	img, err := d.Image(frame)
	if err != nil {
		return err
	}

	if maxDim > 0 && (d.Width > maxDim || d.Height > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save preview %s: %w", path, err)
	}
	return nil
}
