package capture

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// Frame is one encoded mirror frame together with the geometry it was
// encoded at, which the cursor stream needs for coordinate scaling.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// EncodeFrame downscales a raw capture to targetWidth (preserving aspect
// ratio, never upscaling) and encodes it as JPEG at the given quality.
func EncodeFrame(img *image.RGBA, targetWidth, quality int) (*Frame, error) {
	correctChannels(img)

	src := image.Image(img)
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if targetWidth > 0 && w > targetWidth {
		scaledH := h * targetWidth / w
		if scaledH < 1 {
			scaledH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, targetWidth, scaledH))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		src = dst
		w, h = targetWidth, scaledH
	}

	if quality <= 0 || quality > 100 {
		quality = 70
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return &Frame{Data: buf.Bytes(), Width: w, Height: h}, nil
}
