//go:build darwin

package capture

import "image"

// correctChannels swaps the red and blue channels in place. The macOS
// capture path hands back BGRA pixel data labelled as RGBA, so frames encode
// with inverted colors unless recombined here.
func correctChannels(img *image.RGBA) {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
