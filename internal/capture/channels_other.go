//go:build !darwin

package capture

import "image"

// correctChannels is a no-op outside macOS; only its capture path mislabels
// the channel order.
func correctChannels(img *image.RGBA) {}
