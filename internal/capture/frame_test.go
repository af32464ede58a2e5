package capture

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrameDownscalesToTargetWidth(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	frame, err := EncodeFrame(img, 640, 70)
	require.NoError(t, err)

	assert.Equal(t, 640, frame.Width)
	assert.Equal(t, 360, frame.Height, "aspect ratio preserved")
	require.True(t, len(frame.Data) > 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, frame.Data[:2], "output must be JPEG")

	decoded, err := jpeg.Decode(bytes.NewReader(frame.Data))
	require.NoError(t, err)
	assert.Equal(t, 640, decoded.Bounds().Dx())
	assert.Equal(t, 360, decoded.Bounds().Dy())
}

func TestEncodeFrameNeverUpscales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 200))
	frame, err := EncodeFrame(img, 640, 70)
	require.NoError(t, err)

	assert.Equal(t, 320, frame.Width)
	assert.Equal(t, 200, frame.Height)
}

func TestEncodeFrameOddAspect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 333))
	frame, err := EncodeFrame(img, 640, 70)
	require.NoError(t, err)

	assert.Equal(t, 640, frame.Width)
	assert.Equal(t, 333*640/1000, frame.Height)
}

func TestEncodeFrameQualityFallback(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	for _, quality := range []int{0, -5, 150} {
		frame, err := EncodeFrame(img, 0, quality)
		require.NoError(t, err)
		assert.NotEmpty(t, frame.Data)
	}
}
