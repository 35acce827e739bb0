package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropview/selection"
)

// encodePNG renders a w x h image where each pixel encodes its own
// coordinates, so crops can be verified pixel-exactly.
func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCropExtractsRequestedRegion(t *testing.T) {
	src := encodePNG(t, 100, 80)
	cropper := NewImagingCropper()

	var out bytes.Buffer
	err := cropper.Crop(context.Background(), bytes.NewReader(src), &out,
		selection.SourceRect{X: 10, Y: 20, Width: 30, Height: 40})
	require.NoError(t, err)

	got, err := png.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Bounds().Dx())
	assert.Equal(t, 40, got.Bounds().Dy())

	// The top-left pixel of the crop is the source pixel at (10, 20).
	r, g, _, _ := got.At(got.Bounds().Min.X, got.Bounds().Min.Y).RGBA()
	assert.Equal(t, uint32(10), r>>8)
	assert.Equal(t, uint32(20), g>>8)
}

func TestCropTrimsOvershootAgainstDecodedBounds(t *testing.T) {
	src := encodePNG(t, 50, 50)
	cropper := NewImagingCropper()

	var out bytes.Buffer
	err := cropper.Crop(context.Background(), bytes.NewReader(src), &out,
		selection.SourceRect{X: 40, Y: 40, Width: 20, Height: 20})
	require.NoError(t, err)

	got, err := png.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Bounds().Dx())
	assert.Equal(t, 10, got.Bounds().Dy())
}

func TestCropRejectsRectOutsideImage(t *testing.T) {
	src := encodePNG(t, 50, 50)
	cropper := NewImagingCropper()

	var out bytes.Buffer
	err := cropper.Crop(context.Background(), bytes.NewReader(src), &out,
		selection.SourceRect{X: 100, Y: 100, Width: 20, Height: 20})
	assert.Error(t, err)
}

func TestCropRejectsGarbageInput(t *testing.T) {
	cropper := NewImagingCropper()

	var out bytes.Buffer
	err := cropper.Crop(context.Background(), bytes.NewReader([]byte("not an image")), &out,
		selection.SourceRect{X: 0, Y: 0, Width: 10, Height: 10})
	assert.Error(t, err)
}
