package main

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"cropview/selection"
)

// Cropper extracts a source-space rectangle from an encoded image.
type Cropper interface {
	Crop(ctx context.Context, r io.Reader, w io.Writer, rect selection.SourceRect) error
}

// ImagingCropper implements Cropper with the disintegration/imaging library.
type ImagingCropper struct{}

// NewImagingCropper creates a new instance of ImagingCropper.
func NewImagingCropper() *ImagingCropper {
	return &ImagingCropper{}
}

// Crop reads an image from r, extracts rect and writes the result to w as
// PNG. The rectangle is clamped against the decoded bounds first: mapping
// from display space can overshoot by a pixel, which is trimmed rather than
// rejected.
func (c *ImagingCropper) Crop(ctx context.Context, r io.Reader, w io.Writer, rect selection.SourceRect) error {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	rect = rect.ClampTo(bounds.Dx(), bounds.Dy())
	if rect.Empty() {
		return fmt.Errorf("crop rectangle %+v is outside image bounds %dx%d", rect, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(src, image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height))

	return imaging.Encode(w, cropped, imaging.PNG)
}
