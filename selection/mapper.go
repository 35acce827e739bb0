package selection

import (
	"errors"
	"math"
)

// ErrFrameNotLaidOut is returned when a display frame has a zero display
// dimension, i.e. the image has not been laid out yet.
var ErrFrameNotLaidOut = errors.New("selection: display frame has zero size")

// DisplayFrame describes a loaded image: the rendered element size after any
// CSS scaling, and the original pixel size. It is captured once per image
// load and recomputed whenever the rendered box changes.
type DisplayFrame struct {
	DisplayWidth  float64 `json:"displayWidth"`
	DisplayHeight float64 `json:"displayHeight"`
	NaturalWidth  float64 `json:"naturalWidth"`
	NaturalHeight float64 `json:"naturalHeight"`
}

// ScaleX returns the horizontal display-to-source scale factor.
func (f DisplayFrame) ScaleX() float64 { return f.NaturalWidth / f.DisplayWidth }

// ScaleY returns the vertical display-to-source scale factor.
func (f DisplayFrame) ScaleY() float64 { return f.NaturalHeight / f.DisplayHeight }

// SourceRect is an integer rectangle in source space (pixels of the
// original, unscaled image).
type SourceRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (s SourceRect) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// ClampTo fits the rectangle into a naturalW x naturalH image. Rounding in
// MapToSource can push an edge past the natural bounds by a pixel, so
// callers re-clamp before handing the rectangle to a pixel-exact crop.
func (s SourceRect) ClampTo(naturalW, naturalH int) SourceRect {
	if s.X < 0 {
		s.Width += s.X
		s.X = 0
	}
	if s.Y < 0 {
		s.Height += s.Y
		s.Y = 0
	}
	if s.X+s.Width > naturalW {
		s.Width = naturalW - s.X
	}
	if s.Y+s.Height > naturalH {
		s.Height = naturalH - s.Y
	}
	if s.Width < 0 {
		s.Width = 0
	}
	if s.Height < 0 {
		s.Height = 0
	}
	return s
}

// MapToSource converts a display-space rectangle into an integer
// source-space rectangle using the frame's scale factors. Each field is
// rounded to the nearest integer with ties away from zero, independently of
// the others, which can drift up to one pixel per edge from the true scaled
// value. The result may exceed the natural bounds by that pixel in
// degenerate scale ratios; callers must ClampTo the natural size before
// cropping.
func MapToSource(r Rect, f DisplayFrame) (SourceRect, error) {
	if f.DisplayWidth == 0 || f.DisplayHeight == 0 {
		return SourceRect{}, ErrFrameNotLaidOut
	}
	sx, sy := f.ScaleX(), f.ScaleY()
	return SourceRect{
		X:      int(math.Round(r.X * sx)),
		Y:      int(math.Round(r.Y * sy)),
		Width:  int(math.Round(r.Width * sx)),
		Height: int(math.Round(r.Height * sy)),
	}, nil
}
