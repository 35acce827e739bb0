// Package selection implements the crop-selection geometry engine: a
// pointer-driven state machine that creates, drags and resizes a rectangle
// inside a displayed image, and the mapping from display-space coordinates
// to original-image pixel coordinates.
package selection

// Point is a position in display space (pixels of the rendered image element).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in display space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the rectangle has no area. An empty rectangle can
// exist transiently during a drag-to-create gesture but is never a valid
// selection to commit.
func (r Rect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// Contains reports whether p lies strictly inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X > r.X && p.X < r.X+r.Width && p.Y > r.Y && p.Y < r.Y+r.Height
}

// Handle identifies one of the four corner resize handles.
type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleNE
	HandleSW
	HandleSE
)

func (h Handle) String() string {
	switch h {
	case HandleNW:
		return "nw"
	case HandleNE:
		return "ne"
	case HandleSW:
		return "sw"
	case HandleSE:
		return "se"
	default:
		return "none"
	}
}

// corner returns the display-space position of the handle's corner.
func (h Handle) corner(r Rect) Point {
	switch h {
	case HandleNW:
		return Point{X: r.X, Y: r.Y}
	case HandleNE:
		return Point{X: r.X + r.Width, Y: r.Y}
	case HandleSW:
		return Point{X: r.X, Y: r.Y + r.Height}
	case HandleSE:
		return Point{X: r.X + r.Width, Y: r.Y + r.Height}
	default:
		return Point{}
	}
}

// HandleAt returns the handle whose hit zone contains p, or HandleNone.
// Each hit zone is a square of side size centered on a corner. Handles take
// precedence over the rectangle interior, so callers must test handles first.
func (r Rect) HandleAt(p Point, size float64) Handle {
	half := size / 2
	for _, h := range []Handle{HandleNW, HandleNE, HandleSW, HandleSE} {
		c := h.corner(r)
		if p.X >= c.X-half && p.X <= c.X+half && p.Y >= c.Y-half && p.Y <= c.Y+half {
			return h
		}
	}
	return HandleNone
}

// clampToBounds fits r into the container, adjusting position before size:
// the rectangle is shifted back inside the bounds and only shrunk when it is
// larger than the container itself.
func clampToBounds(r Rect, containerW, containerH float64) Rect {
	if r.Width > containerW {
		r.Width = containerW
	}
	if r.Height > containerH {
		r.Height = containerH
	}
	r.X = clamp(r.X, 0, containerW-r.Width)
	r.Y = clamp(r.Y, 0, containerH-r.Height)
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
