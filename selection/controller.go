package selection

// Mode is the controller's interaction state. Exactly one mode is active at
// a time; it changes only in response to pointer events.
type Mode int

const (
	Idle Mode = iota
	Selecting
	Dragging
	Resizing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	default:
		return "unknown"
	}
}

const (
	// DefaultMinSize is the smallest edge length a resize gesture may
	// shrink the rectangle to, in display pixels.
	DefaultMinSize = 20
	// DefaultHandleSize is the side of the square hit zone centered on
	// each corner handle, in display pixels.
	DefaultHandleSize = 8
)

// Controller translates a stream of pointer events into a bounds-clamped
// selection rectangle in display space. It is not safe for concurrent use;
// the host event loop is expected to deliver events serially.
type Controller struct {
	containerW float64
	containerH float64
	minSize    float64
	handleSize float64

	mode   Mode
	handle Handle
	anchor Point
	rect   Rect
	active bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithMinSize overrides the minimum rectangle edge length enforced during
// resize gestures.
func WithMinSize(px float64) Option {
	return func(c *Controller) { c.minSize = px }
}

// WithHandleSize overrides the corner handle hit-zone side length.
func WithHandleSize(px float64) Option {
	return func(c *Controller) { c.handleSize = px }
}

// NewController returns a controller for a container of the given display
// size, in Idle mode with no selection.
func NewController(containerW, containerH float64, opts ...Option) *Controller {
	c := &Controller{
		containerW: containerW,
		containerH: containerH,
		minSize:    DefaultMinSize,
		handleSize: DefaultHandleSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the current interaction mode.
func (c *Controller) Mode() Mode { return c.mode }

// ResizeHandle returns the handle driving the current resize gesture, or
// HandleNone outside of Resizing mode.
func (c *Controller) ResizeHandle() Handle {
	if c.mode != Resizing {
		return HandleNone
	}
	return c.handle
}

// Rect returns the current selection rectangle. The second return value is
// false when no selection exists.
func (c *Controller) Rect() (Rect, bool) {
	if !c.active {
		return Rect{}, false
	}
	return c.rect, true
}

// SetContainer records a new rendered container size, re-clamping any
// existing selection into the new bounds. Call it whenever the underlying
// element's rendered box changes.
func (c *Controller) SetContainer(w, h float64) {
	c.containerW = w
	c.containerH = h
	if c.active {
		c.rect = clampToBounds(c.rect, w, h)
	}
}

// PointerDown starts a gesture. Hit-test precedence is handles > interior >
// new selection: a press on a corner handle always begins a resize, a press
// inside the rectangle begins a drag, and anything else begins a fresh
// drag-to-create selection anchored at p.
func (c *Controller) PointerDown(p Point) {
	if c.active {
		if h := c.rect.HandleAt(p, c.handleSize); h != HandleNone {
			c.mode = Resizing
			c.handle = h
			c.anchor = p
			return
		}
		if c.rect.Contains(p) {
			c.mode = Dragging
			c.anchor = p
			return
		}
	}
	c.mode = Selecting
	c.anchor = p
	c.rect = Rect{X: p.X, Y: p.Y}
	c.active = true
}

// PointerMove advances the active gesture. It is a no-op in Idle mode.
func (c *Controller) PointerMove(p Point) {
	switch c.mode {
	case Selecting:
		c.rect = clampToBounds(boundingBox(c.anchor, p), c.containerW, c.containerH)
	case Dragging:
		c.drag(p)
	case Resizing:
		c.resize(p)
	}
}

// PointerUp ends the gesture, returning to Idle. The rectangle and anchor
// are retained so a finished selection stays in place for review or commit.
func (c *Controller) PointerUp() {
	c.mode = Idle
	c.handle = HandleNone
}

// PointerLeave is treated identically to PointerUp: the gesture ends but
// its geometry is kept, so the cursor exiting the container never leaves a
// stuck drag behind.
func (c *Controller) PointerLeave() {
	c.PointerUp()
}

// Cancel clears the selection entirely and returns to Idle. Valid in any
// mode.
func (c *Controller) Cancel() {
	c.mode = Idle
	c.handle = HandleNone
	c.rect = Rect{}
	c.active = false
}

// Reset is the UI-initiated equivalent of Cancel.
func (c *Controller) Reset() {
	c.Cancel()
}

// drag translates the rectangle by the pointer delta, clamping position but
// never size. The anchor resets to p after each move so updates stay
// incremental and drift-free.
func (c *Controller) drag(p Point) {
	c.rect.X = clamp(c.rect.X+p.X-c.anchor.X, 0, c.containerW-c.rect.Width)
	c.rect.Y = clamp(c.rect.Y+p.Y-c.anchor.Y, 0, c.containerH-c.rect.Height)
	c.anchor = p
}

// resize moves the gesture's corner by the pointer delta while the opposite
// corner stays fixed. Each axis is pinned at the minimum size rather than
// shrinking through it, then clamped so the growing side never extends past
// the container.
func (c *Controller) resize(p Point) {
	dx := p.X - c.anchor.X
	dy := p.Y - c.anchor.Y
	r := c.rect

	switch c.handle {
	case HandleNW, HandleSW:
		r.X += dx
		r.Width -= dx
	case HandleNE, HandleSE:
		r.Width += dx
	}
	switch c.handle {
	case HandleNW, HandleNE:
		r.Y += dy
		r.Height -= dy
	case HandleSW, HandleSE:
		r.Height += dy
	}

	// Pin the moving edge at the minimum size.
	if r.Width < c.minSize {
		if c.handle == HandleNW || c.handle == HandleSW {
			r.X = c.rect.X + c.rect.Width - c.minSize
		} else {
			r.X = c.rect.X
		}
		r.Width = c.minSize
	}
	if r.Height < c.minSize {
		if c.handle == HandleNW || c.handle == HandleNE {
			r.Y = c.rect.Y + c.rect.Height - c.minSize
		} else {
			r.Y = c.rect.Y
		}
		r.Height = c.minSize
	}

	// Clamp growth at the container edges: a moving left/top edge stops at
	// zero, a moving right/bottom edge stops at the container size.
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	if r.X+r.Width > c.containerW {
		r.Width = c.containerW - r.X
	}
	if r.Y+r.Height > c.containerH {
		r.Height = c.containerH - r.Y
	}

	c.rect = r
	c.anchor = p
}

// boundingBox returns the axis-aligned bounding box of two points.
func boundingBox(a, b Point) Rect {
	r := Rect{X: a.X, Y: a.Y, Width: b.X - a.X, Height: b.Y - a.Y}
	if r.Width < 0 {
		r.X = b.X
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y = b.Y
		r.Height = -r.Height
	}
	return r
}
