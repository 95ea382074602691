package annotation

import "github.com/spherical-ai/annotation-engine/internal/geometry"

// Button identifies the pointer button that started a gesture.
type Button int

const (
	// ButtonLeft is the primary pointer button.
	ButtonLeft Button = iota
	// ButtonMiddle is the auxiliary pointer button.
	ButtonMiddle
	// ButtonRight is reserved for the context menu and never starts a
	// gesture.
	ButtonRight
)

// Handle identifies one of the eight resize handles: four corners and four
// edges. Each handle moves only its own edge(s); the opposite edge stays
// anchored.
type Handle string

const (
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
	HandleNW Handle = "nw"
)

func (h Handle) hasNorth() bool { return h == HandleN || h == HandleNE || h == HandleNW }
func (h Handle) hasSouth() bool { return h == HandleS || h == HandleSE || h == HandleSW }
func (h Handle) hasEast() bool  { return h == HandleE || h == HandleNE || h == HandleSE }
func (h Handle) hasWest() bool  { return h == HandleW || h == HandleNW || h == HandleSW }

type gestureState int

const (
	stateIdle gestureState = iota
	stateDragging
	stateResizing
	stateDrawing
)

// gestureSnapshot captures pointer and geometry at gesture start. It lives in
// a plain record owned by the controller, written once per gesture and
// cleared on end, so high-frequency pointer events never touch observable
// store state.
type gestureSnapshot struct {
	pointerX  float64
	pointerY  float64
	boxX      float64
	boxY      float64
	boxWidth  float64
	boxHeight float64
}

type pointerSample struct {
	x float64
	y float64
}

// Controller is the per-box pointer gesture state machine: Idle -> Dragging
// -> Idle and Idle -> Resizing(handle) -> Idle, plus the draw gesture that
// creates a new custom box. Pointer moves are coalesced through a single-slot
// mailbox: at most one pending sample per frame, always superseded by the
// latest move, so a slow frame never builds a backlog.
type Controller struct {
	store   *Store
	zoom    float64
	minSize float64

	state    gestureState
	boxID    string
	handle   Handle
	drawPage int
	snapshot gestureSnapshot

	pending *pointerSample
	preview geometry.Rect

	listenersActive bool
}

// NewController creates a controller over the given store with an initial
// zoom scale of 1.
func NewController(store *Store) *Controller {
	return &Controller{store: store, zoom: 1, minSize: MinBoxSize}
}

// SetZoom updates the screen-to-page scale. Pointer deltas are divided by
// this factor to land in page space.
func (c *Controller) SetZoom(zoom float64) {
	if zoom > 0 {
		c.zoom = zoom
	}
}

// ListenersActive reports whether document-level move/up listeners should be
// attached. They are held only while a gesture is in flight and released
// unconditionally on End, so a missed up event cannot leak them.
func (c *Controller) ListenersActive() bool {
	return c.listenersActive
}

// Active reports whether a gesture is in flight.
func (c *Controller) Active() bool {
	return c.state != stateIdle
}

// BeginDrag starts dragging a box. Returns false when the gesture cannot
// start: right button, unknown box, or another gesture already active.
func (c *Controller) BeginDrag(boxID string, pointerX, pointerY float64, button Button) bool {
	if button == ButtonRight || c.state != stateIdle {
		return false
	}
	b := c.store.Get(boxID)
	if b == nil {
		return false
	}

	c.state = stateDragging
	c.boxID = boxID
	c.snapshot = gestureSnapshot{
		pointerX:  pointerX,
		pointerY:  pointerY,
		boxX:      b.X,
		boxY:      b.Y,
		boxWidth:  b.Width,
		boxHeight: b.Height,
	}
	c.preview = b.Rect()
	c.listenersActive = true
	return true
}

// BeginResize starts resizing a box by one handle. Only custom boxes expose
// handles; word and image geometry is extraction-derived ground truth.
func (c *Controller) BeginResize(boxID string, handle Handle, pointerX, pointerY float64, button Button) bool {
	if button == ButtonRight || c.state != stateIdle {
		return false
	}
	b := c.store.Get(boxID)
	if b == nil || !b.Resizable() {
		return false
	}

	c.state = stateResizing
	c.boxID = boxID
	c.handle = handle
	c.snapshot = gestureSnapshot{
		pointerX:  pointerX,
		pointerY:  pointerY,
		boxX:      b.X,
		boxY:      b.Y,
		boxWidth:  b.Width,
		boxHeight: b.Height,
	}
	c.preview = b.Rect()
	c.listenersActive = true
	return true
}

// BeginDraw starts drawing a new custom box on the given page.
func (c *Controller) BeginDraw(page int, pointerX, pointerY float64, button Button) bool {
	if button == ButtonRight || c.state != stateIdle {
		return false
	}

	c.state = stateDrawing
	c.drawPage = page
	c.snapshot = gestureSnapshot{
		pointerX: pointerX,
		pointerY: pointerY,
		boxX:     pointerX / c.zoom,
		boxY:     pointerY / c.zoom,
	}
	c.preview = geometry.Rect{X: c.snapshot.boxX, Y: c.snapshot.boxY}
	c.listenersActive = true
	return true
}

// Move records a pointer sample. The sample replaces any pending one; it
// does not queue behind it. Nothing is applied until the next Frame.
func (c *Controller) Move(pointerX, pointerY float64) {
	if c.state == stateIdle {
		return
	}
	c.pending = &pointerSample{x: pointerX, y: pointerY}
}

// Frame applies the latest pending sample, if any, and returns the current
// preview rectangle. Called once per animation tick; older samples in the
// same frame have already been discarded by Move.
func (c *Controller) Frame() (geometry.Rect, bool) {
	if c.state == stateIdle {
		return geometry.Rect{}, false
	}
	if c.pending != nil {
		c.preview = c.rectFor(c.pending.x, c.pending.y)
		c.pending = nil
	}
	return c.preview, true
}

// End finishes the gesture at the given pointer position. The final delta is
// applied to the snapshot, clamped to the geometry invariants and committed
// to the store in a single mutation. For a draw gesture, the new custom box
// is returned. Listeners are released unconditionally.
func (c *Controller) End(pointerX, pointerY float64, defaults Settings) *Box {
	if c.state == stateIdle {
		return nil
	}

	final := c.rectFor(pointerX, pointerY)
	state := c.state
	boxID := c.boxID
	page := c.drawPage

	c.state = stateIdle
	c.boxID = ""
	c.handle = ""
	c.snapshot = gestureSnapshot{}
	c.pending = nil
	c.preview = geometry.Rect{}
	c.listenersActive = false

	switch state {
	case stateDragging, stateResizing:
		final = final.Clamp(c.minSize)
		c.store.Update(boxID, Patch{
			X:      &final.X,
			Y:      &final.Y,
			Width:  &final.Width,
			Height: &final.Height,
		})
		return nil
	case stateDrawing:
		b := NewCustomBox(page, final, defaults)
		c.store.Add(b)
		return b
	}
	return nil
}

// rectFor computes the preview rectangle for a pointer position, converting
// the screen delta into page space.
func (c *Controller) rectFor(pointerX, pointerY float64) geometry.Rect {
	dx := (pointerX - c.snapshot.pointerX) / c.zoom
	dy := (pointerY - c.snapshot.pointerY) / c.zoom

	switch c.state {
	case stateDragging:
		return geometry.Rect{
			X:      c.snapshot.boxX + dx,
			Y:      c.snapshot.boxY + dy,
			Width:  c.snapshot.boxWidth,
			Height: c.snapshot.boxHeight,
		}
	case stateResizing:
		return c.resizeRect(dx, dy)
	case stateDrawing:
		return geometry.Rect{
			X:      c.snapshot.boxX,
			Y:      c.snapshot.boxY,
			Width:  dx,
			Height: dy,
		}.Normalize()
	}
	return geometry.Rect{}
}

// resizeRect maps the handle to its signed combination of deltas and keeps
// the opposite edge anchored when the minimum size bites.
func (c *Controller) resizeRect(dx, dy float64) geometry.Rect {
	r := geometry.Rect{
		X:      c.snapshot.boxX,
		Y:      c.snapshot.boxY,
		Width:  c.snapshot.boxWidth,
		Height: c.snapshot.boxHeight,
	}
	right := r.X + r.Width
	bottom := r.Y + r.Height

	if c.handle.hasEast() {
		r.Width += dx
	}
	if c.handle.hasWest() {
		r.X += dx
		r.Width -= dx
	}
	if c.handle.hasSouth() {
		r.Height += dy
	}
	if c.handle.hasNorth() {
		r.Y += dy
		r.Height -= dy
	}

	if r.Width < c.minSize {
		r.Width = c.minSize
		if c.handle.hasWest() {
			r.X = right - c.minSize
		}
	}
	if r.Height < c.minSize {
		r.Height = c.minSize
		if c.handle.hasNorth() {
			r.Y = bottom - c.minSize
		}
	}

	return r
}
