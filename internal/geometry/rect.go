// Package geometry provides the axis-aligned rectangle primitives used by the
// annotation engine. All coordinates are page-intrinsic units, independent of
// the render zoom.
package geometry

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BBox is the wire form used by the extraction service: [x0, y0, x1, y1].
type BBox [4]float64

// FromBBox converts a bbox four-tuple into a Rect.
func FromBBox(b BBox) Rect {
	return Rect{
		X:      b[0],
		Y:      b[1],
		Width:  b[2] - b[0],
		Height: b[3] - b[1],
	}
}

// ToBBox converts a Rect into the bbox four-tuple wire form.
func (r Rect) ToBBox() BBox {
	return BBox{r.X, r.Y, r.X + r.Width, r.Y + r.Height}
}

// Intersects reports whether r and other overlap. Touching edges count as
// intersecting.
func (r Rect) Intersects(other Rect) bool {
	return !(r.X > other.X+other.Width ||
		r.X+r.Width < other.X ||
		r.Y > other.Y+other.Height ||
		r.Y+r.Height < other.Y)
}

// Contains reports whether the point (x, y) lies inside r, edges inclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Union returns the smallest rectangle covering both r and other.
func (r Rect) Union(other Rect) Rect {
	x := min(r.X, other.X)
	y := min(r.Y, other.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  max(r.X+r.Width, other.X+other.Width) - x,
		Height: max(r.Y+r.Height, other.Y+other.Height) - y,
	}
}

// Normalize returns r with non-negative width and height, flipping the origin
// where needed. Used for marquee and draw gestures, which may be dragged in
// any direction.
func (r Rect) Normalize() Rect {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

// Clamp enforces the geometry invariants: width and height at least minSize,
// origin non-negative. A negative origin pulls the near edge to zero while the
// far edge stays put; the minimum size then wins over edge anchoring.
func (r Rect) Clamp(minSize float64) Rect {
	r = r.Normalize()

	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}

	if r.Width < minSize {
		r.Width = minSize
	}
	if r.Height < minSize {
		r.Height = minSize
	}

	return r
}
