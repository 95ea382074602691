package annotation

import "github.com/spherical-ai/annotation-engine/internal/geometry"

// SelectionEngine computes multi-selections over the active page. Marquee
// state is transient and discarded on commit, never serialized.
type SelectionEngine struct {
	store *Store

	marqueeActive bool
	marqueePage   int
	anchorX       float64
	anchorY       float64
	current       geometry.Rect
}

// NewSelectionEngine creates a selection engine over the given store.
func NewSelectionEngine(store *Store) *SelectionEngine {
	return &SelectionEngine{store: store}
}

// Query returns the IDs of every box on page whose bounds intersect rect.
// Touching edges count as intersecting.
func (e *SelectionEngine) Query(rect geometry.Rect, page int) []string {
	rect = rect.Normalize()

	var ids []string
	for _, b := range e.store.ByPage(page) {
		if b.Rect().Intersects(rect) {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// HitTest returns the topmost box containing the point, or nil. A plain
// click selects exactly one box this way, bypassing the rectangle query.
func (e *SelectionEngine) HitTest(x, y float64, page int) *Box {
	boxes := e.store.ByPage(page)
	for i := len(boxes) - 1; i >= 0; i-- {
		if boxes[i].Rect().Contains(x, y) {
			return boxes[i]
		}
	}
	return nil
}

// BeginMarquee starts a marquee drag at the given page point.
func (e *SelectionEngine) BeginMarquee(x, y float64, page int) {
	e.marqueeActive = true
	e.marqueePage = page
	e.anchorX = x
	e.anchorY = y
	e.current = geometry.Rect{X: x, Y: y}
}

// UpdateMarquee extends the marquee to the given point. The rectangle is
// updated continuously but the result set is only computed on commit.
func (e *SelectionEngine) UpdateMarquee(x, y float64) {
	if !e.marqueeActive {
		return
	}
	e.current = geometry.Rect{
		X:      e.anchorX,
		Y:      e.anchorY,
		Width:  x - e.anchorX,
		Height: y - e.anchorY,
	}
}

// Marquee returns the in-progress marquee rectangle and whether one is
// active.
func (e *SelectionEngine) Marquee() (geometry.Rect, bool) {
	return e.current.Normalize(), e.marqueeActive
}

// CommitMarquee ends the marquee drag and returns the selected box IDs. The
// transient state is discarded.
func (e *SelectionEngine) CommitMarquee() []string {
	if !e.marqueeActive {
		return nil
	}
	rect := e.current.Normalize()
	page := e.marqueePage

	e.marqueeActive = false
	e.current = geometry.Rect{}

	return e.Query(rect, page)
}
