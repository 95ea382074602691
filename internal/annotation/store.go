package annotation

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/spherical-ai/annotation-engine/internal/extraction"
	"github.com/spherical-ai/annotation-engine/internal/geometry"
)

// Store owns the full collection of annotation boxes. All mutation goes
// through its methods; malformed geometry is clamped on write, never
// rejected, and the settings invariants are re-established on every write.
type Store struct {
	mu    sync.RWMutex
	boxes map[string]*Box
	order []string // insertion order, for stable listing
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{boxes: make(map[string]*Box)}
}

// wordOriginal is the opaque metadata carried on word boxes.
type wordOriginal struct {
	Text    string `json:"text"`
	BlockNo int    `json:"block_no"`
	LineNo  int    `json:"line_no"`
	WordNo  int    `json:"word_no"`
}

// imageOriginal is the opaque metadata carried on image boxes.
type imageOriginal struct {
	Area float64 `json:"area"`
	Type string  `json:"type"`
}

// Ingest converts an extraction payload into boxes. The whole word/image
// subset is replaced; custom boxes are preserved untouched. Ingesting the
// same payload twice is idempotent.
func (s *Store) Ingest(pages []extraction.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make(map[string]*Box)
	var order []string
	for _, id := range s.order {
		if b := s.boxes[id]; b != nil && b.Type == BoxTypeCustom {
			kept[id] = b
			order = append(order, id)
		}
	}
	s.boxes = kept
	s.order = order

	for _, page := range pages {
		for i, word := range page.Words {
			original, _ := json.Marshal(wordOriginal{
				Text:    word.Text,
				BlockNo: word.BlockNo,
				LineNo:  word.LineNo,
				WordNo:  word.WordNo,
			})
			b := &Box{
				ID:   WordBoxID(page.PageNumber, i),
				Page: page.PageNumber,
				Type: BoxTypeWord,
				Settings: Settings{
					CanMatchExactly:  true,
					MustMatchExactly: true,
				},
				Original: original,
			}
			b.SetRect(geometry.FromBBox(word.BBox))
			s.insertLocked(b)
		}

		for i, img := range page.Images {
			original, _ := json.Marshal(imageOriginal{
				Area: img.Area,
				Type: img.Type,
			})
			b := &Box{
				ID:   ImageBoxID(page.PageNumber, i),
				Page: page.PageNumber,
				Type: BoxTypeImage,
				Settings: Settings{
					UseVisionModel: true,
				},
				Original: original,
			}
			b.SetRect(geometry.FromBBox(img.BBox))
			s.insertLocked(b)
		}
	}
}

// Add inserts a box, clamping its geometry.
func (s *Store) Add(b *Box) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := b.Clone()
	c.SetRect(c.Rect())
	c.normalize()
	s.insertLocked(c)
}

// Get returns a copy of the box with the given ID, or nil.
func (s *Store) Get(id string) *Box {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boxes[id]
	if !ok {
		return nil
	}
	return b.Clone()
}

// Update applies a partial patch to the box with the given ID. Geometry is
// clamped and settings invariants re-established; unknown IDs are a no-op.
func (s *Store) Update(id string, patch Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boxes[id]
	if !ok {
		return false
	}

	r := b.Rect()
	if patch.X != nil {
		r.X = *patch.X
	}
	if patch.Y != nil {
		r.Y = *patch.Y
	}
	if patch.Width != nil {
		r.Width = *patch.Width
	}
	if patch.Height != nil {
		r.Height = *patch.Height
	}
	b.SetRect(r)

	if patch.Settings != nil {
		patch.Settings.apply(&b.Settings)
	}
	b.normalize()
	return true
}

// Delete removes the box with the given ID. Unknown IDs are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// ReplaceAll swaps the entire collection, used for template loading.
func (s *Store) ReplaceAll(boxes []*Box) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.boxes = make(map[string]*Box, len(boxes))
	s.order = s.order[:0]
	for _, b := range boxes {
		c := b.Clone()
		c.SetRect(c.Rect())
		c.normalize()
		s.insertLocked(c)
	}
}

// ReplaceGroup atomically removes the input boxes and inserts the grouped
// box, used by the grouping engine.
func (s *Store) ReplaceGroup(inputIDs []string, group *Box) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range inputIDs {
		s.removeLocked(id)
	}
	c := group.Clone()
	c.SetRect(c.Rect())
	c.normalize()
	s.insertLocked(c)
}

// ByPage returns copies of all boxes on the given page.
func (s *Store) ByPage(page int) []*Box {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Box
	for _, id := range s.order {
		if b := s.boxes[id]; b != nil && b.Page == page {
			out = append(out, b.Clone())
		}
	}
	return out
}

// All returns copies of every box, ordered by page then insertion.
func (s *Store) All() []*Box {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Box, 0, len(s.order))
	for _, id := range s.order {
		if b := s.boxes[id]; b != nil {
			out = append(out, b.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Page < out[j].Page
	})
	return out
}

// Len returns the number of boxes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.boxes)
}

func (s *Store) insertLocked(b *Box) {
	if _, exists := s.boxes[b.ID]; !exists {
		s.order = append(s.order, b.ID)
	}
	s.boxes[b.ID] = b
}

func (s *Store) removeLocked(id string) {
	if _, exists := s.boxes[id]; !exists {
		return
	}
	delete(s.boxes, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
