// Package annotation implements the annotation box engine: the box data
// model, the store, spatial selection, pointer gesture handling, grouping and
// the settings-availability cascade.
package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spherical-ai/annotation-engine/internal/geometry"
)

// MinBoxSize is the minimum width and height of any box, in page units.
const MinBoxSize = 10.0

// BoxType classifies where a box came from. The type is immutable after
// creation.
type BoxType string

const (
	// BoxTypeWord originates from word extraction.
	BoxTypeWord BoxType = "word"
	// BoxTypeImage originates from image extraction.
	BoxTypeImage BoxType = "image"
	// BoxTypeCustom originates from a user draw gesture or from grouping.
	BoxTypeCustom BoxType = "custom"
)

// Box is the sole persistent entity of the engine: a rectangular region on a
// page with its processing configuration. Geometry is page-intrinsic and
// satisfies Width >= MinBoxSize, Height >= MinBoxSize, X >= 0, Y >= 0 at
// every observable state.
type Box struct {
	ID       string          `json:"id"`
	Page     int             `json:"page"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Type     BoxType         `json:"type"`
	Settings Settings        `json:"settings"`
	Original json.RawMessage `json:"originalData,omitempty"`
}

// Settings is the per-box processing configuration. Which fields are
// meaningful depends on the cascade rules in AvailableFields; the struct
// always stores the full set so toggling a mode back restores prior values.
type Settings struct {
	CanMatchExactly         bool `json:"canMatchExactly"`
	MustMatchExactly        bool `json:"mustMatchExactly"`
	PositionIsNotGuaranteed bool `json:"positionIsNotGuaranteed"`
	UseVisionModel          bool `json:"useVisionModel"`

	VisionModel      string `json:"visionModel,omitempty"`
	VisionTaskPrompt string `json:"visionTaskPrompt,omitempty"`
	GuideWithText    bool   `json:"guideWithText"`
	ChatModel        string `json:"chatModel,omitempty"`
	ChatTaskPrompt   string `json:"chatTaskPrompt,omitempty"`
	ExtractionModel  string `json:"extractionModel,omitempty"`
	ExtractionPrompt string `json:"extractionTaskPrompt,omitempty"`
	ExtractionGuided bool   `json:"extractionGuideWithText"`
	ComparisonModel  string `json:"comparisonModel,omitempty"`
	ComparisonPrompt string `json:"comparisonTaskPrompt,omitempty"`
}

// Rect returns the box geometry as a rectangle.
func (b *Box) Rect() geometry.Rect {
	return geometry.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// SetRect writes a rectangle into the box geometry, clamped to the
// invariants.
func (b *Box) SetRect(r geometry.Rect) {
	r = r.Clamp(MinBoxSize)
	b.X = r.X
	b.Y = r.Y
	b.Width = r.Width
	b.Height = r.Height
}

// Resizable reports whether the box exposes resize handles. Word and image
// geometry is extraction-derived ground truth and stays fixed in size.
func (b *Box) Resizable() bool {
	return b.Type == BoxTypeCustom
}

// Deletable reports whether the box exposes a delete affordance.
func (b *Box) Deletable() bool {
	return b.Type == BoxTypeCustom
}

// normalize restores the settings invariants after any mutation:
// MustMatchExactly is only ever true when CanMatchExactly is.
func (b *Box) normalize() {
	if !b.Settings.CanMatchExactly {
		b.Settings.MustMatchExactly = false
	}
}

// Clone returns a deep copy of the box.
func (b *Box) Clone() *Box {
	c := *b
	if b.Original != nil {
		c.Original = append(json.RawMessage(nil), b.Original...)
	}
	return &c
}

// WordBoxID builds the deterministic ID for an extraction-derived word box.
func WordBoxID(page, index int) string {
	return fmt.Sprintf("word-%d-%d", page, index)
}

// ImageBoxID builds the deterministic ID for an extraction-derived image box.
func ImageBoxID(page, index int) string {
	return fmt.Sprintf("image-%d-%d", page, index)
}

// NewCustomBoxID builds a fresh random ID for a user-created or grouped box.
func NewCustomBoxID() string {
	return "custom-" + uuid.NewString()
}

// NewCustomBox creates a user-drawn box on the given page, clamped to the
// geometry invariants.
func NewCustomBox(page int, r geometry.Rect, settings Settings) *Box {
	b := &Box{
		ID:       NewCustomBoxID(),
		Page:     page,
		Type:     BoxTypeCustom,
		Settings: settings,
	}
	b.SetRect(r)
	b.normalize()
	return b
}
