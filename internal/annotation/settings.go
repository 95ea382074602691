package annotation

// Field names a single configuration field governed by the cascade.
type Field string

const (
	FieldMustMatchExactly        Field = "mustMatchExactly"
	FieldPositionIsNotGuaranteed Field = "positionIsNotGuaranteed"
	FieldUseVisionModel          Field = "useVisionModel"
	FieldVisionModel             Field = "visionModel"
	FieldVisionTaskPrompt        Field = "visionTaskPrompt"
	FieldGuideWithText           Field = "guideWithText"
	FieldChatModel               Field = "chatModel"
	FieldChatTaskPrompt          Field = "chatTaskPrompt"
	FieldExtractionModel         Field = "extractionModel"
	FieldExtractionPrompt        Field = "extractionTaskPrompt"
	FieldExtractionGuided        Field = "extractionGuideWithText"
	FieldComparisonModel         Field = "comparisonModel"
	FieldComparisonPrompt        Field = "comparisonTaskPrompt"
)

// FieldSet is the set of fields valid for a box in its current mode.
type FieldSet map[Field]bool

// Has reports whether the field is valid.
func (s FieldSet) Has(f Field) bool {
	return s[f]
}

// AvailableFields computes which configuration fields are valid for a box
// given its type and current values:
//
//   - MustMatchExactly: exact-text equality alone governs comparison, no
//     model fields are valid.
//   - PositionIsNotGuaranteed: the region may appear elsewhere in a compared
//     document, so an extraction stage (relocate the region) and a separate
//     comparison stage (judge the match) are both required at once.
//   - Otherwise UseVisionModel toggles between a vision configuration and a
//     chat configuration; exactly one is active.
//
// MustMatchExactly itself is only togglable when the box can match exactly.
func AvailableFields(b *Box) FieldSet {
	fields := FieldSet{}
	if b.Settings.CanMatchExactly {
		fields[FieldMustMatchExactly] = true
	}

	if b.Settings.MustMatchExactly {
		return fields
	}

	fields[FieldPositionIsNotGuaranteed] = true

	if b.Settings.PositionIsNotGuaranteed {
		fields[FieldExtractionModel] = true
		fields[FieldExtractionPrompt] = true
		fields[FieldExtractionGuided] = true
		fields[FieldComparisonModel] = true
		fields[FieldComparisonPrompt] = true
		return fields
	}

	fields[FieldUseVisionModel] = true
	if b.Settings.UseVisionModel {
		fields[FieldVisionModel] = true
		fields[FieldVisionTaskPrompt] = true
		fields[FieldGuideWithText] = true
	} else {
		fields[FieldChatModel] = true
		fields[FieldChatTaskPrompt] = true
	}
	return fields
}

// CleanedSettings is the exported view of a box's settings with every field
// that is invalid for the current mode dropped. GuideText and RegionImage
// are resolved by the export pipeline; either may carry an inline error
// string when the corresponding extraction call failed.
type CleanedSettings struct {
	CanMatchExactly         bool `json:"canMatchExactly"`
	MustMatchExactly        bool `json:"mustMatchExactly"`
	PositionIsNotGuaranteed bool `json:"positionIsNotGuaranteed"`

	UseVisionModel   *bool  `json:"useVisionModel,omitempty"`
	VisionModel      string `json:"visionModel,omitempty"`
	VisionTaskPrompt string `json:"visionTaskPrompt,omitempty"`
	GuideWithText    *bool  `json:"guideWithText,omitempty"`
	GuideText        string `json:"guideText,omitempty"`
	RegionImage      string `json:"regionImage,omitempty"`
	ChatModel        string `json:"chatModel,omitempty"`
	ChatTaskPrompt   string `json:"chatTaskPrompt,omitempty"`
	ExtractionModel  string `json:"extractionModel,omitempty"`
	ExtractionPrompt string `json:"extractionTaskPrompt,omitempty"`
	ExtractionGuided *bool  `json:"extractionGuideWithText,omitempty"`
	ComparisonModel  string `json:"comparisonModel,omitempty"`
	ComparisonPrompt string `json:"comparisonTaskPrompt,omitempty"`
}

// Clean derives the exported settings for a box, keeping only the fields the
// cascade marks valid. A box with MustMatchExactly never exports any model
// configuration.
func Clean(b *Box) CleanedSettings {
	fields := AvailableFields(b)
	s := b.Settings

	out := CleanedSettings{
		CanMatchExactly:         s.CanMatchExactly,
		MustMatchExactly:        s.MustMatchExactly,
		PositionIsNotGuaranteed: s.PositionIsNotGuaranteed && !s.MustMatchExactly,
	}

	if fields.Has(FieldUseVisionModel) {
		v := s.UseVisionModel
		out.UseVisionModel = &v
	}
	if fields.Has(FieldVisionModel) {
		out.VisionModel = s.VisionModel
		out.VisionTaskPrompt = s.VisionTaskPrompt
		g := s.GuideWithText
		out.GuideWithText = &g
	}
	if fields.Has(FieldChatModel) {
		out.ChatModel = s.ChatModel
		out.ChatTaskPrompt = s.ChatTaskPrompt
	}
	if fields.Has(FieldExtractionModel) {
		out.ExtractionModel = s.ExtractionModel
		out.ExtractionPrompt = s.ExtractionPrompt
		g := s.ExtractionGuided
		out.ExtractionGuided = &g
		out.ComparisonModel = s.ComparisonModel
		out.ComparisonPrompt = s.ComparisonPrompt
	}

	return out
}

// NeedsGuideText reports whether exporting the box requires the region's
// extracted text.
func (cs CleanedSettings) NeedsGuideText() bool {
	if cs.GuideWithText != nil && *cs.GuideWithText {
		return true
	}
	return cs.ExtractionGuided != nil && *cs.ExtractionGuided
}

// NeedsRegionImage reports whether exporting the box requires the region's
// image data.
func (cs CleanedSettings) NeedsRegionImage() bool {
	return cs.UseVisionModel != nil && *cs.UseVisionModel
}

// TriState is the three-valued bulk editing state of a boolean field over a
// multi-selection.
type TriState int

const (
	// AllFalse means the field is false on every selected box.
	AllFalse TriState = iota
	// AllTrue means the field is true on every selected box.
	AllTrue
	// Mixed means the selection is heterogeneous.
	Mixed
)

// String implements fmt.Stringer.
func (t TriState) String() string {
	switch t {
	case AllFalse:
		return "all-false"
	case AllTrue:
		return "all-true"
	default:
		return "mixed"
	}
}

// BulkState computes the tri-state of a boolean settings field over a
// selection.
func BulkState(boxes []*Box, get func(Settings) bool) TriState {
	if len(boxes) == 0 {
		return AllFalse
	}

	first := get(boxes[0].Settings)
	for _, b := range boxes[1:] {
		if get(b.Settings) != first {
			return Mixed
		}
	}
	if first {
		return AllTrue
	}
	return AllFalse
}

// ApplyBulk applies one settings patch to every box in the selection.
// Last-write-wins per box ID; nil patch fields leave per-box values alone.
func ApplyBulk(store *Store, ids []string, patch SettingsPatch) {
	for _, id := range ids {
		store.Update(id, Patch{Settings: &patch})
	}
}
