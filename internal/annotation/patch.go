package annotation

// NoChange is the dropdown sentinel used by bulk editing UIs. A select over a
// heterogeneous multi-selection submits this value instead of a blank, so
// bulk edits never clobber differing per-box values.
const NoChange = "(no change)"

// Patch is a partial box update. Nil fields are left untouched.
type Patch struct {
	X        *float64
	Y        *float64
	Width    *float64
	Height   *float64
	Settings *SettingsPatch
}

// SettingsPatch is a partial settings update. Nil fields are left untouched,
// which is how the three-valued bulk editing state and the NoChange sentinel
// are represented at this layer.
type SettingsPatch struct {
	MustMatchExactly        *bool
	PositionIsNotGuaranteed *bool
	UseVisionModel          *bool
	GuideWithText           *bool
	ExtractionGuided        *bool

	VisionModel      *string
	VisionTaskPrompt *string
	ChatModel        *string
	ChatTaskPrompt   *string
	ExtractionModel  *string
	ExtractionPrompt *string
	ComparisonModel  *string
	ComparisonPrompt *string
}

func (p *SettingsPatch) apply(s *Settings) {
	if p.MustMatchExactly != nil {
		s.MustMatchExactly = *p.MustMatchExactly
	}
	if p.PositionIsNotGuaranteed != nil {
		s.PositionIsNotGuaranteed = *p.PositionIsNotGuaranteed
	}
	if p.UseVisionModel != nil {
		s.UseVisionModel = *p.UseVisionModel
	}
	if p.GuideWithText != nil {
		s.GuideWithText = *p.GuideWithText
	}
	if p.ExtractionGuided != nil {
		s.ExtractionGuided = *p.ExtractionGuided
	}
	if p.VisionModel != nil {
		s.VisionModel = *p.VisionModel
	}
	if p.VisionTaskPrompt != nil {
		s.VisionTaskPrompt = *p.VisionTaskPrompt
	}
	if p.ChatModel != nil {
		s.ChatModel = *p.ChatModel
	}
	if p.ChatTaskPrompt != nil {
		s.ChatTaskPrompt = *p.ChatTaskPrompt
	}
	if p.ExtractionModel != nil {
		s.ExtractionModel = *p.ExtractionModel
	}
	if p.ExtractionPrompt != nil {
		s.ExtractionPrompt = *p.ExtractionPrompt
	}
	if p.ComparisonModel != nil {
		s.ComparisonModel = *p.ComparisonModel
	}
	if p.ComparisonPrompt != nil {
		s.ComparisonPrompt = *p.ComparisonPrompt
	}
}

// BoolChange wraps a bool for a patch field.
func BoolChange(v bool) *bool {
	return &v
}

// StringChange wraps a string for a patch field, mapping the NoChange
// sentinel to nil so heterogeneous dropdown values survive a bulk edit.
func StringChange(v string) *string {
	if v == NoChange {
		return nil
	}
	return &v
}
