package annotation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/annotation-engine/internal/geometry"
)

func TestAvailableFields_MustMatchExactly(t *testing.T) {
	b := &Box{Type: BoxTypeWord, Settings: Settings{CanMatchExactly: true, MustMatchExactly: true}}

	fields := AvailableFields(b)
	assert.True(t, fields.Has(FieldMustMatchExactly))
	assert.False(t, fields.Has(FieldUseVisionModel))
	assert.False(t, fields.Has(FieldChatModel))
	assert.False(t, fields.Has(FieldVisionModel))
	assert.False(t, fields.Has(FieldExtractionModel))
	assert.False(t, fields.Has(FieldPositionIsNotGuaranteed))
}

func TestAvailableFields_PositionNotGuaranteed(t *testing.T) {
	b := &Box{Type: BoxTypeCustom, Settings: Settings{PositionIsNotGuaranteed: true}}

	fields := AvailableFields(b)

	// Both stages are required simultaneously, not either-or.
	assert.True(t, fields.Has(FieldExtractionModel))
	assert.True(t, fields.Has(FieldExtractionPrompt))
	assert.True(t, fields.Has(FieldExtractionGuided))
	assert.True(t, fields.Has(FieldComparisonModel))
	assert.True(t, fields.Has(FieldComparisonPrompt))

	assert.False(t, fields.Has(FieldUseVisionModel))
	assert.False(t, fields.Has(FieldChatModel))
	assert.False(t, fields.Has(FieldVisionModel))
}

func TestAvailableFields_VisionChatToggle(t *testing.T) {
	vision := &Box{Type: BoxTypeImage, Settings: Settings{UseVisionModel: true}}
	fields := AvailableFields(vision)
	assert.True(t, fields.Has(FieldUseVisionModel))
	assert.True(t, fields.Has(FieldVisionModel))
	assert.True(t, fields.Has(FieldVisionTaskPrompt))
	assert.True(t, fields.Has(FieldGuideWithText))
	assert.False(t, fields.Has(FieldChatModel), "exactly one sub-configuration is active")

	chat := &Box{Type: BoxTypeCustom, Settings: Settings{UseVisionModel: false}}
	fields = AvailableFields(chat)
	assert.True(t, fields.Has(FieldChatModel))
	assert.True(t, fields.Has(FieldChatTaskPrompt))
	assert.False(t, fields.Has(FieldVisionModel))
}

func TestAvailableFields_MustMatchOnlyTogglableWhenCanMatch(t *testing.T) {
	cannot := &Box{Type: BoxTypeImage, Settings: Settings{CanMatchExactly: false}}
	assert.False(t, AvailableFields(cannot).Has(FieldMustMatchExactly))

	can := &Box{Type: BoxTypeWord, Settings: Settings{CanMatchExactly: true}}
	assert.True(t, AvailableFields(can).Has(FieldMustMatchExactly))
}

func TestClean_MustMatchDropsModelFields(t *testing.T) {
	b := &Box{Type: BoxTypeWord, Settings: Settings{
		CanMatchExactly:  true,
		MustMatchExactly: true,
		UseVisionModel:   true,
		VisionModel:      "gpt-4o",
		VisionTaskPrompt: "describe",
		ChatModel:        "gpt-4o-mini",
	}}

	cleaned := Clean(b)
	assert.True(t, cleaned.MustMatchExactly)
	assert.Nil(t, cleaned.UseVisionModel)
	assert.Empty(t, cleaned.VisionModel)
	assert.Empty(t, cleaned.ChatModel)

	// The serialized form carries no model configuration either.
	data, err := json.Marshal(cleaned)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "visionModel")
	assert.NotContains(t, string(data), "chatModel")
	assert.NotContains(t, string(data), "useVisionModel")
}

func TestClean_VisionMode(t *testing.T) {
	b := &Box{Type: BoxTypeImage, Settings: Settings{
		UseVisionModel:   true,
		VisionModel:      "gpt-4o",
		VisionTaskPrompt: "compare the stamp",
		GuideWithText:    true,
		ChatModel:        "gpt-4o-mini",
		ChatTaskPrompt:   "stale",
	}}

	cleaned := Clean(b)
	require.NotNil(t, cleaned.UseVisionModel)
	assert.True(t, *cleaned.UseVisionModel)
	assert.Equal(t, "gpt-4o", cleaned.VisionModel)
	require.NotNil(t, cleaned.GuideWithText)
	assert.True(t, *cleaned.GuideWithText)
	assert.Empty(t, cleaned.ChatModel, "inactive sub-configuration is dropped")
}

func TestClean_PositionNotGuaranteedKeepsBothStages(t *testing.T) {
	b := &Box{Type: BoxTypeCustom, Settings: Settings{
		PositionIsNotGuaranteed: true,
		ExtractionModel:         "gpt-4o-mini",
		ExtractionPrompt:        "find the serial number",
		ExtractionGuided:        true,
		ComparisonModel:         "gpt-4o",
		ComparisonPrompt:        "same serial number?",
		ChatModel:               "stale",
	}}

	cleaned := Clean(b)
	assert.Equal(t, "gpt-4o-mini", cleaned.ExtractionModel)
	assert.Equal(t, "gpt-4o", cleaned.ComparisonModel)
	assert.Empty(t, cleaned.ChatModel)
	assert.Nil(t, cleaned.UseVisionModel)
}

func TestBulkState(t *testing.T) {
	boxes := []*Box{
		{Settings: Settings{PositionIsNotGuaranteed: true}},
		{Settings: Settings{PositionIsNotGuaranteed: true}},
		{Settings: Settings{PositionIsNotGuaranteed: false}},
	}

	get := func(s Settings) bool { return s.PositionIsNotGuaranteed }

	assert.Equal(t, Mixed, BulkState(boxes, get))
	assert.Equal(t, AllTrue, BulkState(boxes[:2], get))
	assert.Equal(t, AllFalse, BulkState(boxes[2:], get))
	assert.Equal(t, AllFalse, BulkState(nil, get))

	assert.Equal(t, "mixed", Mixed.String())
}

func TestStringChange_NoChangeSentinel(t *testing.T) {
	assert.Nil(t, StringChange(NoChange))

	v := StringChange("gpt-4o")
	require.NotNil(t, v)
	assert.Equal(t, "gpt-4o", *v)
}

func TestApplyBulk(t *testing.T) {
	s := NewStore()
	s.Add(&Box{ID: "a", Page: 1, Type: BoxTypeCustom, X: 0, Y: 0, Width: 20, Height: 20,
		Settings: Settings{ChatModel: "gpt-4o"}})
	s.Add(&Box{ID: "b", Page: 1, Type: BoxTypeCustom, X: 30, Y: 0, Width: 20, Height: 20,
		Settings: Settings{ChatModel: "gpt-4o-mini"}})

	// A heterogeneous dropdown submits the sentinel: models survive.
	ApplyBulk(s, []string{"a", "b"}, SettingsPatch{
		UseVisionModel: BoolChange(true),
		ChatModel:      StringChange(NoChange),
	})

	assert.True(t, s.Get("a").Settings.UseVisionModel)
	assert.True(t, s.Get("b").Settings.UseVisionModel)
	assert.Equal(t, "gpt-4o", s.Get("a").Settings.ChatModel)
	assert.Equal(t, "gpt-4o-mini", s.Get("b").Settings.ChatModel)

	// An explicit choice overwrites everywhere.
	ApplyBulk(s, []string{"a", "b"}, SettingsPatch{ChatModel: StringChange("gpt-4o")})
	assert.Equal(t, "gpt-4o", s.Get("b").Settings.ChatModel)
}

func TestInvariant_MustMatchImpliesCanMatch_EveryMutationStep(t *testing.T) {
	s := NewStore()
	b := NewCustomBox(1, geometry.Rect{X: 0, Y: 0, Width: 20, Height: 20}, Settings{CanMatchExactly: true})
	s.Add(b)

	s.Update(b.ID, Patch{Settings: &SettingsPatch{MustMatchExactly: BoolChange(true)}})
	got := s.Get(b.ID)
	assert.True(t, got.Settings.MustMatchExactly)

	// Any write that leaves the box unable to match exactly also clears
	// the must-match flag in the same mutation, never later.
	s.ReplaceAll([]*Box{{ID: "x", Page: 1, Type: BoxTypeCustom, X: 0, Y: 0, Width: 20, Height: 20,
		Settings: Settings{CanMatchExactly: false, MustMatchExactly: true}}})
	got = s.Get("x")
	assert.False(t, got.Settings.MustMatchExactly)
	assert.False(t, got.Settings.CanMatchExactly)
}
