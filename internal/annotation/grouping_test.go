package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = GroupDefaults{
	ChatModel:        "gpt-4o-mini",
	VisionModel:      "gpt-4o",
	TaskPrompt:       "Extract the content of this region.",
	ComparisonModel:  "gpt-4o-mini",
	ComparisonPrompt: "Judge whether the extracted values match.",
}

func groupingFixture(t *testing.T) (*Store, *GroupingEngine) {
	t.Helper()
	s := NewStore()
	s.Add(&Box{ID: "w1", Page: 1, Type: BoxTypeWord, X: 0, Y: 0, Width: 10, Height: 10,
		Settings: Settings{CanMatchExactly: true, MustMatchExactly: true}})
	s.Add(&Box{ID: "w2", Page: 1, Type: BoxTypeWord, X: 100, Y: 100, Width: 10, Height: 10,
		Settings: Settings{CanMatchExactly: true, MustMatchExactly: true}})
	s.Add(&Box{ID: "i1", Page: 1, Type: BoxTypeImage, X: 30, Y: 5, Width: 40, Height: 20,
		Settings: Settings{UseVisionModel: true}})
	s.Add(&Box{ID: "c1", Page: 1, Type: BoxTypeCustom, X: 200, Y: 200, Width: 20, Height: 20})
	s.Add(&Box{ID: "c2", Page: 1, Type: BoxTypeCustom, X: 250, Y: 250, Width: 20, Height: 20})
	return s, NewGroupingEngine(s, testDefaults)
}

func TestGroupingEngine_UnionBoundingBox(t *testing.T) {
	s, g := groupingFixture(t)

	group, err := g.Group([]string{"w1", "w2"})
	require.NoError(t, err)
	require.NotNil(t, group)

	assert.Equal(t, 0.0, group.X)
	assert.Equal(t, 0.0, group.Y)
	assert.Equal(t, 110.0, group.Width)
	assert.Equal(t, 110.0, group.Height)
	assert.Equal(t, BoxTypeCustom, group.Type)
	assert.Equal(t, 1, group.Page)

	assert.Nil(t, s.Get("w1"), "inputs are removed")
	assert.Nil(t, s.Get("w2"))
	assert.NotNil(t, s.Get(group.ID), "group replaces its inputs")
}

func TestGroupingEngine_Flags(t *testing.T) {
	tests := []struct {
		name          string
		ids           []string
		wantCanMatch  bool
		wantUseVision bool
	}{
		{"all words", []string{"w1", "w2"}, true, false},
		{"word and image", []string{"w1", "i1"}, true, true},
		{"all custom", []string{"c1", "c2"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, g := groupingFixture(t)
			group, err := g.Group(tt.ids)
			require.NoError(t, err)
			require.NotNil(t, group)

			assert.Equal(t, tt.wantCanMatch, group.Settings.CanMatchExactly)
			assert.Equal(t, tt.wantUseVision, group.Settings.UseVisionModel)
			assert.False(t, group.Settings.MustMatchExactly, "grouped boxes start with exact matching off")
		})
	}
}

func TestGroupingEngine_SeedsSessionDefaults(t *testing.T) {
	_, g := groupingFixture(t)

	group, err := g.Group([]string{"c1", "c2"})
	require.NoError(t, err)
	require.NotNil(t, group)

	assert.Equal(t, testDefaults.ChatModel, group.Settings.ChatModel)
	assert.Equal(t, testDefaults.VisionModel, group.Settings.VisionModel)
	assert.Equal(t, testDefaults.TaskPrompt, group.Settings.ChatTaskPrompt)
	assert.Equal(t, testDefaults.ComparisonModel, group.Settings.ComparisonModel)
}

func TestGroupingEngine_TooFewBoxes(t *testing.T) {
	s, g := groupingFixture(t)

	group, err := g.Group([]string{"w1"})
	assert.NoError(t, err)
	assert.Nil(t, group, "fewer than two boxes is a silent no-op")
	assert.NotNil(t, s.Get("w1"))

	group, err = g.Group(nil)
	assert.NoError(t, err)
	assert.Nil(t, group)

	// Unknown IDs shrink the effective selection below two.
	group, err = g.Group([]string{"w1", "missing"})
	assert.NoError(t, err)
	assert.Nil(t, group)
	assert.NotNil(t, s.Get("w1"))
}

func TestGroupingEngine_RejectsMixedTypes(t *testing.T) {
	s, g := groupingFixture(t)

	group, err := g.Group([]string{"w1", "c1"})
	assert.ErrorIs(t, err, ErrMixedBoxTypes)
	assert.Nil(t, group)

	assert.NotNil(t, s.Get("w1"), "a rejected group leaves the store untouched")
	assert.NotNil(t, s.Get("c1"))

	group, err = g.Group([]string{"i1", "c1"})
	assert.ErrorIs(t, err, ErrMixedBoxTypes)
	assert.Nil(t, group)
}

func TestGroupingEngine_GroupOfGroups(t *testing.T) {
	s, g := groupingFixture(t)

	first, err := g.Group([]string{"c1", "c2"})
	require.NoError(t, err)
	require.NotNil(t, first)

	s.Add(&Box{ID: "c3", Page: 1, Type: BoxTypeCustom, X: 300, Y: 300, Width: 20, Height: 20})

	second, err := g.Group([]string{first.ID, "c3"})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Nil(t, s.Get(first.ID))
	assert.Equal(t, 200.0, second.X)
	assert.Equal(t, 120.0, second.Width)
}
