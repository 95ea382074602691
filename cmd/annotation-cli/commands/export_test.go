package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spherical-ai/annotation-engine/internal/annotation"
)

func TestRegionCallCount(t *testing.T) {
	boxes := []*annotation.Box{
		// Exact-match box: no region calls.
		{ID: "word-1-0", Page: 1, Type: annotation.BoxTypeWord, X: 0, Y: 0, Width: 20, Height: 20,
			Settings: annotation.Settings{CanMatchExactly: true, MustMatchExactly: true}},
		// Vision box with guide text: one text call plus one image call.
		{ID: "image-1-0", Page: 1, Type: annotation.BoxTypeImage, X: 0, Y: 0, Width: 20, Height: 20,
			Settings: annotation.Settings{UseVisionModel: true, GuideWithText: true}},
		// Chat box: no region calls.
		{ID: "custom-1", Page: 1, Type: annotation.BoxTypeCustom, X: 0, Y: 0, Width: 20, Height: 20,
			Settings: annotation.Settings{ChatModel: "gpt-4o-mini"}},
		// Relocated box guided by extracted text: one text call.
		{ID: "custom-2", Page: 1, Type: annotation.BoxTypeCustom, X: 0, Y: 0, Width: 20, Height: 20,
			Settings: annotation.Settings{PositionIsNotGuaranteed: true, ExtractionGuided: true}},
	}

	assert.Equal(t, int64(3), regionCallCount(boxes))
	assert.Equal(t, int64(0), regionCallCount(nil))
	assert.Equal(t, int64(0), regionCallCount(boxes[:1]),
		"an all-exact-match export makes no region calls")
}
