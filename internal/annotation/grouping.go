package annotation

import "errors"

// ErrMixedBoxTypes rejects a group mixing user-created boxes with
// extraction-derived ones. Word and image boxes may be grouped together; a
// custom box only groups with other custom boxes.
var ErrMixedBoxTypes = errors.New("cannot combine different box types")

// GroupDefaults are the session-level model and prompt defaults seeded into
// a freshly grouped box.
type GroupDefaults struct {
	ChatModel        string
	VisionModel      string
	TaskPrompt       string
	ComparisonModel  string
	ComparisonPrompt string
}

// GroupingEngine merges a multi-selection into one derived custom box.
type GroupingEngine struct {
	store    *Store
	defaults GroupDefaults
}

// NewGroupingEngine creates a grouping engine over the given store.
func NewGroupingEngine(store *Store, defaults GroupDefaults) *GroupingEngine {
	return &GroupingEngine{store: store, defaults: defaults}
}

// Group merges the selected boxes into a new custom box covering their union
// bounding box and atomically replaces them in the store. Fewer than two
// boxes is a silent no-op. The grouped box can match exactly iff at least
// one input is a word box, and defaults to the vision model iff at least one
// input is an image box.
func (g *GroupingEngine) Group(ids []string) (*Box, error) {
	if len(ids) < 2 {
		return nil, nil
	}

	boxes := make([]*Box, 0, len(ids))
	for _, id := range ids {
		if b := g.store.Get(id); b != nil {
			boxes = append(boxes, b)
		}
	}
	if len(boxes) < 2 {
		return nil, nil
	}

	hasCustom := false
	hasExtracted := false
	for _, b := range boxes {
		if b.Type == BoxTypeCustom {
			hasCustom = true
		} else {
			hasExtracted = true
		}
	}
	if hasCustom && hasExtracted {
		return nil, ErrMixedBoxTypes
	}

	bounds := boxes[0].Rect()
	anyWord := false
	anyImage := false
	for _, b := range boxes {
		bounds = bounds.Union(b.Rect())
		if b.Type == BoxTypeWord {
			anyWord = true
		}
		if b.Type == BoxTypeImage {
			anyImage = true
		}
	}

	group := &Box{
		ID:   NewCustomBoxID(),
		Page: boxes[0].Page,
		Type: BoxTypeCustom,
		Settings: Settings{
			CanMatchExactly:  anyWord,
			MustMatchExactly: false,
			UseVisionModel:   anyImage,
			ChatModel:        g.defaults.ChatModel,
			ChatTaskPrompt:   g.defaults.TaskPrompt,
			VisionModel:      g.defaults.VisionModel,
			VisionTaskPrompt: g.defaults.TaskPrompt,
			ExtractionModel:  g.defaults.ChatModel,
			ExtractionPrompt: g.defaults.TaskPrompt,
			ComparisonModel:  g.defaults.ComparisonModel,
			ComparisonPrompt: g.defaults.ComparisonPrompt,
		},
	}
	group.SetRect(bounds)

	inputIDs := make([]string, len(boxes))
	for i, b := range boxes {
		inputIDs[i] = b.ID
	}
	g.store.ReplaceGroup(inputIDs, group)

	return g.store.Get(group.ID), nil
}
