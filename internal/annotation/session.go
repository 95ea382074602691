package annotation

import "github.com/spherical-ai/annotation-engine/internal/config"

// GroupDefaultsFrom maps the configured session-level export defaults into
// the values seeded into grouped boxes.
func GroupDefaultsFrom(cfg config.ExportConfig) GroupDefaults {
	return GroupDefaults{
		ChatModel:        cfg.DefaultChatModel,
		VisionModel:      cfg.DefaultVisionModel,
		TaskPrompt:       cfg.DefaultTaskPrompt,
		ComparisonModel:  cfg.DefaultCompareModel,
		ComparisonPrompt: cfg.DefaultComparePrompt,
	}
}

// DrawDefaults returns the settings seeded into a freshly drawn custom box.
// Only the model and prompt fields come from configuration; the matching
// flags start unset, since a drawn region has no extraction-derived text.
func DrawDefaults(cfg config.ExportConfig) Settings {
	return Settings{
		ChatModel:        cfg.DefaultChatModel,
		ChatTaskPrompt:   cfg.DefaultTaskPrompt,
		VisionModel:      cfg.DefaultVisionModel,
		VisionTaskPrompt: cfg.DefaultTaskPrompt,
	}
}

// Session wires the engines for one document editing session from
// configuration: the store, spatial selection, the gesture controller with
// the configured zoom and minimum box size, and grouping with the session
// defaults.
type Session struct {
	Store      *Store
	Selection  *SelectionEngine
	Controller *Controller
	Grouping   *GroupingEngine

	drawDefaults Settings
}

// NewSession creates a session over an empty store.
func NewSession(cfg *config.Config) *Session {
	store := NewStore()

	ctrl := NewController(store)
	ctrl.SetZoom(cfg.Interaction.DefaultZoom)
	if cfg.Interaction.MinBoxSize > 0 {
		ctrl.minSize = cfg.Interaction.MinBoxSize
	}

	return &Session{
		Store:        store,
		Selection:    NewSelectionEngine(store),
		Controller:   ctrl,
		Grouping:     NewGroupingEngine(store, GroupDefaultsFrom(cfg.Export)),
		drawDefaults: DrawDefaults(cfg.Export),
	}
}

// EndGesture finishes the active gesture. A completed draw gesture returns
// the new custom box, seeded with the session's default settings.
func (s *Session) EndGesture(pointerX, pointerY float64) *Box {
	return s.Controller.End(pointerX, pointerY, s.drawDefaults)
}
