package scene

import (
	"strings"

	"storybuilder/internal/domain"
)

// FallbackStructure builds a minimal usable scene from raw script text when
// no chat model is configured. It is deliberately generic; the first script
// line becomes the title so different inputs stay distinguishable.
func FallbackStructure(scriptText string) *domain.Scene {
	title := "Draft Scene"
	if line := firstLine(scriptText); line != "" {
		title = line
	}
	return &domain.Scene{
		Title:    title,
		Logline:  "Structure derived without a language model.",
		ArtStyle: "friendly 2D animation, cel-shaded, cartoon",
		Background: domain.Background{
			Description: "Interior set",
			TimeOfDay:   "Day",
			Location:    "Studio",
		},
		Characters: []domain.Character{
			{Name: "Alex", Description: "Protagonist", ImagePrompt: "Alex portrait"},
		},
		Beats: []domain.Beat{
			{Order: 1, Description: "Establish setting and mood."},
			{Order: 2, Description: "Introduce main characters."},
			{Order: 3, Description: "Set the conflict and desired outcome."},
		},
	}
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
